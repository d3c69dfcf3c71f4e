package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TekupDK/tekup-sub000/internal/api/storage"
	"github.com/TekupDK/tekup-sub000/internal/auth"
	"github.com/TekupDK/tekup-sub000/internal/domain"
	"github.com/TekupDK/tekup-sub000/internal/realtime"
)

type fakeVerifier struct {
	identity auth.Identity
	err      error
}

func (v *fakeVerifier) Verify(_ context.Context, token string) (auth.Identity, error) {
	if token == "" || v.err != nil {
		return auth.Identity{}, domain.ErrUnauthorized
	}
	return v.identity, nil
}

func newRealtimeTestHandler(verifier auth.Verifier, store *storage.Storage) (*RealtimeHandler, *realtime.Hub) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := realtime.NewHub(realtime.NewMemoryRegistry(), nil, logger, realtime.HubConfig{})

	h := NewRealtimeHandler(&Dependencies{
		Logger:   logger,
		Verifier: verifier,
		Hub:      hub,
		Store:    store,
	})
	return h, hub
}

func TestRealtimeHandler_Connect_RejectsBadToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		target  string
		headers map[string]string
	}{
		{
			name:   "no credential at all",
			target: "/api/v1/realtime/ws",
		},
		{
			name:    "malformed authorization header",
			target:  "/api/v1/realtime/ws",
			headers: map[string]string{"Authorization": "Token abc"},
		},
		{
			name:   "unknown token in query",
			target: "/api/v1/realtime/ws?token=",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, hub := newRealtimeTestHandler(&fakeVerifier{}, nil)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, tt.target, nil)
			for k, v := range tt.headers {
				c.Request.Header.Set(k, v)
			}

			h.Connect(c)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Empty(t, hub.OnlineUsers("tenant-1"))
		})
	}
}

func TestRealtimeHandler_Connect_ValidTokenWithoutUpgrade(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h, hub := newRealtimeTestHandler(&fakeVerifier{
		identity: auth.Identity{UserID: "user-1", TenantID: "tenant-1", Role: auth.RoleEmployee},
	}, nil)

	// A plain HTTP request with a valid token fails the websocket
	// handshake; no connection may be registered.
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/realtime/ws", nil)
	c.Request.Header.Set("Authorization", "Bearer valid-token")

	h.Connect(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, hub.IsUserOnline("user-1"))
}

func TestRealtimeHandler_Broadcast_Permissions(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		role     string
		body     string
		wantCode int
	}{
		{
			name:     "employee is forbidden",
			role:     auth.RoleEmployee,
			body:     `{"event":"maintenance:notice","tenant":true}`,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "owner broadcasts to tenant",
			role:     auth.RoleOwner,
			body:     `{"event":"maintenance:notice","tenant":true}`,
			wantCode: http.StatusOK,
		},
		{
			name:     "admin broadcasts to role",
			role:     auth.RoleAdmin,
			body:     `{"event":"shift:reminder","role":"employee"}`,
			wantCode: http.StatusOK,
		},
		{
			name:     "missing target",
			role:     auth.RoleOwner,
			body:     `{"event":"maintenance:notice"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing event",
			role:     auth.RoleOwner,
			body:     `{"tenant":true}`,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newRealtimeTestHandler(&fakeVerifier{}, nil)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/realtime/broadcast",
				strings.NewReader(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")
			c.Set(IdentityKey, auth.Identity{UserID: "user-1", TenantID: "tenant-1", Role: tt.role})

			h.Broadcast(c)

			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestRealtimeHandler_Broadcast_UserTargetTenantCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		userExists bool
		wantCode   int
	}{
		{
			name:       "target in caller's tenant",
			userExists: true,
			wantCode:   http.StatusOK,
		},
		{
			name:       "target in another tenant",
			userExists: false,
			wantCode:   http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			store := storage.NewStorageWithDB(sqlx.NewDb(db, "sqlmock"), logger)
			h, _ := newRealtimeTestHandler(&fakeVerifier{}, store)

			mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM users`).
				WithArgs("target-1", "tenant-1").
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(tt.userExists))

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/realtime/broadcast",
				strings.NewReader(`{"event":"shift:reminder","user_id":"target-1"}`))
			c.Request.Header.Set("Content-Type", "application/json")
			c.Set(IdentityKey, auth.Identity{UserID: "user-1", TenantID: "tenant-1", Role: auth.RoleOwner})

			h.Broadcast(c)

			assert.Equal(t, tt.wantCode, w.Code)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		target string
		header string
		want   string
	}{
		{
			name:   "from authorization header",
			target: "/api/v1/realtime/ws",
			header: "Bearer abc123",
			want:   "abc123",
		},
		{
			name:   "from query parameter",
			target: "/api/v1/realtime/ws?token=xyz789",
			want:   "xyz789",
		},
		{
			name:   "header wins over query",
			target: "/api/v1/realtime/ws?token=xyz789",
			header: "Bearer abc123",
			want:   "abc123",
		},
		{
			name:   "missing everywhere",
			target: "/api/v1/realtime/ws",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				c.Request.Header.Set("Authorization", tt.header)
			}

			got := bearerToken(c)

			require.Equal(t, tt.want, got)
		})
	}
}
