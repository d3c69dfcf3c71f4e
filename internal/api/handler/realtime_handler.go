package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/TekupDK/tekup-sub000/internal/api/dto"
	"github.com/TekupDK/tekup-sub000/internal/api/storage"
	"github.com/TekupDK/tekup-sub000/internal/auth"
	"github.com/TekupDK/tekup-sub000/internal/realtime"
)

// RealtimeHandler owns the WebSocket endpoint and the HTTP surface over
// the hub (presence queries, server-initiated broadcasts).
type RealtimeHandler struct {
	logger   *slog.Logger
	verifier auth.Verifier
	hub      *realtime.Hub
	store    *storage.Storage
	upgrader websocket.Upgrader
}

// NewRealtimeHandler creates a new RealtimeHandler instance
func NewRealtimeHandler(deps *Dependencies) *RealtimeHandler {
	return &RealtimeHandler{
		logger:   deps.Logger,
		verifier: deps.Verifier,
		hub:      deps.Hub,
		store:    deps.Store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect from arbitrary origins; the
			// bearer token is the trust anchor, not the Origin header.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Connect handles GET /api/v1/realtime/ws.
//
// The credential is verified before the protocol upgrade: a missing or
// invalid token yields a plain 401 and the socket never opens, so an
// unauthenticated peer cannot observe any hub traffic.
func (h *RealtimeHandler) Connect(c *gin.Context) {
	token := bearerToken(c)

	identity, err := h.verifier.Verify(c.Request.Context(), token)
	if err != nil {
		h.logger.Warn("Rejected websocket handshake",
			slog.String("ip", c.ClientIP()),
		)
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	sock, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade writes its own HTTP error response.
		h.logger.Error("Failed to upgrade websocket", slog.String("error", err.Error()))
		return
	}

	conn := realtime.NewConnection(
		uuid.New().String(),
		identity.UserID,
		identity.TenantID,
		identity.Role,
		sock,
		h.hub.Config().SendBufferSize,
	)

	h.hub.Register(conn)
	h.hub.Start(conn)
}

// OnlineUsers handles GET /api/v1/realtime/online-users
func (h *RealtimeHandler) OnlineUsers(c *gin.Context) {
	identity := IdentityFrom(c)

	users := h.hub.OnlineUsers(identity.TenantID)
	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"count": len(users),
	})
}

// UserOnline handles GET /api/v1/realtime/users/:user_id/online
func (h *RealtimeHandler) UserOnline(c *gin.Context) {
	userID := c.Param("user_id")
	if _, err := uuid.Parse(userID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "user_id must be a valid UUID",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"online":  h.hub.IsUserOnline(userID),
	})
}

// Broadcast handles POST /api/v1/realtime/broadcast. Owners and admins
// push server-initiated events to a user, a role or the whole tenant.
func (h *RealtimeHandler) Broadcast(c *gin.Context) {
	identity := IdentityFrom(c)

	if identity.Role != auth.RoleOwner && identity.Role != auth.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Insufficient permissions",
		})
		return
	}

	var req dto.BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	switch {
	case req.UserID != "":
		// The target must belong to the caller's tenant; user ids are
		// global, so an unchecked id would cross the tenant boundary.
		ok, err := h.store.UserInTenant(c.Request.Context(), req.UserID, identity.TenantID)
		if err != nil {
			h.logger.Error("Failed to check broadcast target", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
			})
			return
		}
		h.hub.ToUser(req.UserID, req.Event, req.Payload)
	case req.Role != "":
		h.hub.ToRole(identity.TenantID, req.Role, req.Event, req.Payload)
	case req.Tenant:
		h.hub.ToTenant(identity.TenantID, req.Event, req.Payload)
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "One of user_id, role or tenant must be set",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"delivered": true})
}

// bearerToken extracts the credential from the Authorization header,
// falling back to the token query parameter for websocket clients that
// cannot set headers.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}
