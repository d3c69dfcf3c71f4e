package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/TekupDK/tekup-sub000/internal/domain"
)

// User roles within a tenant.
const (
	RoleOwner    = "owner"
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
	RoleCustomer = "customer"
)

// Identity is the verified principal behind a bearer token.
type Identity struct {
	UserID   string
	TenantID string
	Role     string
}

// Verifier validates a bearer credential. Token issuance is owned by an
// external auth service; this core only verifies.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// TokenVerifier resolves opaque bearer tokens against the api_tokens
// table. Expired or unknown tokens verify as unauthorized.
type TokenVerifier struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewTokenVerifier creates a TokenVerifier backed by the given database.
func NewTokenVerifier(db *sqlx.DB, logger *slog.Logger) *TokenVerifier {
	return &TokenVerifier{db: db, logger: logger}
}

// Verify implements Verifier.
func (v *TokenVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, domain.ErrUnauthorized
	}

	query := `
		SELECT u.id, u.tenant_id, u.role
		FROM api_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token = $1
		  AND (t.expires_at IS NULL OR t.expires_at > $2)
	`

	var identity Identity
	err := v.db.QueryRowContext(ctx, query, token, time.Now()).Scan(
		&identity.UserID,
		&identity.TenantID,
		&identity.Role,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Identity{}, domain.ErrUnauthorized
		}
		v.logger.Error("Failed to verify token",
			slog.Any("error", err),
		)
		return Identity{}, fmt.Errorf("failed to verify token: %w", err)
	}

	return identity, nil
}
