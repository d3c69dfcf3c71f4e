package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// UserInfo is the read model returned for connected-user listings.
type UserInfo struct {
	ID    string `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email"`
	Role  string `db:"role" json:"role"`
}

// UserInTenant reports whether the user belongs to the tenant.
func (s *Storage) UserInTenant(ctx context.Context, userID, tenantID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND tenant_id = $2)`,
		userID, tenantID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to check user tenant: %w", err)
	}
	return exists, nil
}

// CustomerInTenant reports whether the customer belongs to the tenant.
func (s *Storage) CustomerInTenant(ctx context.Context, customerID, tenantID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1 AND tenant_id = $2)`,
		customerID, tenantID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to check customer tenant: %w", err)
	}
	return exists, nil
}

// TeamMemberInTenant reports whether the team member belongs to the
// tenant.
func (s *Storage) TeamMemberInTenant(ctx context.Context, teamMemberID, tenantID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM team_members WHERE id = $1 AND tenant_id = $2)`,
		teamMemberID, tenantID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to check team member tenant: %w", err)
	}
	return exists, nil
}

// ChatSessionInTenant reports whether the chat session belongs to the
// tenant. Used by the realtime hub for room authorization.
func (s *Storage) ChatSessionInTenant(ctx context.Context, sessionID, tenantID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM chat_sessions WHERE id = $1 AND tenant_id = $2)`,
		sessionID, tenantID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to check chat session tenant: %w", err)
	}
	return exists, nil
}

// UserIDsByRoles returns the ids of tenant users holding any of the
// given roles. Used for owner/admin notification fan-out.
func (s *Storage) UserIDsByRoles(ctx context.Context, tenantID string, roles []string) ([]string, error) {
	query := `SELECT id FROM users WHERE tenant_id = $1 AND role = ANY($2)`

	var userIDs []string
	if err := s.db.SelectContext(ctx, &userIDs, query, tenantID, pq.Array(roles)); err != nil {
		return nil, fmt.Errorf("failed to get users by role: %w", err)
	}

	return userIDs, nil
}

// UsersByIDs returns user details for the given ids within the tenant.
func (s *Storage) UsersByIDs(ctx context.Context, tenantID string, userIDs []string) ([]UserInfo, error) {
	if len(userIDs) == 0 {
		return []UserInfo{}, nil
	}

	query, args, err := sqlx.In(
		`SELECT id, name, email, role FROM users WHERE tenant_id = ? AND id IN (?)`,
		tenantID, userIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build users query: %w", err)
	}
	query = s.db.Rebind(query)

	var users []UserInfo
	if err := s.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	return users, nil
}
