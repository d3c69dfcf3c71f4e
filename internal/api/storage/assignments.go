package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/TekupDK/tekup-sub000/internal/domain"
)

// AssignmentInput is one entry of a full assignment replacement.
type AssignmentInput struct {
	TeamMemberID string
	Role         string
}

// ReplaceAssignments atomically replaces the assignment set of a job:
// delete-then-insert in one transaction, never a partial patch. Passing
// the same set twice yields the same rows, not duplicates.
func (s *Storage) ReplaceAssignments(ctx context.Context, jobID string, assignments []AssignmentInput) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM job_assignments WHERE job_id = $1`, jobID); err != nil {
		return fmt.Errorf("failed to clear assignments: %w", err)
	}

	for _, a := range assignments {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO job_assignments (id, job_id, team_member_id, role) VALUES ($1, $2, $3, $4)`,
			uuid.New().String(), jobID, a.TeamMemberID, a.Role,
		)
		if err != nil {
			return fmt.Errorf("failed to insert assignment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit assignments: %w", err)
	}

	return nil
}

// GetAssignments returns a job's assignments with member details
// attached.
func (s *Storage) GetAssignments(ctx context.Context, jobID string) ([]domain.JobAssignment, error) {
	query := `
		SELECT a.id, a.job_id, a.team_member_id, a.role,
		       u.name AS member_name, u.email AS member_email
		FROM job_assignments a
		JOIN team_members tm ON tm.id = a.team_member_id
		JOIN users u ON u.id = tm.user_id
		WHERE a.job_id = $1
		ORDER BY a.id
	`

	var assignments []domain.JobAssignment
	if err := s.db.SelectContext(ctx, &assignments, query, jobID); err != nil {
		return nil, fmt.Errorf("failed to get assignments: %w", err)
	}

	return assignments, nil
}

// AssignedUserIDs returns the user ids behind a job's assigned team
// members, for notification fan-out.
func (s *Storage) AssignedUserIDs(ctx context.Context, jobID string) ([]string, error) {
	query := `
		SELECT tm.user_id
		FROM job_assignments a
		JOIN team_members tm ON tm.id = a.team_member_id
		WHERE a.job_id = $1
	`

	var userIDs []string
	if err := s.db.SelectContext(ctx, &userIDs, query, jobID); err != nil {
		return nil, fmt.Errorf("failed to get assigned user ids: %w", err)
	}

	return userIDs, nil
}
