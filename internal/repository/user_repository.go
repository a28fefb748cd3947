package repository

import (
	"context"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// UserRepository handles persistence for workspace members.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// ListActiveStaff returns active agents and admins for a workspace in
	// creation order. The stable ordering is what makes reassignment
	// tie-breaking deterministic.
	ListActiveStaff(ctx context.Context, workspaceID string) ([]domain.User, error)
}

type userRepository struct {
	db DBTX
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (workspace_id, email, full_name, role, is_active)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		user.WorkspaceID,
		user.Email,
		user.FullName,
		user.Role,
		user.Active,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        SELECT id, workspace_id, email, full_name, role, is_active, created_at, updated_at
        FROM users WHERE id=$1`
	var user domain.User
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.WorkspaceID,
		&user.Email,
		&user.FullName,
		&user.Role,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ListActiveStaff(ctx context.Context, workspaceID string) ([]domain.User, error) {
	const query = `
        SELECT id, workspace_id, email, full_name, role, is_active, created_at, updated_at
        FROM users
        WHERE workspace_id=$1 AND is_active=TRUE AND role IN ('AGENT','ADMIN')
        ORDER BY created_at, id`
	rows, err := r.db.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.WorkspaceID,
			&user.Email,
			&user.FullName,
			&user.Role,
			&user.Active,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}
