package repository

import (
	"context"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// WorkspaceRepository handles persistence for workspaces.
type WorkspaceRepository interface {
	Create(ctx context.Context, ws *domain.Workspace) error
	GetByID(ctx context.Context, id string) (*domain.Workspace, error)
	List(ctx context.Context) ([]domain.Workspace, error)
}

type workspaceRepository struct {
	db DBTX
}

func (r *workspaceRepository) Create(ctx context.Context, ws *domain.Workspace) error {
	const query = `
        INSERT INTO workspaces (name, slug)
        VALUES ($1,$2)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query, ws.Name, ws.Slug).
		Scan(&ws.ID, &ws.CreatedAt, &ws.UpdatedAt)
}

func (r *workspaceRepository) GetByID(ctx context.Context, id string) (*domain.Workspace, error) {
	const query = `
        SELECT id, name, slug, created_at, updated_at
        FROM workspaces WHERE id=$1`
	var ws domain.Workspace
	if err := r.db.QueryRow(ctx, query, id).
		Scan(&ws.ID, &ws.Name, &ws.Slug, &ws.CreatedAt, &ws.UpdatedAt); err != nil {
		return nil, err
	}
	return &ws, nil
}

func (r *workspaceRepository) List(ctx context.Context) ([]domain.Workspace, error) {
	const query = `
        SELECT id, name, slug, created_at, updated_at
        FROM workspaces ORDER BY created_at`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Workspace
	for rows.Next() {
		var ws domain.Workspace
		if err := rows.Scan(&ws.ID, &ws.Name, &ws.Slug, &ws.CreatedAt, &ws.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, ws)
	}
	return result, rows.Err()
}
