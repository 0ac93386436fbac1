package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/taskhub-io/taskhub/internal/models"
)

const projectColumns = "id, user_id, name, description, due_date, created_at, updated_at"

// ListProjects returns the projects owned by ownerID in creation order
func (s *Store) ListProjects(ctx context.Context, ownerID string) ([]models.Project, error) {
	projects := []models.Project{}
	query := s.db.Rebind("SELECT " + projectColumns + " FROM projects WHERE user_id = ? ORDER BY created_at, id")
	if err := s.db.SelectContext(ctx, &projects, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// CreateProject inserts p on behalf of ownerID
func (s *Store) CreateProject(ctx context.Context, ownerID string, p *models.Project) error {
	p.UserID = ownerID
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := tx.Rebind(`INSERT INTO projects (id, user_id, name, description, due_date, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if _, err := tx.ExecContext(ctx, query,
			p.ID, p.UserID, p.Name, p.Description, p.DueDate, p.CreatedAt, p.UpdatedAt); err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}
		return nil
	})
}

// GetProject returns a project owned by ownerID or ErrNotFound
func (s *Store) GetProject(ctx context.Context, ownerID, id string) (*models.Project, error) {
	return getProject(ctx, s.db, ownerID, id)
}

func getProject(ctx context.Context, q queryer, ownerID, id string) (*models.Project, error) {
	var p models.Project
	query := q.Rebind("SELECT " + projectColumns + " FROM projects WHERE id = ? AND user_id = ?")
	if err := sqlx.GetContext(ctx, q, &p, query, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &p, nil
}

// UpdateProject overwrites every mutable field of p. CreatedAt is reloaded
// from the stored row.
func (s *Store) UpdateProject(ctx context.Context, ownerID string, p *models.Project) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		existing, err := getProject(ctx, tx, ownerID, p.ID)
		if err != nil {
			return err
		}

		query := tx.Rebind(`UPDATE projects SET name = ?, description = ?, due_date = ?, updated_at = ?
			WHERE id = ? AND user_id = ?`)
		res, err := tx.ExecContext(ctx, query,
			p.Name, p.Description, p.DueDate, p.UpdatedAt, p.ID, ownerID)
		if err != nil {
			return fmt.Errorf("failed to update project: %w", err)
		}
		if err := rowsAffected(res); err != nil {
			return err
		}

		p.UserID = ownerID
		p.CreatedAt = existing.CreatedAt
		return nil
	})
}

// DeleteProject removes a project and, through the foreign key, its tasks
func (s *Store) DeleteProject(ctx context.Context, ownerID, id string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM projects WHERE id = ? AND user_id = ?"), id, ownerID)
		if err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}
		return rowsAffected(res)
	})
}

// CountProjects returns how many projects ownerID has
func (s *Store) CountProjects(ctx context.Context, ownerID string) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, s.db.Rebind("SELECT COUNT(*) FROM projects WHERE user_id = ?"), ownerID); err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return n, nil
}
