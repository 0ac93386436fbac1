package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/taskhub-io/taskhub/internal/models"
	"github.com/taskhub-io/taskhub/internal/validator"
)

const taskColumns = "id, user_id, project_id, title, description, status, due_date, created_at, updated_at"

// TaskFilter narrows ListTasks. Zero values match everything.
type TaskFilter struct {
	ProjectID string
	Status    *models.TaskStatus

	// WithProject attaches each task's parent project
	WithProject bool
}

// ListTasks returns the tasks owned by ownerID in creation order
func (s *Store) ListTasks(ctx context.Context, ownerID string, filter TaskFilter) ([]models.Task, error) {
	where := []string{"user_id = ?"}
	args := []any{ownerID}
	if filter.ProjectID != "" {
		where = append(where, "project_id = ?")
		args = append(args, filter.ProjectID)
	}
	if filter.Status != nil {
		where = append(where, "status = ?")
		args = append(args, *filter.Status)
	}

	tasks := []models.Task{}
	query := s.db.Rebind("SELECT " + taskColumns + " FROM tasks WHERE " +
		strings.Join(where, " AND ") + " ORDER BY created_at, id")
	if err := s.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	if filter.WithProject && len(tasks) > 0 {
		if err := s.attachProjects(ctx, ownerID, filter.ProjectID, tasks); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

// attachProjects loads the owner's projects referenced by tasks and sets
// Task.Project on each
func (s *Store) attachProjects(ctx context.Context, ownerID, projectID string, tasks []models.Task) error {
	query := "SELECT " + projectColumns + " FROM projects WHERE user_id = ?"
	args := []any{ownerID}
	if projectID != "" {
		query += " AND id = ?"
		args = append(args, projectID)
	}

	var projects []models.Project
	if err := s.db.SelectContext(ctx, &projects, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to load task projects: %w", err)
	}

	byID := make(map[string]*models.Project, len(projects))
	for i := range projects {
		byID[projects[i].ID] = &projects[i]
	}
	for i := range tasks {
		tasks[i].Project = byID[tasks[i].ProjectID]
	}
	return nil
}

// checkProjectOwner fails with a project_id field error unless the project
// exists and belongs to ownerID
func checkProjectOwner(ctx context.Context, tx *sqlx.Tx, ownerID, projectID string) error {
	var n int
	query := tx.Rebind("SELECT COUNT(*) FROM projects WHERE id = ? AND user_id = ?")
	if err := tx.GetContext(ctx, &n, query, projectID, ownerID); err != nil {
		return fmt.Errorf("failed to check project: %w", err)
	}
	if n == 0 {
		return validator.FieldError("project_id", "is invalid")
	}
	return nil
}

// CreateTask inserts t on behalf of ownerID. The project check and the
// insert share one transaction.
func (s *Store) CreateTask(ctx context.Context, ownerID string, t *models.Task) error {
	t.UserID = ownerID
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := checkProjectOwner(ctx, tx, ownerID, t.ProjectID); err != nil {
			return err
		}

		query := tx.Rebind(`INSERT INTO tasks (id, user_id, project_id, title, description, status, due_date, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if _, err := tx.ExecContext(ctx, query,
			t.ID, t.UserID, t.ProjectID, t.Title, t.Description, t.Status, t.DueDate, t.CreatedAt, t.UpdatedAt); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		return nil
	})
}

// GetTask returns a task owned by ownerID or ErrNotFound
func (s *Store) GetTask(ctx context.Context, ownerID, id string) (*models.Task, error) {
	return getTask(ctx, s.db, ownerID, id)
}

func getTask(ctx context.Context, q queryer, ownerID, id string) (*models.Task, error) {
	var t models.Task
	query := q.Rebind("SELECT " + taskColumns + " FROM tasks WHERE id = ? AND user_id = ?")
	if err := sqlx.GetContext(ctx, q, &t, query, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &t, nil
}

// UpdateTask overwrites every mutable field of t. A missing task is
// ErrNotFound before the project is checked.
func (s *Store) UpdateTask(ctx context.Context, ownerID string, t *models.Task) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		existing, err := getTask(ctx, tx, ownerID, t.ID)
		if err != nil {
			return err
		}
		if err := checkProjectOwner(ctx, tx, ownerID, t.ProjectID); err != nil {
			return err
		}

		query := tx.Rebind(`UPDATE tasks SET project_id = ?, title = ?, description = ?, status = ?, due_date = ?, updated_at = ?
			WHERE id = ? AND user_id = ?`)
		res, err := tx.ExecContext(ctx, query,
			t.ProjectID, t.Title, t.Description, t.Status, t.DueDate, t.UpdatedAt, t.ID, ownerID)
		if err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		if err := rowsAffected(res); err != nil {
			return err
		}

		t.UserID = ownerID
		t.CreatedAt = existing.CreatedAt
		return nil
	})
}

// DeleteTask removes a task owned by ownerID
func (s *Store) DeleteTask(ctx context.Context, ownerID, id string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM tasks WHERE id = ? AND user_id = ?"), id, ownerID)
		if err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		return rowsAffected(res)
	})
}

// CountTasks returns how many tasks ownerID has, in total and per status
func (s *Store) CountTasks(ctx context.Context, ownerID string) (int, map[models.TaskStatus]int, error) {
	type row struct {
		Status models.TaskStatus `db:"status"`
		N      int               `db:"n"`
	}
	var rows []row
	query := s.db.Rebind("SELECT status, COUNT(*) AS n FROM tasks WHERE user_id = ? GROUP BY status")
	if err := s.db.SelectContext(ctx, &rows, query, ownerID); err != nil {
		return 0, nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	byStatus := make(map[models.TaskStatus]int, len(models.TaskStatuses()))
	for _, st := range models.TaskStatuses() {
		byStatus[st] = 0
	}
	total := 0
	for _, r := range rows {
		byStatus[r.Status] = r.N
		total += r.N
	}
	return total, byStatus, nil
}
