package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"girder-cli/internal/model"
)

// TaskStore persists tasks one row per entity: a full JSON blob plus a few
// projected columns for queries. Updates are per-document atomic merges,
// a single UPDATE of the whole row inside a transaction, so two field sets
// for the same task can never interleave into a torn write.
type TaskStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func (s Store) OpenTasks(ctx context.Context, logger *slog.Logger) (*TaskStore, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", s.dbPath()+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	ts := &TaskStore{db: db, logger: logger}
	if err := ts.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return ts, nil
}

func (ts *TaskStore) Close() error {
	return ts.db.Close()
}

func (ts *TaskStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			category TEXT NOT NULL,
			parent_id TEXT NOT NULL,
			ord REAL NOT NULL,
			type TEXT NOT NULL,
			plan_start TEXT NOT NULL,
			plan_end TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_parent ON tasks(parent_id);`,
	}
	for _, st := range stmts {
		if _, err := ts.db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

// ListTasks returns the full task snapshot for a project.
func (ts *TaskStore) ListTasks(ctx context.Context, projectID string) ([]model.Task, error) {
	rows, err := ts.db.QueryContext(ctx,
		`SELECT json FROM tasks WHERE project_id = ? ORDER BY category, parent_id, ord, id`,
		strings.TrimSpace(projectID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Task{}
	for rows.Next() {
		var js string
		if err := rows.Scan(&js); err != nil {
			return nil, err
		}
		var t model.Task
		if err := json.Unmarshal([]byte(js), &t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListProjects returns the distinct project ids present in the store.
func (ts *TaskStore) ListProjects(ctx context.Context) ([]string, error) {
	rows, err := ts.db.QueryContext(ctx, `SELECT DISTINCT project_id FROM tasks ORDER BY project_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// CreateTask inserts a task, generating an id when absent and appending it
// to its sibling set (order = max sibling order + 1).
func (ts *TaskStore) CreateTask(ctx context.Context, t model.Task) (model.Task, error) {
	t.ProjectID = strings.TrimSpace(t.ProjectID)
	if t.ProjectID == "" {
		return model.Task{}, errors.New("missing project id")
	}
	if strings.TrimSpace(t.ID) == "" {
		t.ID = "task-" + uuid.NewString()
	}
	if t.Type == "" {
		t.Type = model.TaskTypeTask
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	t.Progress = model.ClampProgress(t.Progress)

	if t.Order == 0 {
		ord, err := ts.nextSiblingOrder(ctx, t)
		if err != nil {
			return model.Task{}, err
		}
		t.Order = ord
	}

	if err := ts.writeRow(ctx, ts.db, t); err != nil {
		return model.Task{}, err
	}
	ts.logger.Info("task created", "taskId", t.ID, "projectId", t.ProjectID)
	return t, nil
}

func (ts *TaskStore) nextSiblingOrder(ctx context.Context, t model.Task) (float64, error) {
	parent := ""
	if t.ParentTaskID != nil {
		parent = strings.TrimSpace(*t.ParentTaskID)
	}
	var max sql.NullFloat64
	err := ts.db.QueryRowContext(ctx,
		`SELECT MAX(ord) FROM tasks WHERE project_id = ? AND parent_id = ? AND category = ?`,
		t.ProjectID, parent, t.Category).Scan(&max)
	if err != nil {
		return 0, err
	}
	if !max.Valid {
		return 1, nil
	}
	return max.Float64 + 1, nil
}

// UpdateTask applies a partial field set to one task. This is the contract
// the drag and reorder engines terminate in; failure is reported to the
// caller and never retried here.
func (ts *TaskStore) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("missing task id")
	}
	if patch.IsZero() {
		return nil
	}

	tx, err := ts.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var js string
	err = tx.QueryRowContext(ctx, `SELECT json FROM tasks WHERE id = ?`, id).Scan(&js)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("task not found: %s", id)
	}
	if err != nil {
		return err
	}
	var t model.Task
	if err := json.Unmarshal([]byte(js), &t); err != nil {
		return err
	}

	patch.Apply(&t, time.Now().UTC())

	if err := ts.writeRow(ctx, tx, t); err != nil {
		return err
	}
	return tx.Commit()
}

func (ts *TaskStore) DeleteTask(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("missing task id")
	}
	// Children are left in place; orphan policy belongs to callers, the
	// engine tolerates dangling parent references.
	_, err := ts.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (ts *TaskStore) writeRow(ctx context.Context, ex execer, t model.Task) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return err
	}
	parent := ""
	if t.ParentTaskID != nil {
		parent = strings.TrimSpace(*t.ParentTaskID)
	}
	_, err = ex.ExecContext(ctx, `INSERT OR REPLACE INTO tasks(
		id, project_id, category, parent_id, ord, type,
		plan_start, plan_end, json, updated_at_unixms
	) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ProjectID, t.Category, parent, t.Order, string(t.Type),
		string(t.PlanStart), string(t.PlanEnd), string(raw), time.Now().UTC().UnixMilli())
	return err
}
