package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quantumlife/dayplan/internal/core"
)

// TaskStore handles mind or body tasks. Both share one table layout.
type TaskStore struct {
	db    *DB
	table string
	kind  core.ItemKind
}

// NewMindTaskStore creates a store over mind_tasks
func NewMindTaskStore(db *DB) *TaskStore {
	return &TaskStore{db: db, table: "mind_tasks", kind: core.KindMind}
}

// NewBodyTaskStore creates a store over body_tasks
func NewBodyTaskStore(db *DB) *TaskStore {
	return &TaskStore{db: db, table: "body_tasks", kind: core.KindBody}
}

// Kind returns the item kind this store holds.
func (s *TaskStore) Kind() core.ItemKind { return s.kind }

const taskColumns = `id, user_id, title, description, estimated_minutes, status,
	available_from, recurring, last_completed_on, created_at, updated_at`

// Create stores a new task
func (s *TaskStore) Create(ctx context.Context, t *core.Task) error {
	if err := validateTask(t); err != nil {
		return err
	}
	t.Kind = s.kind
	t.GoalID = ""
	t.Weight = 0
	stampTask(t)

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO `+s.table+` (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID, t.UserID, t.Title, t.Description, t.Minutes, t.Status,
		dateValue(t.AvailableFrom), t.Recurring, dateValue(t.LastCompletedOn),
		t.CreatedAt, t.UpdatedAt,
	)
	return err
}

// Get returns a task by ID
func (s *TaskStore) Get(ctx context.Context, id string) (*core.Task, error) {
	row := s.db.conn.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM `+s.table+` WHERE id = ?`, id)

	t, err := s.scan(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrTaskNotFound
	}
	return t, err
}

// List returns all of a user's tasks in creation order.
func (s *TaskStore) List(ctx context.Context, userID core.UserID) ([]*core.Task, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT `+taskColumns+` FROM `+s.table+`
		WHERE user_id = ?
		ORDER BY rowid
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*core.Task
	for rows.Next() {
		t, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// SetStatus changes a task's lifecycle state.
func (s *TaskStore) SetStatus(ctx context.Context, id string, status core.TaskStatus) error {
	return setTaskStatus(ctx, s.db, s.table, id, status)
}

// Complete marks a task done on the given local day. A recurring task stays
// pending and is skipped until the next day; any other task is completed.
func (s *TaskStore) Complete(ctx context.Context, id string, on time.Time) error {
	t, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	status := core.TaskStatusCompleted
	if t.Recurring {
		status = core.TaskStatusPending
	}

	_, err = s.db.conn.ExecContext(ctx, `
		UPDATE `+s.table+` SET status = ?, last_completed_on = ?, updated_at = ?
		WHERE id = ?
	`, status, on.Format(core.DateLayout), time.Now().UTC(), id)
	return err
}

// ListPending returns the user's schedulable tasks as of a local date:
// pending or in progress, already available, and for recurring tasks not
// yet completed that day.
func (s *TaskStore) ListPending(ctx context.Context, userID core.UserID, asOf time.Time) ([]core.WorkItem, error) {
	day := asOf.Format(core.DateLayout)

	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, title, description, estimated_minutes, status, recurring
		FROM `+s.table+`
		WHERE user_id = ?
		  AND status IN ('pending', 'in_progress')
		  AND (available_from IS NULL OR available_from <= ?)
		  AND (recurring = FALSE OR last_completed_on IS NULL OR last_completed_on < ?)
		ORDER BY rowid
	`, userID, day, day)
	if err != nil {
		return nil, fmt.Errorf("list pending %s: %w", s.table, err)
	}
	defer rows.Close()

	var items []core.WorkItem
	for rows.Next() {
		item := core.WorkItem{Kind: s.kind}
		var description sql.NullString

		if err := rows.Scan(&item.ID, &item.Title, &description, &item.Minutes, &item.Status, &item.Recurring); err != nil {
			return nil, err
		}
		item.Description = description.String
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *TaskStore) scan(row scanner) (*core.Task, error) {
	t := &core.Task{Kind: s.kind}
	var description, availableFrom, lastCompleted sql.NullString

	err := row.Scan(
		&t.ID, &t.UserID, &t.Title, &description, &t.Minutes, &t.Status,
		&availableFrom, &t.Recurring, &lastCompleted, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Description = description.String
	if t.AvailableFrom, err = parseDateColumn(availableFrom); err != nil {
		return nil, err
	}
	if t.LastCompletedOn, err = parseDateColumn(lastCompleted); err != nil {
		return nil, err
	}
	return t, nil
}

func validateTask(t *core.Task) error {
	if t.UserID == "" || strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: task needs user_id and title", core.ErrMissingRequired)
	}
	if t.Minutes <= 0 {
		return fmt.Errorf("%w: estimated duration must be positive, got %d", core.ErrInvalidInput, t.Minutes)
	}
	if t.Status != "" && !validTaskStatus(t.Status) {
		return fmt.Errorf("%w: task status %q", core.ErrInvalidInput, t.Status)
	}
	return nil
}

func stampTask(t *core.Task) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Status == "" {
		t.Status = core.TaskStatusPending
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
}

func validTaskStatus(status core.TaskStatus) bool {
	switch status {
	case core.TaskStatusPending, core.TaskStatusInProgress, core.TaskStatusCompleted, core.TaskStatusCancelled:
		return true
	}
	return false
}

func setTaskStatus(ctx context.Context, db *DB, table, id string, status core.TaskStatus) error {
	if !validTaskStatus(status) {
		return fmt.Errorf("%w: task status %q", core.ErrInvalidInput, status)
	}

	result, err := db.conn.ExecContext(ctx, `
		UPDATE `+table+` SET status = ?, updated_at = ? WHERE id = ?
	`, status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return core.ErrTaskNotFound
	}
	return nil
}

// Calendar dates are stored as YYYY-MM-DD text so they compare as strings.
func dateValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(core.DateLayout)
}

func parseDateColumn(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := core.ParseDate(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
