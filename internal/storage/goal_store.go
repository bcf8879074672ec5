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

// GoalStore handles goals and their tasks
type GoalStore struct {
	db *DB
}

// NewGoalStore creates a new goal store
func NewGoalStore(db *DB) *GoalStore {
	return &GoalStore{db: db}
}

// Create stores a new goal. ID and status are filled in when empty.
func (s *GoalStore) Create(ctx context.Context, g *core.Goal) error {
	if g.UserID == "" || strings.TrimSpace(g.Title) == "" {
		return fmt.Errorf("%w: goal needs user_id and title", core.ErrMissingRequired)
	}
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	if g.Status == "" {
		g.Status = core.GoalStatusActive
	}
	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO goals (id, user_id, title, deadline, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, g.ID, g.UserID, g.Title, dateValue(g.Deadline), g.Status, g.CreatedAt, g.UpdatedAt)
	return err
}

// Get returns a goal by ID
func (s *GoalStore) Get(ctx context.Context, id string) (*core.Goal, error) {
	row := s.db.conn.QueryRowContext(ctx, `
		SELECT id, user_id, title, deadline, status, created_at, updated_at
		FROM goals WHERE id = ?
	`, id)

	g, err := scanGoal(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrGoalNotFound
	}
	return g, err
}

// List returns the user's goals, optionally filtered by status.
func (s *GoalStore) List(ctx context.Context, userID core.UserID, status core.GoalStatus) ([]*core.Goal, error) {
	query := `
		SELECT id, user_id, title, deadline, status, created_at, updated_at
		FROM goals WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY deadline IS NULL, deadline, rowid`

	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []*core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// SetStatus changes a goal's lifecycle state.
func (s *GoalStore) SetStatus(ctx context.Context, id string, status core.GoalStatus) error {
	switch status {
	case core.GoalStatusActive, core.GoalStatusCompleted, core.GoalStatusArchived:
	default:
		return fmt.Errorf("%w: goal status %q", core.ErrInvalidInput, status)
	}

	result, err := s.db.conn.ExecContext(ctx, `
		UPDATE goals SET status = ?, updated_at = ? WHERE id = ?
	`, status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return core.ErrGoalNotFound
	}
	return nil
}

// AddTask stores a task under an existing goal.
func (s *GoalStore) AddTask(ctx context.Context, t *core.Task) error {
	if err := validateTask(t); err != nil {
		return err
	}
	goal, err := s.Get(ctx, t.GoalID)
	if err != nil {
		return err
	}
	if goal.UserID != t.UserID {
		return core.ErrGoalNotFound
	}

	t.Kind = core.KindGoal
	if t.Weight == 0 {
		t.Weight = core.DefaultGoalTaskWeight
	}
	stampTask(t)

	_, err = s.db.conn.ExecContext(ctx, `
		INSERT INTO goal_tasks (id, user_id, goal_id, title, description, estimated_minutes,
		                        weight, status, available_from, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID, t.UserID, t.GoalID, t.Title, t.Description, t.Minutes,
		t.Weight, t.Status, dateValue(t.AvailableFrom), t.CreatedAt, t.UpdatedAt,
	)
	return err
}

// GetTask returns a goal task by ID
func (s *GoalStore) GetTask(ctx context.Context, id string) (*core.Task, error) {
	row := s.db.conn.QueryRowContext(ctx, `
		SELECT id, user_id, goal_id, title, description, estimated_minutes, weight,
		       status, available_from, created_at, updated_at
		FROM goal_tasks WHERE id = ?
	`, id)

	t, err := scanGoalTask(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrTaskNotFound
	}
	return t, err
}

// ListTasks returns all goal tasks of a user in creation order.
func (s *GoalStore) ListTasks(ctx context.Context, userID core.UserID) ([]*core.Task, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, user_id, goal_id, title, description, estimated_minutes, weight,
		       status, available_from, created_at, updated_at
		FROM goal_tasks WHERE user_id = ?
		ORDER BY rowid
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*core.Task
	for rows.Next() {
		t, err := scanGoalTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// SetTaskStatus changes a goal task's lifecycle state.
func (s *GoalStore) SetTaskStatus(ctx context.Context, id string, status core.TaskStatus) error {
	return setTaskStatus(ctx, s.db, "goal_tasks", id, status)
}

// ListPending returns the user's schedulable goal tasks joined with their
// goal. Tasks of inactive goals are included with Active false.
func (s *GoalStore) ListPending(ctx context.Context, userID core.UserID, asOf time.Time) ([]core.WorkItem, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT t.id, t.title, t.description, t.estimated_minutes, t.status, t.weight,
		       g.id, g.title, g.deadline, g.status
		FROM goal_tasks t
		JOIN goals g ON g.id = t.goal_id
		WHERE t.user_id = ?
		  AND t.status IN ('pending', 'in_progress')
		  AND (t.available_from IS NULL OR t.available_from <= ?)
		ORDER BY t.rowid
	`, userID, asOf.Format(core.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("list pending goal tasks: %w", err)
	}
	defer rows.Close()

	var items []core.WorkItem
	for rows.Next() {
		item := core.WorkItem{Kind: core.KindGoal, Goal: &core.GoalInfo{}}
		var description, deadline sql.NullString
		var goalStatus core.GoalStatus

		err := rows.Scan(
			&item.ID, &item.Title, &description, &item.Minutes, &item.Status, &item.Goal.Weight,
			&item.Goal.GoalID, &item.Goal.GoalTitle, &deadline, &goalStatus,
		)
		if err != nil {
			return nil, err
		}

		item.Description = description.String
		item.Goal.Active = goalStatus == core.GoalStatusActive
		if item.Goal.Deadline, err = parseDateColumn(deadline); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanGoal(row scanner) (*core.Goal, error) {
	g := &core.Goal{}
	var deadline sql.NullString

	err := row.Scan(&g.ID, &g.UserID, &g.Title, &deadline, &g.Status, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	g.Deadline, err = parseDateColumn(deadline)
	return g, err
}

func scanGoalTask(row scanner) (*core.Task, error) {
	t := &core.Task{Kind: core.KindGoal}
	var description, availableFrom sql.NullString

	err := row.Scan(
		&t.ID, &t.UserID, &t.GoalID, &t.Title, &description, &t.Minutes, &t.Weight,
		&t.Status, &availableFrom, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Description = description.String
	t.AvailableFrom, err = parseDateColumn(availableFrom)
	return t, err
}
