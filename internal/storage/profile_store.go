package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/quantumlife/dayplan/internal/core"
)

// ProfileStore handles profile persistence
type ProfileStore struct {
	db *DB
}

// NewProfileStore creates a new profile store
func NewProfileStore(db *DB) *ProfileStore {
	return &ProfileStore{db: db}
}

const profileColumns = `user_id, timezone, work_start, work_end, day_work,
	hours_available_to_week, hours_used_to_week, time_dead, created_at, updated_at`

// GetProfile returns the user's profile or core.ErrProfileNotFound.
func (s *ProfileStore) GetProfile(ctx context.Context, userID core.UserID) (*core.UserProfile, error) {
	row := s.db.conn.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id = ?`, userID)

	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", userID, err)
	}
	return p, nil
}

// List returns every profile ordered by user id.
func (s *ProfileStore) List(ctx context.Context) ([]*core.UserProfile, error) {
	rows, err := s.db.conn.QueryContext(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*core.UserProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// Upsert validates and stores a profile, keeping the original creation time.
func (s *ProfileStore) Upsert(ctx context.Context, p *core.UserProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.Timezone == "" {
		p.Timezone = "UTC"
	}

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
		    timezone = excluded.timezone,
		    work_start = excluded.work_start,
		    work_end = excluded.work_end,
		    day_work = excluded.day_work,
		    hours_available_to_week = excluded.hours_available_to_week,
		    hours_used_to_week = excluded.hours_used_to_week,
		    time_dead = excluded.time_dead,
		    updated_at = excluded.updated_at
	`,
		p.UserID, p.Timezone, p.WorkSchedule.Start.String(), p.WorkSchedule.End.String(),
		strings.Join(p.DayWork.Names(), ","),
		p.HoursAvailableToWeek, p.HoursUsedToWeek, p.TimeDead,
		p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// AddUsedHours adds hours to the user's weekly usage.
func (s *ProfileStore) AddUsedHours(ctx context.Context, userID core.UserID, hours float64) error {
	if hours < 0 {
		return fmt.Errorf("%w: negative hours %.1f", core.ErrInvalidInput, hours)
	}

	result, err := s.db.conn.ExecContext(ctx, `
		UPDATE profiles SET hours_used_to_week = hours_used_to_week + ?, updated_at = ?
		WHERE user_id = ?
	`, hours, time.Now().UTC(), userID)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return core.ErrProfileNotFound
	}
	return nil
}

// ResetWeeklyUsage zeroes hours_used_to_week for every profile.
func (s *ProfileStore) ResetWeeklyUsage(ctx context.Context) (int64, error) {
	result, err := s.db.conn.ExecContext(ctx, `
		UPDATE profiles SET hours_used_to_week = 0, updated_at = ?
		WHERE hours_used_to_week <> 0
	`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Delete removes a profile.
func (s *ProfileStore) Delete(ctx context.Context, userID core.UserID) error {
	result, err := s.db.conn.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = ?`, userID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return core.ErrProfileNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (*core.UserProfile, error) {
	p := &core.UserProfile{}
	var start, end, days string

	err := row.Scan(
		&p.UserID, &p.Timezone, &start, &end, &days,
		&p.HoursAvailableToWeek, &p.HoursUsedToWeek, &p.TimeDead,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if p.WorkSchedule, err = core.ParseWorkSchedule(start + "-" + end); err != nil {
		return nil, err
	}
	if p.DayWork, err = core.ParseWeekdays(days); err != nil {
		return nil, err
	}
	return p, nil
}
