package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/quantumlife/dayplan/internal/logging"
)

// WeeklyUsageResetID identifies the weekly usage reset job.
const WeeklyUsageResetID = "weekly-usage-reset"

// UsageResetter zeroes the weekly hour usage of every profile.
type UsageResetter interface {
	ResetWeeklyUsage(ctx context.Context) (int64, error)
}

// WeeklyUsageResetJob builds the job that starts a new planning week
// at the given weekday and "HH:MM".
func WeeklyUsageResetJob(store UsageResetter, day time.Weekday, at string) *Job {
	return NewJob(WeeklyUsageResetID).
		Name("Weekly usage reset").
		Description("Reset hours used this week for every profile").
		Weekly(at, day).
		Timeout(time.Minute).
		Handler(func(ctx context.Context) error {
			n, err := store.ResetWeeklyUsage(ctx)
			if err != nil {
				return fmt.Errorf("reset weekly usage: %w", err)
			}
			logging.WithField("profiles", n).Info("Weekly usage reset")
			return nil
		}).
		Build()
}
