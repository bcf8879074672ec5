package planner

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quantumlife/dayplan/internal/core"
	"github.com/quantumlife/dayplan/internal/logging"
)

// ProfileSource resolves a user's declared time budget.
type ProfileSource interface {
	// GetProfile returns core.ErrProfileNotFound when the user has none.
	GetProfile(ctx context.Context, userID core.UserID) (*core.UserProfile, error)
}

// TaskSource lists the schedulable items of one kind.
// Implementations filter by status; asOf lets them apply availability dates.
type TaskSource interface {
	ListPending(ctx context.Context, userID core.UserID, asOf time.Time) ([]core.WorkItem, error)
}

// Aggregator collects candidates from the goal, mind and body sources.
type Aggregator struct {
	Goals TaskSource
	Mind  TaskSource
	Body  TaskSource

	logger *logging.Logger
}

// NewAggregator creates an aggregator. A nil source contributes nothing.
func NewAggregator(goals, mind, body TaskSource) *Aggregator {
	return &Aggregator{
		Goals:  goals,
		Mind:   mind,
		Body:   body,
		logger: logging.WithField("component", "aggregator"),
	}
}

// Collect fetches all three kinds concurrently and returns them goal, mind,
// body, each in source order. Any source failure aborts the collection.
func (a *Aggregator) Collect(ctx context.Context, userID core.UserID, asOf time.Time) ([]core.WorkItem, error) {
	sources := [3]TaskSource{a.Goals, a.Mind, a.Body}
	var fetched [3][]core.WorkItem

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		if src == nil {
			continue
		}
		i, src := i, src
		g.Go(func() error {
			items, err := src.ListPending(gctx, userID, asOf)
			if err != nil {
				return fmt.Errorf("list %s tasks: %w", core.Kinds[i], err)
			}
			fetched[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []core.WorkItem
	for i, items := range fetched {
		for _, item := range items {
			if keep, reason := a.accept(core.Kinds[i], item); !keep {
				a.logger.WithFields(map[string]interface{}{
					"user": userID,
					"item": item.ID,
				}).Debug("dropping candidate: %s", reason)
				continue
			}
			item.Kind = core.Kinds[i]
			out = append(out, item)
		}
	}
	return out, nil
}

func (a *Aggregator) accept(kind core.ItemKind, item core.WorkItem) (bool, string) {
	if item.Minutes <= 0 {
		return false, fmt.Sprintf("non-positive duration %d", item.Minutes)
	}
	if item.Status != "" && !item.Status.Schedulable() {
		return false, fmt.Sprintf("status %s", item.Status)
	}
	if kind == core.KindGoal {
		if item.Goal == nil {
			return false, "goal task without goal"
		}
		if !item.Goal.Active {
			return false, "goal not active"
		}
	}
	return true, ""
}
