package storage

import (
	"fmt"

	"github.com/quantumlife/dayplan/internal/core"
)

// Stores bundles every store over one database.
type Stores struct {
	Profiles *ProfileStore
	Goals    *GoalStore
	Mind     *TaskStore
	Body     *TaskStore
}

// NewStores creates all stores over db
func NewStores(db *DB) *Stores {
	return &Stores{
		Profiles: NewProfileStore(db),
		Goals:    NewGoalStore(db),
		Mind:     NewMindTaskStore(db),
		Body:     NewBodyTaskStore(db),
	}
}

// Daily returns the mind or body store.
func (s *Stores) Daily(kind core.ItemKind) (*TaskStore, error) {
	switch kind {
	case core.KindMind:
		return s.Mind, nil
	case core.KindBody:
		return s.Body, nil
	}
	return nil, fmt.Errorf("%w: %q is not a daily task kind", core.ErrInvalidInput, kind)
}
