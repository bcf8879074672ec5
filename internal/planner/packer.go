package planner

import (
	"time"

	"github.com/quantumlife/dayplan/internal/core"
)

// PackOptions tunes one packing run.
type PackOptions struct {
	BufferMinutes int

	// CapacityFactor scales each slot's available minutes before packing.
	// Zero means 1.
	CapacityFactor float64

	// StopWhenFull ends the run as soon as no slot can take the smallest
	// remaining candidate; everything left is reported unscheduled.
	StopWhenFull bool

	// DayBudget caps the item minutes placed across all slots.
	// Zero or less leaves only the per-slot capacities.
	DayBudget int
}

// Packed is the result of a packing run.
type Packed struct {
	Slots       []SlotSchedule
	Unscheduled []ScoredItem
}

type slotState struct {
	slot      TimeSlot
	capacity  int
	cursor    time.Time
	remaining int
	items     []ScheduledItem
}

// SchedulingState is the value threaded through the packing fold.
// place never mutates its receiver; it returns the next state.
type SchedulingState struct {
	slots       []slotState
	byKind      [3]int // minutes by kind, indexed like core.Kinds
	dayLeft     int    // -1 when unlimited
	unscheduled []ScoredItem
}

// NewSchedulingState starts a fold over the given slots.
func NewSchedulingState(slots []TimeSlot, capacityFactor float64) SchedulingState {
	if capacityFactor <= 0 {
		capacityFactor = 1
	}
	st := SchedulingState{slots: make([]slotState, len(slots)), dayLeft: -1}
	for i, s := range slots {
		capacity := int(float64(s.AvailableMinutes) * capacityFactor)
		st.slots[i] = slotState{slot: s, capacity: capacity, cursor: s.Start, remaining: capacity}
	}
	return st
}

// WithDayBudget returns the state with at most minutes of items left to place.
func (s SchedulingState) WithDayBudget(minutes int) SchedulingState {
	if minutes > 0 {
		s.dayLeft = minutes
	}
	return s
}

func (s SchedulingState) consumed(kind core.ItemKind) int {
	if r := kindRank(kind); r < len(s.byKind) {
		return s.byKind[r]
	}
	return 0
}

func (s SchedulingState) remaining(i int) int { return s.slots[i].remaining }

func (s SchedulingState) withinDay(minutes int) bool {
	return s.dayLeft < 0 || minutes <= s.dayLeft
}

func need(st slotState, minutes, buffer int) int {
	if len(st.items) == 0 {
		return minutes
	}
	return minutes + buffer
}

// pick chooses the slot for item among those that fit, or -1.
// Body items lean towards the latest fitting slot, everything else the earliest.
func (s SchedulingState) pick(item ScoredItem, buffer int) int {
	if !s.withinDay(item.Minutes) {
		return -1
	}
	chosen := -1
	for i, st := range s.slots {
		if st.remaining < need(st, item.Minutes, buffer) {
			continue
		}
		chosen = i
		if item.Kind != core.KindBody {
			break
		}
	}
	return chosen
}

func (s SchedulingState) fitsAny(minutes, buffer int) bool {
	if !s.withinDay(minutes) {
		return false
	}
	for _, st := range s.slots {
		if st.remaining >= need(st, minutes, buffer) {
			return true
		}
	}
	return false
}

// Place returns the state after trying to place item.
func (s SchedulingState) Place(item ScoredItem, buffer int) SchedulingState {
	next := s
	next.slots = append([]slotState(nil), s.slots...)

	idx := s.pick(item, buffer)
	if idx < 0 {
		next.unscheduled = append(s.unscheduled[:len(s.unscheduled):len(s.unscheduled)], item)
		return next
	}

	st := next.slots[idx]
	start := st.cursor
	end := start.Add(item.Duration())
	st.items = append(st.items[:len(st.items):len(st.items)], ScheduledItem{
		ScoredItem: item,
		StartTime:  start,
		EndTime:    end,
		TimeSlot:   st.slot.Label,
	})

	step := item.Minutes + buffer
	st.cursor = start.Add(time.Duration(step) * time.Minute)
	st.remaining -= step
	if st.remaining < 0 {
		st.remaining = 0
	}
	next.slots[idx] = st

	if r := kindRank(item.Kind); r < len(next.byKind) {
		next.byKind[r] += item.Minutes
	}
	if next.dayLeft >= 0 {
		next.dayLeft -= item.Minutes
	}
	return next
}

// Pack places already ordered items into slots, first fit.
func Pack(slots []TimeSlot, items []ScoredItem, opts PackOptions) Packed {
	state := NewSchedulingState(slots, opts.CapacityFactor).WithDayBudget(opts.DayBudget)

	// smallest[i] is the shortest duration among items[i:].
	smallest := make([]int, len(items)+1)
	if len(items) > 0 {
		smallest[len(items)] = items[len(items)-1].Minutes
	}
	for i := len(items) - 1; i >= 0; i-- {
		smallest[i] = items[i].Minutes
		if i+1 < len(items) && smallest[i+1] < smallest[i] {
			smallest[i] = smallest[i+1]
		}
	}

	for i, item := range items {
		if opts.StopWhenFull && !state.fitsAny(smallest[i], opts.BufferMinutes) {
			state.unscheduled = append(state.unscheduled[:len(state.unscheduled):len(state.unscheduled)], items[i:]...)
			break
		}
		state = state.Place(item, opts.BufferMinutes)
	}

	return state.result()
}

func (s SchedulingState) result() Packed {
	out := Packed{
		Slots:       make([]SlotSchedule, len(s.slots)),
		Unscheduled: append([]ScoredItem{}, s.unscheduled...),
	}
	for i, st := range s.slots {
		used := st.capacity - st.remaining
		out.Slots[i] = SlotSchedule{
			TimeSlot:         st.slot,
			Items:            append([]ScheduledItem{}, st.items...),
			ScheduledMinutes: used,
			RemainingMinutes: st.slot.AvailableMinutes - used,
		}
	}
	return out
}
