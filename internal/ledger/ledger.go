// Package ledger provides a verifiable, append-only activity ledger.
// Every entry is hash-chained to the previous entry, making any tampering detectable.
package ledger

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quantumlife/dayplan/internal/core"
)

// Genesis is the prev_hash of the first entry.
const Genesis = "GENESIS:0000000000000000000000000000000000000000000000000000000000000000"

// Store manages the append-only ledger table
type Store struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewStore creates a new ledger store over a migrated database
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Entry is an immutable ledger record
type Entry struct {
	Seq        int64       `json:"seq"`
	ID         string      `json:"id"`
	Timestamp  time.Time   `json:"timestamp"`
	UserID     core.UserID `json:"user_id,omitempty"`
	Action     string      `json:"action"`      // "goal.created", "task.completed", ...
	Actor      string      `json:"actor"`       // "user" or "system"
	EntityType string      `json:"entity_type"` // "goal", "task", "profile"
	EntityID   string      `json:"entity_id"`
	Details    string      `json:"details"` // JSON blob
	PrevHash   string      `json:"prev_hash"`
	Hash       string      `json:"hash"`
}

// Event is what a caller appends; the store fills in identity and hashes.
type Event struct {
	UserID     core.UserID
	Action     string
	Actor      string
	EntityType string
	EntityID   string
	Details    interface{}
}

// Actions recorded by dayplan
const (
	ActionProfileUpdated = "profile.updated"
	ActionHoursLogged    = "profile.hours_logged"
	ActionWeeklyReset    = "profile.weekly_reset"
	ActionGoalCreated    = "goal.created"
	ActionGoalCompleted  = "goal.completed"
	ActionTaskCreated    = "task.created"
	ActionTaskCompleted  = "task.completed"
)

// Actors
const (
	ActorUser   = "user"
	ActorSystem = "system"
)

const entryColumns = `seq, id, timestamp, user_id, action, actor, entity_type, entity_id, details, prev_hash, hash`

// Append adds a new entry chained to the latest one.
func (s *Store) Append(ctx context.Context, ev Event) (*Entry, error) {
	if ev.Action == "" || ev.Actor == "" {
		return nil, fmt.Errorf("%w: ledger entry needs action and actor", core.ErrMissingRequired)
	}

	var details string
	if ev.Details != nil {
		data, err := json.Marshal(ev.Details)
		if err != nil {
			return nil, fmt.Errorf("marshal details: %w", err)
		}
		details = string(data)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	prevHash, err := lastHash(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("get last hash: %w", err)
	}

	entry := &Entry{
		ID:         uuid.New().String(),
		Timestamp:  s.now().UTC(),
		UserID:     ev.UserID,
		Action:     ev.Action,
		Actor:      ev.Actor,
		EntityType: ev.EntityType,
		EntityID:   ev.EntityID,
		Details:    details,
		PrevHash:   prevHash,
	}
	entry.Hash = computeHash(entry)

	result, err := tx.ExecContext(ctx, `
		INSERT INTO ledger (id, timestamp, user_id, action, actor, entity_type, entity_id, details, prev_hash, hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, formatTime(entry.Timestamp), entry.UserID, entry.Action, entry.Actor,
		entry.EntityType, entry.EntityID, entry.Details, entry.PrevHash, entry.Hash)
	if err != nil {
		return nil, fmt.Errorf("insert ledger entry: %w", err)
	}
	if entry.Seq, err = result.LastInsertId(); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return entry, nil
}

func lastHash(ctx context.Context, tx *sql.Tx) (string, error) {
	var hash string
	err := tx.QueryRowContext(ctx, `SELECT hash FROM ledger ORDER BY seq DESC LIMIT 1`).Scan(&hash)
	if err == sql.ErrNoRows {
		return Genesis, nil
	}
	return hash, err
}

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

// computeHash is the SHA-256 of the entry's canonical JSON, hash excluded.
func computeHash(entry *Entry) string {
	canonical := struct {
		ID         string `json:"id"`
		Timestamp  string `json:"timestamp"`
		UserID     string `json:"user_id"`
		Action     string `json:"action"`
		Actor      string `json:"actor"`
		EntityType string `json:"entity_type"`
		EntityID   string `json:"entity_id"`
		Details    string `json:"details"`
		PrevHash   string `json:"prev_hash"`
	}{
		ID:         entry.ID,
		Timestamp:  formatTime(entry.Timestamp),
		UserID:     string(entry.UserID),
		Action:     entry.Action,
		Actor:      entry.Actor,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Details:    entry.Details,
		PrevHash:   entry.PrevHash,
	}

	data, _ := json.Marshal(canonical)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// VerifyChain checks every link in append order.
// Returns nil if valid, or a *ChainError for the first broken link.
func (s *Store) VerifyChain(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM ledger ORDER BY seq ASC`)
	if err != nil {
		return fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	expectedPrev := Genesis
	entryNum := 0
	for rows.Next() {
		entryNum++
		entry, err := scanEntry(rows)
		if err != nil {
			return fmt.Errorf("scan entry %d: %w", entryNum, err)
		}

		if entry.PrevHash != expectedPrev {
			return &ChainError{
				EntryNum:     entryNum,
				EntryID:      entry.ID,
				ExpectedHash: expectedPrev,
				ActualHash:   entry.PrevHash,
				Type:         ChainBroken,
			}
		}
		if want := computeHash(entry); entry.Hash != want {
			return &ChainError{
				EntryNum:     entryNum,
				EntryID:      entry.ID,
				ExpectedHash: want,
				ActualHash:   entry.Hash,
				Type:         HashMismatch,
			}
		}
		expectedPrev = entry.Hash
	}
	return rows.Err()
}

// ChainError kinds
const (
	ChainBroken  = "chain_broken"
	HashMismatch = "hash_mismatch"
)

// ChainError describes a broken ledger link
type ChainError struct {
	EntryNum     int
	EntryID      string
	ExpectedHash string
	ActualHash   string
	Type         string
}

func (e *ChainError) Error() string {
	if e.Type == ChainBroken {
		return fmt.Sprintf("chain broken at entry %d (ID: %s): expected prev_hash %s, got %s",
			e.EntryNum, e.EntryID, short(e.ExpectedHash), short(e.ActualHash))
	}
	return fmt.Sprintf("hash mismatch at entry %d (ID: %s): expected %s, got %s",
		e.EntryNum, e.EntryID, short(e.ExpectedHash), short(e.ActualHash))
}

func short(h string) string {
	if len(h) <= 16 {
		return h
	}
	return h[:16] + "..."
}

// QueryOptions filters ledger listings
type QueryOptions struct {
	UserID     core.UserID
	Action     string
	EntityType string
	EntityID   string
	Since      time.Time
	Limit      int // Zero means no limit
}

// Query returns matching entries, newest first.
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger WHERE 1=1`
	var args []interface{}

	if opts.UserID != "" {
		query += " AND user_id = ?"
		args = append(args, opts.UserID)
	}
	if opts.Action != "" {
		query += " AND action = ?"
		args = append(args, opts.Action)
	}
	if opts.EntityType != "" {
		query += " AND entity_type = ?"
		args = append(args, opts.EntityType)
	}
	if opts.EntityID != "" {
		query += " AND entity_id = ?"
		args = append(args, opts.EntityID)
	}
	if !opts.Since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, formatTime(opts.Since))
	}

	query += " ORDER BY seq DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Count returns the total number of entries
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ledger").Scan(&count)
	return count, err
}

// Summary statistics
type Summary struct {
	TotalEntries int            `json:"total_entries"`
	ByAction     map[string]int `json:"by_action"`
	ChainValid   bool           `json:"chain_valid"`
	ChainError   string         `json:"chain_error,omitempty"`
}

// GetSummary counts entries per action and verifies the chain.
func (s *Store) GetSummary(ctx context.Context) (*Summary, error) {
	summary := &Summary{ByAction: make(map[string]int)}

	rows, err := s.db.QueryContext(ctx, "SELECT action, COUNT(*) FROM ledger GROUP BY action")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var action string
		var count int
		if err := rows.Scan(&action, &count); err != nil {
			return nil, err
		}
		summary.ByAction[action] = count
		summary.TotalEntries += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.VerifyChain(ctx); err != nil {
		summary.ChainError = err.Error()
	} else {
		summary.ChainValid = true
	}
	return summary, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (*Entry, error) {
	var e Entry
	var ts string
	var entityType, entityID, details sql.NullString
	err := row.Scan(&e.Seq, &e.ID, &ts, &e.UserID, &e.Action, &e.Actor,
		&entityType, &entityID, &details, &e.PrevHash, &e.Hash)
	if err != nil {
		return nil, err
	}
	if e.Timestamp, err = time.Parse(timeLayout, ts); err != nil {
		return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
	}
	e.EntityType = entityType.String
	e.EntityID = entityID.String
	e.Details = details.String
	return &e, nil
}
