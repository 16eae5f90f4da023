// Package ledger records every inference call and every blocked attempt.
// Append-only: entries are never updated or rolled back, so cost tracking
// over-counts (safe) rather than under-counts on partial failure.
package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entry is one confirmed inference call.
type Entry struct {
	ID           string
	CallerID     string
	Operation    string
	Model        string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	TicketID     *int64
	CreatedAt    time.Time
}

// BlockedCall is one governor denial, kept for the admin diagnostics view.
type BlockedCall struct {
	ID            int64
	CallerID      string
	Operation     string
	Reason        string
	EstimatedCost float64
	TicketID      *int64
	CreatedAt     time.Time
}

// Ledger shares the store's database handle.
type Ledger struct {
	db *sql.DB
}

func New(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// Record appends a usage entry. ID is generated if empty.
func (l *Ledger) Record(e *Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	var ticketID any
	if e.TicketID != nil {
		ticketID = *e.TicketID
	}
	_, err := l.db.Exec(`INSERT INTO usage_log
		(id, caller_id, operation, model, input_tokens, output_tokens, cost_usd, ticket_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CallerID, e.Operation, e.Model, e.InputTokens, e.OutputTokens, e.CostUSD, ticketID)
	if err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

// RecordBlocked appends a denial record with the cost estimate that was
// blocked.
func (l *Ledger) RecordBlocked(b *BlockedCall) error {
	var ticketID any
	if b.TicketID != nil {
		ticketID = *b.TicketID
	}
	_, err := l.db.Exec(`INSERT INTO blocked_calls
		(caller_id, operation, reason, estimated_cost, ticket_id)
		VALUES (?, ?, ?, ?, ?)`,
		b.CallerID, b.Operation, b.Reason, b.EstimatedCost, ticketID)
	if err != nil {
		return fmt.Errorf("record blocked call: %w", err)
	}
	return nil
}

// DailyCost returns the caller's confirmed spend since local midnight.
func (l *Ledger) DailyCost(callerID string) (float64, error) {
	var total float64
	err := l.db.QueryRow(`SELECT COALESCE(SUM(cost_usd), 0) FROM usage_log
		WHERE caller_id = ? AND created_at >= date('now')`, callerID).Scan(&total)
	return total, err
}

// MonthlyCost returns the caller's confirmed spend since the first of the
// month.
func (l *Ledger) MonthlyCost(callerID string) (float64, error) {
	var total float64
	err := l.db.QueryRow(`SELECT COALESCE(SUM(cost_usd), 0) FROM usage_log
		WHERE caller_id = ? AND created_at >= date('now', 'start of month')`, callerID).Scan(&total)
	return total, err
}

// TodaySpend returns the total confirmed spend today across all callers.
func (l *Ledger) TodaySpend() (float64, error) {
	var total float64
	err := l.db.QueryRow(`SELECT COALESCE(SUM(cost_usd), 0) FROM usage_log
		WHERE created_at >= date('now')`).Scan(&total)
	return total, err
}

// ListRecent returns the newest usage entries.
func (l *Ledger) ListRecent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.Query(`SELECT id, caller_id, operation, model, input_tokens,
		output_tokens, cost_usd, ticket_id, created_at
		FROM usage_log ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ticketID sql.NullInt64
		if err := rows.Scan(&e.ID, &e.CallerID, &e.Operation, &e.Model, &e.InputTokens,
			&e.OutputTokens, &e.CostUSD, &ticketID, &e.CreatedAt); err != nil {
			return nil, err
		}
		if ticketID.Valid {
			e.TicketID = &ticketID.Int64
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListBlocked returns the newest denial records for the admin view.
func (l *Ledger) ListBlocked(limit int) ([]BlockedCall, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.Query(`SELECT id, caller_id, operation, reason, estimated_cost,
		ticket_id, created_at
		FROM blocked_calls ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BlockedCall
	for rows.Next() {
		var b BlockedCall
		var ticketID sql.NullInt64
		if err := rows.Scan(&b.ID, &b.CallerID, &b.Operation, &b.Reason, &b.EstimatedCost,
			&ticketID, &b.CreatedAt); err != nil {
			return nil, err
		}
		if ticketID.Valid {
			b.TicketID = &ticketID.Int64
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
