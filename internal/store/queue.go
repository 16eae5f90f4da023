package store

import (
	"database/sql"
	"fmt"
)

// EnqueueLearning adds a resolved ticket to the learning queue. Idempotent:
// a ticket already queued (in any state) is left untouched and false is
// returned.
func (s *Store) EnqueueLearning(ticketID int64) (bool, error) {
	result, err := s.db.Exec(`INSERT INTO learning_queue (ticket_id, status) VALUES (?, ?)
		ON CONFLICT(ticket_id) DO NOTHING`, ticketID, LearnPending)
	if err != nil {
		return false, fmt.Errorf("enqueue learning: %w", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// ClaimLearningItem transitions pending → processing. Returns false when the
// item is absent or another sweep already claimed it; the compare-and-swap in
// the WHERE clause is what prevents double processing.
func (s *Store) ClaimLearningItem(ticketID int64) (bool, error) {
	result, err := s.db.Exec(`UPDATE learning_queue
		SET status = ?, attempts = attempts + 1, updated_at = datetime('now')
		WHERE ticket_id = ? AND status = ?`, LearnProcessing, ticketID, LearnPending)
	if err != nil {
		return false, fmt.Errorf("claim learning item: %w", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// ReleaseLearningItem finishes (done/failed) or returns (pending) a claimed
// item so nothing is lost on error.
func (s *Store) ReleaseLearningItem(ticketID int64, status, note string) error {
	_, err := s.db.Exec(`UPDATE learning_queue SET status = ?, note = ?, updated_at = datetime('now')
		WHERE ticket_id = ?`, status, note, ticketID)
	return err
}

// GetLearningItem returns a queue item by ticket id (nil if absent).
func (s *Store) GetLearningItem(ticketID int64) (*LearningQueueItem, error) {
	rows, err := s.db.Query(`SELECT ticket_id, status, note, attempts, created_at, updated_at
		FROM learning_queue WHERE ticket_id = ?`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items, err := scanLearningItems(rows)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return &items[0], nil
}

// ListLearningQueue returns queue items filtered by optional status.
func (s *Store) ListLearningQueue(status string, limit int) ([]LearningQueueItem, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ticket_id, status, note, attempts, created_at, updated_at
		FROM learning_queue WHERE 1=1`
	args := []any{}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at ASC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLearningItems(rows)
}

func scanLearningItems(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]LearningQueueItem, error) {
	var out []LearningQueueItem
	for rows.Next() {
		var item LearningQueueItem
		if err := rows.Scan(&item.TicketID, &item.Status, &item.Note, &item.Attempts,
			&item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// ResolvedTicketsNotQueued returns resolved tickets that never entered the
// learning queue. Used by the periodic sweep to catch tickets resolved while
// the worker was down.
func (s *Store) ResolvedTicketsNotQueued(limit int) ([]Ticket, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(`SELECT t.id, t.title, t.description, t.category, t.priority,
		t.status, t.created_at, t.resolved_at
		FROM tickets t
		LEFT JOIN learning_queue q ON q.ticket_id = t.id
		WHERE t.status = ? AND q.ticket_id IS NULL
		ORDER BY t.resolved_at ASC
		LIMIT ?`, TicketResolved, limit)
	if err != nil {
		return nil, fmt.Errorf("resolved tickets not queued: %w", err)
	}
	defer rows.Close()

	var out []Ticket
	for rows.Next() {
		var t Ticket
		var resolved sql.NullTime
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Category, &t.Priority,
			&t.Status, &t.CreatedAt, &resolved); err != nil {
			return nil, err
		}
		if resolved.Valid {
			t.ResolvedAt = &resolved.Time
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
