package store

import (
	"database/sql"
	"fmt"
)

// CreateTicket inserts a ticket row. Exists for the surrounding application
// and tests; the pipeline itself only reads tickets.
func (s *Store) CreateTicket(t *Ticket) (*Ticket, error) {
	if t.Category == "" {
		t.Category = "general"
	}
	if t.Priority == "" {
		t.Priority = "medium"
	}
	if t.Status == "" {
		t.Status = TicketOpen
	}
	result, err := s.db.Exec(`INSERT INTO tickets (title, description, category, priority, status, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.Title, t.Description, t.Category, t.Priority, t.Status, t.ResolvedAt)
	if err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	id, _ := result.LastInsertId()
	return s.GetTicket(id)
}

// GetTicket returns a ticket by id.
func (s *Store) GetTicket(id int64) (*Ticket, error) {
	var t Ticket
	var resolvedAt sql.NullTime
	err := s.db.QueryRow(`SELECT id, title, description, category, priority, status, created_at, resolved_at
		FROM tickets WHERE id = ?`, id).
		Scan(&t.ID, &t.Title, &t.Description, &t.Category, &t.Priority, &t.Status, &t.CreatedAt, &resolvedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("ticket not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	if resolvedAt.Valid {
		t.ResolvedAt = &resolvedAt.Time
	}
	return &t, nil
}

// AddComment appends a comment to a ticket's thread.
func (s *Store) AddComment(c *Comment) (*Comment, error) {
	result, err := s.db.Exec(`INSERT INTO ticket_comments (ticket_id, author_id, body, is_internal)
		VALUES (?, ?, ?, ?)`, c.TicketID, c.AuthorID, c.Body, c.IsInternal)
	if err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}
	id, _ := result.LastInsertId()
	c.ID = id
	return c, nil
}

// ListComments returns a ticket's comments in thread order.
func (s *Store) ListComments(ticketID int64) ([]Comment, error) {
	rows, err := s.db.Query(`SELECT id, ticket_id, author_id, body, is_internal, created_at
		FROM ticket_comments WHERE ticket_id = ? ORDER BY created_at ASC, id ASC`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.TicketID, &c.AuthorID, &c.Body, &c.IsInternal, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveComplexityScore appends a new analysis result for a ticket.
func (s *Store) SaveComplexityScore(cs *ComplexityScore) (*ComplexityScore, error) {
	result, err := s.db.Exec(`INSERT INTO complexity_scores (ticket_id, score, factors, rationale)
		VALUES (?, ?, ?, ?)`, cs.TicketID, cs.Score, marshalStrings(cs.Factors), cs.Rationale)
	if err != nil {
		return nil, fmt.Errorf("save complexity score: %w", err)
	}
	id, _ := result.LastInsertId()
	cs.ID = id
	return cs, nil
}

// LatestComplexityScore returns the most recent analysis for a ticket
// (nil if the ticket was never analyzed).
func (s *Store) LatestComplexityScore(ticketID int64) (*ComplexityScore, error) {
	var cs ComplexityScore
	var factors string
	err := s.db.QueryRow(`SELECT id, ticket_id, score, factors, rationale, created_at
		FROM complexity_scores WHERE ticket_id = ?
		ORDER BY created_at DESC, id DESC LIMIT 1`, ticketID).
		Scan(&cs.ID, &cs.TicketID, &cs.Score, &factors, &cs.Rationale, &cs.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest complexity score: %w", err)
	}
	cs.Factors = unmarshalStrings(factors)
	return &cs, nil
}

// SaveAutoResponse persists a generated response. When the new response is
// applied, any previously applied response for the ticket is superseded first
// so at most one applied row exists per ticket.
func (s *Store) SaveAutoResponse(ar *AutoResponse) (*AutoResponse, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if ar.WasApplied {
		if _, err := tx.Exec(`UPDATE auto_responses SET was_applied = 0 WHERE ticket_id = ? AND was_applied = 1`, ar.TicketID); err != nil {
			return nil, fmt.Errorf("supersede auto response: %w", err)
		}
	}
	result, err := tx.Exec(`INSERT INTO auto_responses (ticket_id, body, confidence, was_applied)
		VALUES (?, ?, ?, ?)`, ar.TicketID, ar.Body, ar.Confidence, ar.WasApplied)
	if err != nil {
		return nil, fmt.Errorf("save auto response: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	id, _ := result.LastInsertId()
	ar.ID = id
	return ar, nil
}

// GetAppliedAutoResponse returns the currently applied response for a ticket
// (nil if none).
func (s *Store) GetAppliedAutoResponse(ticketID int64) (*AutoResponse, error) {
	var ar AutoResponse
	var helpful sql.NullBool
	err := s.db.QueryRow(`SELECT id, ticket_id, body, confidence, was_applied, was_helpful, created_at
		FROM auto_responses WHERE ticket_id = ? AND was_applied = 1 LIMIT 1`, ticketID).
		Scan(&ar.ID, &ar.TicketID, &ar.Body, &ar.Confidence, &ar.WasApplied, &helpful, &ar.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get applied auto response: %w", err)
	}
	if helpful.Valid {
		ar.WasHelpful = &helpful.Bool
	}
	return &ar, nil
}

// SetAutoResponseHelpful records later user feedback on a response.
func (s *Store) SetAutoResponseHelpful(id int64, helpful bool) error {
	_, err := s.db.Exec(`UPDATE auto_responses SET was_helpful = ? WHERE id = ?`, helpful, id)
	return err
}
