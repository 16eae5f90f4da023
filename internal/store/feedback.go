package store

import "fmt"

// SaveFeedback appends a rating row. Feedback is never updated or deleted.
func (s *Store) SaveFeedback(f *FeedbackEntry) error {
	var ticketID any
	if f.TicketID != nil {
		ticketID = *f.TicketID
	}
	result, err := s.db.Exec(`INSERT INTO ai_feedback
		(target_type, target_id, user_id, rating, comment, ticket_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		f.TargetType, f.TargetID, f.UserID, f.Rating, f.Comment, ticketID)
	if err != nil {
		return fmt.Errorf("save feedback: %w", err)
	}
	f.ID, _ = result.LastInsertId()
	return nil
}

// ListFeedback returns ratings for one target, newest first.
func (s *Store) ListFeedback(targetType, targetID string, limit int) ([]FeedbackEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`SELECT id, target_type, target_id, user_id, rating, comment,
		ticket_id, created_at
		FROM ai_feedback WHERE target_type = ? AND target_id = ?
		ORDER BY created_at DESC LIMIT ?`, targetType, targetID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FeedbackEntry
	for rows.Next() {
		var f FeedbackEntry
		var ticketID any
		if err := rows.Scan(&f.ID, &f.TargetType, &f.TargetID, &f.UserID, &f.Rating,
			&f.Comment, &ticketID, &f.CreatedAt); err != nil {
			return nil, err
		}
		if v, ok := ticketID.(int64); ok {
			f.TicketID = &v
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
