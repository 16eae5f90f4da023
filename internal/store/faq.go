package store

import (
	"database/sql"
	"fmt"
)

// GetFaqEntry returns the cache entry for a digest (nil if absent).
func (s *Store) GetFaqEntry(digest string) (*FaqEntry, error) {
	var e FaqEntry
	var lastHit sql.NullTime
	err := s.db.QueryRow(`SELECT question_digest, original_question, normalized_question,
		answer, hit_count, created_at, last_hit_at
		FROM faq_cache WHERE question_digest = ?`, digest).
		Scan(&e.QuestionDigest, &e.OriginalQuestion, &e.NormalizedQuestion,
			&e.Answer, &e.HitCount, &e.CreatedAt, &lastHit)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get faq entry: %w", err)
	}
	if lastHit.Valid {
		e.LastHitAt = &lastHit.Time
	}
	return &e, nil
}

// UpsertFaqEntry stores an answer under its digest. A duplicate insert for the
// same digest overwrites the answer (last writer wins) but keeps the existing
// hit count, so a racing second Store never doubles the counter.
func (s *Store) UpsertFaqEntry(e *FaqEntry) error {
	_, err := s.db.Exec(`INSERT INTO faq_cache
		(question_digest, original_question, normalized_question, answer, hit_count)
		VALUES (?, ?, ?, ?, 0)
		ON CONFLICT(question_digest) DO UPDATE SET
			original_question = excluded.original_question,
			normalized_question = excluded.normalized_question,
			answer = excluded.answer`,
		e.QuestionDigest, e.OriginalQuestion, e.NormalizedQuestion, e.Answer)
	if err != nil {
		return fmt.Errorf("upsert faq entry: %w", err)
	}
	return nil
}

// TouchFaqEntry increments the hit counter and stamps the hit time.
func (s *Store) TouchFaqEntry(digest string) error {
	_, err := s.db.Exec(`UPDATE faq_cache SET hit_count = hit_count + 1,
		last_hit_at = datetime('now') WHERE question_digest = ?`, digest)
	return err
}
