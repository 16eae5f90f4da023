package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// CreateArticle inserts a knowledge article. ID is generated if empty.
func (s *Store) CreateArticle(a *KnowledgeArticle) (*KnowledgeArticle, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = ArticleDraft
	}
	if a.Category == "" {
		a.Category = "general"
	}
	if a.EffectivenessScore == 0 {
		a.EffectivenessScore = 0.5 // neutral default
	}
	var createdBy any
	if a.CreatedBy != nil {
		createdBy = *a.CreatedBy
	}
	_, err := s.db.Exec(`INSERT INTO knowledge_articles
		(id, title, summary, content, category, tags, source_ticket_ids, status,
		 effectiveness_score, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.Summary, a.Content, a.Category,
		marshalStrings(a.Tags), marshalInt64s(a.SourceTicketIDs), a.Status,
		a.EffectivenessScore, createdBy)
	if err != nil {
		return nil, fmt.Errorf("create article: %w", err)
	}
	return s.GetArticle(a.ID)
}

// GetArticle returns an article by id.
func (s *Store) GetArticle(id string) (*KnowledgeArticle, error) {
	row := s.db.QueryRow(`SELECT id, title, summary, content, category, tags, source_ticket_ids,
		status, effectiveness_score, usage_count, helpful_votes, unhelpful_votes,
		created_by, created_at, updated_at
		FROM knowledge_articles WHERE id = ?`, id)
	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("article not found: %s", id)
	}
	return a, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*KnowledgeArticle, error) {
	var a KnowledgeArticle
	var tags, ticketIDs string
	var createdBy sql.NullString
	err := row.Scan(&a.ID, &a.Title, &a.Summary, &a.Content, &a.Category, &tags, &ticketIDs,
		&a.Status, &a.EffectivenessScore, &a.UsageCount, &a.HelpfulVotes, &a.UnhelpfulVotes,
		&createdBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Tags = unmarshalStrings(tags)
	a.SourceTicketIDs = unmarshalInt64s(ticketIDs)
	if createdBy.Valid {
		a.CreatedBy = &createdBy.String
	}
	return &a, nil
}

// UpdateArticleStatus moves an article through its lifecycle. Callers must
// validate the transition first (knowledge.CanTransition).
func (s *Store) UpdateArticleStatus(id, status string) error {
	result, err := s.db.Exec(`UPDATE knowledge_articles SET status = ?, updated_at = datetime('now')
		WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update article status: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("article not found: %s", id)
	}
	return nil
}

// ApplyArticleFeedback updates vote counters and nudges the effectiveness
// score in one statement. The clamp runs inside the UPDATE so two concurrent
// ratings both land; a read-then-write would let one overwrite the other.
func (s *Store) ApplyArticleFeedback(id string, helpfulDelta, unhelpfulDelta int, scoreDelta float64) error {
	result, err := s.db.Exec(`UPDATE knowledge_articles SET
		helpful_votes = helpful_votes + ?,
		unhelpful_votes = unhelpful_votes + ?,
		effectiveness_score = MAX(0.0, MIN(1.0, effectiveness_score + ?)),
		updated_at = datetime('now')
		WHERE id = ?`, helpfulDelta, unhelpfulDelta, scoreDelta, id)
	if err != nil {
		return fmt.Errorf("apply article feedback: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("article not found: %s", id)
	}
	return nil
}

// IncrementArticleUsage counts one surfacing of the article to a user.
// Independent of rating events.
func (s *Store) IncrementArticleUsage(id string) error {
	_, err := s.db.Exec(`UPDATE knowledge_articles SET usage_count = usage_count + 1,
		updated_at = datetime('now') WHERE id = ?`, id)
	return err
}

// ListArticles returns articles filtered by optional status.
func (s *Store) ListArticles(status string, limit int) ([]KnowledgeArticle, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, title, summary, content, category, tags, source_ticket_ids,
		status, effectiveness_score, usage_count, helpful_votes, unhelpful_votes,
		created_by, created_at, updated_at
		FROM knowledge_articles WHERE 1=1`
	args := []any{}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY updated_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []KnowledgeArticle
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// SearchArticles is the non-AI fallback: keyword search over published
// articles, ranked by effectiveness.
func (s *Store) SearchArticles(query string, limit int) ([]KnowledgeArticle, error) {
	if limit <= 0 {
		limit = 5
	}
	like := "%" + query + "%"
	rows, err := s.db.Query(`SELECT id, title, summary, content, category, tags, source_ticket_ids,
		status, effectiveness_score, usage_count, helpful_votes, unhelpful_votes,
		created_by, created_at, updated_at
		FROM knowledge_articles
		WHERE status = ? AND (title LIKE ? OR summary LIKE ? OR content LIKE ? OR tags LIKE ?)
		ORDER BY effectiveness_score DESC, usage_count DESC
		LIMIT ?`, ArticlePublished, like, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("search articles: %w", err)
	}
	defer rows.Close()

	var out []KnowledgeArticle
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}
