package knowledge

import (
	"fmt"
	"log/slog"

	"github.com/deskhive/deskhive/internal/bus"
	"github.com/deskhive/deskhive/internal/config"
	"github.com/deskhive/deskhive/internal/store"
)

type articleStore interface {
	GetArticle(id string) (*store.KnowledgeArticle, error)
	CreateArticle(a *store.KnowledgeArticle) (*store.KnowledgeArticle, error)
	UpdateArticleStatus(id, status string) error
	ListArticles(status string, limit int) ([]store.KnowledgeArticle, error)
	SearchArticles(query string, limit int) ([]store.KnowledgeArticle, error)
}

// Service manages article lifecycle moves and emits events for them.
type Service struct {
	store    articleStore
	settings config.SettingsProvider
	events   *bus.EventBus
	logger   *slog.Logger
}

func NewService(s articleStore, settings config.SettingsProvider, events *bus.EventBus, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: s, settings: settings, events: events, logger: logger}
}

// Create validates and stores a new article (draft unless set otherwise).
func (s *Service) Create(a *store.KnowledgeArticle) (*store.KnowledgeArticle, error) {
	if err := ValidateArticle(a); err != nil {
		return nil, err
	}
	return s.store.CreateArticle(a)
}

// Publish moves a draft to published. approved is the human sign-off for
// system-generated drafts; whether it is needed depends on current settings.
func (s *Service) Publish(id string, approved bool) error {
	article, err := s.store.GetArticle(id)
	if err != nil {
		return err
	}
	settings, err := s.settings.Settings()
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	policy := PublishPolicy{ApprovalRequired: settings.ApprovalRequired}
	if d := EvaluatePublish(article, approved, policy); !d.Allowed {
		return fmt.Errorf("publish %s: %s", id, d.Reason)
	}
	if err := s.store.UpdateArticleStatus(id, store.ArticlePublished); err != nil {
		return err
	}
	s.logger.Info("article published", "article", id, "title", article.Title)
	if s.events != nil {
		s.events.Publish(&bus.Event{
			Type:      bus.EventArticlePublished,
			ArticleID: id,
			Detail:    map[string]any{"title": article.Title, "category": article.Category},
		})
	}
	return nil
}

// Archive retires an article from the published pool. Articles are never
// deleted; their vote history stays intact.
func (s *Service) Archive(id string) error {
	return s.transition(id, store.ArticleArchived)
}

// Restore returns an archived article to draft for re-review.
func (s *Service) Restore(id string) error {
	return s.transition(id, store.ArticleDraft)
}

func (s *Service) transition(id, to string) error {
	article, err := s.store.GetArticle(id)
	if err != nil {
		return err
	}
	if !CanTransition(article.Status, to) {
		return fmt.Errorf("article %s: cannot move %s -> %s", id, article.Status, to)
	}
	return s.store.UpdateArticleStatus(id, to)
}

// Search returns published articles matching a query, best first.
func (s *Service) Search(query string, limit int) ([]store.KnowledgeArticle, error) {
	return s.store.SearchArticles(query, limit)
}

// List returns articles filtered by optional status.
func (s *Service) List(status string, limit int) ([]store.KnowledgeArticle, error) {
	return s.store.ListArticles(status, limit)
}
