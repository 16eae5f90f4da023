package faqcache

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/deskhive/deskhive/internal/store"
)

// entryStore is the slice of the store the cache needs.
type entryStore interface {
	GetFaqEntry(digest string) (*store.FaqEntry, error)
	UpsertFaqEntry(e *store.FaqEntry) error
	TouchFaqEntry(digest string) error
}

// Cache answers repeated questions without an inference call. Only answers
// generated from the question text alone belong here; anything that used
// ticket-specific context would leak that context to the next asker.
type Cache struct {
	store  entryStore
	logger *slog.Logger

	mu      sync.Mutex
	writing map[string]*sync.Mutex
}

func New(s entryStore, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{store: s, logger: logger, writing: make(map[string]*sync.Mutex)}
}

// digestLock serializes in-process writers of one digest: two tickets asking
// the same question at once race to store first, and interleaved upserts would
// let the answers cross. Cross-process writers fall back to the upsert's
// last-writer-wins conflict clause.
func (c *Cache) digestLock(digest string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.writing[digest]
	if !ok {
		m = &sync.Mutex{}
		c.writing[digest] = m
	}
	return m
}

// Lookup returns the cached answer for a question, or nil on a miss. A hit
// bumps the entry's hit counter; a miss mutates nothing.
func (c *Cache) Lookup(question string) (*store.FaqEntry, error) {
	normalized := Normalize(question)
	if normalized == "" {
		return nil, nil
	}
	digest := Digest(normalized)
	entry, err := c.store.GetFaqEntry(digest)
	if err != nil {
		return nil, fmt.Errorf("cache lookup: %w", err)
	}
	if entry == nil {
		return nil, nil
	}
	if err := c.store.TouchFaqEntry(digest); err != nil {
		// Counter bump is bookkeeping; the answer is still good.
		c.logger.Warn("faq hit counter update failed", "digest", digest, "error", err)
	}
	entry.HitCount++
	c.logger.Debug("faq cache hit", "digest", digest, "hits", entry.HitCount)
	return entry, nil
}

// Store caches an answer under the question's digest. Idempotent: storing the
// same digest twice leaves one entry, last answer wins, hit count preserved.
// Empty questions and answers are ignored.
func (c *Cache) Store(question, answer string) error {
	normalized := Normalize(question)
	if normalized == "" || strings.TrimSpace(answer) == "" {
		return nil
	}
	digest := Digest(normalized)
	lock := c.digestLock(digest)
	lock.Lock()
	defer lock.Unlock()

	entry := &store.FaqEntry{
		QuestionDigest:     digest,
		OriginalQuestion:   question,
		NormalizedQuestion: normalized,
		Answer:             answer,
	}
	if err := c.store.UpsertFaqEntry(entry); err != nil {
		return fmt.Errorf("cache store: %w", err)
	}
	return nil
}
