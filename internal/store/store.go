// Package store provides sqlite persistence for the triage and knowledge
// pipeline. Tickets and comments are owned by the surrounding application;
// everything else is derived data appended by this core.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/deskhive/deskhive/internal/config"
	_ "modernc.org/sqlite"
)

const settingsKey = "ai.settings"

type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and applies the schema.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	// Best-effort migration for existing dbs (no-op if column exists).
	_, _ = db.Exec(`ALTER TABLE learning_queue ADD COLUMN attempts INTEGER NOT NULL DEFAULT 0`)
	_, _ = db.Exec(`ALTER TABLE knowledge_articles ADD COLUMN source_ticket_ids TEXT NOT NULL DEFAULT '[]'`)

	return &Store{db: db}, nil
}

// DB returns the underlying *sql.DB for shared access (e.g. the usage ledger).
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error {
	return s.db.Close()
}

// GetSetting returns a setting value by key.
func (s *Store) GetSetting(key string) (string, error) {
	var val string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&val)
	if err != nil {
		return "", err
	}
	return val, nil
}

// SetSetting persists a setting value.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	return err
}

// Settings returns a fresh admin settings snapshot. Missing or unparsable
// stored settings fall back to defaults, so a new installation works without
// an explicit save.
func (s *Store) Settings() (config.Settings, error) {
	raw, err := s.GetSetting(settingsKey)
	if err == sql.ErrNoRows {
		return config.DefaultSettings(), nil
	}
	if err != nil {
		return config.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	settings := config.DefaultSettings()
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return config.DefaultSettings(), nil
	}
	return settings, nil
}

// SaveSettings persists the admin settings snapshot.
func (s *Store) SaveSettings(settings config.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	return s.SetSetting(settingsKey, string(data))
}

// GetCostLimits returns the stored per-caller limits, if any.
func (s *Store) GetCostLimits(callerID string) (*CostLimits, error) {
	var l CostLimits
	err := s.db.QueryRow(`SELECT caller_id, max_requests_per_minute, max_requests_per_hour,
		max_requests_per_day, max_tokens_per_request, daily_cost_limit, monthly_cost_limit,
		restricted, updated_at
		FROM cost_limits WHERE caller_id = ?`, callerID).
		Scan(&l.CallerID, &l.MaxRequestsPerMinute, &l.MaxRequestsPerHour,
			&l.MaxRequestsPerDay, &l.MaxTokensPerRequest, &l.DailyCostLimit, &l.MonthlyCostLimit,
			&l.Restricted, &l.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cost limits: %w", err)
	}
	return &l, nil
}

// SaveCostLimits upserts per-caller limits. Callers must clamp restricted
// accounts before saving (governor.Clamp); the store persists as given.
func (s *Store) SaveCostLimits(l *CostLimits) error {
	_, err := s.db.Exec(`INSERT INTO cost_limits
		(caller_id, max_requests_per_minute, max_requests_per_hour, max_requests_per_day,
		 max_tokens_per_request, daily_cost_limit, monthly_cost_limit, restricted, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(caller_id) DO UPDATE SET
			max_requests_per_minute = excluded.max_requests_per_minute,
			max_requests_per_hour = excluded.max_requests_per_hour,
			max_requests_per_day = excluded.max_requests_per_day,
			max_tokens_per_request = excluded.max_tokens_per_request,
			daily_cost_limit = excluded.daily_cost_limit,
			monthly_cost_limit = excluded.monthly_cost_limit,
			restricted = excluded.restricted,
			updated_at = datetime('now')`,
		l.CallerID, l.MaxRequestsPerMinute, l.MaxRequestsPerHour, l.MaxRequestsPerDay,
		l.MaxTokensPerRequest, l.DailyCostLimit, l.MonthlyCostLimit, l.Restricted)
	return err
}

// UpsertScheduledJob records a scheduler job run (best-effort bookkeeping).
func (s *Store) UpsertScheduledJob(name, status string, runAt time.Time) error {
	_, err := s.db.Exec(`INSERT INTO scheduled_jobs (job_name, last_status, last_run_at, run_count, updated_at)
		VALUES (?, ?, ?, 1, datetime('now'))
		ON CONFLICT(job_name) DO UPDATE SET
			last_status = excluded.last_status,
			last_run_at = excluded.last_run_at,
			run_count = run_count + 1,
			updated_at = datetime('now')`, name, status, runAt)
	return err
}

// --- JSON column helpers ---

func marshalStrings(v []string) string {
	if v == nil {
		v = []string{}
	}
	data, _ := json.Marshal(v)
	return string(data)
}

func unmarshalStrings(s string) []string {
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

func marshalInt64s(v []int64) string {
	if v == nil {
		v = []int64{}
	}
	data, _ := json.Marshal(v)
	return string(data)
}

func unmarshalInt64s(s string) []int64 {
	var out []int64
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}
