package store

// Schema is the base database schema. Additive changes go through the
// best-effort migrations in New.
const Schema = `
CREATE TABLE IF NOT EXISTS tickets (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT 'general',
	priority TEXT NOT NULL DEFAULT 'medium',
	status TEXT NOT NULL DEFAULT 'open',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	resolved_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets(status);

CREATE TABLE IF NOT EXISTS ticket_comments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ticket_id INTEGER NOT NULL,
	author_id TEXT NOT NULL DEFAULT '',
	body TEXT NOT NULL,
	is_internal BOOLEAN NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_comments_ticket ON ticket_comments(ticket_id);

CREATE TABLE IF NOT EXISTS complexity_scores (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ticket_id INTEGER NOT NULL,
	score INTEGER NOT NULL,
	factors TEXT NOT NULL DEFAULT '[]',
	rationale TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_complexity_ticket ON complexity_scores(ticket_id);

CREATE TABLE IF NOT EXISTS auto_responses (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ticket_id INTEGER NOT NULL,
	body TEXT NOT NULL,
	confidence REAL NOT NULL DEFAULT 0,
	was_applied BOOLEAN NOT NULL DEFAULT 0,
	was_helpful BOOLEAN,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_auto_responses_ticket ON auto_responses(ticket_id);

CREATE TABLE IF NOT EXISTS faq_cache (
	question_digest TEXT PRIMARY KEY,
	original_question TEXT NOT NULL,
	normalized_question TEXT NOT NULL,
	answer TEXT NOT NULL,
	hit_count INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	last_hit_at DATETIME
);

CREATE TABLE IF NOT EXISTS knowledge_articles (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	summary TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT 'general',
	tags TEXT NOT NULL DEFAULT '[]',
	source_ticket_ids TEXT NOT NULL DEFAULT '[]',
	status TEXT NOT NULL DEFAULT 'draft',
	effectiveness_score REAL NOT NULL DEFAULT 0.5,
	usage_count INTEGER NOT NULL DEFAULT 0,
	helpful_votes INTEGER NOT NULL DEFAULT 0,
	unhelpful_votes INTEGER NOT NULL DEFAULT 0,
	created_by TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_articles_status ON knowledge_articles(status);
CREATE INDEX IF NOT EXISTS idx_articles_category ON knowledge_articles(category);

CREATE TABLE IF NOT EXISTS learning_queue (
	ticket_id INTEGER PRIMARY KEY,
	status TEXT NOT NULL DEFAULT 'pending',
	note TEXT NOT NULL DEFAULT '',
	attempts INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_learning_status ON learning_queue(status);

CREATE TABLE IF NOT EXISTS escalation_rules (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	priority INTEGER NOT NULL DEFAULT 0,
	min_complexity INTEGER NOT NULL DEFAULT 0,
	categories TEXT NOT NULL DEFAULT '[]',
	keywords TEXT NOT NULL DEFAULT '[]',
	target_team TEXT NOT NULL,
	enabled BOOLEAN NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS usage_log (
	id TEXT PRIMARY KEY,
	caller_id TEXT NOT NULL,
	operation TEXT NOT NULL,
	model TEXT NOT NULL DEFAULT '',
	input_tokens INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	cost_usd REAL NOT NULL DEFAULT 0,
	ticket_id INTEGER,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_usage_caller ON usage_log(caller_id);
CREATE INDEX IF NOT EXISTS idx_usage_created ON usage_log(created_at);

CREATE TABLE IF NOT EXISTS blocked_calls (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	caller_id TEXT NOT NULL,
	operation TEXT NOT NULL,
	reason TEXT NOT NULL,
	estimated_cost REAL NOT NULL DEFAULT 0,
	ticket_id INTEGER,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_blocked_caller ON blocked_calls(caller_id);

CREATE TABLE IF NOT EXISTS ai_feedback (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	target_type TEXT NOT NULL,
	target_id TEXT NOT NULL,
	user_id TEXT NOT NULL DEFAULT '',
	rating INTEGER NOT NULL,
	comment TEXT NOT NULL DEFAULT '',
	ticket_id INTEGER,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_feedback_target ON ai_feedback(target_type, target_id);

CREATE TABLE IF NOT EXISTS cost_limits (
	caller_id TEXT PRIMARY KEY,
	max_requests_per_minute INTEGER NOT NULL,
	max_requests_per_hour INTEGER NOT NULL,
	max_requests_per_day INTEGER NOT NULL,
	max_tokens_per_request INTEGER NOT NULL,
	daily_cost_limit REAL NOT NULL,
	monthly_cost_limit REAL NOT NULL,
	restricted BOOLEAN NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS scheduled_jobs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	job_name TEXT UNIQUE NOT NULL,
	last_status TEXT DEFAULT '',
	last_run_at DATETIME,
	run_count INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
