package store

import "time"

// Ticket statuses. The pipeline reads these; it never writes them.
const (
	TicketOpen       = "open"
	TicketInProgress = "in_progress"
	TicketResolved   = "resolved"
	TicketClosed     = "closed"
	TicketOnHold     = "on_hold"
)

// Learning queue item states.
const (
	LearnPending    = "pending"
	LearnProcessing = "processing"
	LearnDone       = "done"
	LearnFailed     = "failed"
)

// Knowledge article statuses.
const (
	ArticleDraft     = "draft"
	ArticlePublished = "published"
	ArticleArchived  = "archived"
)

// Feedback target types.
const (
	FeedbackTargetAutoResponse = "auto_response"
	FeedbackTargetArticle      = "article"
)

// Ticket is owned by the surrounding application; this core reads it and
// appends derived records only.
type Ticket struct {
	ID          int64
	Title       string
	Description string
	Category    string
	Priority    string
	Status      string
	CreatedAt   time.Time
	ResolvedAt  *time.Time
}

// Comment is one entry in a ticket's discussion thread.
type Comment struct {
	ID         int64
	TicketID   int64
	AuthorID   string
	Body       string
	IsInternal bool
	CreatedAt  time.Time
}

// ComplexityScore is one analysis run's difficulty estimate for a ticket.
// Immutable once written; re-analysis appends a new row, latest wins.
type ComplexityScore struct {
	ID        int64
	TicketID  int64
	Score     int
	Factors   []string
	Rationale string
	CreatedAt time.Time
}

// AutoResponse is a generated answer for a ticket. At most one row per ticket
// carries WasApplied=true at a time.
type AutoResponse struct {
	ID         int64
	TicketID   int64
	Body       string
	Confidence float64
	WasApplied bool
	WasHelpful *bool
	CreatedAt  time.Time
}

// FaqEntry is a cached answer keyed by the digest of a normalized question.
type FaqEntry struct {
	QuestionDigest     string
	OriginalQuestion   string
	NormalizedQuestion string
	Answer             string
	HitCount           int64
	CreatedAt          time.Time
	LastHitAt          *time.Time
}

// KnowledgeArticle is a reusable problem/solution record. CreatedBy is nil
// for system-generated articles.
type KnowledgeArticle struct {
	ID                 string
	Title              string
	Summary            string
	Content            string
	Category           string
	Tags               []string
	SourceTicketIDs    []int64
	Status             string
	EffectivenessScore float64
	UsageCount         int64
	HelpfulVotes       int64
	UnhelpfulVotes     int64
	CreatedBy          *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// LearningQueueItem is one unit of work for the learning engine. A ticket is
// queued at most once.
type LearningQueueItem struct {
	TicketID  int64
	Status    string
	Note      string
	Attempts  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EscalationRule routes a ticket to a team when its predicate matches.
// Rules evaluate in descending Priority order; first match wins.
type EscalationRule struct {
	ID            int64
	Name          string
	Priority      int
	MinComplexity int
	Categories    []string
	Keywords      []string
	TargetTeam    string
	Enabled       bool
	CreatedAt     time.Time
}

// CostLimits are per-caller governor limits. Rows are stored already clamped
// for restricted accounts (clamping happens at write time).
type CostLimits struct {
	CallerID             string
	MaxRequestsPerMinute int
	MaxRequestsPerHour   int
	MaxRequestsPerDay    int
	MaxTokensPerRequest  int
	DailyCostLimit       float64
	MonthlyCostLimit     float64
	Restricted           bool
	UpdatedAt            time.Time
}

// FeedbackEntry is one append-only user rating of an AI artifact.
type FeedbackEntry struct {
	ID         int64
	TargetType string
	TargetID   string
	UserID     string
	Rating     int
	Comment    string
	TicketID   *int64
	CreatedAt  time.Time
}
