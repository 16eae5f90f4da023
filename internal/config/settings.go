package config

// Settings are the admin-tunable knobs of the triage and learning pipeline.
// They are re-read from the store at the start of every Analyzer/Learning run
// so administrative changes take effect on the next call without a restart.
type Settings struct {
	ConfidenceThreshold  float64 `json:"confidenceThreshold"`
	ComplexityThreshold  int     `json:"complexityThreshold"`
	MinResponseLength    int     `json:"minResponseLength"`
	AutoLearnEnabled     bool    `json:"autoLearnEnabled"`
	ApprovalRequired     bool    `json:"approvalRequired"`
	MaxTokensPerRequest  int     `json:"maxTokensPerRequest"`
	MaxRequestsPerMinute int     `json:"maxRequestsPerMinute"`
	MaxRequestsPerHour   int     `json:"maxRequestsPerHour"`
	MaxRequestsPerDay    int     `json:"maxRequestsPerDay"`
	DailyCostLimit       float64 `json:"dailyCostLimit"`
	MonthlyCostLimit     float64 `json:"monthlyCostLimit"`
	RestrictedAccount    bool    `json:"restrictedAccount"`
}

// SettingsProvider supplies a fresh Settings snapshot per operation. The store
// implements this; components receive it injected rather than reading any
// process-global state.
type SettingsProvider interface {
	Settings() (Settings, error)
}

// DefaultSettings returns the initial admin settings for a new installation.
func DefaultSettings() Settings {
	return Settings{
		ConfidenceThreshold:  0.7,
		ComplexityThreshold:  70,
		MinResponseLength:    40,
		AutoLearnEnabled:     true,
		ApprovalRequired:     true,
		MaxTokensPerRequest:  8000,
		MaxRequestsPerMinute: 10,
		MaxRequestsPerHour:   100,
		MaxRequestsPerDay:    500,
		DailyCostLimit:       10.0,
		MonthlyCostLimit:     150.0,
	}
}
