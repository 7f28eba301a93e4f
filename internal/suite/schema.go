package suite

import "time"

// Version is the schema version of the shared keys.
const Version = "v1"

// Persisted keys shared by every application of the suite. They are stable
// across versions.
const (
	KeyIntentions       = "suite.intentions"
	KeyCurrentIntention = "suite.currentIntention"
	KeySuggestedRitual  = "suite.suggestedRitual"
	KeyJournals         = "suite.journals"
	KeyTasks            = "suite.tasks"
	KeyTaskOutcomes     = "suite.taskOutcomes"
	KeyInsights         = "suite.insights"
)

// Keys lists every shared key.
var Keys = []string{
	KeyIntentions,
	KeyCurrentIntention,
	KeySuggestedRitual,
	KeyJournals,
	KeyTasks,
	KeyTaskOutcomes,
	KeyInsights,
}

// IsLog reports whether key holds an append-only log rather than a single value.
func IsLog(key string) bool {
	switch key {
	case KeyIntentions, KeyJournals, KeyTasks, KeyTaskOutcomes, KeyInsights:
		return true
	default:
		return false
	}
}

// Meta carries free-form caller metadata.
type Meta map[string]any

// Intention is what the user means to work on. The latest one is also kept in
// KeyCurrentIntention.
type Intention struct {
	ID     string    `json:"id"`
	At     time.Time `json:"at"`
	Text   string    `json:"text"`
	Meta   Meta      `json:"meta"`
	Source string    `json:"source"`
}

// Task is appended to KeyTasks when an application creates a task.
type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Estimate  int       `json:"estimate,omitempty"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
}

// TaskOutcome records one completed timed session. Duration is in minutes.
type TaskOutcome struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Success  bool      `json:"success"`
	Duration int       `json:"duration"`
	Notes    string    `json:"notes,omitempty"`
	Source   string    `json:"source"`
	At       time.Time `json:"at"`
}

// SuggestedRitual is a single overwritable suggestion.
type SuggestedRitual struct {
	RitualID string    `json:"ritualId"`
	Reason   string    `json:"reason"`
	At       time.Time `json:"at"`
	Source   string    `json:"source"`
}

// Insight is appended to KeyInsights.
type Insight struct {
	ID      string    `json:"id"`
	At      time.Time `json:"at"`
	Content string    `json:"content"`
	Meta    Meta      `json:"meta"`
	Source  string    `json:"source"`
}

// Journal is a free-form entry; the bus only owns its "id" and "at" fields.
type Journal map[string]any
