package engine

import "time"

// SuggestionType is the category of a growth path. The six categories drive
// model routing: some need deliberation depth, some need retrieval, some need
// low latency.
type SuggestionType string

const (
	SuggestClarify     SuggestionType = "clarify"
	SuggestExpand      SuggestionType = "expand"
	SuggestCreate      SuggestionType = "create"
	SuggestConnect     SuggestionType = "connect"
	SuggestChallenge   SuggestionType = "challenge"
	SuggestCrystallize SuggestionType = "crystallize"

	// suggestStandard is the synthesized fallback category used when the
	// engine is toggled off. It is never produced by the analyzer and routes
	// through the plain fast tier.
	suggestStandard SuggestionType = "standard"
)

// SuggestionTypes lists the six analyzer-producible categories.
var SuggestionTypes = []SuggestionType{
	SuggestClarify,
	SuggestExpand,
	SuggestCreate,
	SuggestConnect,
	SuggestChallenge,
	SuggestCrystallize,
}

// Suggestion is one proposed growth path for the conversation.
type Suggestion struct {
	ID          string         `json:"id"`
	Type        SuggestionType `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Reasoning   string         `json:"reasoning"`
	Confidence  float64        `json:"confidence"`
}

// HistoryDepth describes how deeply the newest input relates to prior turns.
type HistoryDepth string

const (
	DepthShallow HistoryDepth = "shallow"
	DepthMedium  HistoryDepth = "medium"
	DepthDeep    HistoryDepth = "deep"
)

// AnalysisResult is the analyzer's structured reading of the substrate plus
// exactly five suggestions of pairwise-distinct types.
type AnalysisResult struct {
	PatternsDetected       []string     `json:"patterns_detected"`
	HistoryDepth           HistoryDepth `json:"history_depth"`
	ContextContinuity      string       `json:"context_continuity"`
	DialecticalOpportunity string       `json:"dialectical_opportunity"`
	Suggestions            []Suggestion `json:"suggestions"`
}

// Role identifies which party authored a message.
type Role string

const (
	RoleUser   Role = "user"
	RoleModel  Role = "model"
	RoleSystem Role = "system"
)

// Citation is a source reference carried on a model message.
type Citation struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// MessageMeta records how a model message was produced.
type MessageMeta struct {
	SuggestionType SuggestionType `json:"suggestion_type,omitempty"`
	ModelUsed      string         `json:"model_used,omitempty"`
	Duration       time.Duration  `json:"duration_ms,omitempty"`
	Citations      []Citation     `json:"citations,omitempty"`
}

// Message is one immutable entry in the conversation.
type Message struct {
	ID        string       `json:"id"`
	Role      Role         `json:"role"`
	Content   string       `json:"content"`
	Timestamp time.Time    `json:"timestamp"`
	Meta      *MessageMeta `json:"meta,omitempty"`
}

// LogType classifies diagnostic log entries.
type LogType string

const (
	LogInfo    LogType = "info"
	LogSuccess LogType = "success"
	LogWarning LogType = "warning"
	LogPattern LogType = "pattern"
)

// LogEntry is one append-only entry in the engine's diagnostic log.
type LogEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Type      LogType   `json:"type"`
}

// Phase is the engine's pipeline phase. Exactly one phase is current at any
// time; Analyzing and Executing are mutually exclusive by construction.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAnalyzing
	PhaseExecuting
)

func (p Phase) String() string {
	switch p {
	case PhaseAnalyzing:
		return "analyzing"
	case PhaseExecuting:
		return "executing"
	default:
		return "idle"
	}
}

// State is a read-only snapshot of the engine handed to UI collaborators.
type State struct {
	Active      bool         `json:"is_active"`
	Analyzing   bool         `json:"is_analyzing"`
	Executing   bool         `json:"is_executing"`
	Logs        []LogEntry   `json:"logs"`
	Suggestions []Suggestion `json:"current_suggestions"`
}

// ExecutionResult is what the executor hands back for every selection. It is
// always populated: on provider failure ModelUsed is ErrorModel and Text
// carries a fixed apology, so callers never branch on an error.
type ExecutionResult struct {
	Text         string
	ModelUsed    string
	Citations    []Citation
	Duration     time.Duration
	InputTokens  int
	OutputTokens int
}

// ErrorModel is the sentinel ModelUsed value for failed executions.
const ErrorModel = "error"

// SearchHit is one result from a retrieval backend.
type SearchHit struct {
	Title   string
	URI     string
	Snippet string
}
