// Package engine implements the two-phase analyze/execute pipeline behind a
// conversational suggestion system: a context analyzer proposing five growth
// paths per user input, a pure router mapping each path to a model
// configuration, and an executor that runs the selected path with at most one
// tool round-trip.
package engine

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sporefield/mycelium/internal/llm"
)

var (
	// ErrBusy is returned when a pipeline phase is already in flight.
	ErrBusy = errors.New("engine: a pipeline phase is already active")
	// ErrEmptyInput is returned for blank input.
	ErrEmptyInput = errors.New("engine: input is empty")
	// ErrUnknownSuggestion is returned when the selected id is not in the
	// current suggestion set.
	ErrUnknownSuggestion = errors.New("engine: no such suggestion in the current set")
)

// Event is a pipeline notification pushed to an observing UI collaborator.
type Event struct {
	Type    string    `json:"type"` // "state", "log" or "message"
	State   *State    `json:"state,omitempty"`
	Log     *LogEntry `json:"log,omitempty"`
	Message *Message  `json:"message,omitempty"`
}

// Options configures a new Engine.
type Options struct {
	Provider  llm.Provider
	FastModel string
	DeepModel string

	// Search optionally answers tool hops with real document retrieval.
	Search SearchBackend

	// NewID generates unique identifiers for messages, suggestions and log
	// entries. Defaults to UUID v4.
	NewID func() string

	// Logger mirrors pipeline transitions to structured logging. Defaults
	// to a no-op logger.
	Logger *zap.Logger

	// OnEvent, when set, receives an event for every state change, log
	// append and message append. It is called outside the engine lock.
	OnEvent func(Event)
}

// Engine is the session-scoped state machine driving the pipeline. All state
// lives in memory and is recreated at process start.
type Engine struct {
	// mu guards phase, active, logs and suggestions. It is never held
	// across a provider call.
	mu sync.Mutex

	analyzer *Analyzer
	executor *Executor
	conv     *Conversation
	newID    func() string
	logger   *zap.Logger
	onEvent  func(Event)

	active      bool
	phase       Phase
	logs        []LogEntry
	suggestions []Suggestion
}

// New creates an engine in the Idle phase with the growth engine active.
func New(opts Options) *Engine {
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Engine{
		analyzer: NewAnalyzer(opts.Provider, opts.FastModel, opts.NewID),
		executor: NewExecutor(opts.Provider, opts.FastModel, opts.DeepModel, opts.Search),
		conv:     NewConversation(),
		newID:    opts.NewID,
		logger:   opts.Logger,
		onEvent:  opts.OnEvent,
		active:   true,
		phase:    PhaseIdle,
	}
}

// State returns a snapshot of the engine for UI consumption.
func (g *Engine) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

func (g *Engine) snapshotLocked() State {
	logs := make([]LogEntry, len(g.logs))
	copy(logs, g.logs)
	suggestions := make([]Suggestion, len(g.suggestions))
	copy(suggestions, g.suggestions)
	return State{
		Active:      g.active,
		Analyzing:   g.phase == PhaseAnalyzing,
		Executing:   g.phase == PhaseExecuting,
		Logs:        logs,
		Suggestions: suggestions,
	}
}

// Messages returns the conversation in append order.
func (g *Engine) Messages() []Message {
	return g.conv.Messages()
}

// SetActive toggles the growth engine. While inactive, input bypasses
// analysis and is answered through a synthesized standard-reply path.
func (g *Engine) SetActive(active bool) {
	g.mu.Lock()
	var events []Event
	if g.active != active {
		g.active = active
		if active {
			events = append(events, g.appendLogLocked(LogInfo, "growth engine switched on"))
		} else {
			events = append(events, g.appendLogLocked(LogInfo, "growth engine switched off; inputs get a standard reply"))
		}
		events = append(events, g.stateEventLocked())
	}
	g.mu.Unlock()
	g.emit(events)
}

// SubmitInput appends the user's message and runs the analysis phase,
// returning the surfaced growth paths. While the engine is inactive it
// instead executes a synthesized standard reply immediately and returns no
// suggestions. The call blocks until the provider responds.
func (g *Engine) SubmitInput(ctx context.Context, text string) ([]Suggestion, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}

	g.mu.Lock()
	if g.phase != PhaseIdle {
		g.mu.Unlock()
		return nil, ErrBusy
	}

	history := g.conv.Messages()
	userMsg := g.newMessage(RoleUser, text, nil)
	g.conv.Append(userMsg)
	events := []Event{{Type: "message", Message: &userMsg}}

	if !g.active {
		return g.standardReplyLocked(ctx, history, text, events)
	}

	g.suggestions = nil
	g.phase = PhaseAnalyzing
	events = append(events,
		g.appendLogLocked(LogInfo, "spore received; analyzing substrate ("+strconv.Itoa(len(history))+" prior messages)"),
		g.stateEventLocked(),
	)
	g.mu.Unlock()
	g.emit(events)

	result, err := g.analyzer.Analyze(ctx, history, text)

	g.mu.Lock()
	events = nil
	if err != nil {
		g.suggestions = nil
		g.phase = PhaseIdle
		events = append(events,
			g.appendLogLocked(LogWarning, "analysis failed: "+err.Error()),
			g.stateEventLocked(),
		)
		g.mu.Unlock()
		g.emit(events)
		g.logger.Warn("analysis failed", zap.Error(err))
		return nil, err
	}

	g.suggestions = result.Suggestions
	g.phase = PhaseIdle
	if len(result.PatternsDetected) > 0 {
		events = append(events, g.appendLogLocked(LogPattern,
			"patterns detected: "+strings.Join(result.PatternsDetected, ", ")))
	}
	events = append(events, g.appendLogLocked(LogInfo,
		"substrate depth: "+string(result.HistoryDepth)))
	if result.DialecticalOpportunity != "" {
		events = append(events, g.appendLogLocked(LogPattern,
			"dialectical opportunity: "+result.DialecticalOpportunity))
	}
	events = append(events,
		g.appendLogLocked(LogSuccess, strconv.Itoa(len(result.Suggestions))+" growth paths surfaced"),
		g.stateEventLocked(),
	)
	suggestions := make([]Suggestion, len(g.suggestions))
	copy(suggestions, g.suggestions)
	g.mu.Unlock()
	g.emit(events)

	g.logger.Debug("analysis complete",
		zap.Strings("patterns", result.PatternsDetected),
		zap.String("depth", string(result.HistoryDepth)))
	return suggestions, nil
}

// SelectSuggestion executes the identified growth path. The suggestion set is
// cleared before the provider call begins, so selecting twice from the same
// set is impossible. The resulting model message is always appended, carrying
// the error sentinel metadata when execution failed.
func (g *Engine) SelectSuggestion(ctx context.Context, id string) (Message, error) {
	g.mu.Lock()
	if g.phase != PhaseIdle {
		g.mu.Unlock()
		return Message{}, ErrBusy
	}

	var selected *Suggestion
	for i := range g.suggestions {
		if g.suggestions[i].ID == id {
			selected = &g.suggestions[i]
			break
		}
	}
	if selected == nil {
		g.mu.Unlock()
		return Message{}, ErrUnknownSuggestion
	}
	sug := *selected

	// Clear the active set before any network activity.
	g.suggestions = nil
	g.phase = PhaseExecuting
	events := []Event{
		g.appendLogLocked(LogInfo, "growing path: "+sug.Title+" ["+string(sug.Type)+"]"),
		g.stateEventLocked(),
	}
	history := g.conv.Messages()
	lastInput := g.conv.LastUserInput()
	g.mu.Unlock()
	g.emit(events)

	res := g.executor.Execute(ctx, sug, history, lastInput)

	g.mu.Lock()
	msg := g.newMessage(RoleModel, res.Text, &MessageMeta{
		SuggestionType: sug.Type,
		ModelUsed:      res.ModelUsed,
		Duration:       res.Duration,
		Citations:      res.Citations,
	})
	g.conv.Append(msg)
	events = []Event{{Type: "message", Message: &msg}}
	if res.ModelUsed == ErrorModel {
		events = append(events, g.appendLogLocked(LogWarning, "path failed to grow: "+sug.Title))
	} else {
		events = append(events, g.appendLogLocked(LogSuccess,
			"path grown via "+res.ModelUsed+" in "+res.Duration.Round(time.Millisecond).String()))
	}
	g.phase = PhaseIdle
	events = append(events, g.stateEventLocked())
	g.mu.Unlock()
	g.emit(events)

	g.logger.Debug("execution complete",
		zap.String("type", string(sug.Type)),
		zap.String("model", res.ModelUsed),
		zap.Duration("duration", res.Duration),
		zap.Float64("est_cost_usd", llm.EstimateCost(res.ModelUsed, res.InputTokens, res.OutputTokens)))
	return msg, nil
}

// standardReplyLocked runs the degraded path for an inactive engine. Called
// with the lock held; releases it.
func (g *Engine) standardReplyLocked(ctx context.Context, history []Message, text string, events []Event) ([]Suggestion, error) {
	sug := Suggestion{
		ID:          g.newID(),
		Type:        suggestStandard,
		Title:       "Standard reply",
		Description: "Respond directly to the user's message.",
		Reasoning:   "The growth engine is switched off.",
		Confidence:  1,
	}
	g.phase = PhaseExecuting
	events = append(events,
		g.appendLogLocked(LogInfo, "engine off; executing standard reply"),
		g.stateEventLocked(),
	)
	g.mu.Unlock()
	g.emit(events)

	res := g.executor.Execute(ctx, sug, history, text)

	g.mu.Lock()
	msg := g.newMessage(RoleModel, res.Text, &MessageMeta{
		SuggestionType: sug.Type,
		ModelUsed:      res.ModelUsed,
		Duration:       res.Duration,
		Citations:      res.Citations,
	})
	g.conv.Append(msg)
	events = []Event{{Type: "message", Message: &msg}}
	if res.ModelUsed == ErrorModel {
		events = append(events, g.appendLogLocked(LogWarning, "standard reply failed"))
	} else {
		events = append(events, g.appendLogLocked(LogSuccess, "standard reply delivered"))
	}
	g.phase = PhaseIdle
	events = append(events, g.stateEventLocked())
	g.mu.Unlock()
	g.emit(events)
	return nil, nil
}

func (g *Engine) newMessage(role Role, content string, meta *MessageMeta) Message {
	return Message{
		ID:        g.newID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Meta:      meta,
	}
}

// appendLogLocked appends a diagnostic entry and returns its event. Must be
// called with the lock held.
func (g *Engine) appendLogLocked(typ LogType, message string) Event {
	entry := LogEntry{
		ID:        g.newID(),
		Timestamp: time.Now(),
		Message:   message,
		Type:      typ,
	}
	g.logs = append(g.logs, entry)
	return Event{Type: "log", Log: &entry}
}

func (g *Engine) stateEventLocked() Event {
	s := g.snapshotLocked()
	return Event{Type: "state", State: &s}
}

func (g *Engine) emit(events []Event) {
	if g.onEvent == nil {
		return
	}
	for _, ev := range events {
		g.onEvent(ev)
	}
}
