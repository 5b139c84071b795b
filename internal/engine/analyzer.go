package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sporefield/mycelium/internal/llm"
)

// suggestionCount is the number of growth paths every analysis must produce.
const suggestionCount = 5

// AnalysisError is returned when the analysis phase fails: the provider was
// unreachable, returned no content, or returned a payload that does not
// conform to the analysis schema. A malformed payload is a hard failure, not
// something the analyzer repairs or retries.
type AnalysisError struct {
	Reason string
	Err    error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("analysis failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("analysis failed: %s", e.Reason)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// Analyzer turns the substrate plus a new spore into an AnalysisResult.
type Analyzer struct {
	provider llm.Provider
	model    string
	newID    func() string
}

// NewAnalyzer creates an analyzer using the given provider and fast-tier
// model. newID stamps identifiers onto the produced suggestions.
func NewAnalyzer(provider llm.Provider, model string, newID func() string) *Analyzer {
	return &Analyzer{
		provider: provider,
		model:    model,
		newID:    newID,
	}
}

// analysisWire is the JSON shape the provider is asked to return.
type analysisWire struct {
	PatternsDetected       []string `json:"patterns_detected"`
	HistoryDepth           string   `json:"history_depth"`
	ContextContinuity      string   `json:"context_continuity"`
	DialecticalOpportunity string   `json:"dialectical_opportunity"`
	Suggestions            []struct {
		Type        string  `json:"type"`
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Reasoning   string  `json:"reasoning"`
		Confidence  float64 `json:"confidence"`
	} `json:"suggestions"`
}

// Analyze serializes the history and new input into one structured prompt and
// asks the provider for a schema-constrained analysis. It performs no
// semantic validation beyond schema conformance and never mutates the
// conversation.
func (a *Analyzer) Analyze(ctx context.Context, history []Message, newInput string) (*AnalysisResult, error) {
	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		Model:             a.model,
		SystemInstruction: analyzerDirective,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildAnalysisPrompt(history, newInput)},
		},
		MaxTokens:   4096,
		Temperature: 0.7,
		JSONMode:    true,
		JSONSchema:  analysisSchema,
	})
	if err != nil {
		return nil, &AnalysisError{Reason: "provider unreachable", Err: err}
	}
	if resp.Content == "" {
		return nil, &AnalysisError{Reason: "provider returned no content"}
	}

	var wire analysisWire
	if err := json.Unmarshal([]byte(resp.Content), &wire); err != nil {
		return nil, &AnalysisError{Reason: "malformed analysis payload", Err: err}
	}

	result, err := a.fromWire(wire)
	if err != nil {
		return nil, &AnalysisError{Reason: "non-conforming analysis payload", Err: err}
	}
	return result, nil
}

// fromWire validates the decoded payload against the five-suggestion
// invariant and converts it to the domain type.
func (a *Analyzer) fromWire(wire analysisWire) (*AnalysisResult, error) {
	if len(wire.Suggestions) != suggestionCount {
		return nil, fmt.Errorf("expected %d suggestions, got %d", suggestionCount, len(wire.Suggestions))
	}

	valid := make(map[SuggestionType]bool, len(SuggestionTypes))
	for _, t := range SuggestionTypes {
		valid[t] = true
	}

	seen := make(map[SuggestionType]bool, suggestionCount)
	suggestions := make([]Suggestion, 0, suggestionCount)
	for _, s := range wire.Suggestions {
		st := SuggestionType(s.Type)
		if !valid[st] {
			return nil, fmt.Errorf("unknown suggestion type %q", s.Type)
		}
		if seen[st] {
			return nil, fmt.Errorf("duplicate suggestion type %q", s.Type)
		}
		seen[st] = true

		confidence := s.Confidence
		if confidence < 0 {
			confidence = 0
		} else if confidence > 1 {
			confidence = 1
		}

		suggestions = append(suggestions, Suggestion{
			ID:          a.newID(),
			Type:        st,
			Title:       s.Title,
			Description: s.Description,
			Reasoning:   s.Reasoning,
			Confidence:  confidence,
		})
	}

	depth := HistoryDepth(wire.HistoryDepth)
	switch depth {
	case DepthShallow, DepthMedium, DepthDeep:
	default:
		return nil, fmt.Errorf("unknown history depth %q", wire.HistoryDepth)
	}

	return &AnalysisResult{
		PatternsDetected:       wire.PatternsDetected,
		HistoryDepth:           depth,
		ContextContinuity:      wire.ContextContinuity,
		DialecticalOpportunity: wire.DialecticalOpportunity,
		Suggestions:            suggestions,
	}, nil
}
