package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sporefield/mycelium/internal/llm"
)

func expandSuggestion() Suggestion {
	return Suggestion{
		ID:          "s1",
		Type:        SuggestExpand,
		Title:       "Survey the field",
		Description: "Cover related algorithms",
		Reasoning:   "Context helps",
		Confidence:  0.8,
	}
}

func TestExecuteReturnsSentinelOnProviderFailure(t *testing.T) {
	p := &scriptProvider{Errs: []error{errors.New("connection refused")}}
	ex := NewExecutor(p, "fast-model", "deep-model", nil)

	res := ex.Execute(context.Background(), expandSuggestion(), nil, "input")
	if res.ModelUsed != ErrorModel {
		t.Errorf("ModelUsed = %q, want %q", res.ModelUsed, ErrorModel)
	}
	if res.Text == "" {
		t.Error("failure result must carry text")
	}
	if res.Citations != nil {
		t.Error("failure result must carry no citations")
	}
}

func TestExecutePerformsExactlyOneToolHop(t *testing.T) {
	p := &scriptProvider{Responses: []*llm.CompletionResponse{
		{
			Model:        "fast-model",
			ToolCall:     &llm.ToolCall{Name: "web_search", Args: map[string]any{"query": "fungi"}},
			InputTokens:  100,
			OutputTokens: 10,
		},
		{
			Model:   "fast-model",
			Content: "grounded answer",
			// Even if the follow-up requests another hop, it must not happen.
			ToolCall:     &llm.ToolCall{Name: "web_search", Args: map[string]any{"query": "more"}},
			InputTokens:  150,
			OutputTokens: 40,
		},
	}}
	ex := NewExecutor(p, "fast-model", "deep-model", nil)

	res := ex.Execute(context.Background(), expandSuggestion(), nil, "input")
	if p.CallCount() != 2 {
		t.Fatalf("expected exactly 2 provider calls, got %d", p.CallCount())
	}
	if res.Text != "grounded answer" {
		t.Errorf("Text = %q", res.Text)
	}
	if res.InputTokens != 250 || res.OutputTokens != 50 {
		t.Errorf("token usage = %d/%d, want both calls summed", res.InputTokens, res.OutputTokens)
	}

	followUp := p.Calls[1]
	if followUp.Tools != nil {
		t.Error("follow-up request must not offer tools")
	}
	if followUp.ToolExchange == nil {
		t.Fatal("follow-up request must carry the tool exchange")
	}
	if followUp.ToolExchange.Call.Name != "web_search" {
		t.Errorf("exchange call = %+v", followUp.ToolExchange.Call)
	}
	if followUp.ToolExchange.Result == "" {
		t.Error("exchange must carry a synthesized result")
	}
}

func TestExecuteToolHopFailureFallsThroughToSentinel(t *testing.T) {
	p := &scriptProvider{
		Responses: []*llm.CompletionResponse{
			{Model: "fast-model", ToolCall: &llm.ToolCall{Name: "web_search", Args: map[string]any{"query": "x"}}},
		},
		Errs: []error{nil, errors.New("mid-hop failure")},
	}
	ex := NewExecutor(p, "fast-model", "deep-model", nil)

	res := ex.Execute(context.Background(), expandSuggestion(), nil, "input")
	if res.ModelUsed != ErrorModel {
		t.Errorf("ModelUsed = %q, want %q", res.ModelUsed, ErrorModel)
	}
	if p.CallCount() != 2 {
		t.Errorf("no retries beyond the single hop, got %d calls", p.CallCount())
	}
}

type fakeSearch struct {
	hits    []SearchHit
	err     error
	queries []string
}

func (f *fakeSearch) Search(_ context.Context, query string, _ int) ([]SearchHit, error) {
	f.queries = append(f.queries, query)
	return f.hits, f.err
}

func TestExecuteToolHopUsesSearchBackend(t *testing.T) {
	backend := &fakeSearch{hits: []SearchHit{
		{Title: "Mycorrhizal networks", URI: "notes/fungi.md", Snippet: "Trees trade sugar."},
	}}
	p := &scriptProvider{Responses: []*llm.CompletionResponse{
		{Model: "fast-model", ToolCall: &llm.ToolCall{Name: "web_search", Args: map[string]any{"query": "fungi"}}},
		{Model: "fast-model", Content: "answer"},
	}}
	ex := NewExecutor(p, "fast-model", "deep-model", backend)

	ex.Execute(context.Background(), expandSuggestion(), nil, "input")

	if len(backend.queries) != 1 || backend.queries[0] != "fungi" {
		t.Fatalf("backend queries = %v", backend.queries)
	}
	result := p.Calls[1].ToolExchange.Result
	if !strings.Contains(result, "Mycorrhizal networks") || !strings.Contains(result, "notes/fungi.md") {
		t.Errorf("tool result should embed the hits, got %q", result)
	}
}

func TestExecuteSearchBackendFailureDegradesToStandIn(t *testing.T) {
	backend := &fakeSearch{err: errors.New("index unavailable")}
	p := &scriptProvider{Responses: []*llm.CompletionResponse{
		{Model: "fast-model", ToolCall: &llm.ToolCall{Name: "web_search", Args: map[string]any{"query": "fungi"}}},
		{Model: "fast-model", Content: "answer"},
	}}
	ex := NewExecutor(p, "fast-model", "deep-model", backend)

	res := ex.Execute(context.Background(), expandSuggestion(), nil, "input")
	if res.ModelUsed == ErrorModel {
		t.Error("a failing backend must not fail the execution")
	}
	if p.Calls[1].ToolExchange.Result == "" {
		t.Error("stand-in result expected when the backend fails")
	}
}

func TestExecuteEmptyTextGetsFallback(t *testing.T) {
	p := &scriptProvider{Responses: []*llm.CompletionResponse{
		{Model: "fast-model", Content: ""},
	}}
	ex := NewExecutor(p, "fast-model", "deep-model", nil)

	res := ex.Execute(context.Background(), Suggestion{Type: SuggestClarify}, nil, "input")
	if res.Text == "" {
		t.Error("empty provider text must become a fallback string")
	}
	if res.ModelUsed == ErrorModel {
		t.Error("empty text is not a failure for execution")
	}
}

func TestNormalizeCitations(t *testing.T) {
	if got := normalizeCitations(nil); got != nil {
		t.Errorf("nil in, nil out; got %v", got)
	}
	if got := normalizeCitations([]llm.Citation{}); got != nil {
		t.Errorf("empty in, nil out; got %v", got)
	}

	got := normalizeCitations([]llm.Citation{
		{Title: "Source A", URI: "https://example.com/a"},
		{Title: "", URI: "https://example.com/b"},
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 citations, got %d", len(got))
	}
	if got[0].Title != "Source A" {
		t.Errorf("citation 0 = %+v", got[0])
	}
	if got[1].Title != untitledSource {
		t.Errorf("missing title should get a placeholder, got %q", got[1].Title)
	}
}

func TestExecuteAttachesCitations(t *testing.T) {
	p := &scriptProvider{Responses: []*llm.CompletionResponse{
		{
			Model:   "fast-model",
			Content: "grounded",
			Citations: []llm.Citation{
				{Title: "Source A", URI: "https://example.com/a"},
			},
		},
	}}
	ex := NewExecutor(p, "fast-model", "deep-model", nil)

	res := ex.Execute(context.Background(), expandSuggestion(), nil, "input")
	if len(res.Citations) != 1 || res.Citations[0].URI != "https://example.com/a" {
		t.Errorf("citations = %+v", res.Citations)
	}
}
