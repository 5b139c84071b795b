package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sporefield/mycelium/internal/llm"
)

func newTestAnalyzer(p llm.Provider) *Analyzer {
	var n int
	return NewAnalyzer(p, "fast-model", func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})
}

func TestAnalyzeSendsSchemaConstrainedRequest(t *testing.T) {
	p := &scriptProvider{Responses: []*llm.CompletionResponse{
		{Content: validAnalysisJSON(t), Model: "fast-model"},
	}}
	a := newTestAnalyzer(p)

	history := []Message{
		{Role: RoleUser, Content: "earlier question"},
		{Role: RoleModel, Content: "earlier answer"},
	}
	result, err := a.Analyze(context.Background(), history, "Explain quicksort")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(result.Suggestions) != 5 {
		t.Errorf("expected 5 suggestions, got %d", len(result.Suggestions))
	}
	if result.HistoryDepth != DepthShallow {
		t.Errorf("HistoryDepth = %s", result.HistoryDepth)
	}

	req := p.Calls[0]
	if !req.JSONMode || req.JSONSchema == nil {
		t.Error("analysis request must be schema constrained")
	}
	if req.SystemInstruction == "" {
		t.Error("analysis request must carry the fixed system directive")
	}
	if req.Model != "fast-model" {
		t.Errorf("analysis model = %q", req.Model)
	}
}

func TestAnalyzeProviderErrorIsAnalysisError(t *testing.T) {
	p := &scriptProvider{Errs: []error{errors.New("dial tcp: connection refused")}}
	a := newTestAnalyzer(p)

	_, err := a.Analyze(context.Background(), nil, "input")
	var aerr *AnalysisError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected AnalysisError, got %v", err)
	}
}

func TestAnalyzeEmptyContentFails(t *testing.T) {
	p := &scriptProvider{Responses: []*llm.CompletionResponse{{Content: ""}}}
	a := newTestAnalyzer(p)

	_, err := a.Analyze(context.Background(), nil, "input")
	var aerr *AnalysisError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected AnalysisError, got %v", err)
	}
}

func TestAnalyzeMalformedJSONFails(t *testing.T) {
	p := &scriptProvider{Responses: []*llm.CompletionResponse{{Content: "not json at all"}}}
	a := newTestAnalyzer(p)

	if _, err := a.Analyze(context.Background(), nil, "input"); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestAnalyzeRejectsNonConformingPayloads(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			"wrong suggestion count",
			`{"patterns_detected":[],"history_depth":"shallow","context_continuity":"","dialectical_opportunity":"","suggestions":[
				{"type":"clarify","title":"t","description":"d","reasoning":"r","confidence":0.5}
			]}`,
		},
		{
			"duplicate types",
			`{"patterns_detected":[],"history_depth":"shallow","context_continuity":"","dialectical_opportunity":"","suggestions":[
				{"type":"clarify","title":"t","description":"d","reasoning":"r","confidence":0.5},
				{"type":"clarify","title":"t","description":"d","reasoning":"r","confidence":0.5},
				{"type":"expand","title":"t","description":"d","reasoning":"r","confidence":0.5},
				{"type":"create","title":"t","description":"d","reasoning":"r","confidence":0.5},
				{"type":"connect","title":"t","description":"d","reasoning":"r","confidence":0.5}
			]}`,
		},
		{
			"unknown type",
			`{"patterns_detected":[],"history_depth":"shallow","context_continuity":"","dialectical_opportunity":"","suggestions":[
				{"type":"mutate","title":"t","description":"d","reasoning":"r","confidence":0.5},
				{"type":"clarify","title":"t","description":"d","reasoning":"r","confidence":0.5},
				{"type":"expand","title":"t","description":"d","reasoning":"r","confidence":0.5},
				{"type":"create","title":"t","description":"d","reasoning":"r","confidence":0.5},
				{"type":"connect","title":"t","description":"d","reasoning":"r","confidence":0.5}
			]}`,
		},
		{
			"unknown history depth",
			`{"patterns_detected":[],"history_depth":"abyssal","context_continuity":"","dialectical_opportunity":"","suggestions":[
				{"type":"clarify","title":"t","description":"d","reasoning":"r","confidence":0.5},
				{"type":"expand","title":"t","description":"d","reasoning":"r","confidence":0.5},
				{"type":"create","title":"t","description":"d","reasoning":"r","confidence":0.5},
				{"type":"connect","title":"t","description":"d","reasoning":"r","confidence":0.5},
				{"type":"challenge","title":"t","description":"d","reasoning":"r","confidence":0.5}
			]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &scriptProvider{Responses: []*llm.CompletionResponse{{Content: tt.content}}}
			a := newTestAnalyzer(p)

			_, err := a.Analyze(context.Background(), nil, "input")
			var aerr *AnalysisError
			if !errors.As(err, &aerr) {
				t.Fatalf("expected AnalysisError, got %v", err)
			}
		})
	}
}

func TestAnalyzeClampsConfidence(t *testing.T) {
	content := `{"patterns_detected":[],"history_depth":"deep","context_continuity":"","dialectical_opportunity":"","suggestions":[
		{"type":"clarify","title":"t","description":"d","reasoning":"r","confidence":-0.5},
		{"type":"expand","title":"t","description":"d","reasoning":"r","confidence":1.7},
		{"type":"create","title":"t","description":"d","reasoning":"r","confidence":0.5},
		{"type":"connect","title":"t","description":"d","reasoning":"r","confidence":0},
		{"type":"challenge","title":"t","description":"d","reasoning":"r","confidence":1}
	]}`
	p := &scriptProvider{Responses: []*llm.CompletionResponse{{Content: content}}}
	a := newTestAnalyzer(p)

	result, err := a.Analyze(context.Background(), nil, "input")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	for _, s := range result.Suggestions {
		if s.Confidence < 0 || s.Confidence > 1 {
			t.Errorf("confidence %f out of range for %s", s.Confidence, s.Type)
		}
	}
}
