package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestGoogleProvider returns a GoogleProvider pointed at a test server
// that records the raw request body and serves the given response JSON.
func newTestGoogleProvider(t *testing.T, respJSON string, gotBody *[]byte) *GoogleProvider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("reading request body: %v", err)
		}
		*gotBody = body
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(respJSON))
	}))
	t.Cleanup(srv.Close)

	return &GoogleProvider{
		apiKey:  "test-key",
		model:   "gemini-2.5-flash",
		baseURL: srv.URL,
		client:  srv.Client(),
	}
}

func TestGoogleCompleteParsesText(t *testing.T) {
	var body []byte
	p := newTestGoogleProvider(t, `{
		"candidates": [{
			"content": {"role": "model", "parts": [{"text": "hello "}, {"text": "there"}]},
			"finishReason": "STOP"
		}],
		"usageMetadata": {"promptTokenCount": 7, "candidatesTokenCount": 3}
	}`, &body)

	resp, err := p.Complete(context.Background(), CompletionRequest{
		Messages:    []Message{{Role: RoleUser, Content: "hi"}},
		Temperature: 0.4,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "hello there" {
		t.Errorf("Content = %q, want %q", resp.Content, "hello there")
	}
	if resp.ToolCall != nil {
		t.Error("expected no tool call")
	}
	if resp.Citations != nil {
		t.Error("expected nil citations")
	}
	if resp.InputTokens != 7 || resp.OutputTokens != 3 {
		t.Errorf("tokens = %d/%d, want 7/3", resp.InputTokens, resp.OutputTokens)
	}
}

func TestGoogleCompleteParsesFunctionCall(t *testing.T) {
	var body []byte
	p := newTestGoogleProvider(t, `{
		"candidates": [{
			"content": {"role": "model", "parts": [{
				"functionCall": {"name": "web_search", "args": {"query": "mycorrhizal networks"}}
			}]},
			"finishReason": "STOP"
		}]
	}`, &body)

	resp, err := p.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
		Tools: []ToolDefinition{{
			Name:        "web_search",
			Description: "Search",
			Parameters:  map[string]any{"type": "OBJECT"},
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ToolCall == nil {
		t.Fatal("expected a tool call")
	}
	if resp.ToolCall.Name != "web_search" {
		t.Errorf("ToolCall.Name = %q", resp.ToolCall.Name)
	}
	if q, _ := resp.ToolCall.Args["query"].(string); q != "mycorrhizal networks" {
		t.Errorf("ToolCall.Args[query] = %v", resp.ToolCall.Args["query"])
	}

	// The request must have carried the tool declaration.
	var req geminiRequest
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatalf("unmarshalling recorded request: %v", err)
	}
	if len(req.Tools) != 1 || len(req.Tools[0].FunctionDeclarations) != 1 {
		t.Fatalf("expected one function declaration, got %+v", req.Tools)
	}
	if req.Tools[0].FunctionDeclarations[0].Name != "web_search" {
		t.Errorf("declaration name = %q", req.Tools[0].FunctionDeclarations[0].Name)
	}
}

func TestGoogleCompleteParsesGroundingChunks(t *testing.T) {
	var body []byte
	p := newTestGoogleProvider(t, `{
		"candidates": [{
			"content": {"role": "model", "parts": [{"text": "grounded answer"}]},
			"finishReason": "STOP",
			"groundingMetadata": {
				"groundingChunks": [
					{"web": {"uri": "https://example.com/a", "title": "Source A"}},
					{"web": {"uri": "https://example.com/b"}},
					{"web": {"title": "No URI, dropped"}},
					{}
				]
			}
		}]
	}`, &body)

	resp, err := p.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Citations) != 2 {
		t.Fatalf("expected 2 citations, got %d", len(resp.Citations))
	}
	if resp.Citations[0].URI != "https://example.com/a" || resp.Citations[0].Title != "Source A" {
		t.Errorf("citation 0 = %+v", resp.Citations[0])
	}
	if resp.Citations[1].URI != "https://example.com/b" || resp.Citations[1].Title != "" {
		t.Errorf("citation 1 = %+v", resp.Citations[1])
	}
}

func TestGoogleCompleteReplaysToolExchange(t *testing.T) {
	var body []byte
	p := newTestGoogleProvider(t, `{
		"candidates": [{
			"content": {"role": "model", "parts": [{"text": "final"}]},
			"finishReason": "STOP"
		}]
	}`, &body)

	_, err := p.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
		ToolExchange: &ToolExchange{
			Call:   ToolCall{Name: "web_search", Args: map[string]any{"query": "q"}},
			Result: "three results",
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var req geminiRequest
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatalf("unmarshalling recorded request: %v", err)
	}
	// user message, model functionCall turn, user functionResponse turn.
	if len(req.Contents) != 3 {
		t.Fatalf("expected 3 contents, got %d", len(req.Contents))
	}
	callTurn := req.Contents[1]
	if callTurn.Role != "model" || callTurn.Parts[0].FunctionCall == nil {
		t.Errorf("expected model functionCall turn, got %+v", callTurn)
	}
	respTurn := req.Contents[2]
	if respTurn.Role != "user" || respTurn.Parts[0].FunctionResponse == nil {
		t.Fatalf("expected user functionResponse turn, got %+v", respTurn)
	}
	if respTurn.Parts[0].FunctionResponse.Response["result"] != "three results" {
		t.Errorf("functionResponse result = %v", respTurn.Parts[0].FunctionResponse.Response)
	}
}

func TestGoogleCompleteSetsSchemaAndThinking(t *testing.T) {
	var body []byte
	p := newTestGoogleProvider(t, `{
		"candidates": [{"content": {"role": "model", "parts": [{"text": "{}"}]}, "finishReason": "STOP"}]
	}`, &body)

	_, err := p.Complete(context.Background(), CompletionRequest{
		Messages:       []Message{{Role: RoleUser, Content: "hi"}},
		JSONSchema:     map[string]any{"type": "OBJECT"},
		ThinkingBudget: 4096,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var req geminiRequest
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatalf("unmarshalling recorded request: %v", err)
	}
	gc := req.GenerationConfig
	if gc == nil {
		t.Fatal("expected generationConfig")
	}
	if gc.ResponseMIMEType != "application/json" {
		t.Errorf("responseMimeType = %q", gc.ResponseMIMEType)
	}
	if gc.ResponseSchema == nil {
		t.Error("expected responseSchema to be set")
	}
	if gc.ThinkingConfig == nil || gc.ThinkingConfig.ThinkingBudget != 4096 {
		t.Errorf("thinkingConfig = %+v", gc.ThinkingConfig)
	}
}

func TestGoogleCompleteSurfacesAPIError(t *testing.T) {
	var body []byte
	p := newTestGoogleProvider(t, `{
		"error": {"code": 429, "message": "quota exceeded", "status": "RESOURCE_EXHAUSTED"}
	}`, &body)

	_, err := p.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
}
