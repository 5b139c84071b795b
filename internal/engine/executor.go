package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sporefield/mycelium/internal/llm"
)

// executionFailureText is the fixed reply shown when execution fails.
const executionFailureText = "Something went wrong while growing this path. Please select it again or send a new message."

// emptyReplyText stands in when the provider answers with no text at all.
const emptyReplyText = "The model returned an empty response for this path."

// untitledSource is the citation title placeholder for chunks without one.
const untitledSource = "Untitled source"

// searchResultLimit caps how many retrieval hits feed a tool result.
const searchResultLimit = 5

// SearchBackend answers the executor's single tool hop with real document
// search results. A nil backend means tool calls are satisfied with a
// synthesized stand-in payload.
type SearchBackend interface {
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)
}

// webSearchTool is the one function tool offered on tool-enabled routes.
var webSearchTool = llm.ToolDefinition{
	Name:        "web_search",
	Description: "Search external documents for material grounding the answer.",
	Parameters: map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "STRING",
				"description": "The search query.",
			},
		},
		"required": []string{"query"},
	},
}

// Executor runs a selected growth path against the provider. It never
// returns an error: every internal failure becomes a sentinel result so the
// caller's control flow is uniform.
type Executor struct {
	provider  llm.Provider
	fastModel string
	deepModel string
	search    SearchBackend
}

// NewExecutor creates an executor. search may be nil; tool calls are then
// answered with a synthesized stand-in result.
func NewExecutor(provider llm.Provider, fastModel, deepModel string, search SearchBackend) *Executor {
	return &Executor{
		provider:  provider,
		fastModel: fastModel,
		deepModel: deepModel,
		search:    search,
	}
}

// Execute builds the task request for the suggestion, invokes the provider,
// performs at most one tool round-trip, and normalizes the outcome.
func (e *Executor) Execute(ctx context.Context, sug Suggestion, history []Message, lastInput string) ExecutionResult {
	start := time.Now()

	route := Route(sug.Type)
	req := llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildTaskPrompt(sug, history, lastInput)},
		},
		MaxTokens:   8192,
		Temperature: route.Temperature(),
	}

	switch cfg := route.(type) {
	case DeepReasoningConfig:
		req.Model = e.deepModel
		req.ThinkingBudget = cfg.ReasoningBudget
	case FastConfig:
		req.Model = e.fastModel
		if cfg.Tools == ToolsSearch {
			req.Tools = []llm.ToolDefinition{webSearchTool}
		}
	}

	resp, err := e.provider.Complete(ctx, req)
	if err != nil {
		return e.failure(start)
	}
	inTokens, outTokens := resp.InputTokens, resp.OutputTokens

	// At most one tool hop: satisfy the call, then reissue without tools so
	// a second hop is impossible.
	if resp.ToolCall != nil {
		followUp := req
		followUp.Tools = nil
		followUp.ToolExchange = &llm.ToolExchange{
			Call:   *resp.ToolCall,
			Result: e.toolResult(ctx, *resp.ToolCall),
		}

		resp, err = e.provider.Complete(ctx, followUp)
		if err != nil {
			return e.failure(start)
		}
		inTokens += resp.InputTokens
		outTokens += resp.OutputTokens
	}

	text := resp.Content
	if text == "" {
		text = emptyReplyText
	}

	modelUsed := resp.Model
	if modelUsed == "" {
		modelUsed = req.Model
	}

	return ExecutionResult{
		Text:         text,
		ModelUsed:    modelUsed,
		Citations:    normalizeCitations(resp.Citations),
		Duration:     time.Since(start),
		InputTokens:  inTokens,
		OutputTokens: outTokens,
	}
}

func (e *Executor) failure(start time.Time) ExecutionResult {
	return ExecutionResult{
		Text:      executionFailureText,
		ModelUsed: ErrorModel,
		Duration:  time.Since(start),
	}
}

// toolResult produces the payload for the single permitted tool hop: real
// search results when a backend is wired, a stand-in otherwise. A failing
// backend degrades to the stand-in rather than failing the execution.
func (e *Executor) toolResult(ctx context.Context, call llm.ToolCall) string {
	query, _ := call.Args["query"].(string)

	if e.search != nil && query != "" {
		hits, err := e.search.Search(ctx, query, searchResultLimit)
		if err == nil && len(hits) > 0 {
			return formatSearchHits(query, hits)
		}
	}

	return fmt.Sprintf("No live search backend is connected. Answer from your own knowledge of %q and say so when material facts may be stale.", query)
}

func formatSearchHits(query string, hits []SearchHit) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Search results for %q:\n", query)
	for i, h := range hits {
		fmt.Fprintf(&sb, "%d. %s (%s)\n%s\n", i+1, h.Title, h.URI, h.Snippet)
	}
	return sb.String()
}

// normalizeCitations maps provider citations onto the message metadata shape:
// a missing title gets a generic placeholder and an empty set stays nil so
// callers can distinguish "no citations" from "empty list".
func normalizeCitations(in []llm.Citation) []Citation {
	if len(in) == 0 {
		return nil
	}
	out := make([]Citation, 0, len(in))
	for _, c := range in {
		title := c.Title
		if title == "" {
			title = untitledSource
		}
		out = append(out, Citation{Title: title, URI: c.URI})
	}
	return out
}
