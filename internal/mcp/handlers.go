package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sporefield/mycelium/internal/engine"
)

// handleSubmitInput adds a message to the conversation and returns the
// resulting suggestion set as JSON.
func (s *Server) handleSubmitInput(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: text"), nil
	}

	suggestions, err := s.engine.SubmitInput(ctx, text)
	if err != nil {
		return engineError(err), nil
	}
	if suggestions == nil {
		suggestions = []engine.Suggestion{}
	}

	payload, err := json.MarshalIndent(map[string]any{"suggestions": suggestions}, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding suggestions: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// handleSelectSuggestion executes a suggestion and returns the appended
// model message as JSON.
func (s *Server) handleSelectSuggestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}

	msg, err := s.engine.SelectSuggestion(ctx, id)
	if err != nil {
		return engineError(err), nil
	}

	payload, err := json.MarshalIndent(msg, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding message: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// handleGetState returns the engine state snapshot as JSON.
func (s *Server) handleGetState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	payload, err := json.MarshalIndent(s.engine.State(), "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding state: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// handleGetConversation returns the conversation messages as JSON.
func (s *Server) handleGetConversation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	messages := s.engine.Messages()
	if messages == nil {
		messages = []engine.Message{}
	}

	payload, err := json.MarshalIndent(map[string]any{"messages": messages}, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding conversation: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// engineError converts engine errors into MCP tool errors with messages an
// agent can act on.
func engineError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, engine.ErrEmptyInput):
		return mcp.NewToolResultError("text is empty; submit a non-blank message")
	case errors.Is(err, engine.ErrBusy):
		return mcp.NewToolResultError("a pipeline phase is already active; wait for it to finish and retry")
	case errors.Is(err, engine.ErrUnknownSuggestion):
		return mcp.NewToolResultError("no such suggestion in the current set; call submit_input for a fresh set")
	default:
		return mcp.NewToolResultError(err.Error())
	}
}
