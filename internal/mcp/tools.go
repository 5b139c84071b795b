package mcp

import "github.com/mark3labs/mcp-go/mcp"

// submitInputTool defines the submit_input MCP tool.
var submitInputTool = mcp.NewTool("submit_input",
	mcp.WithDescription("Submit a new user message to the conversation. When the growth engine is active this analyzes the conversation and returns five growth-path suggestions; when inactive the message is answered directly and no suggestions are returned."),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("The user message to add to the conversation"),
	),
)

// selectSuggestionTool defines the select_suggestion MCP tool.
var selectSuggestionTool = mcp.NewTool("select_suggestion",
	mcp.WithDescription("Execute one of the currently offered suggestions. The suggestion set is consumed by the selection and the model's reply is appended to the conversation."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("ID of the suggestion to execute, as returned by submit_input"),
	),
)

// getStateTool defines the get_state MCP tool.
var getStateTool = mcp.NewTool("get_state",
	mcp.WithDescription("Get the engine state: whether it is active, which pipeline phase is running, the diagnostic log, and the current suggestion set."),
)

// getConversationTool defines the get_conversation MCP tool.
var getConversationTool = mcp.NewTool("get_conversation",
	mcp.WithDescription("Get the full conversation as an ordered list of messages with execution metadata."),
)
