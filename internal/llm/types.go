package llm

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    Role
	Content string
}

// ToolDefinition describes a function tool the model may invoke.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is a function invocation requested by the model instead of a
// direct answer.
type ToolCall struct {
	Name string
	Args map[string]any
}

// ToolExchange carries a completed tool round-trip back to the provider:
// the call the model made and the result produced for it. Providers replay
// it as a model turn followed by a tool-result turn.
type ToolExchange struct {
	Call   ToolCall
	Result string
}

// Citation is a grounding source attached to a response by the provider.
type Citation struct {
	Title string
	URI   string
}

// CompletionRequest contains the parameters for an LLM completion request.
type CompletionRequest struct {
	Model             string
	Messages          []Message
	SystemInstruction string
	MaxTokens         int
	Temperature       float64

	// JSONMode constrains the response to JSON; JSONSchema additionally
	// constrains its shape for providers that support response schemas.
	JSONMode   bool
	JSONSchema map[string]any

	// Tools offers function tools to the model. Providers without function
	// calling ignore them and answer directly.
	Tools []ToolDefinition

	// ThinkingBudget sets the reasoning token budget for providers with an
	// extended-thinking mode. Zero means no explicit budget.
	ThinkingBudget int

	// ToolExchange, when set, appends a completed tool round-trip after the
	// messages so the model can produce its final answer from the result.
	ToolExchange *ToolExchange
}

// CompletionResponse contains the result of an LLM completion request.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string

	// ToolCall is set when the model chose to invoke a tool instead of
	// answering. Content may be empty in that case.
	ToolCall *ToolCall

	// Citations are grounding sources the provider attached to the answer,
	// in response order. Nil when the response carried none.
	Citations []Citation
}
