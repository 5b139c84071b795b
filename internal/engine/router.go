package engine

// ModelTier selects between the low-latency and deep-reasoning models.
type ModelTier string

const (
	TierFast          ModelTier = "fast"
	TierDeepReasoning ModelTier = "deep_reasoning"
)

// ToolMode selects which tools a fast-tier request carries.
type ToolMode string

const (
	ToolsNone   ToolMode = "none"
	ToolsSearch ToolMode = "search"
)

// deepReasoningBudget is the fixed thinking-token budget for the
// deep-reasoning tier.
const deepReasoningBudget = 32768

// RouteConfig is a per-tier model configuration. It is a closed union:
// FastConfig carries tools and never a reasoning budget, DeepReasoningConfig
// carries a reasoning budget and never tools, so invalid combinations are
// unrepresentable.
type RouteConfig interface {
	Tier() ModelTier
	Temperature() float64
}

// FastConfig configures a low-latency request, optionally with search tools.
type FastConfig struct {
	Tools ToolMode
	Temp  float64
}

func (FastConfig) Tier() ModelTier        { return TierFast }
func (c FastConfig) Temperature() float64 { return c.Temp }

// DeepReasoningConfig configures a maximum-deliberation request.
type DeepReasoningConfig struct {
	ReasoningBudget int
	Temp            float64
}

func (DeepReasoningConfig) Tier() ModelTier        { return TierDeepReasoning }
func (c DeepReasoningConfig) Temperature() float64 { return c.Temp }

// Route maps a suggestion category to its model configuration. It is pure and
// total: every category, including unrecognized ones, maps to exactly one
// configuration.
//
// Create, Challenge and Crystallize need synthesis or adversarial reasoning,
// so they get the deep tier with the full thinking budget. Expand and Connect
// need external grounding rather than depth, so they get the fast tier with
// search tools. Clarify resolves low ambiguity and needs low latency, as does
// anything unrecognized.
func Route(t SuggestionType) RouteConfig {
	switch t {
	case SuggestCreate, SuggestChallenge, SuggestCrystallize:
		return DeepReasoningConfig{ReasoningBudget: deepReasoningBudget, Temp: 0.8}
	case SuggestExpand, SuggestConnect:
		return FastConfig{Tools: ToolsSearch, Temp: 0.7}
	default:
		return FastConfig{Tools: ToolsNone, Temp: 0.4}
	}
}
