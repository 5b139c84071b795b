package config

// TierPreset describes the fast and deep models for a provider.
type TierPreset struct {
	FastModel string
	DeepModel string
}

// tierPresets maps each provider to its default tier models.
var tierPresets = map[ProviderType]TierPreset{
	ProviderGoogle: {FastModel: "gemini-2.5-flash", DeepModel: "gemini-2.5-pro"},
	ProviderOpenAI: {FastModel: "gpt-4o-mini", DeepModel: "gpt-4o"},
}

// DefaultIncludes are the corpus glob patterns indexed by default.
var DefaultIncludes = []string{
	"**/*.md",
	"**/*.txt",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderGoogle,
		FastModel:         "gemini-2.5-flash",
		DeepModel:         "gemini-2.5-pro",
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    "text-embedding-3-small",
		Include:           DefaultIncludes,
		Port:              8787,
	}
}

// GetPreset returns the tier preset for the given provider, falling back to
// the Google preset for unknown providers.
func GetPreset(provider ProviderType) TierPreset {
	if preset, ok := tierPresets[provider]; ok {
		return preset
	}
	return tierPresets[ProviderGoogle]
}
