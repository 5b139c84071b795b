package config

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderGoogle ProviderType = "google"
	ProviderOpenAI ProviderType = "openai"
)

// Config is the top-level mycelium configuration, corresponding to .mycelium.yml.
type Config struct {
	Provider  ProviderType `yaml:"provider" koanf:"provider"`
	FastModel string       `yaml:"fast_model" koanf:"fast_model"`
	DeepModel string       `yaml:"deep_model" koanf:"deep_model"`

	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`

	// CorpusDir names an optional directory of documents answering the
	// executor's search tool. Empty means tool calls get a synthesized
	// stand-in result.
	CorpusDir string   `yaml:"corpus_dir" koanf:"corpus_dir"`
	Include   []string `yaml:"include" koanf:"include"`
	Exclude   []string `yaml:"exclude" koanf:"exclude"`

	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`

	// RateLimitRPM caps provider requests per minute; 0 means unlimited.
	RateLimitRPM int `yaml:"rate_limit_rpm" koanf:"rate_limit_rpm"`
}
