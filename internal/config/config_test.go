package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Provider != ProviderGoogle {
		t.Errorf("Provider = %q, want %q", cfg.Provider, ProviderGoogle)
	}
	if cfg.FastModel != "gemini-2.5-flash" {
		t.Errorf("FastModel = %q, want gemini-2.5-flash", cfg.FastModel)
	}
	if cfg.DeepModel != "gemini-2.5-pro" {
		t.Errorf("DeepModel = %q, want gemini-2.5-pro", cfg.DeepModel)
	}
	if cfg.Port != 8787 {
		t.Errorf("Port = %d, want 8787", cfg.Port)
	}
	if len(cfg.Include) == 0 {
		t.Error("expected default include patterns")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load with missing file should fall back to defaults, got: %v", err)
	}
	if cfg.Provider != ProviderGoogle {
		t.Errorf("Provider = %q, want default google", cfg.Provider)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".mycelium.yml")
	yamlContent := `provider: openai
fast_model: gpt-4o-mini
deep_model: gpt-4o
port: 9090
rate_limit_rpm: 30
`
	if err := os.WriteFile(path, []byte(yamlContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Provider != ProviderOpenAI {
		t.Errorf("Provider = %q, want openai", cfg.Provider)
	}
	if cfg.FastModel != "gpt-4o-mini" {
		t.Errorf("FastModel = %q, want gpt-4o-mini", cfg.FastModel)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.RateLimitRPM != 30 {
		t.Errorf("RateLimitRPM = %d, want 30", cfg.RateLimitRPM)
	}
	// File did not set embedding fields; defaults survive.
	if cfg.EmbeddingModel != "text-embedding-3-small" {
		t.Errorf("EmbeddingModel = %q, want default", cfg.EmbeddingModel)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".mycelium.yml")
	if err := os.WriteFile(path, []byte("provider: google\nfast_model: gemini-2.5-flash\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("MYCELIUM_FAST_MODEL", "gemini-2.0-flash")
	t.Setenv("MYCELIUM_PORT", "7000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.FastModel != "gemini-2.0-flash" {
		t.Errorf("FastModel = %q, want env override gemini-2.0-flash", cfg.FastModel)
	}
	if cfg.Port != 7000 {
		t.Errorf("Port = %d, want env override 7000", cfg.Port)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".mycelium.yml")

	cfg := DefaultConfig()
	cfg.Provider = ProviderOpenAI
	cfg.FastModel = "gpt-4o-mini"
	cfg.DeepModel = "gpt-4o"
	cfg.CorpusDir = "./notes"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load after Save failed: %v", err)
	}
	if loaded.Provider != ProviderOpenAI {
		t.Errorf("Provider = %q, want openai", loaded.Provider)
	}
	if loaded.CorpusDir != "./notes" {
		t.Errorf("CorpusDir = %q, want ./notes", loaded.CorpusDir)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config { return DefaultConfig() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"missing provider", func(c *Config) { c.Provider = "" }, true},
		{"unknown provider", func(c *Config) { c.Provider = "anthropic" }, true},
		{"missing fast model", func(c *Config) { c.FastModel = "" }, true},
		{"missing deep model", func(c *Config) { c.DeepModel = "" }, true},
		{"bad embedding provider", func(c *Config) { c.EmbeddingProvider = "cohere" }, true},
		{"corpus without embedding model", func(c *Config) {
			c.CorpusDir = "./docs"
			c.EmbeddingModel = ""
		}, true},
		{"zero port", func(c *Config) { c.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Port = 70000 }, true},
		{"negative rate limit", func(c *Config) { c.RateLimitRPM = -1 }, true},
		{"corpus with embedding model", func(c *Config) { c.CorpusDir = "./docs" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetPreset(t *testing.T) {
	google := GetPreset(ProviderGoogle)
	if google.FastModel != "gemini-2.5-flash" || google.DeepModel != "gemini-2.5-pro" {
		t.Errorf("google preset = %+v", google)
	}

	openai := GetPreset(ProviderOpenAI)
	if openai.FastModel != "gpt-4o-mini" || openai.DeepModel != "gpt-4o" {
		t.Errorf("openai preset = %+v", openai)
	}

	// Unknown providers fall back to google.
	fallback := GetPreset("nonsense")
	if fallback != google {
		t.Errorf("fallback preset = %+v, want google preset", fallback)
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	if got := APIKeyEnvVar(ProviderGoogle); got != "GOOGLE_API_KEY" {
		t.Errorf("APIKeyEnvVar(google) = %q", got)
	}
	if got := APIKeyEnvVar(ProviderOpenAI); got != "OPENAI_API_KEY" {
		t.Errorf("APIKeyEnvVar(openai) = %q", got)
	}
	if got := APIKeyEnvVar("other"); got != "" {
		t.Errorf("APIKeyEnvVar(other) = %q, want empty", got)
	}
}
