package config

import (
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .mycelium.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to mycelium! Let's configure your session.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"google", "openai"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)

	preset := GetPreset(cfg.Provider)
	cfg.FastModel = preset.FastModel
	cfg.DeepModel = preset.DeepModel

	// 2. Model overrides.
	fastPrompt := promptui.Prompt{
		Label:   "Fast-tier model",
		Default: preset.FastModel,
	}
	if fast, err := fastPrompt.Run(); err == nil && fast != "" {
		cfg.FastModel = fast
	}

	deepPrompt := promptui.Prompt{
		Label:   "Deep-reasoning model",
		Default: preset.DeepModel,
	}
	if deep, err := deepPrompt.Run(); err == nil && deep != "" {
		cfg.DeepModel = deep
	}

	// 3. Optional retrieval corpus.
	corpusPrompt := promptui.Prompt{
		Label:   "Corpus directory for document search (empty to skip)",
		Default: "",
	}
	if corpus, err := corpusPrompt.Run(); err == nil {
		cfg.CorpusDir = corpus
	}

	if envVar := APIKeyEnvVar(cfg.Provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: %s is not set; set it before running mycelium.\n", envVar)
	}

	if err := cfg.Save(".mycelium.yml"); err != nil {
		return nil, err
	}
	fmt.Println("\nConfiguration written to .mycelium.yml")

	return cfg, nil
}
