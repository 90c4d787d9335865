package llmfactory

import (
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/configloader"
	"github.com/go-playground/validator/v10"
)

// DefaultMapping is the key in tool_models and agent_models used for
// names without their own entry.
const DefaultMapping = "default"

// Config describes the LLM providers and which models the tools and agents use.
type Config struct {
	Providers []*ProviderConfig `json:"providers" yaml:"providers" validate:"dive"`
	// DefaultProvider names the provider of DefaultModel; the first
	// provider is used when empty.
	DefaultProvider string `json:"default_provider" yaml:"default_provider"`
	// EmbeddingProvider names the provider used by the vector store.
	EmbeddingProvider string `json:"embedding_provider" yaml:"embedding_provider"`
	// ToolModels maps a tool name to its preferred models.
	ToolModels map[string][]string `json:"tool_models" yaml:"tool_models"`
	// AgentModels maps an agent name to its preferred models.
	AgentModels map[string][]string `json:"agent_models" yaml:"agent_models"`
}

// ProviderConfig for the provider
type ProviderConfig struct {
	Name            string       `json:"name" yaml:"name" validate:"required"`
	Token           string       `json:"token,omitempty" yaml:"token,omitempty"`
	DefaultModel    string       `json:"default_model,omitempty" yaml:"default_model,omitempty"`
	EmbeddingModel  string       `json:"embedding_model,omitempty" yaml:"embedding_model,omitempty"`
	AvailableModels []string     `json:"available_models,omitempty" yaml:"available_models,omitempty"`
	OpenAI          OpenAIConfig `json:"open_ai" yaml:"open_ai"`
}

// OpenAIConfig holds the endpoint settings. Despite the name it is used by
// every provider: APIType is one of
// OPENAI|AZURE|AZURE_AD|ANTHROPIC|GOOGLEAI|BEDROCK
type OpenAIConfig struct {
	BaseURL    string `json:"base_url,omitempty" yaml:"base_url,omitempty" validate:"omitempty,url"`
	APIVersion string `json:"api_version,omitempty" yaml:"api_version,omitempty"`
	APIType    string `json:"api_type,omitempty" yaml:"api_type,omitempty" validate:"required"`
	OrgID      string `json:"org_id,omitempty" yaml:"org_id,omitempty"`
}

// FindModel returns the first of models this provider serves,
// or its default model.
func (c *ProviderConfig) FindModel(models ...string) string {
	for _, model := range models {
		if slices.Contains(c.AvailableModels, model) {
			return model
		}
	}
	return c.DefaultModel
}

// Provider returns the provider by name, or nil.
func (c *Config) Provider(name string) *ProviderConfig {
	if name == "" {
		return nil
	}
	for _, p := range c.Providers {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Validate checks the providers and that the named default and embedding
// providers exist.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid llm config")
	}
	seen := map[string]bool{}
	for _, p := range c.Providers {
		if seen[p.Name] {
			return errors.Errorf("duplicate provider: %s", p.Name)
		}
		seen[p.Name] = true
	}
	for _, name := range []string{c.DefaultProvider, c.EmbeddingProvider} {
		if name != "" && !seen[name] {
			return errors.Errorf("provider not found: %s", name)
		}
	}
	return nil
}

// LoadConfig reads and validates the config; an empty file name
// returns an empty config.
func LoadConfig(file string) (*Config, error) {
	cfg := new(Config)
	if file == "" {
		return cfg, nil
	}
	if err := configloader.UnmarshalAndExpand(file, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
