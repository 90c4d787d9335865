// Package config provides the configuration of the academix services.
package config

import (
	_ "embed"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/configloader"
	"github.com/effective-security/xlog"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/academix", "config")

// Sections validated by Validate
const (
	SectionServer      = "server"
	SectionVectorStore = "vectorstore"
	SectionDiscord     = "discord"
	SectionChat        = "chat"
)

// Vector index backends
const (
	IndexMemory = "memory"
	IndexRedis  = "redis"
)

// Config of the services
type Config struct {
	// LLM is the location of the llmfactory configuration
	LLM         string            `json:"llm" yaml:"llm"`
	Server      ServerConfig      `json:"server" yaml:"server"`
	VectorStore VectorStoreConfig `json:"vector_store" yaml:"vector_store"`
	Tools       ToolsConfig       `json:"tools" yaml:"tools"`
	Discord     DiscordConfig     `json:"discord" yaml:"discord"`
	Redis       RedisConfig       `json:"redis" yaml:"redis"`
}

// ServerConfig is the listen address of the AI API
type ServerConfig struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port" validate:"gt=0,lte=65535"`
	CORS bool   `json:"cors" yaml:"cors"`
	// VectorSearchURL is the base URL of the vector service
	VectorSearchURL string `json:"vector_search_url" yaml:"vector_search_url" validate:"required,url"`
}

// Addr returns host:port
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// VectorStoreConfig of the vector service
type VectorStoreConfig struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port" validate:"gt=0,lte=65535"`
	// Path is the folder of the memory index
	Path string `json:"path" yaml:"path" validate:"required_if=Index memory"`
	// Index is memory or redis
	Index string `json:"index" yaml:"index" validate:"oneof=memory redis"`
}

// Addr returns host:port
func (c *VectorStoreConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ToolsConfig contains the keys of the remote tools
type ToolsConfig struct {
	WolframAppID string `json:"wolfram_app_id" yaml:"wolfram_app_id"`
	SerperAPIKey string `json:"serper_api_key" yaml:"serper_api_key"`
	TavilyAPIKey string `json:"tavily_api_key" yaml:"tavily_api_key"`
}

// DiscordConfig of the bots
type DiscordConfig struct {
	Token   string `json:"token" yaml:"token" validate:"required"`
	GuildID string `json:"guild_id" yaml:"guild_id"`
	// AIAPIURL is the base URL of the AI API
	AIAPIURL string `json:"ai_api_url" yaml:"ai_api_url" validate:"required,url"`
}

// RedisConfig for the chat and vector stores
type RedisConfig struct {
	URL    string `json:"url" yaml:"url" validate:"omitempty,url"`
	Prefix string `json:"prefix" yaml:"prefix"`
}

// Default returns the configuration with the defaults of the services
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			CORS:            true,
			VectorSearchURL: "http://localhost:8001",
		},
		VectorStore: VectorStoreConfig{
			Host:  "0.0.0.0",
			Port:  8001,
			Path:  "vector_store",
			Index: IndexMemory,
		},
		Discord: DiscordConfig{
			AIAPIURL: "http://localhost:8000",
		},
		Redis: RedisConfig{
			Prefix: "/academix",
		},
	}
}

// Load returns the configuration from the optional YAML file, with the
// environment overrides applied. Variables from envFiles, or .env when none
// are given, are loaded first and do not replace the existing environment.
func Load(file string, envFiles ...string) (*Config, error) {
	if err := loadEnv(envFiles...); err != nil {
		return nil, err
	}

	cfg := Default()
	if file != "" {
		if err := configloader.UnmarshalAndExpand(file, cfg); err != nil {
			return nil, errors.WithMessagef(err, "failed to load config: %s", file)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEnv(files ...string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil {
		return errors.Wrap(err, "failed to load environment")
	}
	logger.KV(xlog.DEBUG, "env", files)
	return nil
}

//go:embed env.yaml
var envOverrides []byte

// applyEnv decodes env.yaml over c. The variables are expanded by
// configloader, the unset ones keep the current value.
func (c *Config) applyEnv() error {
	var doc yaml.Node
	if err := yaml.Unmarshal(envOverrides, &doc); err != nil {
		return errors.Wrap(err, "failed to parse env overrides")
	}
	if err := expandNode(&configloader.Expander{SecretProvider: configloader.SecretProviderInstance}, &doc); err != nil {
		return err
	}
	if err := doc.Decode(c); err != nil {
		return errors.WithMessage(err, "invalid environment")
	}
	return nil
}

func expandNode(e *configloader.Expander, n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		if !strings.Contains(n.Value, "${") {
			return nil
		}
		val, err := e.Expand(n.Value)
		if err != nil {
			return errors.WithMessagef(err, "failed to expand %s", n.Value)
		}
		n.Style = 0
		if val == "" {
			n.Tag, n.Value = "!!null", "~"
			return nil
		}
		n.Tag, n.Value = "", val
		return nil
	}
	for _, child := range n.Content {
		if err := expandNode(e, child); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the settings required by the section
func (c *Config) Validate(section string) error {
	validate := validator.New()

	var err error
	switch section {
	case SectionServer:
		err = validate.Struct(&c.Server)
	case SectionVectorStore:
		err = validate.Struct(&c.VectorStore)
		if err == nil && c.VectorStore.Index == IndexRedis && c.Redis.URL == "" {
			err = errors.New("redis URL is required for the redis index")
		}
	case SectionDiscord:
		err = validate.Struct(&c.Discord)
	case SectionChat:
		err = validate.StructPartial(&c.Discord, "Token")
	default:
		return errors.Newf("unknown config section: %s", section)
	}
	if err == nil {
		err = validate.Struct(&c.Redis)
	}
	if err != nil {
		return errors.WithMessagef(err, "invalid %s config", section)
	}
	return nil
}
