package openai

import (
	"net/http"
	"os"

	"github.com/effective-security/academix/pkg/llms/openai/internal/openaiclient"
	"github.com/effective-security/x/values"
)

// Environment variables consulted when the matching option is not given.
const (
	EnvToken        = "OPENAI_API_KEY" //nolint:gosec
	EnvModel        = "OPENAI_MODEL"
	EnvBaseURL      = "OPENAI_BASE_URL"
	EnvOrganization = "OPENAI_ORGANIZATION"
)

// ProviderType selects the flavour of the OpenAI compatible API.
type ProviderType = openaiclient.ProviderType

const (
	ProviderOpenAI  = openaiclient.ProviderOpenAI
	ProviderAzure   = openaiclient.ProviderAzure
	ProviderAzureAD = openaiclient.ProviderAzureAD
)

// DefaultAPIVersion is sent to Azure deployments.
const DefaultAPIVersion = "2023-05-15"

type settings struct {
	token          string
	model          string
	embeddingModel string
	baseURL        string
	organization   string
	provider       ProviderType
	apiVersion     string
	doer           openaiclient.Doer
}

// Option configures the OpenAI client.
type Option func(*settings)

func loadSettings(opts []Option) *settings {
	s := &settings{
		token:        os.Getenv(EnvToken),
		model:        os.Getenv(EnvModel),
		baseURL:      os.Getenv(EnvBaseURL),
		organization: os.Getenv(EnvOrganization),
		provider:     ProviderOpenAI,
		doer:         http.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	if openaiclient.IsAzure(s.provider) {
		s.apiVersion = values.StringsCoalesce(s.apiVersion, DefaultAPIVersion)
	}
	return s
}

// WithToken sets the API key.
func WithToken(token string) Option {
	return func(s *settings) { s.token = token }
}

// WithModel sets the chat model; Azure requires it.
func WithModel(model string) Option {
	return func(s *settings) { s.model = model }
}

// WithEmbeddingModel sets the model used by CreateEmbedding.
func WithEmbeddingModel(model string) Option {
	return func(s *settings) { s.embeddingModel = model }
}

// WithBaseURL targets an OpenAI compatible endpoint, for example Ollama or a test server.
func WithBaseURL(baseURL string) Option {
	return func(s *settings) { s.baseURL = baseURL }
}

// WithOrganization sets the OpenAI-Organization header.
func WithOrganization(organization string) Option {
	return func(s *settings) { s.organization = organization }
}

// WithProvider switches between OpenAI and Azure request shapes.
func WithProvider(provider ProviderType) Option {
	return func(s *settings) { s.provider = provider }
}

// WithAPIVersion overrides DefaultAPIVersion for Azure.
func WithAPIVersion(version string) Option {
	return func(s *settings) { s.apiVersion = version }
}

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(doer openaiclient.Doer) Option {
	return func(s *settings) { s.doer = doer }
}
