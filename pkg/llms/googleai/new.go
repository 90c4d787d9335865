// Package googleai implements a provider for Google AI (Gemini) models.
// See https://ai.google.dev/ for more details.
package googleai

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/pkg/llms"
	"google.golang.org/genai"
)

// GoogleAI is a Gemini chat model and embedder.
type GoogleAI struct {
	client *genai.Client
	cfg    *config
}

var (
	_ llms.Model    = (*GoogleAI)(nil)
	_ llms.Embedder = (*GoogleAI)(nil)
)

// New creates a Gemini API client.
func New(ctx context.Context, opts ...Option) (*GoogleAI, error) {
	cfg := newConfig(opts)
	client, err := genai.NewClient(ctx, cfg.clientConfig())
	if err != nil {
		return nil, errors.Wrap(err, "googleai: failed to create client")
	}
	return &GoogleAI{
		client: client,
		cfg:    cfg,
	}, nil
}
