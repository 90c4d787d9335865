package googleai

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/pkg/llms"
	"github.com/effective-security/x/values"
	"google.golang.org/genai"
)

var (
	ErrNoContentInResponse = errors.New("no content in generation response")
)

const (
	CITATIONS = "citations"
	SAFETY    = "safety"
	RoleModel = "model"
	RoleUser  = "user"
)

// GetName implements the Model interface.
func (g *GoogleAI) GetName() string {
	return g.cfg.defaults.Model
}

// GetProviderType implements the Model interface.
func (g *GoogleAI) GetProviderType() llms.ProviderType {
	return llms.ProviderGoogleAI
}

// GenerateContent implements the [llms.Model] interface.
func (g *GoogleAI) GenerateContent(
	ctx context.Context,
	messages []llms.Message,
	options ...llms.CallOption,
) (*llms.ContentResponse, error) {
	opts := g.cfg.callOptions(options)

	callCfg := &genai.GenerateContentConfig{
		StopSequences:   opts.StopWords,
		MaxOutputTokens: int32(opts.MaxTokens),
		Temperature:     genai.Ptr(float32(opts.Temperature)),
		TopP:            genai.Ptr(float32(opts.TopP)),
	}
	for _, category := range []genai.HarmCategory{
		genai.HarmCategoryDangerousContent,
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
	} {
		callCfg.SafetySettings = append(callCfg.SafetySettings, &genai.SafetySetting{
			Category:  category,
			Threshold: g.cfg.harm,
		})
	}

	system, rest := llms.SplitSystem(messages)
	if len(system) > 0 {
		callCfg.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n"), RoleUser)
	}

	contents := make([]*genai.Content, 0, len(rest))
	for _, m := range rest {
		switch m.Role {
		case llms.RoleHuman:
			contents = append(contents, genai.NewContentFromText(m.Content, RoleUser))
		case llms.RoleAI:
			contents = append(contents, genai.NewContentFromText(m.Content, RoleModel))
		default:
			return nil, errors.Wrapf(llms.ErrUnexpectedRole, "googleai: role %v", m.Role)
		}
	}

	model := values.StringsCoalesce(opts.Model, g.cfg.defaults.Model)
	if opts.Streaming() {
		return g.generateStream(ctx, model, contents, callCfg, opts.StreamingFunc)
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, contents, callCfg)
	if err != nil {
		return nil, errors.Wrap(err, "googleai: failed to generate content")
	}
	if len(resp.Candidates) == 0 {
		return nil, errors.WithStack(ErrNoContentInResponse)
	}
	return convertCandidates(resp.Candidates, resp.UsageMetadata), nil
}

func (g *GoogleAI) generateStream(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	cfg *genai.GenerateContentConfig,
	fn func(ctx context.Context, chunk []byte) error,
) (*llms.ContentResponse, error) {
	var buf strings.Builder
	var finish genai.FinishReason
	var usage *genai.GenerateContentResponseUsageMetadata

	for resp, err := range g.client.Models.GenerateContentStream(ctx, model, contents, cfg) {
		if err != nil {
			return nil, errors.Wrap(err, "googleai: streaming error")
		}
		if resp.UsageMetadata != nil {
			usage = resp.UsageMetadata
		}
		for _, candidate := range resp.Candidates {
			if candidate.FinishReason != "" {
				finish = candidate.FinishReason
			}
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text == "" {
					continue
				}
				buf.WriteString(part.Text)
				if err := fn(ctx, []byte(part.Text)); err != nil {
					return nil, errors.Wrap(err, "googleai: streaming function error")
				}
			}
		}
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				Content:        buf.String(),
				StopReason:     string(finish),
				GenerationInfo: usageInfo(usage),
			},
		},
	}, nil
}

// convertCandidates converts a sequence of genai.Candidate to a response.
func convertCandidates(candidates []*genai.Candidate, usage *genai.GenerateContentResponseUsageMetadata) *llms.ContentResponse {
	var contentResponse llms.ContentResponse

	for _, candidate := range candidates {
		buf := strings.Builder{}
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				buf.WriteString(part.Text)
			}
		}

		metadata := usageInfo(usage)
		metadata[CITATIONS] = candidate.CitationMetadata
		metadata[SAFETY] = candidate.SafetyRatings

		contentResponse.Choices = append(contentResponse.Choices,
			&llms.ContentChoice{
				Content:        buf.String(),
				StopReason:     string(candidate.FinishReason),
				GenerationInfo: metadata,
			})
	}
	return &contentResponse
}

func usageInfo(usage *genai.GenerateContentResponseUsageMetadata) map[string]any {
	metadata := make(map[string]any)
	if usage != nil {
		metadata["InputTokens"] = usage.PromptTokenCount
		metadata["OutputTokens"] = usage.CandidatesTokenCount
		metadata["TotalTokens"] = usage.TotalTokenCount
	}
	return metadata
}

// CreateEmbedding creates embeddings from texts.
func (g *GoogleAI) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, genai.NewContentFromText(t, RoleUser))
	}

	resp, err := g.client.Models.EmbedContent(ctx, g.cfg.embeddingModel, contents, nil)
	if err != nil {
		return nil, errors.Wrap(err, "googleai: failed to create embeddings")
	}

	results := make([][]float32, 0, len(resp.Embeddings))
	for _, e := range resp.Embeddings {
		results = append(results, e.Values)
	}
	return results, nil
}
