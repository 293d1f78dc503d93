package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// DefaultMaxTokens bounds the length of a generated post.
const DefaultMaxTokens = 500

// TextGenerator turns a prompt into raw post text.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// GeminiGenerator is the remote generation strategy.
type GeminiGenerator struct {
	client Client
	tier   ModelTier
	logger *zap.Logger
}

// NewGeminiGenerator generates with client using the model of tier.
func NewGeminiGenerator(client Client, tier ModelTier, logger *zap.Logger) *GeminiGenerator {
	if tier == "" {
		tier = TierStandard
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiGenerator{client: client, tier: tier, logger: logger}
}

// Generate implements TextGenerator. Empty answers are errors so the caller
// can fall back.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	out, err := g.client.Complete(ctx, CompletionRequest{Prompt: prompt, Tier: g.tier, MaxTokens: maxTokens})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Text) == "" {
		return "", fmt.Errorf("model %s returned empty text (finish reason %s)", out.Model, out.FinishReason)
	}

	g.logger.Debug("remote generation",
		zap.String("model", out.Model),
		zap.Int("prompt_tokens", out.PromptTokens),
		zap.Int("output_tokens", out.OutputTokens),
		zap.Bool("truncated", out.Truncated()),
	)
	return out.Text, nil
}
