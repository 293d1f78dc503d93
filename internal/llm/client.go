package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// CompletionRequest is one post-writing call.
type CompletionRequest struct {
	Prompt    string
	Tier      ModelTier
	MaxTokens int // 0 keeps the model default
}

// Completion is the model's answer with its token usage.
type Completion struct {
	Text         string
	Model        string
	FinishReason string
	PromptTokens int
	OutputTokens int
}

// Truncated reports whether the model stopped at the token limit.
func (c *Completion) Truncated() bool {
	return c.FinishReason == genai.FinishReasonMaxTokens.String()
}

// BlockedError reports a prompt or answer withheld by the provider's safety filters.
type BlockedError struct {
	Model  string
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("model %s blocked the request: %s", e.Model, e.Reason)
}

// Client completes prompts with a remote model.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
	Close() error
}

// GeminiClient implements Client over the Gemini API.
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewClient connects to Gemini with apiKey. A nil config means DefaultConfig.
func NewClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, config: config}, nil
}

// Complete implements Client.
func (c *GeminiClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	name := c.config.Model(req.Tier)
	model := c.client.GenerativeModel(name)
	model.SetTemperature(c.config.Temperature)
	model.SetTopP(c.config.TopP)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if c.config.SystemInstruction != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(c.config.SystemInstruction))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini %s: %w", name, err)
	}
	return completionFrom(name, resp)
}

// Close releases the underlying connection.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// completionFrom joins the text parts of the first candidate.
func completionFrom(model string, resp *genai.GenerateContentResponse) (*Completion, error) {
	if resp == nil {
		return nil, fmt.Errorf("gemini %s: empty response", model)
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != genai.BlockReasonUnspecified {
		return nil, &BlockedError{Model: model, Reason: fb.BlockReason.String()}
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini %s: no candidates", model)
	}

	cand := resp.Candidates[0]
	switch cand.FinishReason {
	case genai.FinishReasonSafety, genai.FinishReasonRecitation:
		return nil, &BlockedError{Model: model, Reason: cand.FinishReason.String()}
	}

	var sb strings.Builder
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}

	out := &Completion{
		Text:         CleanResponse(sb.String()),
		Model:        model,
		FinishReason: cand.FinishReason.String(),
	}
	if u := resp.UsageMetadata; u != nil {
		out.PromptTokens = int(u.PromptTokenCount)
		out.OutputTokens = int(u.CandidatesTokenCount)
	}
	return out, nil
}
