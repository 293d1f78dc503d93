package llm

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Model(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "gemini-2.5-flash", cfg.Model(TierStandard))
	assert.Equal(t, "gemini-2.5-pro", cfg.Model(TierQuality))
	assert.Equal(t, "gemini-2.5-flash", cfg.Model(""), "empty tier uses standard")
	assert.Equal(t, "gemini-2.5-flash", cfg.Model("unknown"))

	cfg.SetModel(TierStandard, "gemini-custom")
	assert.Equal(t, "gemini-custom", cfg.Model(TierStandard))
	assert.Equal(t, "gemini-2.5-flash", DefaultConfig().Model(TierStandard), "defaults are fresh copies")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"no standard model", func(c *Config) { c.Models = map[ModelTier]string{TierFast: "x"} }, "no standard model"},
		{"temperature", func(c *Config) { c.Temperature = 2.5 }, "temperature"},
		{"top_p", func(c *Config) { c.TopP = -0.1 }, "top_p"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(t.Context(), nil, "")
	assert.ErrorContains(t, err, "API key")
}

func TestNewClient_RejectsInvalidConfig(t *testing.T) {
	_, err := NewClient(t.Context(), &Config{}, "key")
	assert.ErrorContains(t, err, "no standard model")
}

func TestCompletionFrom(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Parts: []genai.Part{genai.Text("```\nПривет, "), genai.Text("друзья!\n```")}},
			FinishReason: genai.FinishReasonStop,
		}},
		UsageMetadata: &genai.UsageMetadata{PromptTokenCount: 120, CandidatesTokenCount: 8},
	}

	out, err := completionFrom("gemini-2.5-flash", resp)
	require.NoError(t, err)
	assert.Equal(t, "Привет, друзья!", out.Text)
	assert.Equal(t, "gemini-2.5-flash", out.Model)
	assert.Equal(t, 120, out.PromptTokens)
	assert.Equal(t, 8, out.OutputTokens)
	assert.False(t, out.Truncated())
}

func TestCompletionFrom_Truncated(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Parts: []genai.Part{genai.Text("Начало поста")}},
			FinishReason: genai.FinishReasonMaxTokens,
		}},
	}
	out, err := completionFrom("m", resp)
	require.NoError(t, err)
	assert.True(t, out.Truncated())
}

func TestCompletionFrom_Errors(t *testing.T) {
	var blocked *BlockedError

	_, err := completionFrom("m", &genai.GenerateContentResponse{
		PromptFeedback: &genai.PromptFeedback{BlockReason: genai.BlockReasonSafety},
	})
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, "m", blocked.Model)

	_, err = completionFrom("m", &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
	})
	assert.ErrorAs(t, err, &blocked)

	_, err = completionFrom("m", &genai.GenerateContentResponse{})
	assert.ErrorContains(t, err, "no candidates")

	_, err = completionFrom("m", nil)
	assert.ErrorContains(t, err, "empty response")
}
