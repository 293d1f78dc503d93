// Package llm provides the text generation backends used to write posts:
// a remote Gemini client, a deterministic template fallback, and a resilient
// generator that switches from the first to the second on failure.
package llm

import (
	"errors"
	"fmt"
)

// ModelTier picks a model by cost and quality.
type ModelTier string

const (
	// TierFast trades quality for latency; used for smoke tests and previews.
	TierFast ModelTier = "fast"
	// TierStandard writes posts.
	TierStandard ModelTier = "standard"
	// TierQuality is for long LinkedIn posts.
	TierQuality ModelTier = "quality"
)

// Sampling defaults.
const (
	DefaultTemperature float32 = 0.7
	DefaultTopP        float32 = 0.95
)

// DefaultSystemInstruction frames the model as a social media copywriter.
const DefaultSystemInstruction = "Ты эксперт по созданию контента для социальных сетей."

// Config selects Gemini models and sampling parameters.
type Config struct {
	Models            map[ModelTier]string
	Temperature       float32
	TopP              float32
	SystemInstruction string
}

// DefaultConfig returns the Gemini models GhostPen writes with.
func DefaultConfig() *Config {
	return &Config{
		Models: map[ModelTier]string{
			TierFast:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierQuality:  "gemini-2.5-pro",
		},
		Temperature:       DefaultTemperature,
		TopP:              DefaultTopP,
		SystemInstruction: DefaultSystemInstruction,
	}
}

// Model returns the model of tier. Tiers without a model use the standard one.
func (c *Config) Model(tier ModelTier) string {
	if m := c.Models[tier]; m != "" {
		return m
	}
	return c.Models[TierStandard]
}

// SetModel overrides the model of tier.
func (c *Config) SetModel(tier ModelTier, model string) {
	if c.Models == nil {
		c.Models = make(map[ModelTier]string)
	}
	c.Models[tier] = model
}

// Validate checks that a standard model is set and sampling is in range.
func (c *Config) Validate() error {
	if c.Models[TierStandard] == "" {
		return errors.New("llm config: no standard model")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("llm config: temperature %.2f out of range [0, 2]", c.Temperature)
	}
	if c.TopP < 0 || c.TopP > 1 {
		return fmt.Errorf("llm config: top_p %.2f out of range [0, 1]", c.TopP)
	}
	return nil
}
