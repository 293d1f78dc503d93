package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/ghostpen/internal/types"
)

// DefaultTimeout bounds a single remote generation call.
const DefaultTimeout = 30 * time.Second

// ResilientGenerator tries the primary strategy under a timeout and falls
// back to the deterministic strategy on any error, timeout or empty text.
type ResilientGenerator struct {
	primary  TextGenerator
	fallback TextGenerator
	timeout  time.Duration
	logger   *zap.Logger
}

// ResilientOptions configures a ResilientGenerator.
type ResilientOptions struct {
	// Primary is the remote strategy. Nil means fallback only.
	Primary TextGenerator
	// Fallback defaults to FallbackGenerator.
	Fallback TextGenerator
	Timeout  time.Duration
	Logger   *zap.Logger
}

// NewResilientGenerator creates a ResilientGenerator from opts.
func NewResilientGenerator(opts ResilientOptions) *ResilientGenerator {
	if opts.Fallback == nil {
		opts.Fallback = NewFallbackGenerator()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &ResilientGenerator{
		primary:  opts.Primary,
		fallback: opts.Fallback,
		timeout:  opts.Timeout,
		logger:   opts.Logger,
	}
}

// HasRemote reports whether a remote strategy is configured.
func (g *ResilientGenerator) HasRemote() bool {
	return g.primary != nil
}

// Generate implements TextGenerator. It never returns an error.
func (g *ResilientGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	text, _ := g.GenerateWithSource(ctx, prompt, maxTokens)
	return text, nil
}

// GenerateWithSource returns the generated text and which strategy produced it.
func (g *ResilientGenerator) GenerateWithSource(ctx context.Context, prompt string, maxTokens int) (string, types.GeneratorSource) {
	if g.primary != nil {
		start := time.Now()
		text, err := g.callPrimary(ctx, prompt, maxTokens)
		if err == nil {
			return text, types.SourceRemote
		}
		g.logger.Warn("remote generation failed, using fallback",
			zap.Error(err),
			zap.Duration("elapsed", time.Since(start)),
			zap.Bool("timeout", errors.Is(err, context.DeadlineExceeded)),
		)
	}

	text, err := g.fallback.Generate(ctx, prompt, maxTokens)
	if err != nil || strings.TrimSpace(text) == "" {
		// A custom fallback misbehaved; the template generator cannot.
		g.logger.Warn("fallback generation failed, using templates", zap.Error(err))
		text = Compose(prompt)
	}
	return text, types.SourceFallback
}

type generation struct {
	text string
	err  error
}

// callPrimary runs the primary strategy, abandoning it when the timeout
// expires even if the backend ignores cancellation.
func (g *ResilientGenerator) callPrimary(ctx context.Context, prompt string, maxTokens int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	done := make(chan generation, 1)
	go func() {
		text, err := g.primary.Generate(ctx, prompt, maxTokens)
		done <- generation{text: text, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return "", res.err
		}
		if strings.TrimSpace(res.text) == "" {
			return "", errors.New("remote generator returned empty text")
		}
		return res.text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
