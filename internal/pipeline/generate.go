// Package pipeline wires profiling, prompting, generation, post-processing
// and scoring into the end-to-end GhostPen flow.
package pipeline

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/ghostpen/internal/llm"
	"github.com/jonathan/ghostpen/internal/postprocess"
	"github.com/jonathan/ghostpen/internal/prompting"
	"github.com/jonathan/ghostpen/internal/prompts"
	"github.com/jonathan/ghostpen/internal/scoring"
	"github.com/jonathan/ghostpen/internal/textmetrics"
	"github.com/jonathan/ghostpen/internal/types"
)

// lengthMatchTolerance is the relative length deviation still reported as a match.
const lengthMatchTolerance = 0.3

// Step names reported through ProgressCallback
const (
	StepPrompt      = "prompt"
	StepGenerate    = "generate"
	StepPostprocess = "postprocess"
	StepScore       = "score"
	StepProfile     = "profile"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	AuthorID string `json:"author_id,omitempty"`
	Message  string `json:"message"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Generator produces raw text and reports which strategy produced it.
// llm.ResilientGenerator implements it.
type Generator interface {
	GenerateWithSource(ctx context.Context, prompt string, maxTokens int) (string, types.GeneratorSource)
}

// Options configures a Pipeline. Nil fields get working defaults: the
// embedded platform rules, the template-only generator and the default
// lexicon.
type Options struct {
	Builder    *prompting.Builder
	Generator  Generator
	Scorer     *scoring.Scorer
	MaxTokens  int
	Logger     *zap.Logger
	OnProgress ProgressCallback
}

// Pipeline generates posts in an author's style.
type Pipeline struct {
	builder    *prompting.Builder
	generator  Generator
	scorer     *scoring.Scorer
	maxTokens  int
	logger     *zap.Logger
	onProgress ProgressCallback
}

// New creates a Pipeline from opts.
func New(opts Options) *Pipeline {
	if opts.Builder == nil {
		opts.Builder = prompting.NewBuilder(prompts.DefaultRules(), nil)
	}
	if opts.Generator == nil {
		opts.Generator = llm.NewResilientGenerator(llm.ResilientOptions{Logger: opts.Logger})
	}
	if opts.Scorer == nil {
		opts.Scorer = scoring.New(nil)
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = llm.DefaultMaxTokens
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Pipeline{
		builder:    opts.Builder,
		generator:  opts.Generator,
		scorer:     opts.Scorer,
		maxTokens:  opts.MaxTokens,
		logger:     opts.Logger,
		onProgress: opts.OnProgress,
	}
}

// Builder returns the prompt builder the pipeline uses.
func (p *Pipeline) Builder() *prompting.Builder {
	return p.builder
}

// Scorer returns the scorer the pipeline uses.
func (p *Pipeline) Scorer() *scoring.Scorer {
	return p.scorer
}

// WithProgress returns a copy of p that reports progress to cb.
func (p *Pipeline) WithProgress(cb ProgressCallback) *Pipeline {
	cp := *p
	cp.onProgress = cb
	return &cp
}

func (p *Pipeline) emit(step, authorID, message string, content any) {
	if p.onProgress != nil {
		p.onProgress(ProgressEvent{Step: step, AuthorID: authorID, Message: message, Content: content})
	}
}

// Generate resolves the author's profile through the builder's profile
// source and produces a post. An unknown author yields
// *prompting.NotFoundError; an invalid request *InvalidRequestError.
func (p *Pipeline) Generate(ctx context.Context, req types.GenerationRequest) (*types.GenerationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, invalidRequest(err)
	}

	prompt, profile, err := p.builder.BuildForAuthor(ctx, req.AuthorID, string(req.Platform), req.Topic, req.AdditionalContext)
	if err != nil {
		return nil, err
	}
	return p.run(ctx, req, profile, prompt), nil
}

// GenerateWithProfile produces a post for an already loaded profile.
func (p *Pipeline) GenerateWithProfile(ctx context.Context, req types.GenerationRequest, profile *types.StyleProfile) (*types.GenerationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, invalidRequest(err)
	}
	if profile == nil {
		return nil, &prompting.NotFoundError{AuthorID: req.AuthorID}
	}

	prompt := p.builder.Build(profile, string(req.Platform), req.Topic, req.AdditionalContext)
	return p.run(ctx, req, profile, prompt), nil
}

func (p *Pipeline) run(ctx context.Context, req types.GenerationRequest, profile *types.StyleProfile, prompt string) *types.GenerationResult {
	start := time.Now()
	p.emit(StepPrompt, req.AuthorID, "Built prompt", nil)

	raw, source := p.generator.GenerateWithSource(ctx, prompt, p.maxTokens)
	p.emit(StepGenerate, req.AuthorID, "Generated raw post", source)

	targets := PostTargets(profile, req.Platform)
	final := postprocess.Process(raw, targets)
	p.emit(StepPostprocess, req.AuthorID, "Post-processed text", nil)

	report := p.scorer.Score(final, profile, req.Platform)
	p.emit(StepScore, req.AuthorID, "Scored post", report)

	length := textmetrics.Len(final)
	result := &types.GenerationResult{
		AuthorID:      req.AuthorID,
		Platform:      req.Platform,
		Topic:         req.Topic,
		GeneratedPost: final,
		RawPost:       raw,
		PromptUsed:    prompt,
		Generator:     source,
		Metrics:       Metrics(length, targets.Length),
		Score:         report,
	}

	p.logger.Info("post generated",
		zap.String("author_id", req.AuthorID),
		zap.String("platform", string(req.Platform)),
		zap.String("generator", string(source)),
		zap.Int("length", length),
		zap.Int("target_length", targets.Length),
		zap.Float64("overall_score", report.OverallScore),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result
}

// PostTargets returns the envelope the post-processor repairs towards.
// Densities of per-1000-character profiles are converted to a per-post
// count at the target length.
func PostTargets(profile *types.StyleProfile, platform types.Platform) postprocess.Targets {
	if profile == nil {
		profile = &types.StyleProfile{}
	}
	t := postprocess.Targets{
		Length:         prompting.TargetLength(profile, string(platform)),
		EmojiDensity:   profile.Style.EmojiDensity,
		HashtagDensity: profile.Style.HashtagDensity,
		StructureType:  profile.Style.StructureType,
	}
	if ps, ok := profile.PlatformStyle(string(platform)); ok {
		t.EmojiDensity = ps.EmojiDensity
		t.HashtagDensity = ps.HashtagDensity
	}
	if profile.AlgorithmVersion == types.AlgorithmV2 {
		t.EmojiDensity = t.EmojiDensity * float64(t.Length) / 1000
		t.HashtagDensity = t.HashtagDensity * float64(t.Length) / 1000
	}
	return t
}

// Metrics compares a post length with the target. With a zero target only
// an empty post matches.
func Metrics(length, target int) types.GenerationMetrics {
	match := length == 0
	if target > 0 {
		match = math.Abs(float64(length-target))/float64(target) < lengthMatchTolerance
	}
	return types.GenerationMetrics{
		Length:       length,
		TargetLength: target,
		LengthMatch:  match,
	}
}
