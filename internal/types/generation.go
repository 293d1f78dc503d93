package types

// GenerationRequest asks for a post in an author's style.
type GenerationRequest struct {
	AuthorID          string   `json:"author_id" validate:"required"`
	Platform          Platform `json:"platform" validate:"required,oneof=linkedin instagram facebook telegram"`
	Topic             string   `json:"topic" validate:"required"`
	AdditionalContext string   `json:"additional_context,omitempty"`
}

// Validate validates the GenerationRequest using the validator.
func (r *GenerationRequest) Validate() error {
	return validate.Struct(r)
}

// GeneratorSource names the strategy that produced a raw post.
type GeneratorSource string

const (
	// SourceRemote marks text produced by the remote model.
	SourceRemote GeneratorSource = "remote"
	// SourceFallback marks text produced by the local template generator.
	SourceFallback GeneratorSource = "fallback"
)

// GenerationMetrics compares the final post length with the profile target.
type GenerationMetrics struct {
	Length       int  `json:"length"`
	TargetLength int  `json:"target_length"`
	LengthMatch  bool `json:"length_match"`
}

// GenerationResult is the outcome of one pipeline run.
type GenerationResult struct {
	AuthorID      string            `json:"author_id"`
	Platform      Platform          `json:"platform"`
	Topic         string            `json:"topic"`
	GeneratedPost string            `json:"generated_post"`
	RawPost       string            `json:"raw_post"`
	PromptUsed    string            `json:"prompt_used"`
	Generator     GeneratorSource   `json:"generator"`
	Metrics       GenerationMetrics `json:"metrics"`
	Score         ScoreReport       `json:"score"`
}

// ScoreReport holds the per-metric similarity scores and their weighted sum.
type ScoreReport struct {
	LengthAccuracy      float64 `json:"length_accuracy"`
	SentenceLengthMatch float64 `json:"sentence_length_match"`
	EmojiDensityMatch   float64 `json:"emoji_density_match"`
	HashtagDensityMatch float64 `json:"hashtag_density_match"`
	StructureMatch      float64 `json:"structure_match"`
	ToneMatch           float64 `json:"tone_match"`
	EmotionalityMatch   float64 `json:"emotionality_match"`
	OverallScore        float64 `json:"overall_score"`
}
