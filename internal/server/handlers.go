package server

import (
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/jonathan/ghostpen/internal/pipeline"
	"github.com/jonathan/ghostpen/internal/scoring"
	"github.com/jonathan/ghostpen/internal/types"
)

// promptTokensPerWord approximates model tokens from whitespace-separated words.
const promptTokensPerWord = 1.3

// emojiHeavyThreshold is the per-post emoji count above which an author is
// labelled "High" in the author list.
const emojiHeavyThreshold = 1.0

// AuthorStats is the summary shown in the author picker.
type AuthorStats struct {
	Formality    string `json:"formality"`
	AvgLength    int    `json:"avgLength"`
	EmojiDensity string `json:"emojiDensity"`
}

// AuthorSummary is one entry of GET /api/authors.
type AuthorSummary struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Profession  string      `json:"profession"`
	TotalPosts  int         `json:"total_posts"`
	Platforms   []string    `json:"platforms"`
	SamplePosts []string    `json:"sample_posts"`
	Stats       AuthorStats `json:"stats"`
}

// GenerateRequest is the body of POST /api/generate. Platform is accepted as
// an alias of SocialNetwork.
type GenerateRequest struct {
	AuthorID          string `json:"author_id"`
	SocialNetwork     string `json:"social_network"`
	Platform          string `json:"platform,omitempty"`
	Topic             string `json:"topic"`
	AdditionalContext string `json:"additional_context,omitempty"`
}

// DebugInfo describes how a post was produced.
type DebugInfo struct {
	TargetLength     int                   `json:"target_length"`
	ModelVersion     string                `json:"model_version"`
	ProcessingTimeMs int64                 `json:"processing_time_ms"`
	PromptTokens     int                   `json:"prompt_tokens"`
	Generator        types.GeneratorSource `json:"generator"`
}

// GenerateResponse is returned by the generation endpoints.
type GenerateResponse struct {
	GeneratedPost   string                  `json:"generated_post"`
	StyleSimilarity float64                 `json:"style_similarity"`
	Scores          types.ScoreReport       `json:"scores"`
	Metrics         types.GenerationMetrics `json:"metrics"`
	Debug           DebugInfo               `json:"debug"`
}

// ScoreRequest is the body of POST /api/score.
type ScoreRequest struct {
	AuthorID      string `json:"author_id"`
	SocialNetwork string `json:"social_network"`
	Platform      string `json:"platform,omitempty"`
	Text          string `json:"text"`
}

// ScoreResponse is returned by POST /api/score.
type ScoreResponse struct {
	Scores  types.ScoreReport  `json:"scores"`
	Weights map[string]float64 `json:"weights"`
}

// parsePlatform resolves the network of a request; an unsupported one is a
// validation error.
func parsePlatform(socialNetwork, platform string) (types.Platform, error) {
	name := socialNetwork
	if name == "" {
		name = platform
	}
	p, err := types.ParsePlatform(name)
	if err != nil {
		return "", &ErrValidation{Field: "social_network", Message: err.Error()}
	}
	return p, nil
}

func (req *GenerateRequest) toGeneration() (types.GenerationRequest, error) {
	platform, err := parsePlatform(req.SocialNetwork, req.Platform)
	if err != nil {
		return types.GenerationRequest{}, err
	}
	out := types.GenerationRequest{
		AuthorID:          strings.TrimSpace(req.AuthorID),
		Platform:          platform,
		Topic:             strings.TrimSpace(req.Topic),
		AdditionalContext: req.AdditionalContext,
	}
	if err := out.Validate(); err != nil {
		return types.GenerationRequest{}, validationError(err)
	}
	return out, nil
}

func (s *Server) generateResponse(result *types.GenerationResult, started time.Time) GenerateResponse {
	return GenerateResponse{
		GeneratedPost:   result.GeneratedPost,
		StyleSimilarity: result.Score.OverallScore,
		Scores:          result.Score,
		Metrics:         result.Metrics,
		Debug: DebugInfo{
			TargetLength:     result.Metrics.TargetLength,
			ModelVersion:     s.modelVersion,
			ProcessingTimeMs: time.Since(started).Milliseconds(),
			PromptTokens:     int(float64(len(strings.Fields(result.PromptUsed))) * promptTokensPerWord),
			Generator:        result.Generator,
		},
	}
}

// handleAuthors lists the dataset authors with stored profiles. Profiles of
// registered users are private and not listed.
func (s *Server) handleAuthors(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.store.ListProfiles(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	authors := make([]AuthorSummary, 0, len(profiles))
	for i := range profiles {
		p := &profiles[i]
		if strings.HasPrefix(p.AuthorID, types.UserAuthorPrefix) {
			continue
		}
		authors = append(authors, summarize(p))
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"authors": authors})
}

func summarize(p *types.StyleProfile) AuthorSummary {
	name := p.Name
	if name == "" {
		name = displayName(p.AuthorID)
	}
	profession := p.Profession
	if profession == "" {
		profession = "Content Creator"
	}
	formality := p.Style.Tone.Dominant
	if formality == "" {
		formality = types.ToneBalanced
	}
	emoji := "Low"
	if pipeline.PostTargets(p, "").EmojiDensity > emojiHeavyThreshold {
		emoji = "High"
	}
	platforms := p.Platforms
	if platforms == nil {
		platforms = []string{}
	}
	samples := p.SamplePosts
	if samples == nil {
		samples = []string{}
	}
	return AuthorSummary{
		ID:          p.AuthorID,
		Name:        name,
		Profession:  profession,
		TotalPosts:  p.TotalPosts,
		Platforms:   platforms,
		SamplePosts: samples,
		Stats: AuthorStats{
			Formality:    formality,
			AvgLength:    p.Style.AvgPostLength,
			EmojiDensity: emoji,
		},
	}
}

// displayName turns "person_01" into "Person 01".
func displayName(id string) string {
	words := strings.Fields(strings.ReplaceAll(id, "_", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToTitle(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// handleGenerate writes a post in a dataset author's style.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	var body GenerateRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	req, err := body.toGeneration()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	result, err := s.pipeline.Generate(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.generateResponse(result, started))
}

// handleGenerateStream runs the same flow as handleGenerate and reports each
// pipeline step as a server-sent event before the final result.
func (s *Server) handleGenerateStream(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	var body GenerateRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	req, err := body.toGeneration()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	stream, err := openEventStream(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	p := s.pipeline.WithProgress(func(e pipeline.ProgressEvent) {
		if err := stream.send(EventProgress, e); err != nil {
			s.logger.Debug("progress event dropped", zap.Error(err))
		}
	})

	result, err := p.Generate(r.Context(), req)
	if err != nil {
		_ = stream.fail(publicError(r, err, s.logger))
		return
	}
	_ = stream.send(EventResult, s.generateResponse(result, started))
}

// handleScore scores arbitrary text against an author's profile.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	platform, err := parsePlatform(req.SocialNetwork, req.Platform)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.AuthorID) == "" {
		s.fail(w, r, &ErrValidation{Field: "author_id", Message: "required"})
		return
	}

	profile, err := s.store.GetProfile(r.Context(), req.AuthorID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, ScoreResponse{
		Scores:  s.pipeline.Scorer().Score(req.Text, profile, platform),
		Weights: scoring.Weights(),
	})
}
