// Package scoring measures how closely a generated post matches an author's
// StyleProfile.
package scoring

import (
	"strings"

	"github.com/jonathan/ghostpen/internal/lexicon"
	"github.com/jonathan/ghostpen/internal/textmetrics"
	"github.com/jonathan/ghostpen/internal/types"
)

// Weights of the individual metrics in the overall score
const (
	lengthWeight       = 0.20
	sentenceWeight     = 0.15
	emojiWeight        = 0.10
	hashtagWeight      = 0.10
	structureWeight    = 0.15
	toneWeight         = 0.20
	emotionalityWeight = 0.10
)

// neutralScore is returned when a metric cannot be measured.
const neutralScore = 0.5

// Weights returns the metric weights keyed by their report field name.
func Weights() map[string]float64 {
	return map[string]float64{
		"length_accuracy":       lengthWeight,
		"sentence_length_match": sentenceWeight,
		"emoji_density_match":   emojiWeight,
		"hashtag_density_match": hashtagWeight,
		"structure_match":       structureWeight,
		"tone_match":            toneWeight,
		"emotionality_match":    emotionalityWeight,
	}
}

// Scorer compares text against a profile. It is stateless and safe for
// concurrent use.
type Scorer struct {
	lex *lexicon.Lexicon
}

// New creates a Scorer. A nil lexicon selects lexicon.Default().
func New(lex *lexicon.Lexicon) *Scorer {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Scorer{lex: lex}
}

// targets is the stylistic envelope a post is scored against.
type targets struct {
	length         int
	sentenceLength float64
	emojiDensity   float64
	hashtagDensity float64
	dominantTone   string
	perThousand    bool

	// Always taken from the aggregate style.
	structureType string
	usesLists     bool
	emotionality  float64
}

// targetsFor resolves the targets for platform, preferring the
// platform-specific block when the profile has one.
func targetsFor(profile *types.StyleProfile, platform types.Platform) targets {
	if profile == nil {
		profile = &types.StyleProfile{}
	}
	style := profile.Style
	t := targets{
		length:         style.AvgPostLength,
		sentenceLength: style.AvgSentenceLength,
		emojiDensity:   style.EmojiDensity,
		hashtagDensity: style.HashtagDensity,
		dominantTone:   style.Tone.Dominant,
		perThousand:    profile.AlgorithmVersion == types.AlgorithmV2,
		structureType:  style.StructureType,
		usesLists:      style.UsesLists,
		emotionality:   style.Emotionality,
	}
	if ps, ok := profile.PlatformStyle(string(platform)); ok {
		t.length = ps.AvgLength
		t.sentenceLength = ps.AvgSentenceLength
		t.emojiDensity = ps.EmojiDensity
		t.hashtagDensity = ps.HashtagDensity
		t.dominantTone = ps.Tone.Dominant
	}
	if t.dominantTone == "" {
		t.dominantTone = types.ToneBalanced
	}
	if t.structureType == "" {
		t.structureType = types.StructureParagraphs
	}
	return t
}

// Score computes the seven metric scores of text and their weighted sum.
// It never fails; unmeasurable metrics get a neutral score.
func (s *Scorer) Score(text string, profile *types.StyleProfile, platform types.Platform) types.ScoreReport {
	t := targetsFor(profile, platform)

	r := types.ScoreReport{
		LengthAccuracy:      LengthAccuracy(text, t.length),
		SentenceLengthMatch: SentenceLengthMatch(text, t.sentenceLength),
		EmojiDensityMatch:   densityMatch(textmetrics.CountEmoji(text), text, t.emojiDensity, t.perThousand),
		HashtagDensityMatch: densityMatch(textmetrics.CountHashtags(text), text, t.hashtagDensity, t.perThousand),
		StructureMatch:      StructureMatch(text, t.structureType, t.usesLists),
		ToneMatch:           s.ToneMatch(text, t.dominantTone),
		EmotionalityMatch:   s.EmotionalityMatch(text, t.emotionality),
	}
	r.OverallScore = r.LengthAccuracy*lengthWeight +
		r.SentenceLengthMatch*sentenceWeight +
		r.EmojiDensityMatch*emojiWeight +
		r.HashtagDensityMatch*hashtagWeight +
		r.StructureMatch*structureWeight +
		r.ToneMatch*toneWeight +
		r.EmotionalityMatch*emotionalityWeight
	return r
}

// LengthAccuracy scores the character length of text against target.
func LengthAccuracy(text string, target int) float64 {
	if target <= 0 {
		return 1.0
	}
	ratio := float64(textmetrics.Len(text)) / float64(target)
	switch {
	case ratio >= 0.8 && ratio <= 1.2:
		return 1.0
	case (ratio >= 0.6 && ratio < 0.8) || (ratio > 1.2 && ratio <= 1.5):
		return 0.7
	case (ratio >= 0.4 && ratio < 0.6) || (ratio > 1.5 && ratio <= 2.0):
		return 0.4
	default:
		return 0.1
	}
}

// SentenceLengthMatch scores the mean words per sentence against target.
func SentenceLengthMatch(text string, target float64) float64 {
	if target <= 0 || len(textmetrics.Sentences(text)) == 0 {
		return neutralScore
	}
	ratio := textmetrics.AvgSentenceLength(text) / target
	switch {
	case ratio >= 0.7 && ratio <= 1.3:
		return 1.0
	case (ratio >= 0.5 && ratio < 0.7) || (ratio > 1.3 && ratio <= 1.6):
		return 0.7
	default:
		return 0.4
	}
}

// observedDensity normalizes count per 100 words, or per 1000 characters
// for profiles measured that way.
func observedDensity(count int, text string, perThousand bool) (float64, bool) {
	words := textmetrics.WordCount(text)
	if words == 0 {
		return 0, false
	}
	if perThousand {
		return float64(count) / float64(textmetrics.Len(text)) * 1000, true
	}
	return float64(count) / float64(words) * 100, true
}

func densityMatch(count int, text string, target float64, perThousand bool) float64 {
	observed, ok := observedDensity(count, text, perThousand)
	if !ok {
		return neutralScore
	}
	if target <= 0 {
		if observed < 0.5 {
			return 1.0
		}
		return 0.3
	}
	ratio := observed / target
	switch {
	case ratio >= 0.5 && ratio <= 1.5:
		return 1.0
	case (ratio >= 0.3 && ratio < 0.5) || (ratio > 1.5 && ratio <= 2.0):
		return 0.7
	default:
		return 0.3
	}
}

// StructureMatch scores paragraph and list shape against the expected
// structure type.
func StructureMatch(text, structureType string, usesLists bool) float64 {
	score := neutralScore

	hasParagraphs := strings.Contains(text, "\n\n") || strings.Count(text, "\n") >= 2
	switch structureType {
	case types.StructureParagraphs, types.StructureNumberedLists, types.StructureBulletLists:
		if hasParagraphs {
			score += 0.3
		}
	}

	if usesLists {
		var matched bool
		switch structureType {
		case types.StructureNumberedLists:
			matched = textmetrics.HasNumberedList(text)
		case types.StructureBulletLists:
			matched = textmetrics.HasBulletList(text)
		default:
			matched = textmetrics.HasList(text)
		}
		if matched {
			score += 0.2
		}
	} else if !textmetrics.HasList(text) {
		score += 0.2
	}

	return min(score, 1.0)
}

// ToneMatch compares the dominant tone of text with the expected one.
func (s *Scorer) ToneMatch(text, expected string) float64 {
	detected := textmetrics.Tone(text, s.lex).Dominant
	switch {
	case detected == expected:
		return 1.0
	case expected == types.ToneBalanced:
		return 0.7
	default:
		return 0.3
	}
}

// EmotionalityMatch compares the emotionality of text with target.
func (s *Scorer) EmotionalityMatch(text string, target float64) float64 {
	if textmetrics.WordCount(text) == 0 {
		return neutralScore
	}
	observed := textmetrics.Emotionality(text, s.lex)
	if target <= 0 {
		if observed < 2 {
			return 1.0
		}
		return neutralScore
	}
	ratio := observed / target
	switch {
	case ratio >= 0.7 && ratio <= 1.3:
		return 1.0
	case (ratio >= 0.5 && ratio < 0.7) || (ratio > 1.3 && ratio <= 1.6):
		return 0.7
	default:
		return 0.4
	}
}
