package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// AlgorithmVersion selects the profiling variant used to build a StyleProfile.
type AlgorithmVersion string

const (
	// AlgorithmV1 measures densities as mean entity counts per post and mines 2-3 word phrases.
	AlgorithmV1 AlgorithmVersion = "v1"
	// AlgorithmV2 measures densities per 1000 characters and mines 2-4 word phrases.
	AlgorithmV2 AlgorithmVersion = "v2"
)

// ParseAlgorithmVersion returns the version named by s; empty selects v1.
func ParseAlgorithmVersion(s string) (AlgorithmVersion, error) {
	switch AlgorithmVersion(s) {
	case "", AlgorithmV1:
		return AlgorithmV1, nil
	case AlgorithmV2:
		return AlgorithmV2, nil
	}
	return "", fmt.Errorf("unknown algorithm version %q (expected v1 or v2)", s)
}

// Tone names. The order of the four lexicon tones is the argmax tie-break order.
const (
	ToneFormal    = "formal"
	ToneEmotional = "emotional"
	ToneExpert    = "expert"
	ToneCasual    = "casual"
	ToneBalanced  = "balanced"
)

// Structure types.
const (
	StructureNumberedLists = "numbered_lists"
	StructureBulletLists   = "bullet_lists"
	StructureParagraphs    = "paragraphs"
	StructureNarrative     = "narrative"
)

// ToneScores holds per-lexicon tone scores and the dominant tone.
type ToneScores struct {
	Formal    float64 `json:"formal"`
	Emotional float64 `json:"emotional"`
	Expert    float64 `json:"expert"`
	Casual    float64 `json:"casual"`
	Dominant  string  `json:"dominant"`
}

// Style is the aggregate stylistic fingerprint of a corpus.
type Style struct {
	AvgPostLength        int        `json:"avg_post_length"`
	MinPostLength        int        `json:"min_post_length"`
	MaxPostLength        int        `json:"max_post_length"`
	AvgSentenceLength    float64    `json:"avg_sentence_length"`
	AvgParagraphsPerPost float64    `json:"avg_paragraphs_per_post"`
	UsesLists            bool       `json:"uses_lists"`
	ListFrequency        float64    `json:"list_frequency"`
	EmojiDensity         float64    `json:"emoji_density"`
	HashtagDensity       float64    `json:"hashtag_density"`
	Tone                 ToneScores `json:"tone"`
	Emotionality         float64    `json:"emotionality"`
	StructureType        string     `json:"structure_type"`
}

// PlatformStyle is the per-platform subset of Style.
type PlatformStyle struct {
	PostCount         int        `json:"post_count"`
	AvgLength         int        `json:"avg_length"`
	AvgSentenceLength float64    `json:"avg_sentence_length"`
	EmojiDensity      float64    `json:"emoji_density"`
	HashtagDensity    float64    `json:"hashtag_density"`
	Tone              ToneScores `json:"tone"`
}

// TopicScore is the relevance of one topic category.
type TopicScore struct {
	Topic string
	Score float64
}

// TopicScores is an ordered topic mapping; it serializes as a JSON object
// whose keys keep the slice order (descending score).
type TopicScores []TopicScore

// MarshalJSON writes the topics as an ordered JSON object.
func (t TopicScores) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, ts := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(ts.Topic)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(ts.Score)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object preserving key order.
func (t *TopicScores) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*t = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("topics: expected JSON object")
	}

	var out TopicScores
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("topics: expected string key")
		}
		var score float64
		if err := dec.Decode(&score); err != nil {
			return fmt.Errorf("topics: score for %q: %w", key, err)
		}
		out = append(out, TopicScore{Topic: key, Score: score})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*t = out
	return nil
}

// StyleProfile is the immutable fingerprint of an author's writing.
type StyleProfile struct {
	AuthorID         string                   `json:"author_id"`
	Name             string                   `json:"name,omitempty"`
	Profession       string                   `json:"profession,omitempty"`
	AlgorithmVersion AlgorithmVersion         `json:"algorithm_version"`
	GeneratedAt      time.Time                `json:"generated_at"`
	TotalPosts       int                      `json:"total_posts"`
	Platforms        []string                 `json:"platforms"`
	Style            Style                    `json:"style"`
	PlatformSpecific map[string]PlatformStyle `json:"platform_specific"`
	Topics           TopicScores              `json:"topics"`
	SignaturePhrases []string                 `json:"signature_phrases"`
	SamplePosts      []string                 `json:"sample_posts"`
}

// PlatformStyle returns the platform-specific block for platform, if the profile has one.
func (p *StyleProfile) PlatformStyle(platform string) (PlatformStyle, bool) {
	if p == nil || p.PlatformSpecific == nil {
		return PlatformStyle{}, false
	}
	ps, ok := p.PlatformSpecific[platform]
	return ps, ok
}

// ProfilesFile is the on-disk collection of profiles produced by the profile command.
type ProfilesFile struct {
	Version     string         `json:"version"`
	GeneratedAt time.Time      `json:"generated_at"`
	Profiles    []StyleProfile `json:"profiles"`
}

// Find returns the profile with the given author id.
func (f *ProfilesFile) Find(authorID string) (*StyleProfile, bool) {
	for i := range f.Profiles {
		if f.Profiles[i].AuthorID == authorID {
			return &f.Profiles[i], true
		}
	}
	return nil, false
}
