// Package prompting assembles generation prompts from a style profile,
// a platform and a topic.
package prompting

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/ghostpen/internal/prompts"
	"github.com/jonathan/ghostpen/internal/types"
)

const (
	maxPromptPhrases = 5
	maxPromptSamples = 3

	// defaultTargetLength is used when the profile carries no length at all.
	defaultTargetLength = 300

	toneModifierThreshold = 5.0
	listFrequencyForLists = 0.3

	emojiUsageThreshold   = 0.5 // per post
	hashtagUsageThreshold = 2.0 // per post
)

// ProfileSource resolves an author id to its current style profile.
type ProfileSource interface {
	LookupProfile(ctx context.Context, authorID string) (*types.StyleProfile, bool, error)
}

// Builder builds prompts. It holds only immutable configuration and is safe
// for concurrent use.
type Builder struct {
	rules    prompts.RuleTable
	profiles ProfileSource
}

// NewBuilder creates a Builder over a platform rule table. profiles may be
// nil when only Build is used.
func NewBuilder(rules prompts.RuleTable, profiles ProfileSource) *Builder {
	return &Builder{rules: rules, profiles: profiles}
}

// BuildForAuthor looks up the author's profile and builds the prompt.
func (b *Builder) BuildForAuthor(ctx context.Context, authorID, platform, topic, additionalContext string) (string, *types.StyleProfile, error) {
	if b.profiles == nil {
		return "", nil, &NotFoundError{AuthorID: authorID}
	}
	profile, ok, err := b.profiles.LookupProfile(ctx, authorID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load profile for %s: %w", authorID, err)
	}
	if !ok || profile == nil {
		return "", nil, &NotFoundError{AuthorID: authorID}
	}
	return b.Build(profile, platform, topic, additionalContext), profile, nil
}

// Build returns the prompt for profile. Sections appear in a fixed order
// separated by blank lines; sections with nothing to say are omitted.
func (b *Builder) Build(profile *types.StyleProfile, platform, topic, additionalContext string) string {
	if profile == nil {
		profile = &types.StyleProfile{}
	}
	sections := []string{
		mainInstruction(profile, platform, topic),
		styleSection(profile, platform),
		examplesSection(profile),
		b.platformRulesSection(platform),
		topicSection(topic, additionalContext),
		formatRequirements(profile),
	}

	parts := sections[:0]
	for _, s := range sections {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Rules returns the rules the builder applies for platform.
func (b *Builder) Rules(platform string) prompts.PlatformRules {
	return b.rules.Lookup(platform)
}

func text(key string) string {
	return prompts.Generation().Text(key)
}

func render(key string, data map[string]string) string {
	return prompts.Generation().Render(key, data)
}

func mainInstruction(profile *types.StyleProfile, platform, topic string) string {
	return render("main-instruction", map[string]string{
		"AuthorID": profile.AuthorID,
		"Platform": strings.ToUpper(platform),
		"Topic":    topic,
	})
}

// styleTargets are the values the style section describes, taken from the
// platform-specific block when the profile has one.
type styleTargets struct {
	tone           types.ToneScores
	length         int
	emojiDensity   float64
	hashtagDensity float64
}

func targetsFor(profile *types.StyleProfile, platform string) styleTargets {
	t := styleTargets{
		tone:           profile.Style.Tone,
		length:         profile.Style.AvgPostLength,
		emojiDensity:   profile.Style.EmojiDensity,
		hashtagDensity: profile.Style.HashtagDensity,
	}
	if ps, ok := profile.PlatformStyle(platform); ok {
		t.tone = ps.Tone
		if ps.AvgLength > 0 {
			t.length = ps.AvgLength
		}
		t.emojiDensity = ps.EmojiDensity
		t.hashtagDensity = ps.HashtagDensity
	}
	if t.length <= 0 {
		t.length = defaultTargetLength
	}
	return t
}

// TargetLength returns the post length the prompt asks for.
func TargetLength(profile *types.StyleProfile, platform string) int {
	if profile == nil {
		return defaultTargetLength
	}
	return targetsFor(profile, platform).length
}

func styleSection(profile *types.StyleProfile, platform string) string {
	t := targetsFor(profile, platform)

	// Usage words compare per-post rates; v2 densities are converted using the target length.
	emojiPerPost, hashtagPerPost := t.emojiDensity, t.hashtagDensity
	unit := text("unit.v1")
	if profile.AlgorithmVersion == types.AlgorithmV2 {
		unit = text("unit.v2")
		emojiPerPost = t.emojiDensity * float64(t.length) / 1000
		hashtagPerPost = t.hashtagDensity * float64(t.length) / 1000
	}

	emojiUsage := text("emoji.rare")
	if emojiPerPost > emojiUsageThreshold {
		emojiUsage = text("emoji.uses")
	}
	hashtagUsage := text("hashtag.moderate")
	if hashtagPerPost > hashtagUsageThreshold {
		hashtagUsage = text("hashtag.active")
	}

	section := render("style", map[string]string{
		"Tone":           describeTone(t.tone),
		"Length":         strconv.Itoa(t.length),
		"Structure":      describeStructure(profile.Style.StructureType),
		"Emotionality":   describeEmotionality(profile.Style.Emotionality),
		"EmojiUsage":     emojiUsage,
		"EmojiDensity":   strconv.FormatFloat(t.emojiDensity, 'f', 1, 64),
		"HashtagUsage":   hashtagUsage,
		"HashtagDensity": strconv.FormatFloat(t.hashtagDensity, 'f', 1, 64),
		"DensityUnit":    unit,
	})

	if phrases := profile.SignaturePhrases; len(phrases) > 0 {
		if len(phrases) > maxPromptPhrases {
			phrases = phrases[:maxPromptPhrases]
		}
		section += "\n" + render("signature-phrases", map[string]string{
			"Phrases": strings.Join(phrases, ", "),
		})
	}
	return section
}

func describeTone(tone types.ToneScores) string {
	desc := prompts.Generation().Choose("tone", tone.Dominant, "balanced")
	if tone.Expert > toneModifierThreshold {
		desc += text("tone.with-expertise")
	}
	if tone.Emotional > toneModifierThreshold {
		desc += text("tone.with-emotion")
	}
	return desc
}

func describeStructure(structure string) string {
	if structure == "" {
		structure = types.StructureParagraphs
	}
	return prompts.Generation().Choose("structure", structure, types.StructureParagraphs)
}

func describeEmotionality(score float64) string {
	switch {
	case score < 2:
		return text("emotionality.low")
	case score < 5:
		return text("emotionality.moderate")
	default:
		return text("emotionality.high")
	}
}

func examplesSection(profile *types.StyleProfile) string {
	samples := profile.SamplePosts
	if len(samples) == 0 {
		return ""
	}
	if len(samples) > maxPromptSamples {
		samples = samples[:maxPromptSamples]
	}

	var sb strings.Builder
	sb.WriteString(text("examples-header"))
	for i, post := range samples {
		sb.WriteString("\n\n")
		sb.WriteString(render("example", map[string]string{
			"N":    strconv.Itoa(i + 1),
			"Post": post,
		}))
	}
	return sb.String()
}

func (b *Builder) platformRulesSection(platform string) string {
	r := b.rules.Lookup(platform)
	return render("platform-rules", map[string]string{
		"Length":    r.Length,
		"Tone":      r.Tone,
		"Structure": r.Structure,
		"Emojis":    r.Emojis,
		"Hashtags":  r.Hashtags,
		"Style":     r.Style,
	})
}

func topicSection(topic, additionalContext string) string {
	section := render("topic", map[string]string{"Topic": topic})
	if additionalContext = strings.TrimSpace(additionalContext); additionalContext != "" {
		section += "\n\n" + render("additional-context", map[string]string{
			"Context": additionalContext,
		})
	}
	return section
}

func formatRequirements(profile *types.StyleProfile) string {
	lines := []string{
		text("format-header"),
		text("format-language"),
		text("format-structure"),
	}
	if profile.Style.UsesLists && profile.Style.ListFrequency > listFrequencyForLists {
		lines = append(lines, text("format-lists"))
	}
	lines = append(lines,
		text("format-no-markup"),
		text("format-natural"),
		"",
		text("format-closing"),
	)
	return strings.Join(lines, "\n")
}
