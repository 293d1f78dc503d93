// Package postprocess repairs generated text so it fits an author's stylistic
// envelope: whitespace, length, repeated sentences, emoji count and paragraphs.
// Every step is total and side-effect free.
package postprocess

import (
	"math"
	"regexp"
	"strings"

	"github.com/jonathan/ghostpen/internal/textmetrics"
)

const (
	// lengthTolerance is the accepted deviation from the target length (25%)
	lengthTolerance = 0.25
	// minKeptFraction is the share of the target a sentence-preserving cut must keep
	minKeptFraction = 0.5

	minWordsForRepeatCheck = 3
	repeatPrefixWords      = 6
	repeatSuffixWords      = 3

	// repeatMinChars is the length above which a sentence can be a repetition
	repeatMinChars = 30

	paragraphMinChars     = 200
	sentencesPerParagraph = 2
	paragraphBreak        = "\n\n"
)

var (
	spaceRuns     = regexp.MustCompile(` +`)
	newlineRuns   = regexp.MustCompile(`\n{3,}`)
	newlineIndent = regexp.MustCompile(`\n +`)
)

// Targets is the stylistic envelope text is repaired towards.
type Targets struct {
	Length         int
	EmojiDensity   float64
	HashtagDensity float64
	StructureType  string
}

// Process runs the repair steps in order and returns the trimmed result.
// HashtagDensity and StructureType are accepted for completeness; only
// length and emoji density drive repairs.
func Process(text string, t Targets) string {
	text = CleanWhitespace(text)
	text = AdjustLength(text, t.Length)
	text = RemoveRepetitions(text)
	// Rejoining with spaces lengthens text whose sentences were unspaced.
	text = AdjustLength(text, t.Length)
	text = TrimEmoji(text, t.EmojiDensity)
	text = RestoreParagraphs(text, t.Length)
	return strings.TrimSpace(text)
}

// CleanWhitespace collapses runs of spaces, caps blank lines at one, strips
// indentation after newlines and trims the text.
func CleanWhitespace(text string) string {
	text = spaceRuns.ReplaceAllString(text, " ")
	text = newlineRuns.ReplaceAllString(text, paragraphBreak)
	text = newlineIndent.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}

// ceiling is the longest accepted length for target, in characters.
func ceiling(target int) float64 {
	return float64(target) * (1 + lengthTolerance)
}

// AdjustLength cuts text that is longer than the target plus tolerance,
// keeping whole sentences where possible. Shorter text is returned as is;
// a target of zero or less disables the step.
func AdjustLength(text string, target int) string {
	if target <= 0 {
		return text
	}
	limit := ceiling(target)
	if float64(textmetrics.Len(text)) <= limit {
		return text
	}

	var sb strings.Builder
	kept := 0
	for _, seg := range textmetrics.Segments(text) {
		s := seg.Text()
		n := textmetrics.Len(s)
		if float64(kept+n) > limit {
			break
		}
		sb.WriteString(s)
		kept += n
	}
	result := sb.String()

	if float64(kept) < float64(target)*minKeptFraction {
		words := strings.Fields(textmetrics.Truncate(text, int(math.Floor(limit))))
		if len(words) > 1 {
			result = strings.Join(words[:len(words)-1], " ")
		} else {
			result = textmetrics.Truncate(text, target)
		}
	}
	if result == "" {
		result = textmetrics.Truncate(text, target)
	}
	return result
}

// RemoveRepetitions drops long sentences whose opening words overlap an
// earlier sentence's opening or closing words. Surviving sentences are joined
// with single spaces; if nothing survives the input is returned.
func RemoveRepetitions(text string) string {
	var kept []string
	var seen []string

	for _, seg := range textmetrics.Segments(text) {
		sentence := strings.TrimSpace(seg.Text())
		if sentence == "" {
			continue
		}
		words := strings.Fields(strings.ToLower(sentence))
		if len(words) < minWordsForRepeatCheck {
			kept = append(kept, sentence)
			continue
		}

		prefix := strings.Join(words[:min(repeatPrefixWords, len(words))], " ")
		suffix := ""
		if len(words) > repeatSuffixWords {
			suffix = strings.Join(words[len(words)-repeatSuffixWords:], " ")
		}

		if textmetrics.Len(sentence) > repeatMinChars && overlapsSeen(prefix, seen) {
			continue
		}
		kept = append(kept, sentence)
		seen = append(seen, prefix)
		if suffix != "" {
			seen = append(seen, suffix)
		}
	}

	if len(kept) == 0 {
		return text
	}
	return strings.Join(kept, " ")
}

func overlapsSeen(key string, seen []string) bool {
	for _, s := range seen {
		if strings.Contains(s, key) || strings.Contains(key, s) {
			return true
		}
	}
	return false
}

// TrimEmoji keeps at most floor(density)+1 emoji, removing the later ones.
// A run of adjacent emoji counts as one.
func TrimEmoji(text string, density float64) string {
	limit := int(math.Floor(math.Max(density, 0))) + 1
	matches := textmetrics.EmojiIndexes(text)
	if len(matches) <= limit {
		return text
	}

	// Remove from the end so earlier offsets stay valid.
	for i := len(matches) - 1; i >= limit; i-- {
		start, end := matches[i][0], matches[i][1]
		// Take an adjacent space too so no double, leading or trailing
		// space is left behind.
		switch {
		case end < len(text) && text[end] == ' ' && (start == 0 || text[start-1] == ' ' || text[start-1] == '\n'):
			end++
		case end == len(text) && start > 0 && text[start-1] == ' ':
			start--
		}
		text = text[:start] + text[end:]
	}
	return text
}

// RestoreParagraphs splits a long single-block text into paragraphs of two
// sentences. It does nothing when the text already has paragraph breaks or
// when the regrouped text would exceed the length ceiling of target.
func RestoreParagraphs(text string, target int) string {
	if strings.Contains(text, paragraphBreak) || textmetrics.Len(text) <= paragraphMinChars {
		return text
	}

	var paragraphs, current []string
	for _, seg := range textmetrics.Segments(text) {
		sentence := strings.TrimSpace(seg.Text())
		if sentence == "" {
			continue
		}
		current = append(current, sentence)
		if len(current) == sentencesPerParagraph {
			paragraphs = append(paragraphs, strings.Join(current, " "))
			current = nil
		}
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, strings.Join(current, " "))
	}
	if len(paragraphs) == 0 {
		return text
	}

	regrouped := strings.Join(paragraphs, paragraphBreak)
	if target > 0 {
		limit := ceiling(target)
		if float64(textmetrics.Len(regrouped)) > limit && float64(textmetrics.Len(text)) <= limit {
			return text
		}
	}
	return regrouped
}
