// Package textmetrics holds the text measurements shared by the profiler,
// the post-processor and the scorer, so all three agree on what an emoji,
// a hashtag, a word or a sentence is.
package textmetrics

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/ghostpen/internal/lexicon"
	"github.com/jonathan/ghostpen/internal/types"
)

// Emoji blocks: emoticons, misc symbols & pictographs, transport & map,
// regional indicator flags, misc symbols, dingbats, supplemental symbols &
// pictographs. A run of adjacent emoji (with optional variation selectors)
// is one match.
var emojiPattern = regexp.MustCompile(
	`(?:[\x{1F600}-\x{1F64F}\x{1F300}-\x{1F5FF}\x{1F680}-\x{1F6FF}\x{1F1E0}-\x{1F1FF}` +
		`\x{2600}-\x{26FF}\x{2702}-\x{27B0}\x{1F900}-\x{1F9FF}]\x{FE0F}?)+`)

var (
	hashtagPattern      = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
	mentionPattern      = regexp.MustCompile(`@[\p{L}\p{N}_]+`)
	wordPattern         = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	sentenceDelimiter   = regexp.MustCompile(`[.!?]+`)
	numberedListPattern = regexp.MustCompile(`(?m)^\d+\.`)
	bulletListPattern   = regexp.MustCompile(`(?m)^[-•*]`)
)

// EmojiIndexes returns the byte ranges of emoji matches in text.
func EmojiIndexes(text string) [][]int {
	return emojiPattern.FindAllStringIndex(text, -1)
}

// CountEmoji returns the number of emoji matches in text.
func CountEmoji(text string) int {
	return len(emojiPattern.FindAllStringIndex(text, -1))
}

// Emojis returns the emoji matches in text.
func Emojis(text string) []string {
	return emojiPattern.FindAllString(text, -1)
}

// Hashtags returns the hashtags in text, including the leading '#'.
func Hashtags(text string) []string {
	return hashtagPattern.FindAllString(text, -1)
}

// CountHashtags returns the number of hashtags in text.
func CountHashtags(text string) int {
	return len(hashtagPattern.FindAllStringIndex(text, -1))
}

// Mentions returns the @-mentions in text.
func Mentions(text string) []string {
	return mentionPattern.FindAllString(text, -1)
}

// WordCount counts whitespace-separated tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Tokens returns the lowercased word tokens of text (letters, digits, underscore).
func Tokens(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

// Len returns the length of s in characters (code points).
func Len(s string) int {
	return utf8.RuneCountInString(s)
}

// Truncate returns the first n characters of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Sentences splits text on runs of . ! ? and returns the trimmed non-empty pieces.
func Sentences(text string) []string {
	parts := sentenceDelimiter.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Segment is a sentence body and the delimiter run that ended it.
// The final segment of a text may have an empty delimiter.
type Segment struct {
	Body  string
	Delim string
}

// Text returns the body followed by its delimiter.
func (s Segment) Text() string {
	return s.Body + s.Delim
}

// Segments splits text into sentence+delimiter pairs. A trailing fragment
// without a delimiter becomes a final segment; empty trailing text is dropped.
func Segments(text string) []Segment {
	locs := sentenceDelimiter.FindAllStringIndex(text, -1)
	segments := make([]Segment, 0, len(locs)+1)
	start := 0
	for _, loc := range locs {
		segments = append(segments, Segment{Body: text[start:loc[0]], Delim: text[loc[0]:loc[1]]})
		start = loc[1]
	}
	if rest := text[start:]; strings.TrimSpace(rest) != "" {
		segments = append(segments, Segment{Body: rest})
	}
	return segments
}

// AvgSentenceLength is the mean word count of the sentences in text.
func AvgSentenceLength(text string) float64 {
	sentences := Sentences(text)
	if len(sentences) == 0 {
		return 0
	}
	total := 0
	for _, s := range sentences {
		total += WordCount(s)
	}
	return float64(total) / float64(len(sentences))
}

// HasNumberedList reports whether any line starts with "N.".
func HasNumberedList(text string) bool {
	return numberedListPattern.MatchString(text)
}

// HasBulletList reports whether any line starts with -, • or *.
func HasBulletList(text string) bool {
	return bulletListPattern.MatchString(text)
}

// HasList reports whether text contains a numbered or bulleted list.
func HasList(text string) bool {
	return HasNumberedList(text) || HasBulletList(text)
}

// Round2 rounds x to two decimal places.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// countPresent counts the words that occur as substrings of lowered.
func countPresent(lowered string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(lowered, w) {
			n++
		}
	}
	return n
}

// Tone scores text against the four tone lexicons. Each score is the number
// of lexicon entries present in the lowercased text per 1000 words.
func Tone(text string, lex *lexicon.Lexicon) types.ToneScores {
	lowered := strings.ToLower(text)
	words := max(WordCount(text), 1)

	score := func(list []string) float64 {
		return Round2(float64(countPresent(lowered, list)) / float64(words) * 1000)
	}

	t := types.ToneScores{
		Formal:    score(lex.Tone.Formal),
		Emotional: score(lex.Tone.Emotional),
		Expert:    score(lex.Tone.Expert),
		Casual:    score(lex.Tone.Casual),
	}
	t.Dominant = DominantTone(t)
	return t
}

// DominantTone returns the tone with the highest score; ties go to the
// earlier of formal, emotional, expert, casual.
func DominantTone(t types.ToneScores) string {
	best, bestScore := types.ToneFormal, t.Formal
	for _, c := range []struct {
		name  string
		score float64
	}{
		{types.ToneEmotional, t.Emotional},
		{types.ToneExpert, t.Expert},
		{types.ToneCasual, t.Casual},
	} {
		if c.score > bestScore {
			best, bestScore = c.name, c.score
		}
	}
	return best
}

// Emotionality scores expressiveness on a 0-10 scale from emotional
// vocabulary, emoji and exclamation/question marks per 100 words.
func Emotionality(text string, lex *lexicon.Lexicon) float64 {
	words := WordCount(text)
	if words == 0 {
		return 0
	}
	emotional := countPresent(strings.ToLower(text), lex.Tone.Emotional)
	signals := emotional*2 + CountEmoji(text)*3 + strings.Count(text, "!") + strings.Count(text, "?")
	return min(Round2(float64(signals)/float64(words)*100), 10)
}
