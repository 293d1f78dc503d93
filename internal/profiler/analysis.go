package profiler

import (
	"sort"
	"strings"

	"github.com/jonathan/ghostpen/internal/textmetrics"
	"github.com/jonathan/ghostpen/internal/types"
)

// Fractions of posts at which a structure becomes the author's default.
const (
	listStructureThreshold      = 0.3
	paragraphStructureThreshold = 0.5
)

func joinContent(posts []types.Post) string {
	parts := make([]string, len(posts))
	for i, p := range posts {
		parts[i] = p.Content
	}
	return strings.Join(parts, " ")
}

func lengthStats(posts []types.Post) (avg, lo, hi int) {
	if len(posts) == 0 {
		return 0, 0, 0
	}
	total := 0
	lo = textmetrics.Len(posts[0].Content)
	for _, p := range posts {
		n := textmetrics.Len(p.Content)
		total += n
		lo = min(lo, n)
		hi = max(hi, n)
	}
	return total / len(posts), lo, hi
}

// entityCounts returns the emoji and hashtag counts of a post. v1 trusts the
// exported meta and falls back to scanning content when meta is absent.
func (p *Profiler) entityCounts(post types.Post) (emojis, hashtags int) {
	if !p.params.perThousand && post.Meta != nil {
		return len(post.Meta.Emojis), len(post.Meta.Hashtags)
	}
	return textmetrics.CountEmoji(post.Content), textmetrics.CountHashtags(post.Content)
}

// densities returns emoji and hashtag density: mean count per post for v1,
// matches per 1000 characters for v2.
func (p *Profiler) densities(posts []types.Post) (emoji, hashtag float64) {
	if len(posts) == 0 {
		return 0, 0
	}
	var emojis, hashtags, chars int
	for _, post := range posts {
		e, h := p.entityCounts(post)
		emojis += e
		hashtags += h
		chars += textmetrics.Len(post.Content)
	}
	if p.params.perThousand {
		denom := float64(max(chars, 1))
		return textmetrics.Round2(float64(emojis) / denom * 1000),
			textmetrics.Round2(float64(hashtags) / denom * 1000)
	}
	n := float64(len(posts))
	return textmetrics.Round2(float64(emojis) / n), textmetrics.Round2(float64(hashtags) / n)
}

func (p *Profiler) analyzeStyle(posts []types.Post) types.Style {
	text := joinContent(posts)
	avg, lo, hi := lengthStats(posts)

	paragraphs := 0
	listPosts := 0
	for _, post := range posts {
		paragraphs += strings.Count(post.Content, "\n\n") + 1
		if textmetrics.HasList(post.Content) {
			listPosts++
		}
	}
	n := float64(len(posts))
	emoji, hashtag := p.densities(posts)

	return types.Style{
		AvgPostLength:        avg,
		MinPostLength:        lo,
		MaxPostLength:        hi,
		AvgSentenceLength:    textmetrics.Round2(textmetrics.AvgSentenceLength(text)),
		AvgParagraphsPerPost: textmetrics.Round2(float64(paragraphs) / n),
		UsesLists:            listPosts > 0,
		ListFrequency:        textmetrics.Round2(float64(listPosts) / n),
		EmojiDensity:         emoji,
		HashtagDensity:       hashtag,
		Tone:                 textmetrics.Tone(text, p.lex),
		Emotionality:         textmetrics.Emotionality(text, p.lex),
		StructureType:        DetectStructure(posts),
	}
}

func (p *Profiler) analyzePlatform(posts []types.Post) types.PlatformStyle {
	text := joinContent(posts)
	avg, _, _ := lengthStats(posts)
	emoji, hashtag := p.densities(posts)
	return types.PlatformStyle{
		PostCount:         len(posts),
		AvgLength:         avg,
		AvgSentenceLength: textmetrics.Round2(textmetrics.AvgSentenceLength(text)),
		EmojiDensity:      emoji,
		HashtagDensity:    hashtag,
		Tone:              textmetrics.Tone(text, p.lex),
	}
}

// DetectStructure classifies how an author lays out posts from the fraction
// of posts with numbered lists, bullet lists and paragraph breaks.
func DetectStructure(posts []types.Post) string {
	if len(posts) == 0 {
		return types.StructureNarrative
	}
	var numbered, bullets, paragraphs int
	for _, post := range posts {
		if textmetrics.HasNumberedList(post.Content) {
			numbered++
		}
		if textmetrics.HasBulletList(post.Content) {
			bullets++
		}
		if strings.Contains(post.Content, "\n\n") {
			paragraphs++
		}
	}
	n := float64(len(posts))
	switch {
	case float64(numbered)/n >= listStructureThreshold:
		return types.StructureNumberedLists
	case float64(bullets)/n >= listStructureThreshold:
		return types.StructureBulletLists
	case float64(paragraphs)/n >= paragraphStructureThreshold:
		return types.StructureParagraphs
	default:
		return types.StructureNarrative
	}
}

func (p *Profiler) detectTopics(posts []types.Post) types.TopicScores {
	lowered := strings.ToLower(joinContent(posts))
	denom := float64(max(len(posts), 1))

	scores := make(types.TopicScores, 0, len(p.lex.Topics))
	for _, topic := range p.lex.Topics {
		matches := 0
		for _, kw := range topic.Keywords {
			if strings.Contains(lowered, kw) {
				matches++
			}
		}
		score := float64(matches) / float64(len(topic.Keywords)) / denom * 100
		scores = append(scores, types.TopicScore{Topic: topic.Name, Score: textmetrics.Round2(score)})
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	return scores
}

type phraseCount struct {
	phrase string
	count  int
}

// countNgrams counts n-grams for each size in sizes. The result is in
// first-insertion order: all n-grams of the first size, then the next.
func countNgrams(tokens []string, sizes []int) []phraseCount {
	index := make(map[string]int)
	var out []phraseCount
	for _, n := range sizes {
		for i := 0; i+n <= len(tokens); i++ {
			phrase := strings.Join(tokens[i:i+n], " ")
			if at, ok := index[phrase]; ok {
				out[at].count++
				continue
			}
			index[phrase] = len(out)
			out = append(out, phraseCount{phrase: phrase, count: 1})
		}
	}
	return out
}

func (p *Profiler) extractPhrases(posts []types.Post) []string {
	var tokens []string
	for _, post := range posts {
		tokens = append(tokens, textmetrics.Tokens(post.Content)...)
	}

	candidates := countNgrams(tokens, p.params.ngramSizes)
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].count > candidates[j].count })
	if window := p.params.maxPhrases * p.params.candidateFactor; len(candidates) > window {
		candidates = candidates[:window]
	}

	minCount := 2
	if p.params.perThousand {
		minCount = max(2, len(posts)/5)
	}

	phrases := make([]string, 0, p.params.maxPhrases)
	for _, c := range candidates {
		if len(phrases) == p.params.maxPhrases {
			break
		}
		switch {
		case c.count < minCount,
			textmetrics.Len(c.phrase) < p.params.minPhraseLen,
			len(strings.Fields(c.phrase)) < 2,
			p.lex.IsStopPhrase(c.phrase),
			overlapsAny(c.phrase, phrases):
			continue
		}
		phrases = append(phrases, c.phrase)
	}
	return phrases
}

// overlapsAny reports whether phrase contains, or is contained in, any accepted phrase.
func overlapsAny(phrase string, accepted []string) bool {
	for _, a := range accepted {
		if strings.Contains(a, phrase) || strings.Contains(phrase, a) {
			return true
		}
	}
	return false
}

func (p *Profiler) samplePosts(posts []types.Post) []string {
	sorted := make([]string, len(posts))
	for i, post := range posts {
		sorted[i] = post.Content
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return textmetrics.Len(sorted[i]) < textmetrics.Len(sorted[j])
	})

	start := len(sorted) / 4
	end := min(start+p.params.maxSamples, len(sorted))
	samples := make([]string, 0, end-start)
	for _, content := range sorted[start:end] {
		if textmetrics.Len(content) > p.params.sampleChars {
			content = textmetrics.Truncate(content, p.params.sampleChars) + "..."
		}
		samples = append(samples, content)
	}
	return samples
}
