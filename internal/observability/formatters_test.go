package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/ghostpen/internal/ingestion"
	"github.com/jonathan/ghostpen/internal/scoring"
	"github.com/jonathan/ghostpen/internal/types"
)

func TestPrintProfile(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	profile := &types.StyleProfile{
		AuthorID:         "author_001",
		Name:             "Анна",
		AlgorithmVersion: types.AlgorithmV1,
		TotalPosts:       12,
		Platforms:        []string{"linkedin", "telegram"},
		Style: types.Style{
			AvgPostLength: 420,
			MinPostLength: 80,
			MaxPostLength: 900,
			EmojiDensity:  1.5,
			StructureType: types.StructureParagraphs,
			Tone:          types.ToneScores{Dominant: types.ToneExpert},
		},
		Topics: types.TopicScores{
			{Topic: "tech", Score: 0.5}, {Topic: "business", Score: 0.2}, {Topic: "a", Score: 0.1},
			{Topic: "b", Score: 0.1}, {Topic: "c", Score: 0.05}, {Topic: "d", Score: 0.05},
		},
		SignaturePhrases: []string{"в общем"},
	}

	p.PrintProfile(profile)
	output := buf.String()

	assert.Contains(t, output, "PROFILE author_001")
	assert.Contains(t, output, "Name:       Анна")
	assert.Contains(t, output, "Posts:      12 (linkedin, telegram)")
	assert.Contains(t, output, "avg 420, min 80, max 900")
	assert.Contains(t, output, "Tone:       expert")
	assert.Contains(t, output, "• tech (0.50)")
	assert.Contains(t, output, "... and 1 more")
	assert.Contains(t, output, `• "в общем"`)
}

func TestPrintProfile_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintProfile(nil)
	assert.Empty(t, buf.String())
}

func TestPrintBox_AlignsUnicode(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.printBox("T", "Привет\n"+strings.Repeat("ж", 100))

	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		assert.Equal(t, boxWidth, len([]rune(line)), "line %q", line)
	}
	assert.Contains(t, buf.String(), "...")
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintStats(ingestion.Stats{
		TotalAuthors:  2,
		TotalPosts:    5,
		AvgPostLength: 321,
		Platforms:     map[string]int{"telegram": 3, "linkedin": 2, "instagram": 0},
		Authors: []ingestion.AuthorStats{
			{AuthorID: "author_001", TotalPosts: 5, Platforms: map[string]int{"telegram": 3, "linkedin": 2}},
		},
	})
	output := buf.String()

	assert.Contains(t, output, "Authors:     2")
	assert.Contains(t, output, "Avg length:  321 chars")
	assert.NotContains(t, output, "instagram")
	assert.Less(t, strings.Index(output, "linkedin: 2"), strings.Index(output, "telegram: 3"))
	assert.Contains(t, output, "author_001: 5 posts")
}

func TestPrintScore(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintScore(types.ScoreReport{LengthAccuracy: 1, ToneMatch: 0.5, OverallScore: 0.62}, scoring.Weights())
	output := buf.String()

	assert.Contains(t, output, "STYLE SCORE")
	assert.Contains(t, output, "length_accuracy")
	assert.Contains(t, output, strings.Repeat("█", barWidth)+" 1.00")
	assert.Contains(t, output, "overall")
	assert.Contains(t, output, "0.62")
}

func TestPrintGeneration(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintGeneration(&types.GenerationResult{
		AuthorID:      "author_001",
		Platform:      types.PlatformTelegram,
		Generator:     types.SourceFallback,
		GeneratedPost: "Пост про Go",
		Metrics:       types.GenerationMetrics{Length: 11, TargetLength: 300},
	}, scoring.Weights())
	output := buf.String()

	assert.Contains(t, output, "author_001 · telegram · fallback")
	assert.Contains(t, output, "Пост про Go")
	assert.Contains(t, output, "Length: 11 / 300 (off target)")
}
