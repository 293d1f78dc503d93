// Package observability provides the logger factory and the human-readable
// output of the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jonathan/ghostpen/internal/ingestion"
	"github.com/jonathan/ghostpen/internal/textmetrics"
	"github.com/jonathan/ghostpen/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// barWidth is the width of a score bar at 1.0
	barWidth = 20
)

// Printer writes styled summaries. Colors are only emitted when out is a
// terminal that supports them.
type Printer struct {
	out   io.Writer
	title lipgloss.Style
	good  lipgloss.Style
	warn  lipgloss.Style
	bad   lipgloss.Style
	muted lipgloss.Style
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	r := lipgloss.NewRenderer(out)
	return &Printer{
		out:   out,
		title: r.NewStyle().Bold(true),
		good:  r.NewStyle().Foreground(lipgloss.Color("#8BC34A")),
		warn:  r.NewStyle().Foreground(lipgloss.Color("#FFC107")),
		bad:   r.NewStyle().Foreground(lipgloss.Color("#e53935")),
		muted: r.NewStyle().Faint(true),
	}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", p.title.Render(pad(title, boxWidth-4)))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		if textmetrics.Len(line) > boxWidth-4 {
			line = textmetrics.Truncate(line, boxWidth-7) + "..."
		}
		fmt.Fprintf(p.out, "│ %s │\n", pad(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// pad right-pads s with spaces to width characters.
func pad(s string, width int) string {
	if n := textmetrics.Len(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// PrintProfile outputs a human-readable summary of a style profile.
func (p *Printer) PrintProfile(profile *types.StyleProfile) {
	if profile == nil {
		return
	}
	st := profile.Style

	var sb strings.Builder
	if profile.Name != "" {
		sb.WriteString(fmt.Sprintf("Name:       %s\n", profile.Name))
	}
	sb.WriteString(fmt.Sprintf("Posts:      %d (%s)\n", profile.TotalPosts, strings.Join(profile.Platforms, ", ")))
	sb.WriteString(fmt.Sprintf("Algorithm:  %s\n", profile.AlgorithmVersion))
	sb.WriteString(fmt.Sprintf("Length:     avg %d, min %d, max %d\n", st.AvgPostLength, st.MinPostLength, st.MaxPostLength))
	sb.WriteString(fmt.Sprintf("Sentence:   %.2f words\n", st.AvgSentenceLength))
	sb.WriteString(fmt.Sprintf("Emoji:      %.2f  Hashtags: %.2f\n", st.EmojiDensity, st.HashtagDensity))
	sb.WriteString(fmt.Sprintf("Structure:  %s\n", st.StructureType))
	sb.WriteString(fmt.Sprintf("Tone:       %s (emotionality %.2f)\n", st.Tone.Dominant, st.Emotionality))

	if len(profile.Topics) > 0 {
		sb.WriteString("\nTopics:\n")
		for i, t := range profile.Topics {
			if i >= maxItemsToShow {
				sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(profile.Topics)-maxItemsToShow))
				break
			}
			sb.WriteString(fmt.Sprintf("  • %s (%.2f)\n", t.Topic, t.Score))
		}
	}
	if len(profile.SignaturePhrases) > 0 {
		sb.WriteString("\nPhrases:\n")
		for i, phrase := range profile.SignaturePhrases {
			if i >= maxItemsToShow {
				sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(profile.SignaturePhrases)-maxItemsToShow))
				break
			}
			sb.WriteString(fmt.Sprintf("  • %q\n", phrase))
		}
	}

	p.printBox(fmt.Sprintf("PROFILE %s", profile.AuthorID), sb.String())
}

// PrintStats outputs dataset statistics.
func (p *Printer) PrintStats(stats ingestion.Stats) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Authors:     %d\n", stats.TotalAuthors))
	sb.WriteString(fmt.Sprintf("Posts:       %d\n", stats.TotalPosts))
	sb.WriteString(fmt.Sprintf("Avg length:  %d chars\n", stats.AvgPostLength))

	sb.WriteString("\nBy platform:\n")
	for _, platform := range platformKeys(stats.Platforms) {
		if n := stats.Platforms[platform]; n > 0 {
			sb.WriteString(fmt.Sprintf("  %s: %d\n", platform, n))
		}
	}

	sb.WriteString("\nBy author:\n")
	for _, a := range stats.Authors {
		sb.WriteString(fmt.Sprintf("  %s: %d posts\n", a.AuthorID, a.TotalPosts))
		for _, platform := range platformKeys(a.Platforms) {
			if n := a.Platforms[platform]; n > 0 {
				sb.WriteString(fmt.Sprintf("    - %s: %d\n", platform, n))
			}
		}
	}

	p.printBox("DATASET", sb.String())
}

// PrintScore outputs each metric as a bar followed by the overall score.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintScore(report types.ScoreReport, weights map[string]float64) {
	rows := []struct {
		key   string
		value float64
	}{
		{"length_accuracy", report.LengthAccuracy},
		{"sentence_length_match", report.SentenceLengthMatch},
		{"emoji_density_match", report.EmojiDensityMatch},
		{"hashtag_density_match", report.HashtagDensityMatch},
		{"structure_match", report.StructureMatch},
		{"tone_match", report.ToneMatch},
		{"emotionality_match", report.EmotionalityMatch},
	}

	fmt.Fprintln(p.out, p.title.Render("STYLE SCORE"))
	for _, row := range rows {
		fmt.Fprintf(p.out, "  %-22s %s %.2f %s\n",
			row.key, p.bar(row.value), row.value,
			p.muted.Render(fmt.Sprintf("(w=%.2f)", weights[row.key])))
	}
	fmt.Fprintf(p.out, "  %-22s %s %s\n", "overall", p.bar(report.OverallScore),
		p.styleFor(report.OverallScore).Render(fmt.Sprintf("%.2f", report.OverallScore)))
}

// PrintGeneration outputs a generated post with its length metrics and score.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintGeneration(result *types.GenerationResult, weights map[string]float64) {
	if result == nil {
		return
	}
	fmt.Fprintln(p.out, p.title.Render(fmt.Sprintf("%s · %s · %s", result.AuthorID, result.Platform, result.Generator)))
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, result.GeneratedPost)
	fmt.Fprintln(p.out)

	match := p.good.Render("within target")
	if !result.Metrics.LengthMatch {
		match = p.warn.Render("off target")
	}
	fmt.Fprintf(p.out, "Length: %d / %d (%s)\n\n", result.Metrics.Length, result.Metrics.TargetLength, match)
	p.PrintScore(result.Score, weights)
}

func (p *Printer) bar(v float64) string {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	filled := int(v*barWidth + 0.5)
	return p.styleFor(v).Render(strings.Repeat("█", filled)) + p.muted.Render(strings.Repeat("░", barWidth-filled))
}

func (p *Printer) styleFor(v float64) lipgloss.Style {
	switch {
	case v >= 0.7:
		return p.good
	case v >= 0.4:
		return p.warn
	default:
		return p.bad
	}
}

func platformKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return types.OrderPlatforms(keys)
}
