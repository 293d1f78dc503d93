package ingestion

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	spaceRun       = regexp.MustCompile(`[\s\x{00A0}]+`)
	blankLineRun   = regexp.MustCompile(`\n\n\n+`)
	htmlTagPattern = regexp.MustCompile(`(?i)<(?:p|br|div|span|a|li|ul|ol|b|i|strong|em|h[1-6])\b[^>]*>`)
)

// CleanText normalizes line endings and whitespace while keeping the line
// structure of a post: list markers and indentation survive, runs of more
// than one blank line collapse to one.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	result := strings.Join(lines, "\n")
	result = blankLineRun.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t\u00a0")
	trimmed := strings.TrimLeft(line, " \t\u00a0")
	if trimmed == "" {
		return ""
	}

	if isBulletLine(trimmed) {
		return trimmed
	}

	indent := len(line) - len(trimmed)
	content := spaceRun.ReplaceAllString(trimmed, " ")
	if indent > 0 {
		return strings.Repeat(" ", indent) + content
	}
	return content
}

// isBulletLine checks if a line is a bullet list item
func isBulletLine(line string) bool {
	return strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") ||
		strings.HasPrefix(line, "• ") || strings.HasPrefix(line, "· ")
}

// LooksLikeHTML reports whether content contains common inline or block
// HTML tags, as in posts exported from web clients.
func LooksLikeHTML(content string) bool {
	return htmlTagPattern.MatchString(content)
}

// HTMLToText extracts the text of an HTML fragment. Line breaks and block
// elements become newlines and list items become "- " bullets.
func HTMLToText(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("li").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("- ")
		s.AppendHtml("\n")
	})
	doc.Find("p, div, h1, h2, h3, h4, h5, h6, ul, ol").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return doc.Find("body").Text(), nil
}

// NormalizeContent returns the cleaned text of a post. HTML content is
// converted to text first; content that fails to parse is cleaned as is.
func NormalizeContent(content string) string {
	if LooksLikeHTML(content) {
		if text, err := HTMLToText(content); err == nil {
			content = text
		}
	}
	return CleanText(content)
}
