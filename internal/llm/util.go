package llm

import (
	"regexp"
	"strings"
)

// fenceLang matches a language tag on the opening fence line.
var fenceLang = regexp.MustCompile(`^[\w+-]{0,19}\n`)

// leadIn matches a one-line preface such as "Вот пост:" or "Here's the post:".
var leadIn = regexp.MustCompile(`(?i)^(вот|here is|here's)\s[^\n]{0,60}:[ \t]*\n+`)

var quotePairs = [][2]string{{`"`, `"`}, {"«", "»"}, {"“", "”"}}

// CleanResponse strips the wrappers models put around a post even when asked
// not to: a lead-in line, markdown code fences and one pair of enclosing quotes.
func CleanResponse(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimSpace(leadIn.ReplaceAllString(text, ""))
	text = stripFence(text)
	return unquote(text)
}

func stripFence(text string) string {
	body, ok := strings.CutPrefix(text, "```")
	if !ok {
		return text
	}
	if loc := fenceLang.FindStringIndex(body); loc != nil {
		body = body[loc[1]:]
	}
	if i := strings.LastIndex(body, "```"); i >= 0 {
		body = body[:i]
	}
	return strings.TrimSpace(body)
}

func unquote(text string) string {
	for _, q := range quotePairs {
		opening, closing := q[0], q[1]
		if len(text) <= len(opening)+len(closing) || !strings.HasPrefix(text, opening) || !strings.HasSuffix(text, closing) {
			continue
		}
		inner := text[len(opening) : len(text)-len(closing)]
		if strings.Contains(inner, opening) || strings.Contains(inner, closing) {
			return text
		}
		return strings.TrimSpace(inner)
	}
	return text
}
