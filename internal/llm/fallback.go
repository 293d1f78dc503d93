package llm

import (
	"context"
	"regexp"
	"strings"
)

// defaultTopic is used when no topic can be found in the prompt.
const defaultTopic = "важной теме"

// Topic patterns, tried in order.
var topicPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)ТЕМА ПОСТА:[ \t]*(.+?)[ \t]*$`),
	regexp.MustCompile(`(?i)на тему\s+"(.+?)"`),
	regexp.MustCompile(`(?im)на тему\s+(.+?)[ \t]*$`),
	regexp.MustCompile(`(?im)тема:[ \t]*(.+?)[ \t]*$`),
	regexp.MustCompile(`(?i)на тему\s+"?([^"]+)"?`),
}

var toneLinePattern = regexp.MustCompile(`(?im)Тон:[ \t]*(.+?)[ \t]*$`)

var listMarkers = []string{"списки", "numbered_lists", "uses_lists"}

// FallbackGenerator writes a post from fixed templates using only what it can
// read back out of the prompt. It is deterministic and never fails.
type FallbackGenerator struct{}

// NewFallbackGenerator creates a FallbackGenerator.
func NewFallbackGenerator() *FallbackGenerator {
	return &FallbackGenerator{}
}

// Generate implements TextGenerator. The error is always nil.
func (FallbackGenerator) Generate(_ context.Context, prompt string, _ int) (string, error) {
	return Compose(prompt), nil
}

// promptHints is what the fallback extracts from a prompt.
type promptHints struct {
	topic     string
	formal    bool
	emotional bool
	lists     bool
	platform  string
}

func extractTopic(prompt string) string {
	topic := ""
	for _, re := range topicPatterns {
		if m := re.FindStringSubmatch(prompt); m != nil {
			topic = strings.TrimSpace(m[1])
			if topic != "" {
				break
			}
		}
	}
	topic = strings.Trim(topic, `"'`)
	if topic == "" {
		return defaultTopic
	}
	return topic
}

func readHints(prompt string) promptHints {
	lowered := strings.ToLower(prompt)
	h := promptHints{topic: extractTopic(prompt), platform: "linkedin"}

	if m := toneLinePattern.FindStringSubmatch(prompt); m != nil {
		tone := strings.ToLower(m[1])
		h.formal = strings.Contains(tone, "формальный") || strings.Contains(tone, "профессиональный")
		h.emotional = strings.Contains(tone, "эмоциональный")
	}

	for _, marker := range listMarkers {
		if strings.Contains(lowered, marker) {
			h.lists = true
			break
		}
	}

	for _, p := range []string{"instagram", "telegram", "facebook"} {
		if strings.Contains(lowered, p) {
			h.platform = p
			break
		}
	}
	return h
}

// Compose renders the fallback post for prompt.
func Compose(prompt string) string {
	h := readHints(prompt)
	topic := h.topic
	lower := strings.ToLower(topic)

	switch {
	case h.platform == "instagram" && h.emotional:
		return "Сегодня хочу поделиться мыслями о " + lower + " ✨\n\n" +
			"Это действительно важная тема, которая меня вдохновляет! 🌿\n\n" +
			"Когда я начинаю разбираться в деталях, открываются новые возможности. Это не про быстрые решения, а про глубокое понимание.\n\n" +
			"Что вы думаете об этом? 💭"

	case h.platform == "telegram":
		return "⚡️ Быстрые мысли о " + lower + "\n\n" +
			"Честно говоря, я думаю, что многие люди подходят к этому неправильно. " + topic + " — это не просто концепция, а реальный инструмент.\n\n" +
			"Когда мы начинаем применять это на практике, открываются интересные возможности. Важно не останавливаться на теории.\n\n" +
			"Что вы об этом думаете?"

	case h.lists:
		return "Сегодня хочу поделиться мыслями о " + lower + ".\n\n" +
			"За последние годы я понял, что это действительно важная тема, которая требует внимания и системного подхода.\n\n" +
			"Ключевые моменты:\n\n" +
			"1. Первый важный аспект связан с пониманием основ и принципов\n" +
			"2. Второй момент — это практическое применение в реальных условиях\n" +
			"3. Третий элемент — постоянное развитие и улучшение подхода\n\n" +
			topic + " — это не просто концепция, а реальный инструмент для достижения целей. Важно применять это системно."

	default:
		intro := "Хочу поделиться мыслями"
		if h.formal {
			intro = "Сегодня хочу поделиться мыслями"
		}
		return intro + " о " + lower + ".\n\n" +
			"За последние годы я понял, что это действительно важная тема. Когда мы начинаем разбираться в деталях, открываются новые возможности и перспективы.\n\n" +
			"Важно понимать, что " + lower + " требует системного подхода. Это не про быстрые решения, а про глубокое понимание процессов и механизмов.\n\n" +
			"Что вы думаете об этом?"
	}
}
