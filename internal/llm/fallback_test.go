package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTopic(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   string
	}{
		{"label", "что-то\n\nТЕМА ПОСТА: Планирование спринта\n\nещё", "Планирование спринта"},
		{"label wins over instruction", `пост на тему "Другое"` + "\nТЕМА ПОСТА: Главное", "Главное"},
		{"quoted instruction", `Напиши пост на тему "Удалённая работа" для сети`, "Удалённая работа"},
		{"bare instruction", "Напиши на тему лидерство в команде\nи всё", "лидерство в команде"},
		{"topic colon", "тема: Найм джунов", "Найм джунов"},
		{"quotes stripped", "ТЕМА ПОСТА: 'Код-ревью'", "Код-ревью"},
		{"case insensitive", "тема поста: выгорание", "выгорание"},
		{"none", "Просто текст без подсказок", defaultTopic},
		{"empty", "", defaultTopic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractTopic(tt.prompt))
		})
	}
}

func TestReadHints(t *testing.T) {
	h := readHints("Тон: формальный, профессиональный\nТон: эмоциональный\nINSTAGRAM и TELEGRAM")
	assert.True(t, h.formal)
	assert.False(t, h.emotional, "only the first tone line counts")
	assert.Equal(t, "instagram", h.platform)
	assert.False(t, h.lists)

	h = readHints("для платформы FACEBOOK, можно списки")
	assert.Equal(t, "facebook", h.platform)
	assert.True(t, h.lists)

	h = readHints("ничего")
	assert.Equal(t, "linkedin", h.platform)
}

func TestCompose_Templates(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		prefix string
	}{
		{
			name:   "instagram emotional",
			prompt: "для платформы INSTAGRAM\nТон: эмоциональный, живой\nТЕМА ПОСТА: Утро",
			prefix: "Сегодня хочу поделиться мыслями о утро ✨",
		},
		{
			name:   "telegram",
			prompt: "для платформы TELEGRAM\nТон: разговорный\nТЕМА ПОСТА: Кофе",
			prefix: "⚡️ Быстрые мысли о кофе",
		},
		{
			name:   "lists",
			prompt: "для платформы LINKEDIN, можно использовать списки\nТЕМА ПОСТА: Найм",
			prefix: "Сегодня хочу поделиться мыслями о найм.\n\nЗа последние годы",
		},
		{
			name:   "formal default",
			prompt: "для платформы LINKEDIN\nТон: формальный\nТЕМА ПОСТА: Стратегия",
			prefix: "Сегодня хочу поделиться мыслями о стратегия.",
		},
		{
			name:   "casual default",
			prompt: "для платформы LINKEDIN\nТон: разговорный\nТЕМА ПОСТА: Отдых",
			prefix: "Хочу поделиться мыслями о отдых.",
		},
		{
			name:   "instagram not emotional",
			prompt: "для платформы INSTAGRAM\nТон: формальный\nТЕМА ПОСТА: Отчёт",
			prefix: "Сегодня хочу поделиться мыслями о отчёт.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post := Compose(tt.prompt)
			assert.True(t, strings.HasPrefix(post, tt.prefix), "got %q", post)
		})
	}
}

func TestCompose_ListTemplateKeepsTopicCase(t *testing.T) {
	post := Compose("списки\nТЕМА ПОСТА: Найм")
	assert.Contains(t, post, "1. Первый важный аспект")
	assert.Contains(t, post, "\n\nНайм — это не просто концепция")
}

func TestFallbackGenerator_DeterministicNonEmpty(t *testing.T) {
	g := NewFallbackGenerator()
	for _, prompt := range []string{"", "ТЕМА ПОСТА: x", strings.Repeat("я", 10000)} {
		first, err := g.Generate(context.Background(), prompt, 10)
		require.NoError(t, err)
		second, _ := g.Generate(context.Background(), prompt, 10)
		assert.NotEmpty(t, first)
		assert.Equal(t, first, second)
	}
}

func TestFallbackGenerator_DefaultTopic(t *testing.T) {
	post := Compose("")
	assert.Contains(t, post, defaultTopic)
}
