package profiler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/ghostpen/internal/cache"
	"github.com/jonathan/ghostpen/internal/types"
)

var fixedNow = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

func corpusOf(id string, platforms map[string][]string) *types.AuthorCorpus {
	c := &types.AuthorCorpus{AuthorID: id, Platforms: map[string][]types.Post{}}
	for platform, contents := range platforms {
		for _, content := range contents {
			c.Platforms[platform] = append(c.Platforms[platform], types.Post{Content: content})
		}
	}
	return c
}

func sampleCorpus() *types.AuthorCorpus {
	return corpusOf("author_1", map[string][]string{
		"linkedin": {
			"Важно понимать архитектуру системы. Мой подход простой.\n\nКоманда решает всё. #карьера",
			"Цифровая трансформация меняет бизнес. Анализ метрик помогает принять решение.\n\nКоманда и проект.",
		},
		"telegram": {
			"Кстати, вообще короче всё супер 🎉",
		},
		"instagram": {},
	})
}

func TestBuild_EmptyCorpus(t *testing.T) {
	for _, version := range []types.AlgorithmVersion{types.AlgorithmV1, types.AlgorithmV2} {
		t.Run(string(version), func(t *testing.T) {
			p := New(Options{Version: version})
			_, err := p.Build(corpusOf("empty", map[string][]string{"linkedin": {}}))

			var inputErr *InvalidInputError
			require.True(t, errors.As(err, &inputErr))
			assert.Equal(t, "platforms", inputErr.Field)
		})
	}
}

func TestBuild_MissingAuthorID(t *testing.T) {
	p := New(Options{})
	_, err := p.Build(corpusOf("", map[string][]string{"linkedin": {"Текст."}}))

	var inputErr *InvalidInputError
	require.True(t, errors.As(err, &inputErr))
	assert.Contains(t, inputErr.Error(), "author_id")

	_, err = p.Analyze(context.Background(), nil)
	assert.True(t, errors.As(err, &inputErr))
}

func TestBuild_LengthStats(t *testing.T) {
	p := New(Options{})
	profile, err := p.Build(corpusOf("a", map[string][]string{"linkedin": {"аааа", "бб", "вввввв"}}))
	require.NoError(t, err)

	assert.Equal(t, 4, profile.Style.AvgPostLength)
	assert.Equal(t, 2, profile.Style.MinPostLength)
	assert.Equal(t, 6, profile.Style.MaxPostLength)
	assert.Equal(t, 3, profile.TotalPosts)
}

func TestBuild_ProfileShape(t *testing.T) {
	p := New(Options{Now: fixedNow})
	profile, err := p.Build(sampleCorpus())
	require.NoError(t, err)

	assert.Equal(t, "author_1", profile.AuthorID)
	assert.Equal(t, types.AlgorithmV1, profile.AlgorithmVersion)
	assert.Equal(t, fixedNow(), profile.GeneratedAt)
	assert.Equal(t, []string{"linkedin", "telegram"}, profile.Platforms)
	assert.Equal(t, 3, profile.TotalPosts)

	require.Len(t, profile.PlatformSpecific, 2)
	li, ok := profile.PlatformStyle("linkedin")
	require.True(t, ok)
	assert.Equal(t, 2, li.PostCount)
	tg, ok := profile.PlatformStyle("telegram")
	require.True(t, ok)
	assert.Equal(t, 1, tg.PostCount)
	assert.Equal(t, types.ToneCasual, tg.Tone.Dominant)
	_, ok = profile.PlatformStyle("instagram")
	assert.False(t, ok)

	assert.Equal(t, 1.67, profile.Style.AvgParagraphsPerPost)
	assert.False(t, profile.Style.UsesLists)
	assert.Equal(t, types.StructureParagraphs, profile.Style.StructureType)
	assert.GreaterOrEqual(t, profile.Style.Emotionality, 0.0)
	assert.LessOrEqual(t, profile.Style.Emotionality, 10.0)
}

func TestBuild_Deterministic(t *testing.T) {
	p := New(Options{Now: fixedNow})

	first, err := p.Build(sampleCorpus())
	require.NoError(t, err)
	second, err := p.Build(sampleCorpus())
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("profiles differ (-first +second):\n%s", diff)
	}
}

func TestDensities_V1UsesMeta(t *testing.T) {
	corpus := &types.AuthorCorpus{
		AuthorID: "a",
		Platforms: map[string][]types.Post{
			"instagram": {
				{Content: "Без эмодзи в тексте", Meta: &types.PostMeta{Emojis: []string{"🎉", "🔥"}, Hashtags: []string{"#a"}}},
				{Content: "Тоже пусто", Meta: &types.PostMeta{}},
				{Content: "Здесь 🎉 и #тег"},
			},
		},
	}
	profile, err := New(Options{}).Build(corpus)
	require.NoError(t, err)

	// (2 + 0 + 1) / 3 emoji, (1 + 0 + 1) / 3 hashtags
	assert.Equal(t, 1.0, profile.Style.EmojiDensity)
	assert.Equal(t, 0.67, profile.Style.HashtagDensity)
}

func TestDensities_V2PerThousandChars(t *testing.T) {
	corpus := corpusOf("a", map[string][]string{"telegram": {"ab 🎉 #go"}})
	profile, err := New(Options{Version: types.AlgorithmV2}).Build(corpus)
	require.NoError(t, err)

	// 8 characters, one emoji, one hashtag
	assert.Equal(t, 125.0, profile.Style.EmojiDensity)
	assert.Equal(t, 125.0, profile.Style.HashtagDensity)
	assert.Equal(t, types.AlgorithmV2, profile.AlgorithmVersion)
}

func TestDetectStructure(t *testing.T) {
	posts := func(contents ...string) []types.Post {
		out := make([]types.Post, len(contents))
		for i, c := range contents {
			out[i] = types.Post{Content: c}
		}
		return out
	}

	tests := []struct {
		name  string
		posts []types.Post
		want  string
	}{
		{"empty", nil, types.StructureNarrative},
		{"numbered", posts("1. раз\n2. два", "текст", "текст"), types.StructureNumberedLists},
		{"bullets", posts("- раз\n- два", "текст", "текст"), types.StructureBulletLists},
		{"numbered wins over bullets", posts("1. раз\n- два", "текст", "текст"), types.StructureNumberedLists},
		{"below threshold", posts("1. раз", "текст", "текст", "текст"), types.StructureNarrative},
		{"paragraphs", posts("а\n\nб", "в\n\nг", "д"), types.StructureParagraphs},
		{"paragraphs at half", posts("а\n\nб", "в"), types.StructureParagraphs},
		{"narrative", posts("а", "б", "в\n\nг"), types.StructureNarrative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectStructure(tt.posts))
		})
	}
}

func TestBuild_ListUsage(t *testing.T) {
	profile, err := New(Options{}).Build(corpusOf("a", map[string][]string{
		"linkedin": {"Шаги:\n1. Первый\n2. Второй", "Просто текст", "• пункт", "Ещё текст"},
	}))
	require.NoError(t, err)

	assert.True(t, profile.Style.UsesLists)
	assert.Equal(t, 0.5, profile.Style.ListFrequency)
}

func TestExtractPhrases(t *testing.T) {
	profile, err := New(Options{}).Build(corpusOf("a", map[string][]string{
		"linkedin": {
			"Цифровая трансформация меняет бизнес",
			"Цифровая трансформация меняет людей",
			"Цифровая трансформация это путь",
		},
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"цифровая трансформация", "трансформация меняет"}, profile.SignaturePhrases)
}

func TestExtractPhrases_Properties(t *testing.T) {
	contents := []string{
		"Очень важно слушать команду. Лидерство начинается с доверия.",
		"Очень важно слушать клиентов. Лидерство начинается с примера.",
		"Лидерство начинается с малого. Очень важно слушать себя.",
		"Продуктовое мышление помогает. Продуктовое мышление решает.",
	}
	for _, version := range []types.AlgorithmVersion{types.AlgorithmV1, types.AlgorithmV2} {
		t.Run(string(version), func(t *testing.T) {
			p := New(Options{Version: version})
			profile, err := p.Build(corpusOf("a", map[string][]string{"linkedin": contents}))
			require.NoError(t, err)

			assert.NotEmpty(t, profile.SignaturePhrases)
			assert.NotContains(t, profile.SignaturePhrases, "очень важно")
			for i, a := range profile.SignaturePhrases {
				assert.GreaterOrEqual(t, len(strings.Fields(a)), 2)
				for j, b := range profile.SignaturePhrases {
					if i != j {
						assert.False(t, strings.Contains(a, b), "%q contains %q", a, b)
					}
				}
			}
		})
	}
}

func TestExtractPhrases_V2MinCount(t *testing.T) {
	contents := make([]string, 20)
	for i := range contents {
		contents[i] = "уникальный текст номер " + strings.Repeat("х", i+1)
	}
	// "редкая связка" appears 3 times; v2 requires max(2, 20/5) = 4
	contents[0] += " редкая связка"
	contents[1] += " редкая связка"
	contents[2] += " редкая связка"

	v1, err := New(Options{}).Build(corpusOf("a", map[string][]string{"linkedin": contents}))
	require.NoError(t, err)
	v2, err := New(Options{Version: types.AlgorithmV2}).Build(corpusOf("a", map[string][]string{"linkedin": contents}))
	require.NoError(t, err)

	assert.Contains(t, v1.SignaturePhrases, "редкая связка")
	assert.NotContains(t, v2.SignaturePhrases, "редкая связка")
}

func TestSamplePosts(t *testing.T) {
	var contents []string
	for i := 8; i >= 1; i-- {
		contents = append(contents, strings.Repeat("я", i))
	}
	profile, err := New(Options{}).Build(corpusOf("a", map[string][]string{"linkedin": contents}))
	require.NoError(t, err)

	assert.Equal(t, []string{"яяя", "яяяя", "яяяяя"}, profile.SamplePosts)
}

func TestSamplePosts_Truncated(t *testing.T) {
	long := strings.Repeat("ж", 700)
	profile, err := New(Options{}).Build(corpusOf("a", map[string][]string{"linkedin": {long}}))
	require.NoError(t, err)

	require.Len(t, profile.SamplePosts, 1)
	assert.Equal(t, strings.Repeat("ж", 500)+"...", profile.SamplePosts[0])

	v2, err := New(Options{Version: types.AlgorithmV2}).Build(corpusOf("a", map[string][]string{"linkedin": {long}}))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("ж", 600)+"...", v2.SamplePosts[0])
}

func TestDetectTopics(t *testing.T) {
	p := New(Options{})
	profile, err := p.Build(corpusOf("a", map[string][]string{
		"linkedin": {"Карьера, команда и проект. Работа важна."},
	}))
	require.NoError(t, err)

	require.Len(t, profile.Topics, len(p.lex.Topics))
	assert.Equal(t, "career", profile.Topics[0].Topic)
	assert.Greater(t, profile.Topics[0].Score, 0.0)
	for i := 1; i < len(profile.Topics); i++ {
		assert.GreaterOrEqual(t, profile.Topics[i-1].Score, profile.Topics[i].Score)
	}
}

func TestAnalyze_UsesCache(t *testing.T) {
	ctx := context.Background()
	calls := 0
	p := New(Options{
		Cache: cache.NewMemoryCache(),
		Now: func() time.Time {
			calls++
			return fixedNow()
		},
	})

	first, err := p.Analyze(ctx, sampleCorpus())
	require.NoError(t, err)
	second, err := p.Analyze(ctx, sampleCorpus())
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)

	require.NoError(t, p.Invalidate(ctx, "author_1"))
	third, err := p.Analyze(ctx, sampleCorpus())
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, calls)

	require.NoError(t, p.ClearCache(ctx))
	_, err = p.Analyze(ctx, sampleCorpus())
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestAnalyze_WithoutCache(t *testing.T) {
	ctx := context.Background()
	p := New(Options{})

	first, err := p.Analyze(ctx, sampleCorpus())
	require.NoError(t, err)
	second, err := p.Analyze(ctx, sampleCorpus())
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.NoError(t, p.Invalidate(ctx, "author_1"))
	assert.NoError(t, p.ClearCache(ctx))
}

func TestAnalyze_ConcurrentSameAuthor(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache()
	p := New(Options{Cache: c})

	var wg sync.WaitGroup
	results := make([]*types.StyleProfile, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			profile, err := p.Analyze(ctx, sampleCorpus())
			if err == nil {
				results[i] = profile
			}
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, "author_1", r.AuthorID)
	}
	assert.Equal(t, 1, c.Len())
}

func TestAnalyze_EmptyCorpusNotCached(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache()
	p := New(Options{Cache: c})

	_, err := p.Analyze(ctx, corpusOf("empty", nil))
	assert.Error(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestAnalyze_InvalidatedDuringBuildNotCached(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache()

	var p *Profiler
	var builds atomic.Int32
	p = New(Options{
		Cache: c,
		Now: func() time.Time {
			if builds.Add(1) == 1 {
				require.NoError(t, p.Invalidate(ctx, "author_1"))
			}
			return fixedNow()
		},
	})

	profile, err := p.Analyze(ctx, sampleCorpus())
	require.NoError(t, err)
	assert.Equal(t, "author_1", profile.AuthorID)
	assert.Equal(t, 0, c.Len(), "a build overtaken by Invalidate must not repopulate the cache")

	_, err = p.Analyze(ctx, sampleCorpus())
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, int32(2), builds.Load())
}

func TestAnalyze_RebuildAfterInvalidateUsesNewCorpus(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache()

	started := make(chan struct{})
	release := make(chan struct{})
	var builds atomic.Int32
	p := New(Options{
		Cache: c,
		Now: func() time.Time {
			if builds.Add(1) == 1 {
				close(started)
				<-release
			}
			return fixedNow()
		},
	})

	staleDone := make(chan *types.StyleProfile)
	go func() {
		profile, _ := p.Analyze(ctx, sampleCorpus())
		staleDone <- profile
	}()
	<-started

	updated := sampleCorpus()
	updated.Platforms["instagram"] = []types.Post{{Content: "Новый пост про команду и проект."}}
	require.NoError(t, p.Invalidate(ctx, "author_1"))

	fresh, err := p.Analyze(ctx, updated)
	require.NoError(t, err)
	assert.Equal(t, 4, fresh.TotalPosts)

	close(release)
	stale := <-staleDone
	require.NotNil(t, stale)
	assert.Equal(t, 3, stale.TotalPosts)

	cached, ok, err := c.Get(ctx, "author_1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, fresh, cached)
}
