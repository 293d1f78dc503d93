package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jonathan/ghostpen/internal/cache"
	"github.com/jonathan/ghostpen/internal/config"
	"github.com/jonathan/ghostpen/internal/db"
	"github.com/jonathan/ghostpen/internal/pipeline"
	"github.com/jonathan/ghostpen/internal/profiler"
	"github.com/jonathan/ghostpen/internal/prompting"
	"github.com/jonathan/ghostpen/internal/prompts"
	"github.com/jonathan/ghostpen/internal/scoring"
	"github.com/jonathan/ghostpen/internal/server/ratelimit"
	"github.com/jonathan/ghostpen/internal/types"
)

const testSecret = "test-secret-key-for-jwt-signing-minimum-32-bytes"

// stubGenerator returns fixed text as if the remote model wrote it.
type stubGenerator struct{ text string }

func (g stubGenerator) GenerateWithSource(context.Context, string, int) (string, types.GeneratorSource) {
	return g.text, types.SourceRemote
}

type testEnv struct {
	srv     *Server
	store   db.Store
	prof    *profiler.Profiler
	handler http.Handler
}

type envOption func(*Deps)

func withLimiter(l *ratelimit.Limiter) envOption {
	return func(d *Deps) { d.Limiter = l }
}

func withOrigins(origins ...string) envOption {
	return func(d *Deps) { d.AllowedOrigins = origins }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	ctx := context.Background()

	store, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "ghostpen.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	prof := profiler.New(profiler.Options{Cache: cache.NewMemoryCache()})
	deps := Deps{
		Store: store,
		Pipeline: pipeline.New(pipeline.Options{
			Builder:   prompting.NewBuilder(prompts.DefaultRules(), store),
			Generator: stubGenerator{text: "Друзья, сегодня говорим о запуске продукта. Это важный шаг для команды! 🚀 #стартап"},
			Scorer:    scoring.New(nil),
		}),
		Profiler:  prof,
		JWT:       NewJWTService(&config.JWTConfig{Secret: testSecret, Issuer: config.DefaultIssuer, Access: 24 * time.Hour, Refresh: 7 * 24 * time.Hour}),
		Passwords: &config.PasswordConfig{BcryptCost: bcrypt.MinCost},
	}
	for _, opt := range opts {
		opt(&deps)
	}

	srv, err := New(deps)
	require.NoError(t, err)
	return &testEnv{srv: srv, store: store, prof: prof, handler: srv.Handler()}
}

func testCorpus(authorID string) *types.AuthorCorpus {
	return &types.AuthorCorpus{
		AuthorID:   authorID,
		Name:       "Анна Петрова",
		Profession: "Маркетолог",
		Platforms: map[string][]types.Post{
			"telegram": {
				{PostID: "1", Content: "Друзья, сегодня запускаем новый проект! 🚀🚀 Это было непросто, но команда справилась. #стартап"},
				{PostID: "2", Content: "Делюсь мыслями о маркетинге. Клиент всегда прав? Не всегда. 😊 Важно слушать и анализировать данные. #маркетинг"},
			},
			"linkedin": {
				{PostID: "3", Content: "Итоги квартала: рост выручки на 20%. Благодарю команду за профессионализм и эффективность."},
			},
		},
	}
}

// seedProfile stores the profile of a test corpus and returns it.
func (e *testEnv) seedProfile(t *testing.T, authorID string) *types.StyleProfile {
	t.Helper()
	profile, err := e.prof.Build(testCorpus(authorID))
	require.NoError(t, err)
	require.NoError(t, e.store.SaveProfile(context.Background(), profile))
	return profile
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Deps{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store is required")
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[map[string]string](t, w)
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, "v1", resp["algorithm_version"])
}

func TestAuthors(t *testing.T) {
	env := newTestEnv(t)
	env.seedProfile(t, "author_001")
	env.seedProfile(t, "user_3f1c0e4e-0000-0000-0000-000000000000")

	w := env.do(t, http.MethodGet, "/api/authors", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[struct {
		Authors []AuthorSummary `json:"authors"`
	}](t, w)
	require.Len(t, resp.Authors, 1)

	a := resp.Authors[0]
	assert.Equal(t, "author_001", a.ID)
	assert.Equal(t, "Анна Петрова", a.Name)
	assert.Equal(t, "Маркетолог", a.Profession)
	assert.Equal(t, 3, a.TotalPosts)
	assert.Equal(t, []string{"linkedin", "telegram"}, a.Platforms)
	assert.NotEmpty(t, a.SamplePosts)
	assert.Positive(t, a.Stats.AvgLength)
	assert.Contains(t, []string{"High", "Low"}, a.Stats.EmojiDensity)
}

func TestAuthors_Empty(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/authors", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"authors":[]}`, w.Body.String())
}

func TestSummarize_Fallbacks(t *testing.T) {
	s := summarize(&types.StyleProfile{
		AuthorID: "author_007",
		Style:    types.Style{EmojiDensity: 2.5},
	})
	assert.Equal(t, "Author 007", s.Name)
	assert.Equal(t, "Content Creator", s.Profession)
	assert.Equal(t, types.ToneBalanced, s.Stats.Formality)
	assert.Equal(t, "High", s.Stats.EmojiDensity)
	assert.NotNil(t, s.Platforms)
	assert.NotNil(t, s.SamplePosts)
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"person_01", "Person 01"},
		{"автор_01", "Автор 01"},
		{"ёлка__зелёная", "Ёлка Зелёная"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got := displayName(tt.id)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestGenerate(t *testing.T) {
	env := newTestEnv(t)
	env.seedProfile(t, "author_001")

	w := env.do(t, http.MethodPost, "/api/generate", GenerateRequest{
		AuthorID:      "author_001",
		SocialNetwork: "Telegram",
		Topic:         "запуск продукта",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[GenerateResponse](t, w)
	assert.NotEmpty(t, resp.GeneratedPost)
	assert.Equal(t, resp.Scores.OverallScore, resp.StyleSimilarity)
	assert.GreaterOrEqual(t, resp.StyleSimilarity, 0.0)
	assert.LessOrEqual(t, resp.StyleSimilarity, 1.0)
	assert.Equal(t, DefaultModelVersion, resp.Debug.ModelVersion)
	assert.Equal(t, types.SourceRemote, resp.Debug.Generator)
	assert.Positive(t, resp.Debug.TargetLength)
	assert.Positive(t, resp.Debug.PromptTokens)
	assert.Equal(t, resp.Metrics.TargetLength, resp.Debug.TargetLength)
}

func TestGenerate_PlatformAlias(t *testing.T) {
	env := newTestEnv(t)
	env.seedProfile(t, "author_001")

	w := env.do(t, http.MethodPost, "/api/generate",
		`{"author_id":"author_001","platform":"linkedin","topic":"итоги года"}`, "")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestGenerate_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.seedProfile(t, "author_001")

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantError  string
	}{
		{
			name:       "unsupported network",
			body:       GenerateRequest{AuthorID: "author_001", SocialNetwork: "tiktok", Topic: "x"},
			wantStatus: http.StatusBadRequest,
			wantError:  "unsupported platform",
		},
		{
			name:       "unknown author",
			body:       GenerateRequest{AuthorID: "nobody", SocialNetwork: "telegram", Topic: "x"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "missing topic",
			body:       GenerateRequest{AuthorID: "author_001", SocialNetwork: "telegram", Topic: "   "},
			wantStatus: http.StatusBadRequest,
			wantError:  "Topic",
		},
		{
			name:       "malformed body",
			body:       `{"author_id":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/generate", tt.body, "")
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantError != "" {
				assert.Contains(t, decode[map[string]string](t, w)["error"], tt.wantError)
			}
		})
	}
}

func TestGenerateStream(t *testing.T) {
	env := newTestEnv(t)
	env.seedProfile(t, "author_001")

	w := env.do(t, http.MethodPost, "/api/generate/stream", GenerateRequest{
		AuthorID:      "author_001",
		SocialNetwork: "telegram",
		Topic:         "запуск продукта",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Equal(t, 4, strings.Count(body, "event: progress\n"))
	assert.Contains(t, body, `"step":"generate"`)
	require.Contains(t, body, "event: result\n")
	assert.Less(t, strings.LastIndex(body, "event: progress"), strings.Index(body, "event: result"))
	assert.Contains(t, body, `"generated_post"`)
	assert.Contains(t, body, "id: 1\nevent: progress\n")
	assert.Contains(t, body, "id: 5\nevent: result\n")
}

func TestGenerateStream_UnknownAuthor(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/generate/stream", GenerateRequest{
		AuthorID:      "nobody",
		SocialNetwork: "telegram",
		Topic:         "x",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "event: error\n")
	assert.Contains(t, w.Body.String(), `"status":404`)
}

func TestGenerateStream_ValidatesBeforeStreaming(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/generate/stream", GenerateRequest{
		AuthorID:      "author_001",
		SocialNetwork: "myspace",
		Topic:         "x",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScore(t *testing.T) {
	env := newTestEnv(t)
	env.seedProfile(t, "author_001")

	w := env.do(t, http.MethodPost, "/api/score", ScoreRequest{
		AuthorID:      "author_001",
		SocialNetwork: "telegram",
		Text:          "Друзья, сегодня запускаем новый проект! 🚀 #стартап",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[ScoreResponse](t, w)
	assert.Equal(t, scoring.Weights(), resp.Weights)
	assert.Greater(t, resp.Scores.OverallScore, 0.0)

	w = env.do(t, http.MethodPost, "/api/score", ScoreRequest{AuthorID: "nobody", SocialNetwork: "telegram", Text: "x"}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/score", ScoreRequest{AuthorID: "author_001", SocialNetwork: "vk", Text: "x"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/score", ScoreRequest{SocialNetwork: "telegram", Text: "x"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, withOrigins("https://app.example.com"))

	req := httptest.NewRequest(http.MethodOptions, "/api/generate", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_AnyOrigin(t *testing.T) {
	env := newTestEnv(t, withOrigins("*"))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://anywhere.example.com")
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.NewLimiter(&ratelimit.Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
	})
	t.Cleanup(limiter.Stop)
	env := newTestEnv(t, withLimiter(limiter))

	w := env.do(t, http.MethodGet, "/api/authors", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = env.do(t, http.MethodGet, "/api/authors", nil, "")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limit_exceeded", decode[map[string]any](t, w)["error"])

	for i := 0; i < 3; i++ {
		w = env.do(t, http.MethodGet, "/api/health", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
