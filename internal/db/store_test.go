package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/ghostpen/internal/types"
)

// testStoreContract exercises the behaviour every Store must share.
func testStoreContract(t *testing.T, s Store) {
	ctx := context.Background()
	email := "Test-" + uuid.New().String() + "@Example.com"

	t.Run("users", func(t *testing.T) {
		u, err := s.CreateUser(ctx, "Анна", email, "hash")
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, u.ID)
		assert.Equal(t, NormalizeEmail(email), u.Email)

		got, err := s.GetUser(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "Анна", got.Name)
		assert.Equal(t, "hash", got.PasswordHash)

		byEmail, err := s.GetUserByEmail(ctx, " "+email+" ")
		require.NoError(t, err)
		assert.Equal(t, u.ID, byEmail.ID)

		_, err = s.CreateUser(ctx, "Другая Анна", email, "hash2")
		assert.ErrorIs(t, err, ErrEmailTaken)

		require.NoError(t, s.UpdatePasswordHash(ctx, u.ID, "hash-v2"))
		got, err = s.GetUser(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "hash-v2", got.PasswordHash)
		assert.ErrorIs(t, s.UpdatePasswordHash(ctx, uuid.New(), "x"), ErrNotFound)

		_, err = s.GetUser(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.GetUserByEmail(ctx, "nobody-"+uuid.New().String()+"@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("posts", func(t *testing.T) {
		u, err := s.CreateUser(ctx, "Пётр", "posts-"+uuid.New().String()+"@example.com", "hash")
		require.NoError(t, err)

		first := &types.UserPost{
			UserID:    u.ID,
			Platform:  types.PlatformTelegram,
			Content:   "Первый пост #go 🚀",
			Timestamp: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
			Meta:      types.PostMeta{Hashtags: []string{"#go"}, Emojis: []string{"🚀"}},
		}
		require.NoError(t, s.CreatePost(ctx, first))
		assert.NotEqual(t, uuid.Nil, first.ID)

		second := &types.UserPost{
			UserID:    u.ID,
			Platform:  types.PlatformLinkedIn,
			Content:   "Второй пост",
			CreatedAt: first.CreatedAt.Add(time.Second),
		}
		require.NoError(t, s.CreatePost(ctx, second))

		posts, err := s.ListPosts(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, first.ID, posts[0].ID)
		assert.Equal(t, types.PlatformTelegram, posts[0].Platform)
		assert.Equal(t, []string{"#go"}, posts[0].Meta.Hashtags)
		assert.Empty(t, posts[0].Meta.Mentions)
		assert.True(t, posts[0].Timestamp.Equal(first.Timestamp))
		assert.True(t, posts[1].Timestamp.Equal(posts[1].CreatedAt), "timestamp defaults to creation time")

		other, err := s.ListPosts(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, other)

		assert.ErrorIs(t, s.DeletePost(ctx, uuid.New(), first.ID), ErrNotFound, "only the owner can delete")
		require.NoError(t, s.DeletePost(ctx, u.ID, first.ID))
		assert.ErrorIs(t, s.DeletePost(ctx, u.ID, first.ID), ErrNotFound)

		posts, err = s.ListPosts(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, second.ID, posts[0].ID)
	})

	t.Run("profiles", func(t *testing.T) {
		authorID := "author_" + uuid.New().String()
		profile := &types.StyleProfile{
			AuthorID:         authorID,
			AlgorithmVersion: types.AlgorithmV1,
			GeneratedAt:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			TotalPosts:       3,
			Platforms:        []string{"linkedin"},
			Style:            types.Style{AvgPostLength: 420, Tone: types.ToneScores{Dominant: types.ToneExpert}},
			Topics:           types.TopicScores{{Topic: "career", Score: 40}, {Topic: "business", Score: 10}},
		}
		require.NoError(t, s.SaveProfile(ctx, profile))

		got, err := s.GetProfile(ctx, authorID)
		require.NoError(t, err)
		assert.Equal(t, 420, got.Style.AvgPostLength)
		assert.Equal(t, profile.Topics, got.Topics)

		profile.Style.AvgPostLength = 500
		profile.AlgorithmVersion = types.AlgorithmV2
		require.NoError(t, s.SaveProfile(ctx, profile))
		got, err = s.GetProfile(ctx, authorID)
		require.NoError(t, err)
		assert.Equal(t, 500, got.Style.AvgPostLength, "save replaces")
		assert.Equal(t, types.AlgorithmV2, got.AlgorithmVersion)

		found, ok, err := s.LookupProfile(ctx, authorID)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, authorID, found.AuthorID)

		_, ok, err = s.LookupProfile(ctx, "missing-"+authorID)
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = s.GetProfile(ctx, "missing-"+authorID)
		assert.True(t, errors.Is(err, ErrNotFound))

		all, err := s.ListProfiles(ctx)
		require.NoError(t, err)
		var ids []string
		for _, p := range all {
			ids = append(ids, p.AuthorID)
		}
		assert.Contains(t, ids, authorID)
		assert.IsNonDecreasing(t, ids)
	})
}

func TestUserCorpus(t *testing.T) {
	userID := uuid.New()
	posts := []types.UserPost{
		{ID: uuid.New(), Platform: types.PlatformTelegram, Content: "а", Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{ID: uuid.New(), Platform: types.PlatformLinkedIn, Content: "б", Meta: types.PostMeta{Hashtags: []string{"#x"}}},
		{ID: uuid.New(), Platform: types.PlatformTelegram, Content: "в"},
	}

	corpus := UserCorpus(userID, "Анна", posts)
	assert.Equal(t, types.UserAuthorID(userID), corpus.AuthorID)
	assert.Equal(t, "Анна", corpus.Name)
	require.Len(t, corpus.Platforms["telegram"], 2)
	assert.Equal(t, "2024-01-02T03:04:05Z", corpus.Platforms["telegram"][0].Timestamp)
	assert.Equal(t, []string{"#x"}, corpus.Platforms["linkedin"][0].Meta.Hashtags)
	assert.Equal(t, 3, corpus.TotalPosts())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "anna@example.com", NormalizeEmail("  Anna@Example.COM "))
}
