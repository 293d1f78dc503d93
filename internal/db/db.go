// Package db persists accounts, their post corpora and style profiles.
// PostgresStore is used when a database URL is configured; SQLiteStore is
// the zero-setup default for development and tests.
package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/ghostpen/internal/types"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("email already registered")
)

// Store is the persistence collaborator of the server and CLI.
type Store interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (*User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error

	CreatePost(ctx context.Context, post *types.UserPost) error
	ListPosts(ctx context.Context, userID uuid.UUID) ([]types.UserPost, error)
	DeletePost(ctx context.Context, userID, postID uuid.UUID) error

	SaveProfile(ctx context.Context, profile *types.StyleProfile) error
	GetProfile(ctx context.Context, authorID string) (*types.StyleProfile, error)
	ListProfiles(ctx context.Context) ([]types.StyleProfile, error)
	// LookupProfile adapts GetProfile to prompting.ProfileSource.
	LookupProfile(ctx context.Context, authorID string) (*types.StyleProfile, bool, error)

	Close() error
}

// Open returns a PostgresStore when databaseURL is set and a SQLiteStore
// at sqlitePath otherwise. The schema is created if missing.
func Open(ctx context.Context, databaseURL, sqlitePath string) (Store, error) {
	if databaseURL != "" {
		return ConnectPostgres(ctx, databaseURL)
	}
	return OpenSQLite(ctx, sqlitePath)
}

// NormalizeEmail lowercases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserCorpus groups a user's posts into the corpus shape the profiler consumes.
func UserCorpus(userID uuid.UUID, name string, posts []types.UserPost) *types.AuthorCorpus {
	corpus := &types.AuthorCorpus{
		AuthorID:  types.UserAuthorID(userID),
		Name:      name,
		Platforms: make(map[string][]types.Post),
	}
	for _, p := range posts {
		meta := p.Meta
		corpus.Platforms[string(p.Platform)] = append(corpus.Platforms[string(p.Platform)], types.Post{
			PostID:    p.ID.String(),
			Content:   p.Content,
			Timestamp: p.Timestamp.UTC().Format(time.RFC3339),
			Meta:      &meta,
		})
	}
	return corpus
}

// lookupProfile maps ErrNotFound to a miss.
func lookupProfile(ctx context.Context, s Store, authorID string) (*types.StyleProfile, bool, error) {
	p, err := s.GetProfile(ctx, authorID)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// preparePost fills the generated fields of a new post.
func preparePost(post *types.UserPost, now time.Time) {
	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	if post.Timestamp.IsZero() {
		post.Timestamp = post.CreatedAt
	}
	if post.Meta.Hashtags == nil {
		post.Meta.Hashtags = []string{}
	}
	if post.Meta.Mentions == nil {
		post.Meta.Mentions = []string{}
	}
	if post.Meta.Emojis == nil {
		post.Meta.Emojis = []string{}
	}
}
