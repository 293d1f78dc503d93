package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/ghostpen/internal/types"

	_ "modernc.org/sqlite" // SQLite driver.
)

// DefaultSQLitePath is used when no database location is configured.
const DefaultSQLitePath = "ghostpen.db"

// SQLiteStore persists to a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens or creates the SQLite database and applies migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		path = DefaultSQLitePath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS user_posts (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			platform TEXT NOT NULL,
			content TEXT NOT NULL,
			posted_at TEXT NOT NULL,
			meta TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_user_posts_user_created ON user_posts(user_id, created_at);`,
		`CREATE TABLE IF NOT EXISTS style_profiles (
			author_id TEXT PRIMARY KEY,
			algorithm_version TEXT NOT NULL,
			profile TEXT NOT NULL,
			generated_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// CreateUser inserts a new account.
func (s *SQLiteStore) CreateUser(ctx context.Context, name, email, passwordHash string) (*User, error) {
	now := time.Now().UTC()
	u := &User{
		ID:           uuid.New(),
		Name:         name,
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID.String(), u.Email, u.Name, u.PasswordHash, formatTime(now), formatTime(now),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

func (s *SQLiteStore) getUser(ctx context.Context, where string, arg any) (*User, error) {
	var u User
	var id, created, updated string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at, updated_at FROM users WHERE `+where, arg,
	).Scan(&id, &u.Email, &u.Name, &u.PasswordHash, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if u.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("failed to parse user id: %w", err)
	}
	if u.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("failed to parse user created_at: %w", err)
	}
	if u.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("failed to parse user updated_at: %w", err)
	}
	return &u, nil
}

// GetUser retrieves an account by id.
func (s *SQLiteStore) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.getUser(ctx, "id = ?", id.String())
}

// GetUserByEmail retrieves an account by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.getUser(ctx, "email = ?", NormalizeEmail(email))
}

// UpdatePasswordHash replaces the stored hash of an account.
func (s *SQLiteStore) UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, formatTime(time.Now().UTC()), id.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreatePost stores a post; ID, CreatedAt and Timestamp are filled when zero.
func (s *SQLiteStore) CreatePost(ctx context.Context, post *types.UserPost) error {
	preparePost(post, time.Now().UTC())
	meta, err := json.Marshal(post.Meta)
	if err != nil {
		return fmt.Errorf("failed to marshal post meta: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO user_posts (id, user_id, platform, content, posted_at, meta, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		post.ID.String(), post.UserID.String(), string(post.Platform), post.Content,
		formatTime(post.Timestamp), string(meta), formatTime(post.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// ListPosts returns a user's posts, oldest first.
func (s *SQLiteStore) ListPosts(ctx context.Context, userID uuid.UUID) ([]types.UserPost, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, platform, content, posted_at, meta, created_at
		 FROM user_posts WHERE user_id = ?
		 ORDER BY created_at, id`,
		userID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := []types.UserPost{}
	for rows.Next() {
		var p types.UserPost
		var id, uid, platform, posted, meta, created string
		if err := rows.Scan(&id, &uid, &platform, &p.Content, &posted, &meta, &created); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		if p.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("failed to parse post id: %w", err)
		}
		if p.UserID, err = uuid.Parse(uid); err != nil {
			return nil, fmt.Errorf("failed to parse post user id: %w", err)
		}
		if p.Timestamp, err = parseTime(posted); err != nil {
			return nil, fmt.Errorf("failed to parse post timestamp: %w", err)
		}
		if p.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("failed to parse post created_at: %w", err)
		}
		if err := json.Unmarshal([]byte(meta), &p.Meta); err != nil {
			return nil, fmt.Errorf("failed to unmarshal post meta: %w", err)
		}
		p.Platform = types.Platform(platform)
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// DeletePost removes a post owned by userID.
func (s *SQLiteStore) DeletePost(ctx context.Context, userID, postID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM user_posts WHERE id = ? AND user_id = ?`,
		postID.String(), userID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveProfile inserts or replaces the profile of its author.
func (s *SQLiteStore) SaveProfile(ctx context.Context, profile *types.StyleProfile) error {
	body, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO style_profiles (author_id, algorithm_version, profile, generated_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (author_id) DO UPDATE
		 SET algorithm_version = excluded.algorithm_version, profile = excluded.profile,
		     generated_at = excluded.generated_at, updated_at = excluded.updated_at`,
		profile.AuthorID, string(profile.AlgorithmVersion), string(body),
		formatTime(profile.GeneratedAt), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to save profile %s: %w", profile.AuthorID, err)
	}
	return nil
}

// GetProfile retrieves the profile of authorID.
func (s *SQLiteStore) GetProfile(ctx context.Context, authorID string) (*types.StyleProfile, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT profile FROM style_profiles WHERE author_id = ?`, authorID,
	).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile %s: %w", authorID, err)
	}

	var p types.StyleProfile
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile %s: %w", authorID, err)
	}
	return &p, nil
}

// ListProfiles returns all stored profiles ordered by author id.
func (s *SQLiteStore) ListProfiles(ctx context.Context) ([]types.StyleProfile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT profile FROM style_profiles ORDER BY author_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	profiles := []types.StyleProfile{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		var p types.StyleProfile
		if err := json.Unmarshal([]byte(body), &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// LookupProfile implements prompting.ProfileSource.
func (s *SQLiteStore) LookupProfile(ctx context.Context, authorID string) (*types.StyleProfile, bool, error) {
	return lookupProfile(ctx, s, authorID)
}
