package db

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/ghostpen/internal/types"
)

//go:embed schema/postgres.sql
var postgresSchema string

// uniqueViolation is the SQLSTATE of a unique constraint failure.
const uniqueViolation = "23505"

// PostgresStore wraps a PostgreSQL connection pool
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// ConnectPostgres establishes a connection pool and applies the schema.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// CreateUser inserts a new account.
func (s *PostgresStore) CreateUser(ctx context.Context, name, email, passwordHash string) (*User, error) {
	u := &User{ID: uuid.New(), Name: name, Email: NormalizeEmail(email), PasswordHash: passwordHash}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, name, password_hash)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		u.ID, u.Email, u.Name, u.PasswordHash,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

const selectUser = `SELECT id, email, name, password_hash, created_at, updated_at FROM users`

func (s *PostgresStore) getUser(ctx context.Context, where string, arg any) (*User, error) {
	var u User
	err := s.pool.QueryRow(ctx, selectUser+" WHERE "+where, arg).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// GetUser retrieves an account by id.
func (s *PostgresStore) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.getUser(ctx, "id = $1", id)
}

// GetUserByEmail retrieves an account by email.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.getUser(ctx, "email = $1", NormalizeEmail(email))
}

// UpdatePasswordHash replaces the stored hash of an account.
func (s *PostgresStore) UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreatePost stores a post; ID, CreatedAt and Timestamp are filled when zero.
func (s *PostgresStore) CreatePost(ctx context.Context, post *types.UserPost) error {
	preparePost(post, time.Now().UTC())
	meta, err := json.Marshal(post.Meta)
	if err != nil {
		return fmt.Errorf("failed to marshal post meta: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO user_posts (id, user_id, platform, content, posted_at, meta, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		post.ID, post.UserID, string(post.Platform), post.Content, post.Timestamp, meta, post.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// ListPosts returns a user's posts, oldest first.
func (s *PostgresStore) ListPosts(ctx context.Context, userID uuid.UUID) ([]types.UserPost, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, platform, content, posted_at, meta, created_at
		 FROM user_posts WHERE user_id = $1
		 ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := []types.UserPost{}
	for rows.Next() {
		var p types.UserPost
		var platform string
		var meta []byte
		if err := rows.Scan(&p.ID, &p.UserID, &platform, &p.Content, &p.Timestamp, &meta, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		p.Platform = types.Platform(platform)
		if err := json.Unmarshal(meta, &p.Meta); err != nil {
			return nil, fmt.Errorf("failed to unmarshal post meta: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// DeletePost removes a post owned by userID.
func (s *PostgresStore) DeletePost(ctx context.Context, userID, postID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM user_posts WHERE id = $1 AND user_id = $2`,
		postID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveProfile inserts or replaces the profile of its author.
func (s *PostgresStore) SaveProfile(ctx context.Context, profile *types.StyleProfile) error {
	body, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO style_profiles (author_id, algorithm_version, profile, generated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (author_id) DO UPDATE
		 SET algorithm_version = $2, profile = $3, generated_at = $4, updated_at = NOW()`,
		profile.AuthorID, string(profile.AlgorithmVersion), body, profile.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile %s: %w", profile.AuthorID, err)
	}
	return nil
}

// GetProfile retrieves the profile of authorID.
func (s *PostgresStore) GetProfile(ctx context.Context, authorID string) (*types.StyleProfile, error) {
	var body []byte
	err := s.pool.QueryRow(ctx,
		`SELECT profile FROM style_profiles WHERE author_id = $1`,
		authorID,
	).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile %s: %w", authorID, err)
	}

	var p types.StyleProfile
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile %s: %w", authorID, err)
	}
	return &p, nil
}

// ListProfiles returns all stored profiles ordered by author id.
func (s *PostgresStore) ListProfiles(ctx context.Context) ([]types.StyleProfile, error) {
	rows, err := s.pool.Query(ctx, `SELECT profile FROM style_profiles ORDER BY author_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	profiles := []types.StyleProfile{}
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		var p types.StyleProfile
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// LookupProfile implements prompting.ProfileSource.
func (s *PostgresStore) LookupProfile(ctx context.Context, authorID string) (*types.StyleProfile, bool, error) {
	return lookupProfile(ctx, s, authorID)
}
