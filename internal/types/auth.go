package types

import (
	"time"

	"github.com/google/uuid"
)

// RegisterRequest represents the request to create a new account.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Password string `json:"password" validate:"required,min=6,max=100"`
}

// LoginRequest represents the login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest exchanges a refresh token for a new token pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// User is the public view of an account; the password hash never leaves package db.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthorID is the profile key under which the user's own style profile is stored.
func (u *User) AuthorID() string {
	return UserAuthorID(u.ID)
}

// UserAuthorPrefix prefixes the profile keys of registered users.
const UserAuthorPrefix = "user_"

// UserAuthorID returns the profile key for a user id.
func UserAuthorID(id uuid.UUID) string {
	return UserAuthorPrefix + id.String()
}

// TokenResponse is returned by register, login and refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	User         *User  `json:"user"`
}

// CreatePostRequest adds a post to the caller's corpus.
type CreatePostRequest struct {
	Platform  Platform  `json:"platform" validate:"required,oneof=linkedin instagram facebook telegram"`
	Content   string    `json:"content" validate:"required,min=1,max=10000"`
	Timestamp string    `json:"timestamp,omitempty"`
	Meta      *PostMeta `json:"meta,omitempty"`
}

// UserPost is a post stored in a user's corpus.
type UserPost struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Platform  Platform  `json:"platform"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Meta      PostMeta  `json:"meta"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the request's struct tags.
func (r *RegisterRequest) Validate() error { return validate.Struct(r) }

// Validate checks the request's struct tags.
func (r *LoginRequest) Validate() error { return validate.Struct(r) }

// Validate checks the request's struct tags.
func (r *CreatePostRequest) Validate() error { return validate.Struct(r) }
