package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/ghostpen/internal/types"
)

// register creates an account and returns its tokens.
func (e *testEnv) register(t *testing.T, email string) types.TokenResponse {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/auth/register", types.RegisterRequest{
		Email:    email,
		Name:     "Test User",
		Password: "s3cret-pass",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[types.TokenResponse](t, w)
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	tokens := env.register(t, "Writer@Example.com")
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, "bearer", tokens.TokenType)
	require.NotNil(t, tokens.User)
	assert.Equal(t, "writer@example.com", tokens.User.Email)

	w := env.do(t, http.MethodPost, "/api/auth/register", types.RegisterRequest{
		Email:    "writer@example.com",
		Name:     "Someone Else",
		Password: "another-pass",
	}, "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		req  types.RegisterRequest
	}{
		{"bad email", types.RegisterRequest{Email: "nope", Name: "A", Password: "s3cret-pass"}},
		{"short password", types.RegisterRequest{Email: "a@example.com", Name: "A", Password: "123"}},
		{"missing name", types.RegisterRequest{Email: "a@example.com", Password: "s3cret-pass"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/auth/register", tt.req, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "writer@example.com")

	w := env.do(t, http.MethodPost, "/api/auth/login", types.LoginRequest{
		Email:    "writer@example.com",
		Password: "wrong-pass",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/auth/login", types.LoginRequest{
		Email:    "nobody@example.com",
		Password: "s3cret-pass",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/auth/login", types.LoginRequest{
		Email:    "WRITER@example.com",
		Password: "s3cret-pass",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, decode[types.TokenResponse](t, w).AccessToken)
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	tokens := env.register(t, "writer@example.com")

	w := env.do(t, http.MethodGet, "/api/auth/me", nil, tokens.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	user := decode[types.User](t, w)
	assert.Equal(t, tokens.User.ID, user.ID)
	assert.Equal(t, "Test User", user.Name)

	w = env.do(t, http.MethodGet, "/api/auth/me", nil, tokens.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
}

func TestRefresh(t *testing.T) {
	env := newTestEnv(t)
	tokens := env.register(t, "writer@example.com")

	w := env.do(t, http.MethodPost, "/api/auth/refresh", types.RefreshRequest{RefreshToken: tokens.RefreshToken}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	refreshed := decode[types.TokenResponse](t, w)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, tokens.User.ID, refreshed.User.ID)

	w = env.do(t, http.MethodPost, "/api/auth/refresh", types.RefreshRequest{RefreshToken: tokens.AccessToken}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/auth/refresh", types.RefreshRequest{}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
