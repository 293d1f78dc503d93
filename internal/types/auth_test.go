package types

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failedTags returns "Field:tag" for every rule err reports.
func failedTags(t *testing.T, err error) []string {
	t.Helper()
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs), "want validator errors, got %v", err)
	var out []string
	for _, fe := range verrs {
		out = append(out, fe.Field()+":"+fe.Tag())
	}
	return out
}

func TestRegisterRequest_Validate(t *testing.T) {
	valid := RegisterRequest{Name: "Анна", Email: "anna@example.com", Password: "secret1"}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		modify func(r *RegisterRequest)
		want   []string
	}{
		{"missing name", func(r *RegisterRequest) { r.Name = "" }, []string{"Name:required"}},
		{"name too long", func(r *RegisterRequest) { r.Name = strings.Repeat("a", 101) }, []string{"Name:max"}},
		{"invalid email", func(r *RegisterRequest) { r.Email = "not-an-email" }, []string{"Email:email"}},
		{"short password", func(r *RegisterRequest) { r.Password = "12345" }, []string{"Password:min"}},
		{"long password", func(r *RegisterRequest) { r.Password = strings.Repeat("x", 101) }, []string{"Password:max"}},
		{"everything wrong", func(r *RegisterRequest) { *r = RegisterRequest{Email: "x"} },
			[]string{"Email:email", "Name:required", "Password:required"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.modify(&r)
			assert.Equal(t, tt.want, failedTags(t, r.Validate()))
		})
	}
}

func TestLoginRequest_Validation(t *testing.T) {
	assert.NoError(t, (&LoginRequest{Email: "a@b.co", Password: "x"}).Validate())
	assert.Error(t, (&LoginRequest{Email: "a@b.co"}).Validate())
	assert.Error(t, (&LoginRequest{Password: "x"}).Validate())
}

func TestCreatePostRequest_Validation(t *testing.T) {
	assert.NoError(t, (&CreatePostRequest{Platform: PlatformTelegram, Content: "Пост"}).Validate())

	err := (&CreatePostRequest{Platform: "tiktok", Content: "Пост"}).Validate()
	assert.Equal(t, []string{"Platform:oneof"}, failedTags(t, err))

	err = (&CreatePostRequest{Platform: PlatformLinkedIn}).Validate()
	assert.Equal(t, []string{"Content:required"}, failedTags(t, err))
}

func TestUserAuthorID(t *testing.T) {
	id := uuid.MustParse("6f1c1f4e-2b7a-4a53-9d64-3f1f0f1a2b3c")
	u := &User{ID: id}
	assert.Equal(t, "user_6f1c1f4e-2b7a-4a53-9d64-3f1f0f1a2b3c", u.AuthorID())
	assert.Equal(t, u.AuthorID(), UserAuthorID(id))
}

func TestTokenResponse_JSON(t *testing.T) {
	resp := TokenResponse{
		AccessToken:  "a",
		RefreshToken: "r",
		TokenType:    "bearer",
		User:         &User{ID: uuid.New(), Email: "a@b.co", Name: "A", CreatedAt: time.Now().UTC()},
	}
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"access_token":"a"`)
	assert.Contains(t, string(data), `"refresh_token":"r"`)
	assert.Contains(t, string(data), `"token_type":"bearer"`)
	assert.NotContains(t, string(data), "password")
}
