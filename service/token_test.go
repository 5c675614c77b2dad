package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokenService("test-secret", time.Hour)

	td, err := tokens.CreateToken(42)
	require.NoError(t, err)

	access, err := tokens.ExtractTokenMetadata(td.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(42), access.UserID)
	assert.Equal(t, td.AccessUUID, access.AccessUUID)
	assert.Equal(t, td.AtExpires, access.ExpiresAt.Unix())

	_, err = NewTokenService("other-secret", time.Hour).ExtractTokenMetadata(td.AccessToken)
	assert.Error(t, err)
}

func TestTokenExpired(t *testing.T) {
	tokens := NewTokenService("test-secret", -time.Minute)

	td, err := tokens.CreateToken(1)
	require.NoError(t, err)
	_, err = tokens.VerifyToken(td.AccessToken)
	assert.Error(t, err)
}

func TestExtractToken(t *testing.T) {
	tokens := NewTokenService("test-secret", time.Hour)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, tokens.ExtractToken(r))

	r.Header.Set("Authorization", "Bearer abc")
	assert.Equal(t, "abc", tokens.ExtractToken(r))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "token", Value: "from-cookie"})
	assert.Equal(t, "from-cookie", tokens.ExtractToken(r))
}

func authedRequest(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.signup(t, "Ada", "ada@example.com")

	_, err := env.sessions.Session(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = env.sessions.Session(ctx, authedRequest("garbage"))
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	td, err := env.sessions.Issue(user)
	require.NoError(t, err)
	session, err := env.sessions.Session(ctx, authedRequest(td.AccessToken))
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.User.ID)

	refreshed, err := env.sessions.Refresh(ctx, session)
	require.NoError(t, err)
	_, err = env.sessions.Session(ctx, authedRequest(td.AccessToken))
	assert.ErrorIs(t, err, ErrNotAuthenticated, "refresh revokes the old token")

	session, err = env.sessions.Session(ctx, authedRequest(refreshed.AccessToken))
	require.NoError(t, err)
	require.NoError(t, env.sessions.SignOut(ctx, session))
	_, err = env.sessions.Session(ctx, authedRequest(refreshed.AccessToken))
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestSessionForDeletedUser(t *testing.T) {
	env := newTestEnv(t)

	td, err := NewTokenService("test-secret", time.Hour).CreateToken(999)
	require.NoError(t, err)
	_, err = env.sessions.Session(context.Background(), authedRequest(td.AccessToken))
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}
