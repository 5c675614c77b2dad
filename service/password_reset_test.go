package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestResetUnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.resets.RequestReset(context.Background(), "nobody@example.com"))
	assert.Zero(t, env.sender.count())
}

func TestRequestResetRequiresEmail(t *testing.T) {
	env := newTestEnv(t)
	requireValidation(t, env.resets.RequestReset(context.Background(), "  "), "Email is required")
}

func TestResetPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signup(t, "Ada", "ada@example.com")

	require.NoError(t, env.resets.RequestReset(ctx, "ada@example.com"))
	token := env.sender.lastResetToken(t)

	require.NoError(t, env.resets.ResetPassword(ctx, token, "new-password"))

	_, err := env.users.Authenticate(ctx, "ada@example.com", "secret-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.users.Authenticate(ctx, "ada@example.com", "new-password")
	assert.NoError(t, err)

	// tokens are single use
	requireValidation(t, env.resets.ResetPassword(ctx, token, "again"), "Invalid or expired reset token")
}

func TestSecondResetRequestInvalidatesFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signup(t, "Ada", "ada@example.com")

	require.NoError(t, env.resets.RequestReset(ctx, "ada@example.com"))
	first := env.sender.lastResetToken(t)
	require.NoError(t, env.resets.RequestReset(ctx, "ada@example.com"))
	second := env.sender.lastResetToken(t)
	require.NotEqual(t, first, second)

	requireValidation(t, env.resets.ResetPassword(ctx, first, "new-password"), "Invalid or expired reset token")
	assert.NoError(t, env.resets.ResetPassword(ctx, second, "new-password"))
}

func TestResetPasswordValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	requireValidation(t, env.resets.ResetPassword(ctx, "", "pw"), "Token and password are required")
	requireValidation(t, env.resets.ResetPassword(ctx, "deadbeef", "pw"), "Invalid or expired reset token")
}

func TestRequestResetEmailFailure(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "Ada", "ada@example.com")
	env.sender.fail(errSendFailed)

	err := env.resets.RequestReset(context.Background(), "ada@example.com")
	assert.ErrorIs(t, err, ErrResetEmailFailed)
}

func TestNewResetToken(t *testing.T) {
	a, err := newResetToken()
	require.NoError(t, err)
	b, err := newResetToken()
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.Regexp(t, `^[0-9a-f]{32}$`, a)
	assert.NotEqual(t, a, b)
}

func TestResetPasswordTokenIsSingleUse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signup(t, "Ada", "ada@example.com")
	require.NoError(t, env.resets.RequestReset(ctx, "ada@example.com"))
	token := env.sender.lastResetToken(t)

	var wg sync.WaitGroup
	errs := make([]error, 6)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = env.resets.ResetPassword(ctx, token, "new-password")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		msg, ok := IsValidation(err)
		assert.True(t, ok)
		assert.Equal(t, "Invalid or expired reset token", msg)
	}
	assert.Equal(t, 1, succeeded)
}
