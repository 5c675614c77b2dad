package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactSubmit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	contact, err := env.contacts.Submit(ctx, ContactInput{Name: "Ada", Email: "ada@example.com", Subject: "Hi", Message: "Hello there"})
	require.NoError(t, err)
	assert.NotZero(t, contact.ID)
	assert.Equal(t, []string{"support@enviroagent.org"}, env.sender.last(t).To)

	_, err = env.contacts.Submit(ctx, ContactInput{Name: "Ada", Email: "ada@example.com", Subject: "Hi"})
	requireValidation(t, err, "All fields are required")

	_, err = env.contacts.Submit(ctx, ContactInput{Name: "Ada", Email: "ada", Subject: "Hi", Message: "x"})
	requireValidation(t, err, "Invalid email address")
}

func TestContactSurvivesEmailFailure(t *testing.T) {
	env := newTestEnv(t)
	env.sender.fail(errSendFailed)

	_, err := env.contacts.Submit(context.Background(), ContactInput{Name: "Ada", Email: "ada@example.com", Subject: "Hi", Message: "Hello"})
	assert.NoError(t, err)
}

func TestNewsletterSubscribe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.newsletter.Subscribe(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, env.sender.count())

	_, err = env.newsletter.Subscribe(ctx, " ADA@example.com")
	requireValidation(t, err, "Email already subscribed")
	assert.Equal(t, 1, env.sender.count())

	stored, err := env.store.FindSubscription(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, stored.ID)

	_, err = env.newsletter.Subscribe(ctx, "")
	requireValidation(t, err, "Email is required")
}
