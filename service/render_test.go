package service

import (
	"testing"

	"enviroagent/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMarkdown(t *testing.T) {
	out := RenderMarkdown("**Goal**: water plants\n\n<script>alert(1)</script>")
	assert.Contains(t, out, "<strong>Goal</strong>")
	assert.NotContains(t, out, "<script>")
}

func TestRenderMessages(t *testing.T) {
	rendered := RenderMessages([]model.Message{{ID: 1, Content: "*hi*"}, {ID: 2, Content: "plain"}})
	require.Len(t, rendered, 2)
	assert.Equal(t, uint(1), rendered[0].ID)
	assert.Contains(t, rendered[0].HTML, "<em>hi</em>")
	assert.Contains(t, rendered[1].HTML, "plain")
}
