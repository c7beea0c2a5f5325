package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSummaryPrompt(t *testing.T) {
	t.Run("with all fields", func(t *testing.T) {
		system, user := buildSummaryPrompt(PullRequestContext{
			Number:    12,
			Title:     "[42] Add board drawer",
			Body:      "Adds the drawer.\n\nFixes #42",
			HeadRef:   "nav/feature-42",
			BaseRef:   "main",
			CIStatus:  "failure",
			Reviewers: []string{"alice:APPROVED"},
		})

		assert.Contains(t, system, "plain text")
		assert.Contains(t, user, "Pull request #12: [42] Add board drawer")
		assert.Contains(t, user, "nav/feature-42 -> main")
		assert.Contains(t, user, "CI: failure")
		assert.Contains(t, user, "alice:APPROVED")
		assert.Contains(t, user, "Fixes #42")
	})

	t.Run("title only", func(t *testing.T) {
		_, user := buildSummaryPrompt(PullRequestContext{Number: 1, Title: "Bump deps"})

		assert.Contains(t, user, "Bump deps")
		assert.NotContains(t, user, "Description:")
		assert.NotContains(t, user, "CI:")
		assert.NotContains(t, user, "Branches:")
	})

	t.Run("long body is truncated", func(t *testing.T) {
		body := strings.Repeat("x", maxBodyChars+500)
		_, user := buildSummaryPrompt(PullRequestContext{Number: 1, Title: "t", Body: body})

		assert.Contains(t, user, strings.Repeat("x", maxBodyChars))
		assert.NotContains(t, user, strings.Repeat("x", maxBodyChars+1))
	})
}

func TestStripFence(t *testing.T) {
	assert.Equal(t, "hello", stripFence("```\nhello\n```"))
	assert.Equal(t, "hello", stripFence("```text\nhello\n```"))
	assert.Equal(t, "plain", stripFence("  plain \n"))
}

func TestNewClientDefaultModel(t *testing.T) {
	c := NewClient("", "")
	assert.Equal(t, DefaultModel, string(c.model))
}
