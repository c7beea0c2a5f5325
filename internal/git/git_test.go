package git

import (
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initTestRepo creates a git repo in dir with a user config so commits work on CI.
func initTestRepo(t *testing.T, dir string) {
	t.Helper()
	cmds := [][]string{
		{"git", "-C", dir, "init"},
		{"git", "-C", dir, "config", "user.email", "test@test.com"},
		{"git", "-C", dir, "config", "user.name", "Test"},
	}
	for _, args := range cmds {
		require.NoError(t, exec.Command(args[0], args[1:]...).Run())
	}
}

func TestExtractOwnerRepo_SSH(t *testing.T) {
	owner, repo, err := ExtractOwnerRepo("git@github.com:acme/widgets.git")
	assert.NoError(t, err)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "widgets", repo)
}

func TestExtractOwnerRepo_HTTPS(t *testing.T) {
	owner, repo, err := ExtractOwnerRepo("https://github.com/acme/widgets.git")
	assert.NoError(t, err)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "widgets", repo)
}

func TestExtractOwnerRepo_HTTPSNoGit(t *testing.T) {
	owner, repo, err := ExtractOwnerRepo("https://github.com/acme/widgets")
	assert.NoError(t, err)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "widgets", repo)
}

func TestExtractOwnerRepo_Invalid(t *testing.T) {
	_, _, err := ExtractOwnerRepo("not-a-url")
	assert.Error(t, err)
}

func TestDetectRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	initTestRepo(t, dir)

	c := NewClient()
	_, _, ok := DetectRepo(c, dir)
	assert.False(t, ok, "no origin remote yet")

	require.NoError(t, exec.Command("git", "-C", dir, "remote", "add", "origin", "git@github.com:acme/widgets.git").Run())
	owner, repo, ok := DetectRepo(c, dir)
	require.True(t, ok)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "widgets", repo)
}

func TestDetectRepo_NotARepo(t *testing.T) {
	_, _, ok := DetectRepo(NewClient(), t.TempDir())
	assert.False(t, ok)
}

func TestResolveToken(t *testing.T) {
	orig := ghAuthToken
	t.Cleanup(func() { ghAuthToken = orig })
	ghAuthToken = func() (string, error) { return "from-gh", nil }

	t.Run("configured wins", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "from-env")
		tok, src := ResolveToken("  from-config ")
		assert.Equal(t, "from-config", tok)
		assert.Equal(t, TokenFromConfig, src)
	})

	t.Run("env before gh", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "")
		t.Setenv("GH_TOKEN", "gh-env")
		tok, src := ResolveToken("")
		assert.Equal(t, "gh-env", tok)
		assert.Equal(t, TokenFromEnv, src)
	})

	t.Run("gh fallback", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "")
		t.Setenv("GH_TOKEN", "")
		tok, src := ResolveToken("")
		assert.Equal(t, "from-gh", tok)
		assert.Equal(t, TokenFromGH, src)
	})

	t.Run("anonymous", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "")
		t.Setenv("GH_TOKEN", "")
		ghAuthToken = func() (string, error) { return "", errors.New("not logged in") }
		tok, src := ResolveToken("")
		assert.Empty(t, tok)
		assert.Equal(t, TokenNone, src)
	})
}
