package git

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// tokenEnvVars are checked in order when no token is configured.
var tokenEnvVars = []string{"GITHUB_TOKEN", "GH_TOKEN"}

// ghAuthToken is swapped out in tests.
var ghAuthToken = func() (string, error) {
	return ghCmd("auth", "token")
}

func ghCmd(args ...string) (string, error) {
	out, err := exec.Command("gh", args...).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("gh %s: %s", strings.Join(args, " "), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("gh %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// TokenSource names where a resolved token came from.
type TokenSource string

const (
	TokenFromConfig TokenSource = "config"
	TokenFromEnv    TokenSource = "env"
	TokenFromGH     TokenSource = "gh"
	TokenNone       TokenSource = "none"
)

// ResolveToken picks a GitHub token: the configured value, then GITHUB_TOKEN
// or GH_TOKEN, then `gh auth token`. An empty result means anonymous access.
func ResolveToken(configured string) (string, TokenSource) {
	if t := strings.TrimSpace(configured); t != "" {
		return t, TokenFromConfig
	}
	for _, name := range tokenEnvVars {
		if t := strings.TrimSpace(os.Getenv(name)); t != "" {
			return t, TokenFromEnv
		}
	}
	if t, err := ghAuthToken(); err == nil && t != "" {
		return t, TokenFromGH
	}
	return "", TokenNone
}
