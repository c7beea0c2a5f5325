package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/joescharf/flowboard/internal/gateway"
	"github.com/joescharf/flowboard/internal/git"
	"github.com/joescharf/flowboard/internal/github"
	"github.com/joescharf/flowboard/internal/llm"
	"github.com/joescharf/flowboard/internal/models"
)

// envKeyReplacer maps nested keys to env vars: github.token -> FLOWBOARD_GITHUB_TOKEN.
var envKeyReplacer = strings.NewReplacer(".", "_")

// gitClient detects the default repository, replaceable in tests.
var gitClient git.Client = git.NewClient()

// newGitHubClient builds a GitHub client from config, resolving the token
// from config, env, then the gh CLI.
func newGitHubClient() *github.Client {
	token, source := git.ResolveToken(viper.GetString("github.token"))
	if source == git.TokenNone {
		ui.VerboseLog("No GitHub token found; using anonymous access")
	} else {
		ui.VerboseLog("GitHub token from %s", source)
	}
	return github.NewClient(github.Config{
		BaseURL:           viper.GetString("github.base_url"),
		Token:             token,
		RequestsPerSecond: viper.GetFloat64("github.requests_per_second"),
	})
}

// newLLMClient creates an LLM client from config/env, or returns nil if no API key is configured.
func newLLMClient() *llm.Client {
	apiKey := viper.GetString("anthropic.api_key")
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil
	}
	return llm.NewClient(apiKey, viper.GetString("anthropic.model"))
}

// newGateway wires the GitHub client, orchestrator settings and optional
// summarizer into a Gateway.
func newGateway(logger *slog.Logger) *gateway.Gateway {
	cfg := gateway.Config{
		Workflow: viper.GetString("orchestrator.workflow"),
		Ref:      viper.GetString("orchestrator.ref"),
		Logger:   logger,
	}
	// A nil *llm.Client must not become a non-nil interface.
	if c := newLLMClient(); c != nil {
		cfg.Summarizer = c
	}
	return gateway.New(newGitHubClient(), cfg)
}

// defaultRepo returns the configured repository, falling back to the origin
// remote of the working directory. Either value may be empty.
func defaultRepo() (owner, repo string) {
	owner = viper.GetString("github.default_owner")
	repo = viper.GetString("github.default_repo")
	if owner != "" && repo != "" {
		return owner, repo
	}
	wd, err := os.Getwd()
	if err != nil {
		return owner, repo
	}
	if o, r, ok := git.DetectRepo(gitClient, wd); ok {
		if owner == "" {
			owner = o
		}
		if repo == "" {
			repo = r
		}
	}
	return owner, repo
}

// requireRepo is defaultRepo for commands that cannot run without one.
func requireRepo() (owner, repo string, err error) {
	owner, repo = defaultRepo()
	if owner == "" || repo == "" {
		return "", "", fmt.Errorf("no repository: pass --owner and --repo, set github.default_owner/default_repo, or run inside a GitHub checkout")
	}
	return owner, repo, nil
}

// recordActivity appends a write to the activity log. Failures only warn.
func recordActivity(ctx context.Context, a *models.Activity, err error) {
	s, serr := getStore()
	if serr != nil {
		ui.VerboseLog("Activity log unavailable: %v", serr)
		return
	}
	a.Outcome = models.OutcomeOK
	if err != nil {
		a.Outcome = models.OutcomeFailed
		a.Detail = err.Error()
	}
	if rerr := s.RecordActivity(ctx, a); rerr != nil {
		ui.Warning("Failed to record activity: %v", rerr)
	}
}
