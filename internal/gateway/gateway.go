// Package gateway is the board's only path to GitHub. It turns REST
// resources into board models and implements the write actions: moving an
// issue between stages, dispatching the automation workflow, and opening
// pull requests.
package gateway

import (
	"context"
	"log/slog"

	"github.com/joescharf/flowboard/internal/github"
	"github.com/joescharf/flowboard/internal/llm"
)

const (
	// DefaultWorkflow is the automation workflow dispatched after a move.
	DefaultWorkflow = ".github/workflows/devflow.yml"
	// DefaultRef is the ref the workflow is dispatched on.
	DefaultRef = "main"
)

// Remote is the subset of the GitHub REST API the gateway uses.
// *github.Client satisfies it.
type Remote interface {
	ListIssues(ctx context.Context, owner, repo string, opts github.ListIssuesOptions) ([]github.Issue, error)
	GetIssue(ctx context.Context, owner, repo string, number int) (*github.Issue, error)
	SetIssueLabels(ctx context.Context, owner, repo string, number int, labels []string) (*github.Issue, error)
	SearchIssues(ctx context.Context, query string, perPage int) ([]github.SearchItem, error)

	GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error)
	ListPullRequests(ctx context.Context, owner, repo, head, state string) ([]github.PullRequest, error)
	CreatePullRequest(ctx context.Context, owner, repo string, req github.CreatePullRequestRequest) (*github.PullRequest, error)
	UpdatePullRequest(ctx context.Context, owner, repo string, number int, req github.UpdatePullRequestRequest) (*github.PullRequest, error)
	ListReviews(ctx context.Context, owner, repo string, number, perPage int) ([]github.Review, error)
	GetCombinedStatus(ctx context.Context, owner, repo, ref string) (*github.CombinedStatus, error)

	GetRepository(ctx context.Context, owner, repo string) (*github.Repository, error)
	ListUserRepositories(ctx context.Context, perPage int) ([]github.Repository, error)
	GetBranch(ctx context.Context, owner, repo, branch string) (*github.Branch, error)
	Compare(ctx context.Context, owner, repo, base, head string) (*github.Comparison, error)
	GetContent(ctx context.Context, owner, repo, path string) (*github.Content, error)

	DispatchWorkflow(ctx context.Context, owner, repo, workflowID string, req github.DispatchWorkflowRequest) error
	ListWorkflowRuns(ctx context.Context, owner, repo, branch string, perPage int) ([]github.WorkflowRun, error)
}

// Summarizer produces the generated summary text shown with a pull request.
// *llm.Client satisfies it.
type Summarizer interface {
	SummarizePullRequest(ctx context.Context, pr llm.PullRequestContext) (string, error)
}

// Config configures a Gateway.
type Config struct {
	// Workflow is the file name, path, or ID of the workflow to dispatch.
	Workflow string
	// Ref is the ref the workflow runs on.
	Ref string
	// Summarizer is optional; without one pull requests carry no generated summary.
	Summarizer Summarizer
	Logger     *slog.Logger
}

// Gateway maps GitHub resources to board models.
type Gateway struct {
	remote     Remote
	workflow   string
	ref        string
	summarizer Summarizer
	logger     *slog.Logger
}

// New creates a Gateway over remote.
func New(remote Remote, cfg Config) *Gateway {
	g := &Gateway{
		remote:     remote,
		workflow:   cfg.Workflow,
		ref:        cfg.Ref,
		summarizer: cfg.Summarizer,
		logger:     cfg.Logger,
	}
	if g.workflow == "" {
		g.workflow = DefaultWorkflow
	}
	if g.ref == "" {
		g.ref = DefaultRef
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}
