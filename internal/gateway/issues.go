package gateway

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/joescharf/flowboard/internal/board"
	"github.com/joescharf/flowboard/internal/github"
	"github.com/joescharf/flowboard/internal/labels"
	"github.com/joescharf/flowboard/internal/models"
)

// IssueFilter narrows FetchIssues. Statuses take precedence over Labels for
// the server-side label filter.
type IssueFilter struct {
	Owner    string
	Repo     string
	PerPage  int
	Page     int
	Assignee string
	Labels   []string
	Statuses []models.Stage
	Query    string
}

// FetchIssues lists open issues (never pull requests) projected onto the board.
// Query matches case-insensitively against title and body.
func (g *Gateway) FetchIssues(ctx context.Context, f IssueFilter) ([]models.IssueSummary, error) {
	opts := github.ListIssuesOptions{
		State:    "open",
		Assignee: f.Assignee,
		PerPage:  f.PerPage,
		Page:     f.Page,
	}
	switch {
	case len(f.Statuses) > 0:
		for _, s := range f.Statuses {
			opts.Labels = append(opts.Labels, labels.StageToLabel(s))
		}
	case len(f.Labels) > 0:
		opts.Labels = f.Labels
	}

	raw, err := g.remote.ListIssues(ctx, f.Owner, f.Repo, opts)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]models.IssueSummary, 0, len(raw))
	for _, issue := range raw {
		if issue.IsPullRequest() {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(issue.Title+" "+issue.Body), query) {
			continue
		}
		summary := board.ToIssueSummary(issue, f.Owner, f.Repo)
		if len(f.Statuses) > 0 && !containsStage(f.Statuses, summary.Status) {
			continue
		}
		out = append(out, summary)
	}
	return out, nil
}

func containsStage(stages []models.Stage, s models.Stage) bool {
	for _, st := range stages {
		if st == s {
			return true
		}
	}
	return false
}

// GetIssue fetches one issue projected onto the board.
func (g *Gateway) GetIssue(ctx context.Context, owner, repo string, number int) (models.IssueSummary, error) {
	issue, err := g.remote.GetIssue(ctx, owner, repo, number)
	if err != nil {
		return models.IssueSummary{}, err
	}
	return board.ToIssueSummary(*issue, owner, repo), nil
}

// UpdateIssueLabels replaces the label set of an issue.
func (g *Gateway) UpdateIssueLabels(ctx context.Context, owner, repo string, number int, names []string) error {
	_, err := g.remote.SetIssueLabels(ctx, owner, repo, number, names)
	return err
}

// MoveResult describes a completed move.
type MoveResult struct {
	From     models.Stage
	To       models.Stage
	WorkType models.WorkType
	Labels   []string
}

// MoveIssue swaps the issue's stage label for to and then dispatches the
// automation workflow with the issue's first work type. A failed dispatch
// fails the move even though the labels were already written.
func (g *Gateway) MoveIssue(ctx context.Context, owner, repo string, number int, to models.Stage) (MoveResult, error) {
	issue, err := g.remote.GetIssue(ctx, owner, repo, number)
	if err != nil {
		return MoveResult{}, err
	}
	names := issue.LabelNames()
	res := MoveResult{
		From:   board.ToIssueSummary(*issue, owner, repo).Status,
		To:     to,
		Labels: labels.ReplaceStage(names, to),
	}
	res.WorkType, _ = labels.FirstWorkType(names)

	if _, err := g.remote.SetIssueLabels(ctx, owner, repo, number, res.Labels); err != nil {
		return res, err
	}
	if err := g.DispatchWorkflow(ctx, owner, repo, number, to, res.WorkType); err != nil {
		return res, err
	}
	return res, nil
}

// DispatchWorkflow triggers the automation workflow for an issue. An empty
// work type is sent as "".
func (g *Gateway) DispatchWorkflow(ctx context.Context, owner, repo string, number int, status models.Stage, wt models.WorkType) error {
	return g.remote.DispatchWorkflow(ctx, owner, repo, g.workflow, github.DispatchWorkflowRequest{
		Ref: g.ref,
		Inputs: map[string]string{
			"issue":    strconv.Itoa(number),
			"status":   string(status),
			"workType": string(wt),
		},
	})
}

// Workflow returns the workflow dispatched by moves.
func (g *Gateway) Workflow() string { return g.workflow }

// Repo identifies a repository the authenticated user can access.
type Repo struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
}

// ListRepos lists accessible repositories, most recently updated first,
// without duplicates.
func (g *Gateway) ListRepos(ctx context.Context) ([]Repo, error) {
	raw, err := g.remote.ListUserRepositories(ctx, 100)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	seen := make(map[string]bool, len(raw))
	out := make([]Repo, 0, len(raw))
	for _, r := range raw {
		if r.Owner.Login == "" {
			continue
		}
		key := r.Owner.Login + "/" + r.Name
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, Repo{Owner: r.Owner.Login, Repo: r.Name})
	}
	return out, nil
}
