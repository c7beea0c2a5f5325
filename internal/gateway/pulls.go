package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/joescharf/flowboard/internal/github"
	"github.com/joescharf/flowboard/internal/labels"
	"github.com/joescharf/flowboard/internal/llm"
	"github.com/joescharf/flowboard/internal/models"
)

const (
	reviewsPerPage = 20
	runsPerPage    = 20
	searchPerPage  = 5
	maxTitleLen    = 250
	prSummaryPath  = "ops/out/PR_SUMMARY.md"
)

// ErrNoBranch is returned when no branch can be found for an issue.
var ErrNoBranch = errors.New("unable to determine branch for pull request; provide a head branch")

// GetPullRequest returns a pull request with its reviewers and the combined
// CI status of its head commit.
func (g *Gateway) GetPullRequest(ctx context.Context, owner, repo string, number int) (*models.PullRequestSummary, error) {
	pr, err := g.remote.GetPullRequest(ctx, owner, repo, number)
	if err != nil {
		return nil, err
	}
	return g.summarizePullRequest(ctx, owner, repo, pr)
}

func (g *Gateway) summarizePullRequest(ctx context.Context, owner, repo string, pr *github.PullRequest) (*models.PullRequestSummary, error) {
	out := &models.PullRequestSummary{
		ID:              pr.ID,
		Number:          pr.Number,
		Title:           pr.Title,
		URL:             pr.HTMLURL,
		Status:          models.PRStatus(pr.State),
		Mergeable:       mergeability(pr.MergeableState),
		StateReason:     pr.StateReason,
		LatestCommitSHA: pr.Head.SHA,
		Reviewers:       []models.Reviewer{},
	}
	if pr.Merged {
		out.Status = models.PRStatusMerged
	}

	// A missing combined status leaves ciStatus unset rather than failing the facet.
	if pr.Head.SHA != "" {
		status, err := g.remote.GetCombinedStatus(ctx, owner, repo, pr.Head.SHA)
		if err != nil {
			g.logger.Debug("combined status unavailable", "owner", owner, "repo", repo, "pr", pr.Number, "error", err)
		} else {
			out.CIStatus = ciStatus(status.State)
		}
	}

	reviews, err := g.remote.ListReviews(ctx, owner, repo, pr.Number, reviewsPerPage)
	if err != nil {
		return nil, err
	}
	for _, r := range reviews {
		rv := models.Reviewer{Login: "unknown", State: models.ReviewState(r.State)}
		if r.User != nil {
			rv.Login = r.User.Login
			rv.AvatarURL = r.User.AvatarURL
		}
		out.Reviewers = append(out.Reviewers, rv)
	}

	if g.summarizer != nil {
		reviewers := make([]string, 0, len(out.Reviewers))
		for _, r := range out.Reviewers {
			reviewers = append(reviewers, r.Login+":"+string(r.State))
		}
		text, err := g.summarizer.SummarizePullRequest(ctx, llm.PullRequestContext{
			Number:    pr.Number,
			Title:     pr.Title,
			Body:      pr.Body,
			HeadRef:   pr.Head.Ref,
			BaseRef:   pr.Base.Ref,
			CIStatus:  string(out.CIStatus),
			Reviewers: reviewers,
		})
		if err != nil {
			g.logger.Warn("pull request summary failed", "pr", pr.Number, "error", err)
		} else {
			out.GeneratedSummary = text
		}
	}
	return out, nil
}

func ciStatus(state string) models.CIStatus {
	switch state {
	case "success":
		return models.CIStatusSuccess
	case "failure":
		return models.CIStatusFailure
	default:
		return models.CIStatusPending
	}
}

func mergeability(state string) models.Mergeability {
	switch state {
	case "clean", "unstable", "has_hooks", string(models.MergeableClean):
		return models.MergeableClean
	case "dirty", string(models.MergeableConflicting):
		return models.MergeableConflicting
	default:
		return models.MergeableUnknown
	}
}

// FindPullRequestForIssue searches for a pull request whose body references
// the issue as "#N". It returns nil when none is found.
func (g *Gateway) FindPullRequestForIssue(ctx context.Context, owner, repo string, issue int) (*models.PullRequestSummary, error) {
	q := fmt.Sprintf(`repo:%s/%s type:pr "%d" in:body`, owner, repo, issue)
	items, err := g.remote.SearchIssues(ctx, q, searchPerPage)
	if err != nil {
		return nil, err
	}
	ref := fmt.Sprintf("#%d", issue)
	for _, item := range items {
		if strings.Contains(item.Body, ref) {
			return g.GetPullRequest(ctx, owner, repo, item.Number)
		}
	}
	return nil, nil
}

// ListChecksForPullRequest lists recent workflow runs on the pull request's head branch.
func (g *Gateway) ListChecksForPullRequest(ctx context.Context, owner, repo string, number int) ([]models.WorkflowRunSummary, error) {
	pr, err := g.remote.GetPullRequest(ctx, owner, repo, number)
	if err != nil {
		return nil, err
	}
	runs, err := g.remote.ListWorkflowRuns(ctx, owner, repo, pr.Head.Ref, runsPerPage)
	if err != nil {
		return nil, err
	}
	out := make([]models.WorkflowRunSummary, 0, len(runs))
	for _, r := range runs {
		out = append(out, toRunSummary(r))
	}
	return out, nil
}

func toRunSummary(r github.WorkflowRun) models.WorkflowRunSummary {
	name := r.Name
	if name == "" {
		name = r.DisplayTitle
	}
	if name == "" {
		name = "Workflow Run"
	}
	status := r.Status
	if status == "" {
		status = "unknown"
	}
	out := models.WorkflowRunSummary{
		ID:         r.ID,
		Name:       name,
		Event:      r.Event,
		Status:     status,
		Conclusion: r.Conclusion,
		HTMLURL:    r.HTMLURL,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		RunNumber:  r.RunNumber,
	}
	if r.RunStartedAt != nil && !r.RunStartedAt.IsZero() && !r.UpdatedAt.IsZero() {
		ms := r.UpdatedAt.Sub(*r.RunStartedAt).Milliseconds()
		out.DurationMs = &ms
	}
	return out
}

// OpenPullRequestInput holds the optional overrides for OpenPullRequest.
type OpenPullRequestInput struct {
	Head  string
	Base  string
	Title string
	Body  string
}

// OpenPullRequestResult reports what OpenPullRequest did.
type OpenPullRequestResult struct {
	Action string              `json:"action"` // "created" or "updated"
	Pull   *github.PullRequest `json:"pull"`
}

// OpenPullRequest opens a pull request for an issue, or updates the open one
// already on its branch. The head branch defaults to the detected issue
// branch, the base to the repository default branch, and the body to
// ops/out/PR_SUMMARY.md. The body always ends up containing "Fixes #N".
// A newly created pull request moves the issue to review.
func (g *Gateway) OpenPullRequest(ctx context.Context, owner, repo string, number int, in OpenPullRequestInput) (OpenPullRequestResult, error) {
	repository, err := g.remote.GetRepository(ctx, owner, repo)
	if err != nil {
		return OpenPullRequestResult{}, err
	}
	base := in.Base
	if base == "" {
		base = repository.DefaultBranch
	}

	issue, err := g.remote.GetIssue(ctx, owner, repo, number)
	if err != nil {
		return OpenPullRequestResult{}, err
	}
	names := issue.LabelNames()

	head := in.Head
	if head == "" {
		wt, _ := labels.FirstWorkType(names)
		head, err = g.DetectIssueBranch(ctx, owner, repo, number, wt)
		if err != nil {
			return OpenPullRequestResult{}, err
		}
		if head == "" {
			return OpenPullRequestResult{}, ErrNoBranch
		}
	}

	body := in.Body
	if body == "" {
		f, err := g.GetFileIfExists(ctx, owner, repo, prSummaryPath)
		if err != nil {
			return OpenPullRequestResult{}, err
		}
		if f != nil {
			body = f.Content
		}
	}
	body = withFixesLine(body, number)

	title := in.Title
	if title == "" {
		title = truncate(fmt.Sprintf("[%d] %s", number, issue.Title), maxTitleLen)
	}

	existing, err := g.remote.ListPullRequests(ctx, owner, repo, owner+":"+head, "open")
	if err != nil {
		return OpenPullRequestResult{}, err
	}
	if len(existing) > 0 {
		pr, err := g.remote.UpdatePullRequest(ctx, owner, repo, existing[0].Number, github.UpdatePullRequestRequest{
			Title: title,
			Body:  body,
			Base:  base,
		})
		if err != nil {
			return OpenPullRequestResult{}, err
		}
		return OpenPullRequestResult{Action: "updated", Pull: pr}, nil
	}

	pr, err := g.remote.CreatePullRequest(ctx, owner, repo, github.CreatePullRequestRequest{
		Title: title,
		Body:  body,
		Head:  head,
		Base:  base,
	})
	if err != nil {
		return OpenPullRequestResult{}, err
	}
	if _, err := g.remote.SetIssueLabels(ctx, owner, repo, number, labels.ReplaceStage(names, models.StageReview)); err != nil {
		return OpenPullRequestResult{Action: "created", Pull: pr}, fmt.Errorf("pull request #%d created but labelling issue failed: %w", pr.Number, err)
	}
	return OpenPullRequestResult{Action: "created", Pull: pr}, nil
}

func withFixesLine(body string, number int) string {
	fixes := fmt.Sprintf("Fixes #%d", number)
	if strings.Contains(body, fixes) {
		return body
	}
	return strings.TrimSpace(body) + "\n\n" + fixes
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
