package gateway

import (
	"context"

	"github.com/joescharf/flowboard/internal/board"
	"github.com/joescharf/flowboard/internal/models"
)

// Scope binds a Gateway to one repository so it can back a board.Session.
type Scope struct {
	g     *Gateway
	Owner string
	Repo  string
}

var (
	_ board.Mover        = (*Scope)(nil)
	_ board.DrawerSource = (*Scope)(nil)
)

// Scope returns a view of g for owner/repo.
func (g *Gateway) Scope(owner, repo string) *Scope {
	return &Scope{g: g, Owner: owner, Repo: repo}
}

// Board loads the open issues grouped by stage.
func (s *Scope) Board(ctx context.Context) ([]models.IssueBoardColumn, error) {
	issues, err := s.g.FetchIssues(ctx, IssueFilter{Owner: s.Owner, Repo: s.Repo})
	if err != nil {
		return nil, err
	}
	return board.GroupByStage(issues), nil
}

func (s *Scope) MoveIssue(ctx context.Context, number int, to models.Stage) error {
	_, err := s.g.MoveIssue(ctx, s.Owner, s.Repo, number, to)
	return err
}

func (s *Scope) IssueArtifacts(ctx context.Context, number int) ([]models.ArtifactFile, error) {
	return s.g.IssueArtifacts(ctx, s.Owner, s.Repo, number)
}

func (s *Scope) IssueCompare(ctx context.Context, issue models.IssueSummary) (*models.CompareSummary, string, error) {
	return s.g.IssueDiff(ctx, s.Owner, s.Repo, issue.Number, DiffOptions{WorkType: issue.PrimaryWorkType()})
}

func (s *Scope) PullRequestForIssue(ctx context.Context, number int) (*models.PullRequestSummary, error) {
	return s.g.FindPullRequestForIssue(ctx, s.Owner, s.Repo, number)
}

func (s *Scope) ChecksForPullRequest(ctx context.Context, prNumber int) ([]models.WorkflowRunSummary, error) {
	return s.g.ListChecksForPullRequest(ctx, s.Owner, s.Repo, prNumber)
}
