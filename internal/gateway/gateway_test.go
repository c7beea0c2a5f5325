package gateway

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/joescharf/flowboard/internal/github"
	"github.com/joescharf/flowboard/internal/llm"
	"github.com/joescharf/flowboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRemote is an in-memory Remote. Unset responses return 404.
type fakeRemote struct {
	mu sync.Mutex

	issues     []github.Issue
	issue      map[int]*github.Issue
	listOpts   github.ListIssuesOptions
	setLabels  map[int][]string
	labelsErr  error
	search     []github.SearchItem
	searchQ    string
	pulls      map[int]*github.PullRequest
	openPulls  []github.PullRequest
	listHead   string
	created    *github.CreatePullRequestRequest
	updated    *github.UpdatePullRequestRequest
	reviews    []github.Review
	status     *github.CombinedStatus
	repo       *github.Repository
	userRepos  []github.Repository
	branches   map[string]bool
	branchErr  error
	branchHits []string
	compare    *github.Comparison
	files      map[string]string
	dispatches []github.DispatchWorkflowRequest
	dispatchTo string
	dispErr    error
	runs       []github.WorkflowRun
	runsBranch string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		issue:     map[int]*github.Issue{},
		setLabels: map[int][]string{},
		pulls:     map[int]*github.PullRequest{},
		branches:  map[string]bool{},
		files:     map[string]string{},
	}
}

func notFound() error { return &github.APIError{StatusCode: 404, Message: "Not Found"} }

func (f *fakeRemote) ListIssues(_ context.Context, _, _ string, opts github.ListIssuesOptions) ([]github.Issue, error) {
	f.listOpts = opts
	return f.issues, nil
}

func (f *fakeRemote) GetIssue(_ context.Context, _, _ string, n int) (*github.Issue, error) {
	if i, ok := f.issue[n]; ok {
		return i, nil
	}
	return nil, notFound()
}

func (f *fakeRemote) SetIssueLabels(_ context.Context, _, _ string, n int, ls []string) (*github.Issue, error) {
	if f.labelsErr != nil {
		return nil, f.labelsErr
	}
	f.setLabels[n] = ls
	return &github.Issue{Number: n}, nil
}

func (f *fakeRemote) SearchIssues(_ context.Context, q string, _ int) ([]github.SearchItem, error) {
	f.searchQ = q
	return f.search, nil
}

func (f *fakeRemote) GetPullRequest(_ context.Context, _, _ string, n int) (*github.PullRequest, error) {
	if pr, ok := f.pulls[n]; ok {
		return pr, nil
	}
	return nil, notFound()
}

func (f *fakeRemote) ListPullRequests(_ context.Context, _, _, head, _ string) ([]github.PullRequest, error) {
	f.listHead = head
	return f.openPulls, nil
}

func (f *fakeRemote) CreatePullRequest(_ context.Context, _, _ string, req github.CreatePullRequestRequest) (*github.PullRequest, error) {
	f.created = &req
	return &github.PullRequest{Number: 500, Title: req.Title, Body: req.Body}, nil
}

func (f *fakeRemote) UpdatePullRequest(_ context.Context, _, _ string, n int, req github.UpdatePullRequestRequest) (*github.PullRequest, error) {
	f.updated = &req
	return &github.PullRequest{Number: n, Title: req.Title, Body: req.Body}, nil
}

func (f *fakeRemote) ListReviews(context.Context, string, string, int, int) ([]github.Review, error) {
	return f.reviews, nil
}

func (f *fakeRemote) GetCombinedStatus(context.Context, string, string, string) (*github.CombinedStatus, error) {
	if f.status == nil {
		return nil, notFound()
	}
	return f.status, nil
}

func (f *fakeRemote) GetRepository(context.Context, string, string) (*github.Repository, error) {
	if f.repo == nil {
		return nil, notFound()
	}
	return f.repo, nil
}

func (f *fakeRemote) ListUserRepositories(context.Context, int) ([]github.Repository, error) {
	return f.userRepos, nil
}

func (f *fakeRemote) GetBranch(_ context.Context, _, _, branch string) (*github.Branch, error) {
	f.mu.Lock()
	f.branchHits = append(f.branchHits, branch)
	f.mu.Unlock()
	if f.branchErr != nil {
		return nil, f.branchErr
	}
	if f.branches[branch] {
		return &github.Branch{Name: branch}, nil
	}
	return nil, notFound()
}

func (f *fakeRemote) Compare(context.Context, string, string, string, string) (*github.Comparison, error) {
	if f.compare == nil {
		return nil, notFound()
	}
	return f.compare, nil
}

func (f *fakeRemote) GetContent(_ context.Context, _, _, p string) (*github.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.files[p]
	if !ok {
		return nil, notFound()
	}
	return &github.Content{Type: "file", Path: p, Encoding: "base64", Content: base64.StdEncoding.EncodeToString([]byte(body))}, nil
}

func (f *fakeRemote) DispatchWorkflow(_ context.Context, _, _, wf string, req github.DispatchWorkflowRequest) error {
	f.dispatchTo = wf
	f.dispatches = append(f.dispatches, req)
	return f.dispErr
}

func (f *fakeRemote) ListWorkflowRuns(_ context.Context, _, _, branch string, _ int) ([]github.WorkflowRun, error) {
	f.runsBranch = branch
	return f.runs, nil
}

func labelsOf(names ...string) []github.IssueLabel {
	out := make([]github.IssueLabel, len(names))
	for i, n := range names {
		out[i] = github.IssueLabel{Name: n}
	}
	return out
}

func TestFetchIssues_StatusFilter(t *testing.T) {
	r := newFakeRemote()
	r.issues = []github.Issue{
		{Number: 1, Title: "Build the thing", Labels: labelsOf("status:build", "feature")},
		{Number: 2, Title: "A pull request", Labels: labelsOf("status:build"), PullRequest: []byte(`{"url":"x"}`)},
		{Number: 3, Title: "Also build", Labels: labelsOf("status:review")},
	}
	g := New(r, Config{})

	got, err := g.FetchIssues(context.Background(), IssueFilter{
		Owner: "acme", Repo: "widgets",
		Statuses: []models.Stage{models.StageBuild},
		Labels:   []string{"ignored"},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"status:build"}, r.listOpts.Labels)
	assert.Equal(t, "open", r.listOpts.State)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Number)
	assert.Equal(t, "acme", got[0].Repository.Owner)
}

func TestFetchIssues_QueryAndLabels(t *testing.T) {
	r := newFakeRemote()
	r.issues = []github.Issue{
		{Number: 1, Title: "Fix Login", Body: ""},
		{Number: 2, Title: "Other", Body: "mentions LOGIN flow"},
		{Number: 3, Title: "Unrelated"},
	}
	g := New(r, Config{})

	got, err := g.FetchIssues(context.Background(), IssueFilter{Owner: "o", Repo: "r", Labels: []string{"bugfix"}, Query: " login "})

	require.NoError(t, err)
	assert.Equal(t, []string{"bugfix"}, r.listOpts.Labels)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Number)
	assert.Equal(t, 2, got[1].Number)
}

func TestMoveIssue(t *testing.T) {
	r := newFakeRemote()
	r.issue[42] = &github.Issue{Number: 42, Labels: labelsOf("status:build", "status:bogus", "feature", "docs")}
	g := New(r, Config{Ref: "trunk"})

	res, err := g.MoveIssue(context.Background(), "acme", "widgets", 42, models.StageReview)

	require.NoError(t, err)
	assert.Equal(t, models.StageBuild, res.From)
	assert.Equal(t, models.WorkTypeFeature, res.WorkType)
	assert.Equal(t, []string{"feature", "docs", "status:review"}, r.setLabels[42])
	require.Len(t, r.dispatches, 1)
	assert.Equal(t, DefaultWorkflow, r.dispatchTo)
	assert.Equal(t, "trunk", r.dispatches[0].Ref)
	assert.Equal(t, map[string]string{"issue": "42", "status": "review", "workType": "feature"}, r.dispatches[0].Inputs)
}

func TestMoveIssue_DispatchFailureFailsMove(t *testing.T) {
	r := newFakeRemote()
	r.issue[7] = &github.Issue{Number: 7}
	r.dispErr = errors.New("workflow not found")
	g := New(r, Config{})

	_, err := g.MoveIssue(context.Background(), "o", "r", 7, models.StageBuild)

	require.Error(t, err)
	assert.Equal(t, []string{"status:build"}, r.setLabels[7])
	assert.Equal(t, "", r.dispatches[0].Inputs["workType"])
}

func TestMoveIssue_MissingIssue(t *testing.T) {
	g := New(newFakeRemote(), Config{})
	_, err := g.MoveIssue(context.Background(), "o", "r", 1, models.StageBuild)
	assert.True(t, github.IsNotFound(err))
}

func TestGetPullRequest(t *testing.T) {
	r := newFakeRemote()
	r.pulls[12] = &github.PullRequest{
		ID: 1, Number: 12, Title: "t", State: "closed", Merged: true, MergeableState: "dirty",
		Head: github.PullRequestRef{Ref: "nav/feature-3", SHA: "abc"},
	}
	r.status = &github.CombinedStatus{State: "error"}
	r.reviews = []github.Review{
		{User: &github.User{Login: "alice", AvatarURL: "a"}, State: "APPROVED"},
		{State: "COMMENTED"},
	}
	g := New(r, Config{})

	pr, err := g.GetPullRequest(context.Background(), "o", "r", 12)

	require.NoError(t, err)
	assert.Equal(t, models.PRStatusMerged, pr.Status)
	assert.Equal(t, models.MergeableConflicting, pr.Mergeable)
	assert.Equal(t, models.CIStatusPending, pr.CIStatus)
	assert.Equal(t, "abc", pr.LatestCommitSHA)
	require.Len(t, pr.Reviewers, 2)
	assert.Equal(t, "alice", pr.Reviewers[0].Login)
	assert.Equal(t, "unknown", pr.Reviewers[1].Login)
	assert.Empty(t, pr.GeneratedSummary)
}

func TestGetPullRequest_StatusUnavailable(t *testing.T) {
	r := newFakeRemote()
	r.pulls[1] = &github.PullRequest{Number: 1, State: "open", Head: github.PullRequestRef{SHA: "abc"}}
	g := New(r, Config{})

	pr, err := g.GetPullRequest(context.Background(), "o", "r", 1)

	require.NoError(t, err)
	assert.Equal(t, models.PRStatusOpen, pr.Status)
	assert.Equal(t, models.MergeableUnknown, pr.Mergeable)
	assert.Empty(t, pr.CIStatus)
	assert.NotNil(t, pr.Reviewers)
}

type fakeSummarizer struct {
	got llm.PullRequestContext
	err error
}

func (f *fakeSummarizer) SummarizePullRequest(_ context.Context, pr llm.PullRequestContext) (string, error) {
	f.got = pr
	return "Adds the drawer.", f.err
}

func TestGetPullRequest_GeneratedSummary(t *testing.T) {
	r := newFakeRemote()
	r.pulls[3] = &github.PullRequest{Number: 3, Title: "[3] x", Body: "body", State: "open",
		Head: github.PullRequestRef{Ref: "nav/3", SHA: "s"}, Base: github.PullRequestRef{Ref: "main"}}
	r.status = &github.CombinedStatus{State: "success"}
	s := &fakeSummarizer{}
	g := New(r, Config{Summarizer: s})

	pr, err := g.GetPullRequest(context.Background(), "o", "r", 3)

	require.NoError(t, err)
	assert.Equal(t, "Adds the drawer.", pr.GeneratedSummary)
	assert.Equal(t, "success", s.got.CIStatus)
	assert.Equal(t, "nav/3", s.got.HeadRef)

	s.err = errors.New("quota")
	pr, err = g.GetPullRequest(context.Background(), "o", "r", 3)
	require.NoError(t, err, "summary failures never fail the pull request")
	assert.Empty(t, pr.GeneratedSummary)
}

func TestFindPullRequestForIssue(t *testing.T) {
	r := newFakeRemote()
	r.search = []github.SearchItem{
		{Number: 8, Body: "mentions 42 but not as a ref"},
		{Number: 9, Body: "Fixes #42"},
	}
	r.pulls[9] = &github.PullRequest{Number: 9, State: "open"}
	g := New(r, Config{})

	pr, err := g.FindPullRequestForIssue(context.Background(), "acme", "widgets", 42)

	require.NoError(t, err)
	require.NotNil(t, pr)
	assert.Equal(t, 9, pr.Number)
	assert.Equal(t, `repo:acme/widgets type:pr "42" in:body`, r.searchQ)
}

func TestFindPullRequestForIssue_None(t *testing.T) {
	r := newFakeRemote()
	r.search = []github.SearchItem{{Number: 8, Body: "nothing"}}
	g := New(r, Config{})

	pr, err := g.FindPullRequestForIssue(context.Background(), "o", "r", 42)

	require.NoError(t, err)
	assert.Nil(t, pr)
}

func TestListChecksForPullRequest(t *testing.T) {
	started := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := newFakeRemote()
	r.pulls[5] = &github.PullRequest{Number: 5, Head: github.PullRequestRef{Ref: "nav/feature-5"}}
	r.runs = []github.WorkflowRun{
		{ID: 1, Name: "CI", Status: "completed", RunStartedAt: &started, UpdatedAt: started.Add(90 * time.Second)},
		{ID: 2, DisplayTitle: "Nightly"},
		{ID: 3},
	}
	g := New(r, Config{})

	runs, err := g.ListChecksForPullRequest(context.Background(), "o", "r", 5)

	require.NoError(t, err)
	assert.Equal(t, "nav/feature-5", r.runsBranch)
	require.Len(t, runs, 3)
	require.NotNil(t, runs[0].DurationMs)
	assert.Equal(t, int64(90000), *runs[0].DurationMs)
	assert.Equal(t, "Nightly", runs[1].Name)
	assert.Nil(t, runs[1].DurationMs)
	assert.Equal(t, "Workflow Run", runs[2].Name)
	assert.Equal(t, "unknown", runs[2].Status)
}

func TestBranchCandidates(t *testing.T) {
	assert.Equal(t, []string{"nav/bugfix-7", "nav/bugfix-7-7", "nav/7", "bugfix/7"}, BranchCandidates(7, models.WorkTypeBugfix))
	assert.Equal(t, []string{"nav/feature-7", "nav/feature-7-7", "nav/7", "7"}, BranchCandidates(7, ""))
}

func TestDetectIssueBranch(t *testing.T) {
	r := newFakeRemote()
	r.branches["nav/7"] = true
	g := New(r, Config{})

	branch, err := g.DetectIssueBranch(context.Background(), "o", "r", 7, "")

	require.NoError(t, err)
	assert.Equal(t, "nav/7", branch)
	assert.Equal(t, []string{"nav/feature-7", "nav/feature-7-7", "nav/7"}, r.branchHits)
}

func TestDetectIssueBranch_NoneAndErrors(t *testing.T) {
	r := newFakeRemote()
	g := New(r, Config{})
	branch, err := g.DetectIssueBranch(context.Background(), "o", "r", 7, "")
	require.NoError(t, err)
	assert.Empty(t, branch)

	r.branchErr = &github.APIError{StatusCode: 401, Message: "Bad credentials"}
	_, err = g.DetectIssueBranch(context.Background(), "o", "r", 7, "")
	assert.True(t, github.IsUnauthorized(err))
}

func TestIssueArtifacts(t *testing.T) {
	r := newFakeRemote()
	r.files["ops/specs/12__context.md"] = "# Context\n\nHello"
	r.files["ops/out/PR_SUMMARY.md"] = "summary"
	g := New(r, Config{})

	arts, err := g.IssueArtifacts(context.Background(), "o", "r", 12)

	require.NoError(t, err)
	require.Len(t, arts, 2)
	assert.Equal(t, "ops/specs/12__context.md", arts[0].Path)
	assert.Equal(t, "12__context.md", arts[0].Name)
	assert.Equal(t, "# Context\n\nHello", arts[0].Content)
	assert.Contains(t, arts[0].HTML, "<h1>Context</h1>")
	assert.Equal(t, "ops/out/PR_SUMMARY.md", arts[1].Path)
}

func TestIssueDiff(t *testing.T) {
	r := newFakeRemote()
	r.repo = &github.Repository{DefaultBranch: "trunk"}
	r.branches["nav/docs-4"] = true
	r.compare = &github.Comparison{AheadBy: 2, HTMLURL: "u", Files: []github.CompareFile{{Filename: "a.md", Status: "added", Additions: 3}}}
	g := New(r, Config{})

	cmp, branch, err := g.IssueDiff(context.Background(), "o", "r", 4, DiffOptions{WorkType: models.WorkTypeDocs})

	require.NoError(t, err)
	assert.Equal(t, "nav/docs-4", branch)
	assert.Equal(t, "trunk", cmp.BaseRef)
	assert.Equal(t, "nav/docs-4", cmp.HeadRef)
	assert.Equal(t, models.FileAdded, cmp.Files[0].Status)
	assert.Equal(t, "u", cmp.PermalinkURL)
}

func TestIssueDiff_NoBranch(t *testing.T) {
	r := newFakeRemote()
	r.repo = &github.Repository{DefaultBranch: "main"}
	g := New(r, Config{})

	cmp, branch, err := g.IssueDiff(context.Background(), "o", "r", 4, DiffOptions{})

	require.NoError(t, err)
	assert.Nil(t, cmp)
	assert.Empty(t, branch)
}

func TestOpenPullRequest_Create(t *testing.T) {
	r := newFakeRemote()
	r.repo = &github.Repository{DefaultBranch: "main"}
	r.issue[9] = &github.Issue{Number: 9, Title: "Ship it", Labels: labelsOf("status:build", "bugfix")}
	r.branches["nav/bugfix-9"] = true
	r.files["ops/out/PR_SUMMARY.md"] = "## Summary\n\nDone.\n"
	g := New(r, Config{})

	res, err := g.OpenPullRequest(context.Background(), "acme", "widgets", 9, OpenPullRequestInput{})

	require.NoError(t, err)
	assert.Equal(t, "created", res.Action)
	require.NotNil(t, r.created)
	assert.Equal(t, "nav/bugfix-9", r.created.Head)
	assert.Equal(t, "main", r.created.Base)
	assert.Equal(t, "[9] Ship it", r.created.Title)
	assert.Equal(t, "## Summary\n\nDone.\n\nFixes #9", r.created.Body)
	assert.Equal(t, "acme:nav/bugfix-9", r.listHead)
	assert.Equal(t, []string{"bugfix", "status:review"}, r.setLabels[9])
}

func TestOpenPullRequest_UpdateExisting(t *testing.T) {
	r := newFakeRemote()
	r.repo = &github.Repository{DefaultBranch: "main"}
	r.issue[9] = &github.Issue{Number: 9, Title: "Ship it"}
	r.openPulls = []github.PullRequest{{Number: 77}}
	g := New(r, Config{})

	res, err := g.OpenPullRequest(context.Background(), "o", "r", 9, OpenPullRequestInput{
		Head: "my-branch", Base: "dev", Title: "Custom", Body: "Body. Fixes #9",
	})

	require.NoError(t, err)
	assert.Equal(t, "updated", res.Action)
	assert.Equal(t, 77, res.Pull.Number)
	assert.Equal(t, "Body. Fixes #9", r.updated.Body)
	assert.Equal(t, "dev", r.updated.Base)
	assert.Nil(t, r.created)
	assert.Empty(t, r.setLabels, "an update leaves labels alone")
}

func TestOpenPullRequest_NoBranch(t *testing.T) {
	r := newFakeRemote()
	r.repo = &github.Repository{DefaultBranch: "main"}
	r.issue[9] = &github.Issue{Number: 9}
	g := New(r, Config{})

	_, err := g.OpenPullRequest(context.Background(), "o", "r", 9, OpenPullRequestInput{})

	assert.ErrorIs(t, err, ErrNoBranch)
}

func TestTruncateTitle(t *testing.T) {
	long := make([]rune, 300)
	for i := range long {
		long[i] = 'é'
	}
	assert.Len(t, []rune(truncate(string(long), maxTitleLen)), maxTitleLen)
	assert.Equal(t, "short", truncate("short", maxTitleLen))
}

func TestListRepos_Dedupes(t *testing.T) {
	r := newFakeRemote()
	r.userRepos = []github.Repository{
		{Name: "a", Owner: github.User{Login: "acme"}},
		{Name: "a", Owner: github.User{Login: "acme"}},
		{Name: "orphan"},
		{Name: "b", Owner: github.User{Login: "acme"}},
	}
	g := New(r, Config{})

	repos, err := g.ListRepos(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []Repo{{Owner: "acme", Repo: "a"}, {Owner: "acme", Repo: "b"}}, repos)
}

func TestRenderMarkdown(t *testing.T) {
	assert.Empty(t, RenderMarkdown(""))
	html := RenderMarkdown("- [x] done\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, `type="checkbox"`)
}
