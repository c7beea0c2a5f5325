package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joescharf/flowboard/internal/board"
	"github.com/joescharf/flowboard/internal/gateway"
	"github.com/joescharf/flowboard/internal/labels"
	"github.com/joescharf/flowboard/internal/models"
	"github.com/joescharf/flowboard/internal/store"
)

// Backend is the remote side of the board. *gateway.Gateway satisfies it.
type Backend interface {
	FetchIssues(ctx context.Context, f gateway.IssueFilter) ([]models.IssueSummary, error)
	GetIssue(ctx context.Context, owner, repo string, number int) (models.IssueSummary, error)
	MoveIssue(ctx context.Context, owner, repo string, number int, to models.Stage) (gateway.MoveResult, error)
	DispatchWorkflow(ctx context.Context, owner, repo string, number int, status models.Stage, wt models.WorkType) error
	IssueArtifacts(ctx context.Context, owner, repo string, number int) ([]models.ArtifactFile, error)
	IssueDiff(ctx context.Context, owner, repo string, number int, opts gateway.DiffOptions) (*models.CompareSummary, string, error)
	FindPullRequestForIssue(ctx context.Context, owner, repo string, number int) (*models.PullRequestSummary, error)
	ListChecksForPullRequest(ctx context.Context, owner, repo string, number int) ([]models.WorkflowRunSummary, error)
}

// Server exposes board operations as MCP tools.
type Server struct {
	backend      Backend
	activity     store.Store
	defaultOwner string
	defaultRepo  string
}

// NewServer creates the MCP server wrapper. activity may be nil.
func NewServer(b Backend, activity store.Store, defaultOwner, defaultRepo string) *Server {
	return &Server{
		backend:      b,
		activity:     activity,
		defaultOwner: defaultOwner,
		defaultRepo:  defaultRepo,
	}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("flowboard", "1.0.0", server.WithToolCapabilities(true))

	srv.AddTool(s.boardTool())
	srv.AddTool(s.issueTool())
	srv.AddTool(s.moveTool())
	srv.AddTool(s.advanceTool())
	srv.AddTool(s.orchestrateTool())
	srv.AddTool(s.activityTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

func repoOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("owner", mcp.Description("Repository owner. Defaults to the configured repository.")),
		mcp.WithString("repo", mcp.Description("Repository name. Defaults to the configured repository.")),
	}
}

func withOptions(base []mcp.ToolOption, extra ...mcp.ToolOption) []mcp.ToolOption {
	return append(base, extra...)
}

// flowboard_board
func (s *Server) boardTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("flowboard_board", withOptions(repoOptions(),
		mcp.WithDescription("List open issues grouped into stage columns (inception, discussion, build, review, done)."),
		mcp.WithString("status", mcp.Description("Comma-separated stages to include")),
		mcp.WithString("assignee", mcp.Description("Only issues assigned to this login")),
		mcp.WithString("label", mcp.Description("Comma-separated labels that must all be present")),
		mcp.WithString("query", mcp.Description("Case-insensitive text matched against title and body")),
	)...)
	return tool, s.handleBoard
}

type cardOut struct {
	Number    int               `json:"number"`
	Title     string            `json:"title"`
	URL       string            `json:"url"`
	WorkTypes []models.WorkType `json:"workTypes"`
	Assignees []string          `json:"assignees"`
}

type columnOut struct {
	Status models.Stage `json:"status"`
	Issues []cardOut    `json:"issues"`
}

func (s *Server) handleBoard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, repo, errResult := s.repoArgs(request)
	if errResult != nil {
		return errResult, nil
	}

	filter := gateway.IssueFilter{
		Owner:    owner,
		Repo:     repo,
		Assignee: request.GetString("assignee", ""),
		Labels:   splitList(request.GetString("label", "")),
		Query:    request.GetString("query", ""),
	}
	for _, v := range splitList(request.GetString("status", "")) {
		st, ok := labels.ParseStage(v)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown stage %q", v)), nil
		}
		filter.Statuses = append(filter.Statuses, st)
	}

	issues, err := s.backend.FetchIssues(ctx, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load issues: %v", err)), nil
	}

	columns := board.GroupByStage(issues)
	out := make([]columnOut, len(columns))
	for i, c := range columns {
		cards := make([]cardOut, len(c.Issues))
		for j, issue := range c.Issues {
			logins := make([]string, len(issue.Assignees))
			for k, a := range issue.Assignees {
				logins[k] = a.Login
			}
			cards[j] = cardOut{Number: issue.Number, Title: issue.Title, URL: issue.URL, WorkTypes: issue.WorkTypes, Assignees: logins}
		}
		out[i] = columnOut{Status: c.Status, Issues: cards}
	}
	return jsonResult(out)
}

// flowboard_issue
func (s *Server) issueTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("flowboard_issue", withOptions(repoOptions(),
		mcp.WithDescription("Show one issue with its drawer facets: generated artifacts, branch diff, linked pull request, and CI checks. Facets that fail to load are reported in facetErrors."),
		mcp.WithNumber("number", mcp.Required(), mcp.Description("Issue number")),
	)...)
	return tool, s.handleIssue
}

type artifactOut struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type issueOut struct {
	Issue       models.IssueSummary         `json:"issue"`
	Artifacts   []artifactOut               `json:"artifacts"`
	Branch      string                      `json:"branch,omitempty"`
	Compare     *models.CompareSummary      `json:"compare,omitempty"`
	PullRequest *models.PullRequestSummary  `json:"pullRequest,omitempty"`
	Checks      []models.WorkflowRunSummary `json:"checks"`
	FacetErrors map[string]string           `json:"facetErrors,omitempty"`
}

func (s *Server) handleIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, repo, errResult := s.repoArgs(request)
	if errResult != nil {
		return errResult, nil
	}
	number, err := intArg(request, "number")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	issue, err := s.backend.GetIssue(ctx, owner, repo, number)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("issue #%d not found: %v", number, err)), nil
	}

	src := &repoSource{backend: s.backend, owner: owner, repo: repo}
	sess := board.NewSession(src, src, nil)
	sess.Store.SetColumns(board.GroupByStage([]models.IssueSummary{issue}))
	if err := sess.Select(number); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sess.LoadDrawer(ctx)

	snap := sess.Drawer.Snapshot()
	out := issueOut{
		Issue:       *snap.Issue,
		Artifacts:   make([]artifactOut, 0, len(snap.Artifacts)),
		Branch:      snap.Branch,
		Compare:     snap.Compare,
		PullRequest: snap.PullRequest,
		Checks:      snap.Checks,
	}
	for _, a := range snap.Artifacts {
		out.Artifacts = append(out.Artifacts, artifactOut{Path: a.Path, Content: a.Content})
	}
	for _, f := range board.Facets() {
		if st := sess.Drawer.State(f); st.State == board.Failed {
			if out.FacetErrors == nil {
				out.FacetErrors = map[string]string{}
			}
			out.FacetErrors[f.String()] = st.Err.Error()
		}
	}
	return jsonResult(out)
}

// flowboard_move
func (s *Server) moveTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("flowboard_move", withOptions(repoOptions(),
		mcp.WithDescription("Move an issue to a stage. Replaces its status label and dispatches the automation workflow."),
		mcp.WithNumber("number", mcp.Required(), mcp.Description("Issue number")),
		mcp.WithString("stage", mcp.Required(), mcp.Description("Target stage"), mcp.Enum(stageNames()...)),
	)...)
	return tool, s.handleMove
}

func (s *Server) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, repo, errResult := s.repoArgs(request)
	if errResult != nil {
		return errResult, nil
	}
	number, err := intArg(request, "number")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := request.RequireString("stage")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: stage"), nil
	}
	to, ok := labels.ParseStage(raw)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown stage %q", raw)), nil
	}

	res, err := s.backend.MoveIssue(ctx, owner, repo, number, to)
	s.record(ctx, &models.Activity{
		Kind: models.ActivityMove, Owner: owner, Repo: repo, IssueNumber: number,
		FromStage: res.From, ToStage: to, WorkType: res.WorkType,
	}, err)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to move #%d: %v", number, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Moved #%d from %s to %s", number, res.From, to)), nil
}

// flowboard_advance
func (s *Server) advanceTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("flowboard_advance", withOptions(repoOptions(),
		mcp.WithDescription("Move an issue to the next stage. Issues already in done stay there."),
		mcp.WithNumber("number", mcp.Required(), mcp.Description("Issue number")),
	)...)
	return tool, s.handleAdvance
}

func (s *Server) handleAdvance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, repo, errResult := s.repoArgs(request)
	if errResult != nil {
		return errResult, nil
	}
	number, err := intArg(request, "number")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	issue, err := s.backend.GetIssue(ctx, owner, repo, number)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("issue #%d not found: %v", number, err)), nil
	}

	src := &repoSource{backend: s.backend, owner: owner, repo: repo}
	var notices noticeLog
	sess := board.NewSession(src, src, &notices)
	sess.Store.SetColumns(board.GroupByStage([]models.IssueSummary{issue}))

	stage, err := sess.Advance(ctx, number)
	if stage != issue.Status || err != nil {
		s.record(ctx, &models.Activity{
			Kind: models.ActivityMove, Owner: owner, Repo: repo, IssueNumber: number,
			FromStage: issue.Status, ToStage: labels.NextStage(issue.Status), WorkType: issue.PrimaryWorkType(),
		}, err)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(notices.String()), nil
}

// flowboard_orchestrate
func (s *Server) orchestrateTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("flowboard_orchestrate", withOptions(repoOptions(),
		mcp.WithDescription("Dispatch the automation workflow for an issue without changing its labels."),
		mcp.WithNumber("number", mcp.Required(), mcp.Description("Issue number")),
		mcp.WithString("status", mcp.Required(), mcp.Description("Stage passed to the workflow"), mcp.Enum(stageNames()...)),
		mcp.WithString("work_type", mcp.Description("Work type passed to the workflow")),
	)...)
	return tool, s.handleOrchestrate
}

func (s *Server) handleOrchestrate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, repo, errResult := s.repoArgs(request)
	if errResult != nil {
		return errResult, nil
	}
	number, err := intArg(request, "number")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := request.RequireString("status")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: status"), nil
	}
	status, ok := labels.ParseStage(raw)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown stage %q", raw)), nil
	}
	var wt models.WorkType
	if v := request.GetString("work_type", ""); v != "" {
		if wt, ok = labels.ParseWorkType(v); !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown work type %q", v)), nil
		}
	}

	err = s.backend.DispatchWorkflow(ctx, owner, repo, number, status, wt)
	s.record(ctx, &models.Activity{
		Kind: models.ActivityOrchestrate, Owner: owner, Repo: repo, IssueNumber: number,
		ToStage: status, WorkType: wt,
	}, err)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to dispatch workflow: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Dispatched workflow for #%d (%s)", number, status)), nil
}

// flowboard_activity
func (s *Server) activityTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("flowboard_activity", withOptions(repoOptions(),
		mcp.WithDescription("List recent writes made through flowboard (moves, workflow dispatches, pull requests), newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum entries to return (default 50)")),
	)...)
	return tool, s.handleActivity
}

func (s *Server) handleActivity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.activity == nil {
		return mcp.NewToolResultError("activity log is not configured"), nil
	}
	limit, _ := intArg(request, "limit")
	entries, err := s.activity.ListActivity(ctx, store.ActivityFilter{
		Owner: request.GetString("owner", ""),
		Repo:  request.GetString("repo", ""),
		Limit: limit,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list activity: %v", err)), nil
	}
	if entries == nil {
		entries = []*models.Activity{}
	}
	return jsonResult(entries)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *Server) repoArgs(request mcp.CallToolRequest) (owner, repo string, errResult *mcp.CallToolResult) {
	owner = request.GetString("owner", s.defaultOwner)
	repo = request.GetString("repo", s.defaultRepo)
	if owner == "" || repo == "" {
		return "", "", mcp.NewToolResultError("owner and repo are required (no default repository configured)")
	}
	return owner, repo, nil
}

func (s *Server) record(ctx context.Context, a *models.Activity, err error) {
	if s.activity == nil {
		return
	}
	a.Outcome = models.OutcomeOK
	if err != nil {
		a.Outcome = models.OutcomeFailed
		a.Detail = err.Error()
	}
	if rerr := s.activity.RecordActivity(ctx, a); rerr != nil {
		slog.Warn("failed to record activity", "kind", a.Kind, "issue", a.IssueNumber, "error", rerr)
	}
}

// intArg reads an integer argument sent either as a JSON number or a string.
func intArg(request mcp.CallToolRequest, key string) (int, error) {
	v, ok := request.GetArguments()[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("missing required parameter: %s", key)
	}
	switch n := v.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%s must be an integer", key)
		}
		return int(n), nil
	case int:
		return n, nil
	case string:
		i, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(n), "#"))
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer", key)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%s must be an integer", key)
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func stageNames() []string {
	stages := models.Stages()
	out := make([]string, len(stages))
	for i, s := range stages {
		out[i] = string(s)
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// repoSource adapts a Backend to one repository for a board.Session.
type repoSource struct {
	backend Backend
	owner   string
	repo    string
}

func (r *repoSource) MoveIssue(ctx context.Context, number int, to models.Stage) error {
	_, err := r.backend.MoveIssue(ctx, r.owner, r.repo, number, to)
	return err
}

func (r *repoSource) IssueArtifacts(ctx context.Context, number int) ([]models.ArtifactFile, error) {
	return r.backend.IssueArtifacts(ctx, r.owner, r.repo, number)
}

func (r *repoSource) IssueCompare(ctx context.Context, issue models.IssueSummary) (*models.CompareSummary, string, error) {
	return r.backend.IssueDiff(ctx, r.owner, r.repo, issue.Number, gateway.DiffOptions{WorkType: issue.PrimaryWorkType()})
}

func (r *repoSource) PullRequestForIssue(ctx context.Context, number int) (*models.PullRequestSummary, error) {
	return r.backend.FindPullRequestForIssue(ctx, r.owner, r.repo, number)
}

func (r *repoSource) ChecksForPullRequest(ctx context.Context, prNumber int) ([]models.WorkflowRunSummary, error) {
	return r.backend.ListChecksForPullRequest(ctx, r.owner, r.repo, prNumber)
}

// noticeLog collects session notices as text.
type noticeLog struct {
	mu    sync.Mutex
	lines []string
}

func (n *noticeLog) Notify(notice board.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lines = append(n.lines, notice.Message)
}

func (n *noticeLog) String() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return strings.Join(n.lines, "\n")
}
