package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/joescharf/flowboard/internal/board"
	"github.com/joescharf/flowboard/internal/gateway"
	"github.com/joescharf/flowboard/internal/labels"
	"github.com/joescharf/flowboard/internal/models"
	"github.com/joescharf/flowboard/internal/store"
)

// Backend is the remote side of the API. *gateway.Gateway satisfies it.
type Backend interface {
	FetchIssues(ctx context.Context, f gateway.IssueFilter) ([]models.IssueSummary, error)
	MoveIssue(ctx context.Context, owner, repo string, number int, to models.Stage) (gateway.MoveResult, error)
	DispatchWorkflow(ctx context.Context, owner, repo string, number int, status models.Stage, wt models.WorkType) error
	IssueArtifacts(ctx context.Context, owner, repo string, number int) ([]models.ArtifactFile, error)
	IssueDiff(ctx context.Context, owner, repo string, number int, opts gateway.DiffOptions) (*models.CompareSummary, string, error)
	ListChecksForPullRequest(ctx context.Context, owner, repo string, number int) ([]models.WorkflowRunSummary, error)
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*models.PullRequestSummary, error)
	FindPullRequestForIssue(ctx context.Context, owner, repo string, number int) (*models.PullRequestSummary, error)
	OpenPullRequest(ctx context.Context, owner, repo string, number int, in gateway.OpenPullRequestInput) (gateway.OpenPullRequestResult, error)
	ListRepos(ctx context.Context) ([]gateway.Repo, error)
}

// Server provides the REST API handlers.
type Server struct {
	backend      Backend
	activity     store.Store
	defaultOwner string
	defaultRepo  string
	ui           http.Handler
}

// NewServer creates a new API server. activity may be nil, in which case
// writes are not recorded and /api/activity returns an empty list.
func NewServer(b Backend, activity store.Store, defaultOwner, defaultRepo string) *Server {
	return &Server{
		backend:      b,
		activity:     activity,
		defaultOwner: defaultOwner,
		defaultRepo:  defaultRepo,
	}
}

// WithUI serves h for every path outside /api.
func (s *Server) WithUI(h http.Handler) *Server {
	s.ui = h
	return s
}

// Router returns an http.Handler for the API routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/issues", s.listIssues)
	mux.HandleFunc("POST /api/issues/{number}/move", s.moveIssue)
	mux.HandleFunc("POST /api/orchestrate", s.orchestrate)

	mux.HandleFunc("GET /api/artifacts/{number}", s.issueArtifacts)
	mux.HandleFunc("GET /api/diff/{number}", s.issueDiff)
	mux.HandleFunc("GET /api/checks/{number}", s.pullRequestChecks)

	mux.HandleFunc("GET /api/pr/by-issue/{number}", s.pullRequestForIssue)
	mux.HandleFunc("GET /api/pr/{number}", s.getPullRequest)
	mux.HandleFunc("POST /api/pr/{number}/open", s.openPullRequest)

	mux.HandleFunc("GET /api/repos", s.listRepos)
	mux.HandleFunc("GET /api/activity", s.listActivity)

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	if s.ui != nil {
		mux.Handle("/", s.ui)
	}

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeFailure reports a remote failure with the underlying error as details.
func writeFailure(w http.ResponseWriter, msg string, err error) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msg, "details": err.Error()})
}

// pathNumber parses the {number} path value. It writes a 400 and returns
// false when the value is not an integer.
func pathNumber(w http.ResponseWriter, r *http.Request, what string) (int, bool) {
	n, err := strconv.Atoi(r.PathValue("number"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid "+what+" number.")
		return 0, false
	}
	return n, true
}

// resolveRepo applies owner/repo precedence: query string, then body, then
// the server default. It writes a 400 and returns false when either is missing.
func (s *Server) resolveRepo(w http.ResponseWriter, r *http.Request, bodyOwner, bodyRepo string) (string, string, bool) {
	owner := firstNonEmpty(r.URL.Query().Get("owner"), bodyOwner, s.defaultOwner)
	repo := firstNonEmpty(r.URL.Query().Get("repo"), bodyRepo, s.defaultRepo)
	if owner == "" || repo == "" {
		writeError(w, http.StatusBadRequest, "owner and repo must be specified.")
		return "", "", false
	}
	return owner, repo, true
}

// decodeBody decodes an optional JSON body. An empty body is not an error.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// record appends a write to the activity log. Failures are logged and never
// change the response.
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

// --- Board ---

type boardMeta struct {
	Owner   string `json:"owner"`
	Repo    string `json:"repo"`
	Count   int    `json:"count"`
	Fixture bool   `json:"fixture,omitempty"`
}

type boardResponse struct {
	Columns []models.IssueBoardColumn `json:"columns"`
	Meta    boardMeta                 `json:"meta"`
	Error   string                    `json:"error,omitempty"`
}

func (s *Server) listIssues(w http.ResponseWriter, r *http.Request) {
	owner, repo, ok := s.resolveRepo(w, r, "", "")
	if !ok {
		return
	}
	q := r.URL.Query()

	filter := gateway.IssueFilter{
		Owner:    owner,
		Repo:     repo,
		PerPage:  queryInt(q.Get("perPage"), 100),
		Page:     queryInt(q.Get("page"), 1),
		Assignee: q.Get("assignee"),
		Query:    strings.ToLower(strings.TrimSpace(q.Get("q"))),
	}
	for _, l := range q["labels"] {
		if _, isStage := labels.ParseStage(l); l != "" && !isStage {
			filter.Labels = append(filter.Labels, l)
		}
	}
	for _, v := range q["status"] {
		if st, ok := labels.ParseStage(v); ok {
			filter.Statuses = append(filter.Statuses, st)
		}
	}

	issues, err := s.backend.FetchIssues(r.Context(), filter)
	if err != nil {
		slog.Warn("falling back to fixture board", "owner", owner, "repo", repo, "error", err)
		writeJSON(w, http.StatusOK, boardResponse{
			Columns: board.SampleBoard(),
			Meta:    boardMeta{Owner: owner, Repo: repo, Fixture: true},
			Error:   "Failed to load issues from GitHub. Falling back to fixture data.",
		})
		return
	}
	writeJSON(w, http.StatusOK, boardResponse{
		Columns: board.GroupByStage(issues),
		Meta:    boardMeta{Owner: owner, Repo: repo, Count: len(issues)},
	})
}

func queryInt(v string, def int) int {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// --- Writes ---

type moveRequest struct {
	ToStatus string `json:"toStatus"`
	Owner    string `json:"owner"`
	Repo     string `json:"repo"`
}

func (s *Server) moveIssue(w http.ResponseWriter, r *http.Request) {
	number, ok := pathNumber(w, r, "issue")
	if !ok {
		return
	}
	var req moveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	to, valid := labels.ParseStage(req.ToStatus)
	if !valid {
		writeError(w, http.StatusBadRequest, `Unsupported status "`+req.ToStatus+`".`)
		return
	}
	owner, repo, ok := s.resolveRepo(w, r, req.Owner, req.Repo)
	if !ok {
		return
	}

	res, err := s.backend.MoveIssue(r.Context(), owner, repo, number, to)
	s.record(r.Context(), &models.Activity{
		Kind: models.ActivityMove, Owner: owner, Repo: repo, IssueNumber: number,
		FromStage: res.From, ToStage: to, WorkType: res.WorkType,
	}, err)
	if err != nil {
		slog.Warn("move failed", "issue", number, "to", to, "error", err)
		writeFailure(w, "Failed to move issue status.", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type orchestrateRequest struct {
	IssueNumber *int   `json:"issueNumber"`
	Status      string `json:"status"`
	WorkType    string `json:"workType"`
	Owner       string `json:"owner"`
	Repo        string `json:"repo"`
}

func (s *Server) orchestrate(w http.ResponseWriter, r *http.Request) {
	var req orchestrateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.IssueNumber == nil {
		writeError(w, http.StatusBadRequest, "issueNumber must be provided.")
		return
	}
	status, valid := labels.ParseStage(req.Status)
	if !valid {
		writeError(w, http.StatusBadRequest, `Unsupported status "`+req.Status+`".`)
		return
	}
	var wt models.WorkType
	if req.WorkType != "" {
		if wt, valid = labels.ParseWorkType(req.WorkType); !valid {
			writeError(w, http.StatusBadRequest, `Unsupported workType "`+req.WorkType+`".`)
			return
		}
	}
	owner, repo, ok := s.resolveRepo(w, r, req.Owner, req.Repo)
	if !ok {
		return
	}

	number := *req.IssueNumber
	err := s.backend.DispatchWorkflow(r.Context(), owner, repo, number, status, wt)
	s.record(r.Context(), &models.Activity{
		Kind: models.ActivityOrchestrate, Owner: owner, Repo: repo, IssueNumber: number,
		ToStage: status, WorkType: wt,
	}, err)
	if err != nil {
		writeFailure(w, "Failed to dispatch orchestrator workflow.", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type openPullRequestRequest struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	Head  string `json:"head"`
	Base  string `json:"base"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (s *Server) openPullRequest(w http.ResponseWriter, r *http.Request) {
	number, ok := pathNumber(w, r, "issue")
	if !ok {
		return
	}
	var req openPullRequestRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payload.")
		return
	}
	owner, repo, ok := s.resolveRepo(w, r, req.Owner, req.Repo)
	if !ok {
		return
	}

	res, err := s.backend.OpenPullRequest(r.Context(), owner, repo, number, gateway.OpenPullRequestInput{
		Head:  req.Head,
		Base:  req.Base,
		Title: req.Title,
		Body:  req.Body,
	})
	a := &models.Activity{Kind: models.ActivityOpenPR, Owner: owner, Repo: repo, IssueNumber: number}
	if res.Action == "created" {
		a.ToStage = models.StageReview
	}
	s.record(r.Context(), a, err)
	if err != nil {
		writeFailure(w, "Failed to open or update pull request.", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// --- Drawer facets ---

func (s *Server) issueArtifacts(w http.ResponseWriter, r *http.Request) {
	number, ok := pathNumber(w, r, "issue")
	if !ok {
		return
	}
	owner, repo, ok := s.resolveRepo(w, r, "", "")
	if !ok {
		return
	}

	artifacts, err := s.backend.IssueArtifacts(r.Context(), owner, repo, number)
	if err != nil {
		slog.Warn("falling back to fixture artifacts", "issue", number, "error", err)
		writeJSON(w, http.StatusOK, map[string]any{"artifacts": board.SampleArtifacts(), "fixture": true})
		return
	}
	if artifacts == nil {
		artifacts = []models.ArtifactFile{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"artifacts": artifacts})
}

type diffResponse struct {
	Compare *models.CompareSummary `json:"compare"`
	Branch  *string                `json:"branch"`
	Fixture bool                   `json:"fixture,omitempty"`
}

func (s *Server) issueDiff(w http.ResponseWriter, r *http.Request) {
	number, ok := pathNumber(w, r, "issue")
	if !ok {
		return
	}
	owner, repo, ok := s.resolveRepo(w, r, "", "")
	if !ok {
		return
	}
	q := r.URL.Query()
	opts := gateway.DiffOptions{Head: q.Get("head"), Base: q.Get("base")}
	if v := q.Get("workType"); v != "" {
		opts.WorkType, _ = labels.ParseWorkType(v)
	}

	cmp, branch, err := s.backend.IssueDiff(r.Context(), owner, repo, number, opts)
	if err != nil {
		slog.Warn("falling back to fixture diff", "issue", number, "error", err)
		sample := board.SampleCompare()
		writeJSON(w, http.StatusOK, diffResponse{Compare: &sample, Branch: &sample.HeadRef, Fixture: true})
		return
	}
	resp := diffResponse{Compare: cmp}
	if branch != "" {
		resp.Branch = &branch
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) pullRequestChecks(w http.ResponseWriter, r *http.Request) {
	number, ok := pathNumber(w, r, "pull request")
	if !ok {
		return
	}
	owner, repo, ok := s.resolveRepo(w, r, "", "")
	if !ok {
		return
	}

	runs, err := s.backend.ListChecksForPullRequest(r.Context(), owner, repo, number)
	if err != nil {
		writeFailure(w, "Failed to load workflow runs.", err)
		return
	}
	if runs == nil {
		runs = []models.WorkflowRunSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) getPullRequest(w http.ResponseWriter, r *http.Request) {
	number, ok := pathNumber(w, r, "pull request")
	if !ok {
		return
	}
	owner, repo, ok := s.resolveRepo(w, r, "", "")
	if !ok {
		return
	}

	pr, err := s.backend.GetPullRequest(r.Context(), owner, repo, number)
	if err != nil {
		writeFailure(w, "Failed to load pull request.", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pullRequest": pr})
}

func (s *Server) pullRequestForIssue(w http.ResponseWriter, r *http.Request) {
	number, ok := pathNumber(w, r, "issue")
	if !ok {
		return
	}
	owner, repo, ok := s.resolveRepo(w, r, "", "")
	if !ok {
		return
	}

	pr, err := s.backend.FindPullRequestForIssue(r.Context(), owner, repo, number)
	if err != nil {
		writeFailure(w, "Failed to resolve pull request for issue.", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pullRequest": pr})
}

// --- Repos & activity ---

func (s *Server) listRepos(w http.ResponseWriter, r *http.Request) {
	repos, err := s.backend.ListRepos(r.Context())
	if err != nil {
		writeFailure(w, "Failed to fetch repositories", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"repos": repos})
}

func (s *Server) listActivity(w http.ResponseWriter, r *http.Request) {
	if s.activity == nil {
		writeJSON(w, http.StatusOK, []*models.Activity{})
		return
	}
	q := r.URL.Query()
	filter := store.ActivityFilter{
		Owner: q.Get("owner"),
		Repo:  q.Get("repo"),
		Limit: queryInt(q.Get("limit"), store.DefaultActivityLimit),
	}
	if v := q.Get("issue"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid issue number.")
			return
		}
		filter.IssueNumber = n
	}

	entries, err := s.activity.ListActivity(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []*models.Activity{}
	}
	writeJSON(w, http.StatusOK, entries)
}
