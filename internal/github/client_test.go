package github

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, Token: "tok"})
}

func TestClient_Headers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		assert.Equal(t, apiVersion, r.Header.Get("X-GitHub-Api-Version"))
		assert.Equal(t, "/repos/acme/widgets", r.URL.Path)
		_, _ = w.Write([]byte(`{"name":"widgets","default_branch":"trunk","owner":{"login":"acme"}}`))
	})

	repo, err := c.GetRepository(context.Background(), "acme", "widgets")
	require.NoError(t, err)
	assert.Equal(t, "trunk", repo.DefaultBranch)
	assert.Equal(t, "acme", repo.Owner.Login)
}

func TestClient_ListIssuesQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "open", q.Get("state"))
		assert.Equal(t, "100", q.Get("per_page"))
		assert.Equal(t, "status:build,bugfix", q.Get("labels"))
		_, _ = w.Write([]byte(`[
			{"id":1,"number":7,"title":"A","labels":["status:build",{"name":"bugfix","color":"d73a4a"}]},
			{"id":2,"number":8,"title":"PR","labels":[],"pull_request":{"url":"x"}}
		]`))
	})

	issues, err := c.ListIssues(context.Background(), "acme", "widgets", ListIssuesOptions{
		Labels:  []string{"status:build", "bugfix"},
		PerPage: 500,
	})
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, []string{"status:build", "bugfix"}, issues[0].LabelNames())
	assert.Equal(t, "d73a4a", issues[0].Labels[1].Color)
	assert.False(t, issues[0].IsPullRequest())
	assert.True(t, issues[1].IsPullRequest())
}

func TestClient_SetIssueLabelsSendsArray(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"labels":[]}`, string(body))
		_, _ = w.Write([]byte(`{"number":5}`))
	})

	issue, err := c.SetIssueLabels(context.Background(), "acme", "widgets", 5, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, issue.Number)
}

func TestClient_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Branch not found"}`))
	})

	_, err := c.GetBranch(context.Background(), "acme", "widgets", "nav/feature-1")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "Branch not found")
}

func TestClient_RetriesOnceOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"API rate limit exceeded for user"}`))
			return
		}
		_, _ = w.Write([]byte(`{"state":"success","sha":"abc"}`))
	})

	status, err := c.GetCombinedStatus(context.Background(), "acme", "widgets", "abc")
	require.NoError(t, err)
	assert.Equal(t, "success", status.State)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_RateLimitGivesUpAfterRetry(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"secondary rate limit"}`))
	})

	_, err := c.GetIssue(context.Background(), "acme", "widgets", 1)
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_DispatchWorkflow(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/acme/widgets/actions/workflows/devflow.yml/dispatches", r.URL.Path)
		var req DispatchWorkflowRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "main", req.Ref)
		assert.Equal(t, "42", req.Inputs["issue"])
		w.WriteHeader(http.StatusNoContent)
	})

	err := c.DispatchWorkflow(context.Background(), "acme", "widgets", "devflow.yml", DispatchWorkflowRequest{
		Ref:    "main",
		Inputs: map[string]string{"issue": "42"},
	})
	require.NoError(t, err)
}

func TestClient_CompareKeepsSlashes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/widgets/compare/main...nav/feature-9", r.URL.Path)
		_, _ = w.Write([]byte(`{"ahead_by":2,"behind_by":0,"files":[{"filename":"a.go","status":"modified","additions":3,"deletions":1}]}`))
	})

	cmp, err := c.Compare(context.Background(), "acme", "widgets", "main", "nav/feature-9")
	require.NoError(t, err)
	assert.Equal(t, 2, cmp.AheadBy)
	require.Len(t, cmp.Files, 1)
	assert.Equal(t, "a.go", cmp.Files[0].Filename)
}

func TestContent_Decode(t *testing.T) {
	c := Content{Path: "ops/x.md", Encoding: "base64", Content: "aGVs\nbG8=\n"}
	s, err := c.Decode()
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	raw := Content{Content: "plain"}
	s, err = raw.Decode()
	require.NoError(t, err)
	assert.Equal(t, "plain", s)
}

func TestClient_ListWorkflowRunsNullConclusion(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "nav/feature-3", r.URL.Query().Get("branch"))
		_, _ = w.Write([]byte(`{"total_count":1,"workflow_runs":[
			{"id":9,"name":"CI","event":"push","status":"in_progress","conclusion":null,"run_number":4,
			 "created_at":"2024-01-01T00:00:00Z","updated_at":"2024-01-01T00:01:00Z","run_started_at":null}
		]}`))
	})

	runs, err := c.ListWorkflowRuns(context.Background(), "acme", "widgets", "nav/feature-3", 20)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Nil(t, runs[0].Conclusion)
	assert.Nil(t, runs[0].RunStartedAt)
}
