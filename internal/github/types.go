package github

import (
	"encoding/json"
	"time"
)

// User is a GitHub account reference.
type User struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

// IssueLabel is a label as it appears on an issue. The API sends label
// objects, but some payloads carry bare label names; both decode here.
type IssueLabel struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// UnmarshalJSON accepts either "name" or {"name": ..., "color": ...}.
func (l *IssueLabel) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*l = IssueLabel{Name: name}
		return nil
	}
	type plain IssueLabel
	var obj plain
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*l = IssueLabel(obj)
	return nil
}

// Issue is an issue (or pull request) as returned by the issues endpoints.
type Issue struct {
	ID          int64           `json:"id"`
	Number      int             `json:"number"`
	Title       string          `json:"title"`
	Body        string          `json:"body"`
	State       string          `json:"state"`
	HTMLURL     string          `json:"html_url"`
	Labels      []IssueLabel    `json:"labels"`
	Assignees   []User          `json:"assignees"`
	UpdatedAt   time.Time       `json:"updated_at"`
	PullRequest json.RawMessage `json:"pull_request,omitempty"`
}

// IsPullRequest reports whether the issues endpoint returned a pull request.
func (i Issue) IsPullRequest() bool { return len(i.PullRequest) > 0 && string(i.PullRequest) != "null" }

// LabelNames returns the non-empty label names.
func (i Issue) LabelNames() []string {
	out := make([]string, 0, len(i.Labels))
	for _, l := range i.Labels {
		if l.Name != "" {
			out = append(out, l.Name)
		}
	}
	return out
}

// Repository is repository metadata.
type Repository struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	FullName      string    `json:"full_name"`
	Owner         User      `json:"owner"`
	Private       bool      `json:"private"`
	Description   string    `json:"description"`
	DefaultBranch string    `json:"default_branch"`
	HTMLURL       string    `json:"html_url"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PullRequestRef is the head or base of a pull request.
type PullRequestRef struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

// PullRequest is a pull request as returned by the pulls endpoints.
type PullRequest struct {
	ID             int64          `json:"id"`
	Number         int            `json:"number"`
	Title          string         `json:"title"`
	Body           string         `json:"body"`
	State          string         `json:"state"`
	StateReason    string         `json:"state_reason,omitempty"`
	HTMLURL        string         `json:"html_url"`
	Merged         bool           `json:"merged"`
	MergeableState string         `json:"mergeable_state"`
	Head           PullRequestRef `json:"head"`
	Base           PullRequestRef `json:"base"`
}

// Review is a pull request review.
type Review struct {
	ID    int64  `json:"id"`
	User  *User  `json:"user"`
	State string `json:"state"`
}

// CombinedStatus is the aggregate commit status for a ref.
type CombinedStatus struct {
	State string `json:"state"`
	SHA   string `json:"sha"`
}

// Branch is a repository branch.
type Branch struct {
	Name   string `json:"name"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

// CompareFile is one file in a comparison.
type CompareFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Patch     string `json:"patch,omitempty"`
}

// Comparison is the result of comparing two refs.
type Comparison struct {
	AheadBy  int           `json:"ahead_by"`
	BehindBy int           `json:"behind_by"`
	HTMLURL  string        `json:"html_url"`
	Files    []CompareFile `json:"files"`
}

// Content is a file from the contents endpoint.
type Content struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
}

// WorkflowRun is a GitHub Actions run.
type WorkflowRun struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	DisplayTitle string     `json:"display_title"`
	Event        string     `json:"event"`
	Status       string     `json:"status"`
	Conclusion   *string    `json:"conclusion"`
	HTMLURL      string     `json:"html_url"`
	RunNumber    int        `json:"run_number"`
	HeadBranch   string     `json:"head_branch"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	RunStartedAt *time.Time `json:"run_started_at"`
}

type workflowRunsResponse struct {
	TotalCount   int           `json:"total_count"`
	WorkflowRuns []WorkflowRun `json:"workflow_runs"`
}

// SearchItem is one hit from the issue search endpoint.
type SearchItem struct {
	Number      int             `json:"number"`
	Title       string          `json:"title"`
	Body        string          `json:"body"`
	PullRequest json.RawMessage `json:"pull_request,omitempty"`
}

type searchResponse struct {
	TotalCount int          `json:"total_count"`
	Items      []SearchItem `json:"items"`
}
