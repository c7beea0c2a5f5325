package github

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ListIssuesOptions filters ListIssues.
type ListIssuesOptions struct {
	State    string // "open" (default), "closed", "all"
	Assignee string
	Labels   []string // all must match
	PerPage  int      // capped at 100
	Page     int
}

func (o ListIssuesOptions) query() string {
	v := url.Values{}
	state := o.State
	if state == "" {
		state = "open"
	}
	v.Set("state", state)
	if o.Assignee != "" {
		v.Set("assignee", o.Assignee)
	}
	if len(o.Labels) > 0 {
		v.Set("labels", strings.Join(o.Labels, ","))
	}
	perPage := o.PerPage
	if perPage <= 0 || perPage > 100 {
		perPage = 100
	}
	v.Set("per_page", strconv.Itoa(perPage))
	if o.Page > 0 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	return v.Encode()
}

// ListIssues lists one page of repository issues. Pull requests are included,
// as the API returns them; see Issue.IsPullRequest.
func (c *Client) ListIssues(ctx context.Context, owner, repo string, opts ListIssuesOptions) ([]Issue, error) {
	var issues []Issue
	path := fmt.Sprintf("/repos/%s/%s/issues?%s", owner, repo, opts.query())
	if err := c.get(ctx, path, &issues); err != nil {
		return nil, fmt.Errorf("listing issues in %s/%s: %w", owner, repo, err)
	}
	return issues, nil
}

// GetIssue fetches a single issue.
func (c *Client) GetIssue(ctx context.Context, owner, repo string, number int) (*Issue, error) {
	var issue Issue
	path := fmt.Sprintf("/repos/%s/%s/issues/%d", owner, repo, number)
	if err := c.get(ctx, path, &issue); err != nil {
		return nil, fmt.Errorf("getting issue %s/%s#%d: %w", owner, repo, number, err)
	}
	return &issue, nil
}

type setLabelsRequest struct {
	Labels []string `json:"labels"`
}

// SetIssueLabels replaces the full label set of an issue.
func (c *Client) SetIssueLabels(ctx context.Context, owner, repo string, number int, labels []string) (*Issue, error) {
	if labels == nil {
		labels = []string{}
	}
	var issue Issue
	path := fmt.Sprintf("/repos/%s/%s/issues/%d", owner, repo, number)
	if err := c.patch(ctx, path, setLabelsRequest{Labels: labels}, &issue); err != nil {
		return nil, fmt.Errorf("updating labels on %s/%s#%d: %w", owner, repo, number, err)
	}
	return &issue, nil
}

// SearchIssues runs an issue/pull request search query.
func (c *Client) SearchIssues(ctx context.Context, query string, perPage int) ([]SearchItem, error) {
	v := url.Values{}
	v.Set("q", query)
	if perPage > 0 {
		v.Set("per_page", strconv.Itoa(perPage))
	}
	var resp searchResponse
	if err := c.get(ctx, "/search/issues?"+v.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}
	return resp.Items, nil
}
