package github

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// GetPullRequest fetches a single pull request.
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (*PullRequest, error) {
	var pr PullRequest
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d", owner, repo, number)
	if err := c.get(ctx, path, &pr); err != nil {
		return nil, fmt.Errorf("getting pull request %s/%s#%d: %w", owner, repo, number, err)
	}
	return &pr, nil
}

// ListPullRequests lists pull requests. head uses the "owner:branch" form; empty means any.
func (c *Client) ListPullRequests(ctx context.Context, owner, repo, head, state string) ([]PullRequest, error) {
	v := url.Values{}
	if head != "" {
		v.Set("head", head)
	}
	if state != "" {
		v.Set("state", state)
	}
	var prs []PullRequest
	path := fmt.Sprintf("/repos/%s/%s/pulls?%s", owner, repo, v.Encode())
	if err := c.get(ctx, path, &prs); err != nil {
		return nil, fmt.Errorf("listing pull requests in %s/%s: %w", owner, repo, err)
	}
	return prs, nil
}

// CreatePullRequestRequest holds the fields for opening a pull request.
type CreatePullRequestRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Head  string `json:"head"`
	Base  string `json:"base"`
}

// CreatePullRequest opens a pull request.
func (c *Client) CreatePullRequest(ctx context.Context, owner, repo string, req CreatePullRequestRequest) (*PullRequest, error) {
	var pr PullRequest
	path := fmt.Sprintf("/repos/%s/%s/pulls", owner, repo)
	if err := c.post(ctx, path, req, &pr); err != nil {
		return nil, fmt.Errorf("creating pull request in %s/%s: %w", owner, repo, err)
	}
	return &pr, nil
}

// UpdatePullRequestRequest holds the fields for editing a pull request.
type UpdatePullRequestRequest struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
	Base  string `json:"base,omitempty"`
}

// UpdatePullRequest edits an existing pull request.
func (c *Client) UpdatePullRequest(ctx context.Context, owner, repo string, number int, req UpdatePullRequestRequest) (*PullRequest, error) {
	var pr PullRequest
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d", owner, repo, number)
	if err := c.patch(ctx, path, req, &pr); err != nil {
		return nil, fmt.Errorf("updating pull request %s/%s#%d: %w", owner, repo, number, err)
	}
	return &pr, nil
}

// ListReviews lists reviews on a pull request.
func (c *Client) ListReviews(ctx context.Context, owner, repo string, number, perPage int) ([]Review, error) {
	var reviews []Review
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/reviews?per_page=%s", owner, repo, number, strconv.Itoa(perPage))
	if err := c.get(ctx, path, &reviews); err != nil {
		return nil, fmt.Errorf("listing reviews on %s/%s#%d: %w", owner, repo, number, err)
	}
	return reviews, nil
}

// GetCombinedStatus returns the aggregate commit status for ref.
func (c *Client) GetCombinedStatus(ctx context.Context, owner, repo, ref string) (*CombinedStatus, error) {
	var status CombinedStatus
	path := fmt.Sprintf("/repos/%s/%s/commits/%s/status", owner, repo, url.PathEscape(ref))
	if err := c.get(ctx, path, &status); err != nil {
		return nil, fmt.Errorf("getting status for %s/%s@%s: %w", owner, repo, ref, err)
	}
	return &status, nil
}
