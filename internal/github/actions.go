package github

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// DispatchWorkflowRequest triggers a workflow_dispatch event.
type DispatchWorkflowRequest struct {
	Ref    string            `json:"ref"`
	Inputs map[string]string `json:"inputs,omitempty"`
}

// DispatchWorkflow triggers workflowID (file name, path, or numeric ID) on a ref.
func (c *Client) DispatchWorkflow(ctx context.Context, owner, repo, workflowID string, req DispatchWorkflowRequest) error {
	path := fmt.Sprintf("/repos/%s/%s/actions/workflows/%s/dispatches", owner, repo, url.PathEscape(workflowID))
	if err := c.post(ctx, path, req, nil); err != nil {
		return fmt.Errorf("dispatching workflow %s in %s/%s: %w", workflowID, owner, repo, err)
	}
	return nil
}

// ListWorkflowRuns lists recent workflow runs, optionally filtered by branch.
func (c *Client) ListWorkflowRuns(ctx context.Context, owner, repo, branch string, perPage int) ([]WorkflowRun, error) {
	v := url.Values{}
	if branch != "" {
		v.Set("branch", branch)
	}
	if perPage > 0 {
		v.Set("per_page", strconv.Itoa(perPage))
	}
	var resp workflowRunsResponse
	path := fmt.Sprintf("/repos/%s/%s/actions/runs?%s", owner, repo, v.Encode())
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("listing workflow runs in %s/%s: %w", owner, repo, err)
	}
	return resp.WorkflowRuns, nil
}
