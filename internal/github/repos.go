package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// GetRepository fetches repository metadata.
func (c *Client) GetRepository(ctx context.Context, owner, repo string) (*Repository, error) {
	var r Repository
	if err := c.get(ctx, fmt.Sprintf("/repos/%s/%s", owner, repo), &r); err != nil {
		return nil, fmt.Errorf("getting repository %s/%s: %w", owner, repo, err)
	}
	return &r, nil
}

// ListUserRepositories lists repositories the authenticated user can access,
// most recently updated first.
func (c *Client) ListUserRepositories(ctx context.Context, perPage int) ([]Repository, error) {
	var repos []Repository
	path := fmt.Sprintf("/user/repos?sort=updated&per_page=%d", perPage)
	if err := c.get(ctx, path, &repos); err != nil {
		return nil, fmt.Errorf("listing user repositories: %w", err)
	}
	return repos, nil
}

// GetBranch fetches a branch. A missing branch yields an error satisfying IsNotFound.
func (c *Client) GetBranch(ctx context.Context, owner, repo, branch string) (*Branch, error) {
	var b Branch
	path := fmt.Sprintf("/repos/%s/%s/branches/%s", owner, repo, escapeRef(branch))
	if err := c.get(ctx, path, &b); err != nil {
		return nil, fmt.Errorf("getting branch %s in %s/%s: %w", branch, owner, repo, err)
	}
	return &b, nil
}

// Compare compares base...head.
func (c *Client) Compare(ctx context.Context, owner, repo, base, head string) (*Comparison, error) {
	var cmp Comparison
	path := fmt.Sprintf("/repos/%s/%s/compare/%s...%s", owner, repo, escapeRef(base), escapeRef(head))
	if err := c.get(ctx, path, &cmp); err != nil {
		return nil, fmt.Errorf("comparing %s...%s in %s/%s: %w", base, head, owner, repo, err)
	}
	return &cmp, nil
}

// GetContent fetches a file or directory entry from the default branch.
func (c *Client) GetContent(ctx context.Context, owner, repo, path string) (*Content, error) {
	var content Content
	reqPath := fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, escapeRef(path))
	if err := c.get(ctx, reqPath, &content); err != nil {
		return nil, fmt.Errorf("getting %s in %s/%s: %w", path, owner, repo, err)
	}
	return &content, nil
}

// Decode returns the file body.
func (c *Content) Decode() (string, error) {
	if c.Encoding != "base64" {
		return c.Content, nil
	}
	raw := strings.NewReplacer("\n", "", "\r", "").Replace(c.Content)
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", c.Path, err)
	}
	return string(data), nil
}

// escapeRef escapes each path segment while keeping the slashes that refs
// and file paths legitimately contain.
func escapeRef(ref string) string {
	parts := strings.Split(ref, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
