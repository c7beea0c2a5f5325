package gateway

import (
	"context"
	"fmt"
	"path"
	"sync"

	"github.com/joescharf/flowboard/internal/github"
	"github.com/joescharf/flowboard/internal/models"
)

var sharedArtifacts = []string{
	"ops/out/RUN_LOG.md",
	"ops/out/PR_SUMMARY.md",
	"ops/out/CI_DIAG.md",
	"ops/out/BLOCKERS.md",
}

// ArtifactPaths returns the repository paths checked for an issue's
// generated documents, per-issue files first.
func ArtifactPaths(issue int) []string {
	paths := []string{
		fmt.Sprintf("ops/specs/%d__context.md", issue),
		fmt.Sprintf("ops/specs/%d__options.md", issue),
		fmt.Sprintf("ops/specs/%d__decision.md", issue),
		fmt.Sprintf("ops/specs/%d__acceptance.md", issue),
		fmt.Sprintf("ops/design/%d__design.md", issue),
		fmt.Sprintf("ops/checks/%d__review_checklist.md", issue),
		fmt.Sprintf("ops/tasks/%d__tasklist.md", issue),
	}
	return append(paths, sharedArtifacts...)
}

// GetFileIfExists returns a file from the default branch, or nil when the
// path is missing or is not a regular file.
func (g *Gateway) GetFileIfExists(ctx context.Context, owner, repo, filePath string) (*models.ArtifactFile, error) {
	content, err := g.remote.GetContent(ctx, owner, repo, filePath)
	if err != nil {
		if github.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if content.Type != "" && content.Type != "file" {
		return nil, nil
	}
	text, err := content.Decode()
	if err != nil {
		return nil, err
	}
	name := content.Name
	if name == "" {
		name = path.Base(filePath)
	}
	p := content.Path
	if p == "" {
		p = filePath
	}
	return &models.ArtifactFile{Path: p, Name: name, Content: text}, nil
}

// IssueArtifacts fetches every artifact that exists for an issue, in
// ArtifactPaths order, with markdown rendered to HTML.
func (g *Gateway) IssueArtifacts(ctx context.Context, owner, repo string, issue int) ([]models.ArtifactFile, error) {
	paths := ArtifactPaths(issue)
	files := make([]*models.ArtifactFile, len(paths))
	errs := make([]error, len(paths))

	var wg sync.WaitGroup
	for i, p := range paths {
		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()
			files[i], errs[i] = g.GetFileIfExists(ctx, owner, repo, p)
		}(i, p)
	}
	wg.Wait()

	out := make([]models.ArtifactFile, 0, len(paths))
	for i, f := range files {
		if errs[i] != nil {
			return nil, errs[i]
		}
		if f == nil {
			continue
		}
		f.HTML = RenderMarkdown(f.Content)
		out = append(out, *f)
	}
	return out, nil
}

// BranchCandidates returns the branch names tried for an issue, in order.
// An empty or unknown work type uses "feature" in the nav/ names and no
// prefix in the last one.
func BranchCandidates(issue int, wt models.WorkType) []string {
	kind := string(wt)
	if kind == "" {
		kind = string(models.WorkTypeFeature)
	}
	prefix := ""
	if wt.Valid() {
		prefix = string(wt) + "/"
	}
	return []string{
		fmt.Sprintf("nav/%s-%d", kind, issue),
		fmt.Sprintf("nav/%s-%d-%d", kind, issue, issue),
		fmt.Sprintf("nav/%d", issue),
		fmt.Sprintf("%s%d", prefix, issue),
	}
}

// DetectIssueBranch returns the first candidate branch that exists, or ""
// when none does. Errors other than not-found stop the search.
func (g *Gateway) DetectIssueBranch(ctx context.Context, owner, repo string, issue int, wt models.WorkType) (string, error) {
	for _, branch := range BranchCandidates(issue, wt) {
		_, err := g.remote.GetBranch(ctx, owner, repo, branch)
		if err == nil {
			return branch, nil
		}
		if !github.IsNotFound(err) {
			return "", err
		}
	}
	return "", nil
}

// Compare compares base...head.
func (g *Gateway) Compare(ctx context.Context, owner, repo, base, head string) (*models.CompareSummary, error) {
	cmp, err := g.remote.Compare(ctx, owner, repo, base, head)
	if err != nil {
		return nil, err
	}
	out := &models.CompareSummary{
		BaseRef:      base,
		HeadRef:      head,
		AheadBy:      cmp.AheadBy,
		BehindBy:     cmp.BehindBy,
		PermalinkURL: cmp.HTMLURL,
		Files:        make([]models.DiffStat, 0, len(cmp.Files)),
	}
	for _, f := range cmp.Files {
		out.Files = append(out.Files, models.DiffStat{
			Filename:  f.Filename,
			Additions: f.Additions,
			Deletions: f.Deletions,
			Patch:     f.Patch,
			Status:    models.FileChangeStatus(f.Status),
		})
	}
	return out, nil
}

// DiffOptions overrides branch detection for IssueDiff.
type DiffOptions struct {
	Head     string
	Base     string
	WorkType models.WorkType
}

// IssueDiff compares an issue's branch against base, which defaults to the
// repository default branch. When no branch is given and none is detected
// it returns a nil compare and an empty branch.
func (g *Gateway) IssueDiff(ctx context.Context, owner, repo string, issue int, opts DiffOptions) (*models.CompareSummary, string, error) {
	base := opts.Base
	if base == "" {
		r, err := g.remote.GetRepository(ctx, owner, repo)
		if err != nil {
			return nil, "", err
		}
		base = r.DefaultBranch
	}
	head := opts.Head
	if head == "" {
		var err error
		head, err = g.DetectIssueBranch(ctx, owner, repo, issue, opts.WorkType)
		if err != nil {
			return nil, "", err
		}
		if head == "" {
			return nil, "", nil
		}
	}
	cmp, err := g.Compare(ctx, owner, repo, base, head)
	if err != nil {
		return nil, "", err
	}
	return cmp, head, nil
}
