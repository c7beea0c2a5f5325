package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/joescharf/flowboard/internal/board"
	"github.com/joescharf/flowboard/internal/models"
)

// renderFacet renders one facet of the drawer as plain terminal text.
func renderFacet(d *board.Drawer, f board.Facet, width int) string {
	st := d.State(f)
	switch st.State {
	case board.NotRequested:
		if f == board.FacetChecks {
			return dimStyle.Render("No pull request, so no checks.")
		}
		return dimStyle.Render("Not loaded.")
	case board.Loading:
		return dimStyle.Render("Loading " + f.String() + "…")
	case board.Failed:
		return errStyle.Render(fmt.Sprintf("Failed to load %s: %v", f, st.Err))
	}

	data := d.Snapshot()
	switch f {
	case board.FacetArtifacts:
		return renderArtifacts(data.Artifacts, width)
	case board.FacetDiff:
		return renderCompare(data.Compare, data.Branch)
	case board.FacetPullRequest:
		return renderPullRequest(data.PullRequest, width)
	case board.FacetChecks:
		return renderChecks(data.Checks)
	}
	return ""
}

func renderArtifacts(files []models.ArtifactFile, width int) string {
	if len(files) == 0 {
		return dimStyle.Render("No artifacts yet.")
	}
	body := lipgloss.NewStyle().Width(max(width, 20))
	var b strings.Builder
	for i, f := range files {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(titleStyle.Render(f.Path) + "\n")
		b.WriteString(body.Render(strings.TrimSpace(f.Content)) + "\n")
	}
	return b.String()
}

func renderCompare(cmp *models.CompareSummary, branch string) string {
	if cmp == nil {
		return dimStyle.Render("No branch found for this issue.")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s ← %s  %s %s\n",
		cmp.BaseRef, branch,
		okStyle.Render(fmt.Sprintf("%d ahead", cmp.AheadBy)),
		dimStyle.Render(fmt.Sprintf("%d behind", cmp.BehindBy)))
	for _, f := range cmp.Files {
		fmt.Fprintf(&b, "\n%s %s %s [%s]\n", f.Filename,
			okStyle.Render(fmt.Sprintf("+%d", f.Additions)),
			errStyle.Render(fmt.Sprintf("-%d", f.Deletions)),
			f.Status)
		if f.Patch != "" {
			b.WriteString(highlightPatch(f.Patch) + "\n")
		}
	}
	return b.String()
}

func renderPullRequest(pr *models.PullRequestSummary, width int) string {
	if pr == nil {
		return dimStyle.Render("No pull request references this issue.")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s\n%s\n\n", pr.Number, pr.Title, dimStyle.Render(pr.URL))
	fmt.Fprintf(&b, "status     %s\n", pr.Status)
	fmt.Fprintf(&b, "mergeable  %s\n", pr.Mergeable)
	if pr.CIStatus != "" {
		fmt.Fprintf(&b, "ci         %s\n", pr.CIStatus)
	}
	for _, r := range pr.Reviewers {
		fmt.Fprintf(&b, "review     %s %s\n", r.Login, r.State)
	}
	if pr.GeneratedSummary != "" {
		b.WriteString("\n" + lipgloss.NewStyle().Width(max(width, 20)).Render(pr.GeneratedSummary) + "\n")
	}
	return b.String()
}

func renderChecks(runs []models.WorkflowRunSummary) string {
	if len(runs) == 0 {
		return dimStyle.Render("No workflow runs on this branch.")
	}
	var b strings.Builder
	for _, r := range runs {
		result := r.Status
		style := infoStyle
		if r.Conclusion != nil {
			result = *r.Conclusion
			switch result {
			case "success":
				style = okStyle
			case "failure", "timed_out", "startup_failure":
				style = errStyle
			default:
				style = dimStyle
			}
		}
		dur := ""
		if r.DurationMs != nil {
			dur = dimStyle.Render(" " + (time.Duration(*r.DurationMs) * time.Millisecond).Round(time.Second).String())
		}
		fmt.Fprintf(&b, "%s #%d %s%s\n", style.Render(result), r.RunNumber, r.Name, dur)
	}
	return b.String()
}
