package board

import (
	"time"

	"github.com/joescharf/flowboard/internal/models"
)

// Sample data served when the remote side is unreachable, so read views
// stay populated. Callers mark responses built from it as fixtures.

func daysAgo(days int) time.Time {
	return time.Now().UTC().AddDate(0, 0, -days).Truncate(time.Second)
}

// SampleIssues returns the fixture issues.
func SampleIssues() []models.IssueSummary {
	repo := models.Repository{Owner: "tardis-pro", Name: "navratna"}
	return []models.IssueSummary{
		{
			ID:        1,
			Number:    123,
			Title:     "Implement GraphQL orchestrator for Navratna",
			URL:       "https://github.com/example/navratna/issues/123",
			Status:    models.StageDiscussion,
			WorkTypes: []models.WorkType{models.WorkTypeFeature},
			Labels: []models.Label{
				{Name: "status:discussion", Color: "0EA5E9"},
				{Name: "feature", Color: "22C55E"},
			},
			Assignees:  []models.Assignee{{Login: "alice", AvatarURL: "https://avatars.githubusercontent.com/u/1?v=4"}},
			UpdatedAt:  daysAgo(1),
			Repository: repo,
		},
		{
			ID:        2,
			Number:    124,
			Title:     "Add review summary surface",
			URL:       "https://github.com/example/navratna/issues/124",
			Status:    models.StageBuild,
			WorkTypes: []models.WorkType{models.WorkTypeFeature},
			Labels: []models.Label{
				{Name: "status:build", Color: "FACC15"},
				{Name: "feature", Color: "22C55E"},
			},
			Assignees:  []models.Assignee{{Login: "bob", AvatarURL: "https://avatars.githubusercontent.com/u/2?v=4"}},
			UpdatedAt:  daysAgo(2),
			Repository: repo,
		},
		{
			ID:        3,
			Number:    125,
			Title:     "Stabilize orchestrator workflows",
			URL:       "https://github.com/example/navratna/issues/125",
			Status:    models.StageReview,
			WorkTypes: []models.WorkType{models.WorkTypeBugfix},
			Labels: []models.Label{
				{Name: "status:review", Color: "F97316"},
				{Name: "bugfix", Color: "F97316"},
			},
			Assignees:  []models.Assignee{{Login: "charlie", AvatarURL: "https://avatars.githubusercontent.com/u/3?v=4"}},
			UpdatedAt:  daysAgo(3),
			Repository: repo,
		},
	}
}

// SampleBoard returns the fixture issues grouped into columns.
func SampleBoard() []models.IssueBoardColumn {
	return GroupByStage(SampleIssues())
}

// SampleArtifacts returns fixture artifact files.
func SampleArtifacts() []models.ArtifactFile {
	return []models.ArtifactFile{
		{
			Path:    "ops/specs/125__context.md",
			Name:    "125__context.md",
			Content: "# Context\n\nSample context fixture.",
		},
		{
			Path:    "ops/out/PR_SUMMARY.md",
			Name:    "PR_SUMMARY.md",
			Content: "## Summary\n\n- Sample change set\n- Ready for review",
		},
	}
}

// SampleCompare returns a fixture branch comparison.
func SampleCompare() models.CompareSummary {
	return models.CompareSummary{
		BaseRef:      "main",
		HeadRef:      "nav/feature-125-sample",
		AheadBy:      3,
		BehindBy:     0,
		PermalinkURL: "https://github.com/example/navratna/compare/main...nav/feature-125-sample",
		Files: []models.DiffStat{
			{
				Filename:  "frontend/app/page.tsx",
				Additions: 12,
				Deletions: 2,
				Status:    models.FileModified,
				Patch:     "@@ -1,4 +1,4 @@\n-// old\n+// new",
			},
		},
	}
}

// SampleRuns returns fixture workflow runs.
func SampleRuns() []models.WorkflowRunSummary {
	conclusion := "success"
	duration := int64(420000)
	return []models.WorkflowRunSummary{
		{
			ID:         1,
			Name:       "CI",
			Event:      "pull_request",
			Status:     "completed",
			Conclusion: &conclusion,
			HTMLURL:    "https://github.com/example/navratna/actions/runs/1",
			DurationMs: &duration,
			CreatedAt:  daysAgo(1),
			UpdatedAt:  daysAgo(1),
			RunNumber:  42,
		},
	}
}
