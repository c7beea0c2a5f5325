// Package board holds the kanban board's in-memory model: issue projection,
// column grouping, the optimistic move store, and the drawer facet cache.
package board

import (
	"github.com/joescharf/flowboard/internal/github"
	"github.com/joescharf/flowboard/internal/labels"
	"github.com/joescharf/flowboard/internal/models"
)

// ToIssueSummary projects a raw GitHub issue onto the board model. It never
// performs I/O, and LinkedPullRequest is always left nil.
func ToIssueSummary(issue github.Issue, owner, repo string) models.IssueSummary {
	ls := make([]models.Label, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		if l.Name == "" {
			continue
		}
		ls = append(ls, models.Label{Name: l.Name, Color: l.Color})
	}

	assignees := make([]models.Assignee, 0, len(issue.Assignees))
	for _, a := range issue.Assignees {
		assignees = append(assignees, models.Assignee{Login: a.Login, AvatarURL: a.AvatarURL})
	}

	return models.IssueSummary{
		ID:         issue.ID,
		Number:     issue.Number,
		Title:      issue.Title,
		URL:        issue.HTMLURL,
		Status:     labels.StageFromLabels(ls),
		WorkTypes:  labels.WorkTypesFromLabels(ls),
		Labels:     ls,
		Assignees:  assignees,
		UpdatedAt:  issue.UpdatedAt,
		Repository: models.Repository{Owner: owner, Name: repo},
	}
}
