package models

import "time"

// Label is a GitHub label normalized to a name and optional display color.
type Label struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Assignee is a user assigned to an issue.
type Assignee struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatarUrl"`
}

// Repository identifies the repository that owns an issue.
type Repository struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// IssueSummary is the board's view of a GitHub issue.
type IssueSummary struct {
	ID                int64               `json:"id"`
	Number            int                 `json:"number"`
	Title             string              `json:"title"`
	URL               string              `json:"url"`
	Status            Stage               `json:"status"`
	WorkTypes         []WorkType          `json:"workTypes"`
	Labels            []Label             `json:"labels"`
	Assignees         []Assignee          `json:"assignees"`
	UpdatedAt         time.Time           `json:"updatedAt"`
	Repository        Repository          `json:"repository"`
	LinkedPullRequest *PullRequestSummary `json:"linkedPullRequest,omitempty"`
}

// Clone returns a copy of the summary that shares no slices with the original.
func (i IssueSummary) Clone() IssueSummary {
	out := i
	out.WorkTypes = cloneSlice(i.WorkTypes)
	out.Labels = cloneSlice(i.Labels)
	out.Assignees = cloneSlice(i.Assignees)
	if i.LinkedPullRequest != nil {
		pr := i.LinkedPullRequest.Clone()
		out.LinkedPullRequest = &pr
	}
	return out
}

// PrimaryWorkType returns the first work type, or "" when there is none.
func (i IssueSummary) PrimaryWorkType() WorkType {
	if len(i.WorkTypes) == 0 {
		return ""
	}
	return i.WorkTypes[0]
}

// IssueBoardColumn holds the issues currently in one stage, in display order.
type IssueBoardColumn struct {
	Status Stage          `json:"status"`
	Issues []IssueSummary `json:"issues"`
}

// cloneSlice copies s, keeping nil and empty distinct so JSON output is unchanged.
func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
