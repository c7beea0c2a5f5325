package models

import "time"

// ArtifactFile is a generated workflow document stored in the repository.
type ArtifactFile struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	Content string `json:"content"`
	HTML    string `json:"html,omitempty"`
}

// FileChangeStatus describes how a file changed between two refs.
type FileChangeStatus string

const (
	FileModified FileChangeStatus = "modified"
	FileAdded    FileChangeStatus = "added"
	FileRemoved  FileChangeStatus = "removed"
	FileRenamed  FileChangeStatus = "renamed"
)

// DiffStat summarizes the change to one file.
type DiffStat struct {
	Filename  string           `json:"filename"`
	Additions int              `json:"additions"`
	Deletions int              `json:"deletions"`
	Patch     string           `json:"patch,omitempty"`
	Status    FileChangeStatus `json:"status"`
}

// CompareSummary is the result of comparing an issue branch against its base.
type CompareSummary struct {
	BaseRef      string     `json:"baseRef"`
	HeadRef      string     `json:"headRef"`
	AheadBy      int        `json:"aheadBy"`
	BehindBy     int        `json:"behindBy"`
	Files        []DiffStat `json:"files"`
	PermalinkURL string     `json:"permalinkUrl,omitempty"`
}

// WorkflowRunSummary describes one CI workflow run.
type WorkflowRunSummary struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Event      string    `json:"event"`
	Status     string    `json:"status"`
	Conclusion *string   `json:"conclusion"`
	HTMLURL    string    `json:"htmlUrl"`
	DurationMs *int64    `json:"durationMs,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	RunNumber  int       `json:"runNumber"`
}
