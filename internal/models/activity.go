package models

import "time"

// ActivityKind names the write action an Activity records.
type ActivityKind string

const (
	ActivityMove        ActivityKind = "move"
	ActivityOrchestrate ActivityKind = "orchestrate"
	ActivityOpenPR      ActivityKind = "open_pr"
)

// ActivityOutcome records whether the remote call succeeded.
type ActivityOutcome string

const (
	OutcomeOK     ActivityOutcome = "ok"
	OutcomeFailed ActivityOutcome = "failed"
)

// Activity is an audit entry for a write made through flowboard.
type Activity struct {
	ID          string          `json:"id"`
	Kind        ActivityKind    `json:"kind"`
	Owner       string          `json:"owner"`
	Repo        string          `json:"repo"`
	IssueNumber int             `json:"issueNumber"`
	FromStage   Stage           `json:"fromStage,omitempty"`
	ToStage     Stage           `json:"toStage,omitempty"`
	WorkType    WorkType        `json:"workType,omitempty"`
	Outcome     ActivityOutcome `json:"outcome"`
	Detail      string          `json:"detail,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}
