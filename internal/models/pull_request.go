package models

// PRStatus is the lifecycle state of a pull request.
type PRStatus string

const (
	PRStatusOpen   PRStatus = "open"
	PRStatusClosed PRStatus = "closed"
	PRStatusMerged PRStatus = "merged"
)

// Mergeability classifies whether a pull request can merge cleanly.
type Mergeability string

const (
	MergeableClean       Mergeability = "mergeable"
	MergeableConflicting Mergeability = "conflicting"
	MergeableUnknown     Mergeability = "unknown"
)

// ReviewState is the state of a single review.
type ReviewState string

const (
	ReviewApproved         ReviewState = "APPROVED"
	ReviewChangesRequested ReviewState = "CHANGES_REQUESTED"
	ReviewCommented        ReviewState = "COMMENTED"
	ReviewPending          ReviewState = "PENDING"
)

// CIStatus is the aggregate commit status of a pull request head.
type CIStatus string

const (
	CIStatusSuccess CIStatus = "success"
	CIStatusFailure CIStatus = "failure"
	CIStatusPending CIStatus = "pending"
)

// Reviewer is a user who reviewed a pull request.
type Reviewer struct {
	Login     string      `json:"login"`
	AvatarURL string      `json:"avatarUrl"`
	State     ReviewState `json:"state"`
}

// PullRequestSummary is the drawer's view of a pull request.
type PullRequestSummary struct {
	ID               int64        `json:"id"`
	Number           int          `json:"number"`
	Title            string       `json:"title"`
	URL              string       `json:"url"`
	Status           PRStatus     `json:"status"`
	Mergeable        Mergeability `json:"mergeable"`
	Reviewers        []Reviewer   `json:"reviewers"`
	StateReason      string       `json:"stateReason,omitempty"`
	LatestCommitSHA  string       `json:"latestCommitSha,omitempty"`
	CIStatus         CIStatus     `json:"ciStatus,omitempty"`
	GeneratedSummary string       `json:"generatedSummary,omitempty"`
}

// Clone returns a deep copy.
func (p PullRequestSummary) Clone() PullRequestSummary {
	out := p
	out.Reviewers = cloneSlice(p.Reviewers)
	return out
}
