package board

import (
	"sync"

	"github.com/joescharf/flowboard/internal/models"
)

// Facet is one independently loaded part of the issue drawer.
type Facet int

const (
	FacetArtifacts Facet = iota
	FacetDiff
	FacetPullRequest
	FacetChecks
)

var facetNames = [...]string{"artifacts", "diff", "pull request", "checks"}

func (f Facet) String() string {
	if f < 0 || int(f) >= len(facetNames) {
		return "unknown"
	}
	return facetNames[f]
}

// Facets returns every facet in display order.
func Facets() []Facet {
	return []Facet{FacetArtifacts, FacetDiff, FacetPullRequest, FacetChecks}
}

// LoadState is the lifecycle of a single facet.
type LoadState int

const (
	NotRequested LoadState = iota
	Loading
	Loaded
	Failed
)

func (s LoadState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "not requested"
	}
}

// FacetState is the load state of a facet and the error that failed it.
type FacetState struct {
	State LoadState
	Err   error
}

// Ticket tags an in-flight facet load with the selection it was issued for.
type Ticket struct {
	Facet      Facet
	Generation uint64
	Issue      int
}

// DrawerData is a snapshot of everything loaded for the selected issue.
type DrawerData struct {
	Issue       *models.IssueSummary
	Artifacts   []models.ArtifactFile
	Compare     *models.CompareSummary
	Branch      string
	PullRequest *models.PullRequestSummary
	Checks      []models.WorkflowRunSummary
}

// Drawer caches the facets of the selected issue. Every selection change
// bumps a generation counter; a completion whose ticket carries an older
// generation or a different issue is discarded.
type Drawer struct {
	mu     sync.Mutex
	gen    uint64
	data   DrawerData
	states [len(facetNames)]FacetState
}

// NewDrawer returns an empty drawer.
func NewDrawer() *Drawer { return &Drawer{} }

// Select makes issue the drawer subject and resets every facet.
func (d *Drawer) Select(issue models.IssueSummary) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	c := issue.Clone()
	d.data = DrawerData{Issue: &c}
	d.states = [len(facetNames)]FacetState{}
}

// Deselect clears the drawer.
func (d *Drawer) Deselect() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	d.data = DrawerData{}
	d.states = [len(facetNames)]FacetState{}
}

// Refresh replaces the issue snapshot if it is the one selected. Loaded
// facets are kept.
func (d *Drawer) Refresh(issue models.IssueSummary) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.data.Issue == nil || d.data.Issue.Number != issue.Number {
		return
	}
	c := issue.Clone()
	d.data.Issue = &c
}

// Selected returns the selected issue.
func (d *Drawer) Selected() (models.IssueSummary, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.data.Issue == nil {
		return models.IssueSummary{}, false
	}
	return d.data.Issue.Clone(), true
}

// Begin marks f as loading and returns the ticket its completion must carry.
// ok is false when nothing is selected.
func (d *Drawer) Begin(f Facet) (t Ticket, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.data.Issue == nil {
		return Ticket{}, false
	}
	d.states[f] = FacetState{State: Loading}
	return Ticket{Facet: f, Generation: d.gen, Issue: d.data.Issue.Number}, true
}

// BeginAll begins several facets at once against the same selection and
// returns the selected issue with one ticket per facet.
func (d *Drawer) BeginAll(facets ...Facet) (models.IssueSummary, []Ticket, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.data.Issue == nil {
		return models.IssueSummary{}, nil, false
	}
	tickets := make([]Ticket, len(facets))
	for i, f := range facets {
		d.states[f] = FacetState{State: Loading}
		tickets[i] = Ticket{Facet: f, Generation: d.gen, Issue: d.data.Issue.Number}
	}
	return d.data.Issue.Clone(), tickets, true
}

// Continue begins f as a follow-up of t. ok is false if t is stale, so a
// dependent load never starts against a newer selection.
func (d *Drawer) Continue(t Ticket, f Facet) (Ticket, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.data.Issue == nil || t.Generation != d.gen || t.Issue != d.data.Issue.Number {
		return Ticket{}, false
	}
	d.states[f] = FacetState{State: Loading}
	return Ticket{Facet: f, Generation: d.gen, Issue: t.Issue}, true
}

// CompleteArtifacts stores an artifacts result. It reports false when the
// ticket is stale and the result was dropped.
func (d *Drawer) CompleteArtifacts(t Ticket, artifacts []models.ArtifactFile, err error) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.current(t, FacetArtifacts) {
		return false
	}
	if d.fail(t.Facet, err) {
		return true
	}
	d.data.Artifacts = append([]models.ArtifactFile(nil), artifacts...)
	d.states[t.Facet] = FacetState{State: Loaded}
	return true
}

// CompleteDiff stores a compare result. A nil compare with no error means no
// branch was found for the issue.
func (d *Drawer) CompleteDiff(t Ticket, compare *models.CompareSummary, branch string, err error) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.current(t, FacetDiff) {
		return false
	}
	if d.fail(t.Facet, err) {
		return true
	}
	if compare != nil {
		c := *compare
		c.Files = append([]models.DiffStat(nil), compare.Files...)
		d.data.Compare = &c
	} else {
		d.data.Compare = nil
	}
	d.data.Branch = branch
	d.states[t.Facet] = FacetState{State: Loaded}
	return true
}

// CompletePullRequest stores the linked pull request, which may be nil. When
// it is non-nil, checksFor is the number whose checks must be loaded next.
func (d *Drawer) CompletePullRequest(t Ticket, pr *models.PullRequestSummary, err error) (applied bool, checksFor int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.current(t, FacetPullRequest) {
		return false, 0
	}
	if d.fail(t.Facet, err) {
		return true, 0
	}
	d.states[t.Facet] = FacetState{State: Loaded}
	if pr == nil {
		d.data.PullRequest = nil
		return true, 0
	}
	c := pr.Clone()
	d.data.PullRequest = &c
	return true, pr.Number
}

// CompleteChecks stores workflow runs for the linked pull request.
func (d *Drawer) CompleteChecks(t Ticket, runs []models.WorkflowRunSummary, err error) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.current(t, FacetChecks) {
		return false
	}
	if d.fail(t.Facet, err) {
		return true
	}
	d.data.Checks = append([]models.WorkflowRunSummary(nil), runs...)
	d.states[t.Facet] = FacetState{State: Loaded}
	return true
}

// State returns the load state of f.
func (d *Drawer) State(f Facet) FacetState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.states[f]
}

// Busy reports whether any facet is loading.
func (d *Drawer) Busy() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.states {
		if s.State == Loading {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the loaded data.
func (d *Drawer) Snapshot() DrawerData {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.data
	if d.data.Issue != nil {
		c := d.data.Issue.Clone()
		out.Issue = &c
	}
	if d.data.PullRequest != nil {
		c := d.data.PullRequest.Clone()
		out.PullRequest = &c
	}
	if d.data.Compare != nil {
		c := *d.data.Compare
		c.Files = append([]models.DiffStat(nil), d.data.Compare.Files...)
		out.Compare = &c
	}
	out.Artifacts = append([]models.ArtifactFile(nil), d.data.Artifacts...)
	out.Checks = append([]models.WorkflowRunSummary(nil), d.data.Checks...)
	return out
}

// current must be called with mu held.
func (d *Drawer) current(t Ticket, f Facet) bool {
	return t.Facet == f && d.data.Issue != nil && t.Generation == d.gen && t.Issue == d.data.Issue.Number
}

func (d *Drawer) fail(f Facet, err error) bool {
	if err == nil {
		return false
	}
	d.states[f] = FacetState{State: Failed, Err: err}
	return true
}
