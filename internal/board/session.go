package board

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/joescharf/flowboard/internal/labels"
	"github.com/joescharf/flowboard/internal/models"
)

// ErrIssueNotOnBoard is returned when an action names an issue the store does not hold.
var ErrIssueNotOnBoard = errors.New("issue is not on the board")

// Mover persists a stage change remotely.
type Mover interface {
	MoveIssue(ctx context.Context, number int, to models.Stage) error
}

// DrawerSource loads drawer facets for one repository.
type DrawerSource interface {
	IssueArtifacts(ctx context.Context, number int) ([]models.ArtifactFile, error)
	IssueCompare(ctx context.Context, issue models.IssueSummary) (*models.CompareSummary, string, error)
	PullRequestForIssue(ctx context.Context, number int) (*models.PullRequestSummary, error)
	ChecksForPullRequest(ctx context.Context, prNumber int) ([]models.WorkflowRunSummary, error)
}

// NoticeLevel grades a user-visible notice.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient message for the user.
type Notice struct {
	Level   NoticeLevel
	Message string
}

// Notifier receives notices. It may be called from several goroutines.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// Session joins the store and drawer with the remote side: it applies moves
// optimistically, reverts them when the remote update fails, and loads
// drawer facets.
type Session struct {
	Store  *Store
	Drawer *Drawer

	mover  Mover
	source DrawerSource
	notify Notifier
}

// NewSession creates a session with an empty store and drawer. notify may be nil.
func NewSession(mover Mover, source DrawerSource, notify Notifier) *Session {
	if notify == nil {
		notify = NotifierFunc(func(Notice) {})
	}
	return &Session{
		Store:  NewStore(),
		Drawer: NewDrawer(),
		mover:  mover,
		source: source,
		notify: notify,
	}
}

// Move moves an issue to stage. The store is updated before the remote call;
// if that call fails the move is reverted and the error returned.
func (s *Session) Move(ctx context.Context, number int, to models.Stage) error {
	if !to.Valid() {
		return fmt.Errorf("unknown stage %q", to)
	}
	before, ok := s.Store.MoveOptimistic(number, to)
	if !ok {
		return fmt.Errorf("move #%d: %w", number, ErrIssueNotOnBoard)
	}
	s.refreshDrawer(number)

	if err := s.mover.MoveIssue(ctx, number, to); err != nil {
		s.Store.RevertMove(number, before.Status)
		s.refreshDrawer(number)
		s.notify.Notify(Notice{Level: NoticeError, Message: fmt.Sprintf("Could not move #%d to %s: %v", number, to, err)})
		return fmt.Errorf("move #%d to %s: %w", number, to, err)
	}
	s.notify.Notify(Notice{Level: NoticeSuccess, Message: fmt.Sprintf("Moved #%d to %s", number, to)})
	return nil
}

// Advance moves an issue to its next stage and returns the stage it ends in.
// An issue already in the final stage stays put and an info notice is sent.
func (s *Session) Advance(ctx context.Context, number int) (models.Stage, error) {
	issue, ok := s.Store.Find(number)
	if !ok {
		return "", fmt.Errorf("advance #%d: %w", number, ErrIssueNotOnBoard)
	}
	next := labels.NextStage(issue.Status)
	if next == issue.Status {
		s.notify.Notify(Notice{Level: NoticeInfo, Message: fmt.Sprintf("#%d is already in the final stage", number)})
		return issue.Status, nil
	}
	if err := s.Move(ctx, number, next); err != nil {
		return issue.Status, err
	}
	return next, nil
}

// Select opens the drawer on an issue from the store.
func (s *Session) Select(number int) error {
	issue, ok := s.Store.Find(number)
	if !ok {
		return fmt.Errorf("select #%d: %w", number, ErrIssueNotOnBoard)
	}
	s.Drawer.Select(issue)
	return nil
}

// LoadDrawer loads every facet of the selected issue concurrently and
// returns once all loads have settled. Checks are loaded only after the
// pull request facet resolves to a pull request. Results that arrive after
// the selection changed are dropped.
func (s *Session) LoadDrawer(ctx context.Context) {
	issue, tickets, ok := s.Drawer.BeginAll(FacetArtifacts, FacetDiff, FacetPullRequest)
	if !ok {
		return
	}

	var wg sync.WaitGroup
	start := func(t Ticket, ok bool, load func(Ticket)) {
		if !ok {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			load(t)
		}()
	}

	start(tickets[0], true, func(t Ticket) {
		artifacts, err := s.source.IssueArtifacts(ctx, t.Issue)
		s.settled(t, s.Drawer.CompleteArtifacts(t, artifacts, err), err)
	})
	start(tickets[1], true, func(t Ticket) {
		compare, branch, err := s.source.IssueCompare(ctx, issue)
		s.settled(t, s.Drawer.CompleteDiff(t, compare, branch, err), err)
	})
	start(tickets[2], true, func(t Ticket) {
		pr, err := s.source.PullRequestForIssue(ctx, t.Issue)
		applied, checksFor := s.Drawer.CompletePullRequest(t, pr, err)
		s.settled(t, applied, err)
		if !applied || checksFor == 0 {
			return
		}
		ct, ok := s.Drawer.Continue(t, FacetChecks)
		start(ct, ok, func(ct Ticket) {
			runs, err := s.source.ChecksForPullRequest(ctx, checksFor)
			s.settled(ct, s.Drawer.CompleteChecks(ct, runs, err), err)
		})
	})

	wg.Wait()
}

func (s *Session) settled(t Ticket, applied bool, err error) {
	if !applied || err == nil {
		return
	}
	s.notify.Notify(Notice{Level: NoticeError, Message: fmt.Sprintf("Failed to load %s for #%d: %v", t.Facet, t.Issue, err)})
}

func (s *Session) refreshDrawer(number int) {
	if issue, ok := s.Store.Find(number); ok {
		s.Drawer.Refresh(issue)
	}
}
