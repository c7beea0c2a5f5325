package board

import (
	"sync"

	"github.com/joescharf/flowboard/internal/labels"
	"github.com/joescharf/flowboard/internal/models"
)

// Store holds the board's columns and applies optimistic moves. It knows
// nothing about the network: callers revert a move when the remote update
// fails. All methods are synchronous and safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	columns []models.IssueBoardColumn
}

// NewStore returns a store with one empty column per stage.
func NewStore() *Store {
	return &Store{columns: GroupByStage(nil)}
}

// SetColumns replaces the board contents. Columns are normalized to the
// fixed stage order; issues in a column with an unknown stage move to the
// default stage column.
func (s *Store) SetColumns(columns []models.IssueBoardColumn) {
	normalized := GroupByStage(nil)
	for _, c := range columns {
		idx := c.Status.Rank()
		if idx < 0 {
			idx = labels.DefaultStage.Rank()
		}
		for _, issue := range c.Issues {
			normalized[idx].Issues = append(normalized[idx].Issues, issue.Clone())
		}
	}
	s.mu.Lock()
	s.columns = normalized
	s.mu.Unlock()
}

// Columns returns a deep copy of the current columns.
func (s *Store) Columns() []models.IssueBoardColumn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneColumns(s.columns)
}

// Find returns the issue with the given number.
func (s *Store) Find(number int) (models.IssueSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ci, ii := s.locate(number); ci >= 0 {
		return s.columns[ci].Issues[ii].Clone(), true
	}
	return models.IssueSummary{}, false
}

// MoveOptimistic moves an issue to the head of the target column and stamps
// it with the new stage. It returns the issue as it was before the move so
// the caller can revert. If the issue is not on the board, or the stage is
// unknown, nothing changes and ok is false.
func (s *Store) MoveOptimistic(number int, to models.Stage) (before models.IssueSummary, ok bool) {
	target := to.Rank()
	if target < 0 {
		return models.IssueSummary{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ci, ii := s.locate(number)
	if ci < 0 {
		return models.IssueSummary{}, false
	}
	issue := s.columns[ci].Issues[ii]
	before = issue.Clone()

	s.remove(ci, ii)
	issue.Status = to
	s.prepend(target, issue)
	return before, true
}

// RevertMove puts an issue back at the head of the column for original,
// wherever it currently sits, and restores its stage. It is a no-op when the
// issue is not on the board.
func (s *Store) RevertMove(number int, original models.Stage) {
	target := original.Rank()
	if target < 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ci, ii := s.locate(number)
	if ci < 0 {
		return
	}
	issue := s.columns[ci].Issues[ii]
	s.remove(ci, ii)
	issue.Status = original
	s.prepend(target, issue)
}

// Count returns the number of issues on the board.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.columns {
		n += len(c.Issues)
	}
	return n
}

// locate must be called with mu held.
func (s *Store) locate(number int) (col, idx int) {
	for ci, c := range s.columns {
		for ii, issue := range c.Issues {
			if issue.Number == number {
				return ci, ii
			}
		}
	}
	return -1, -1
}

func (s *Store) remove(ci, ii int) {
	issues := s.columns[ci].Issues
	out := make([]models.IssueSummary, 0, len(issues)-1)
	out = append(out, issues[:ii]...)
	out = append(out, issues[ii+1:]...)
	s.columns[ci].Issues = out
}

func (s *Store) prepend(ci int, issue models.IssueSummary) {
	issues := s.columns[ci].Issues
	out := make([]models.IssueSummary, 0, len(issues)+1)
	out = append(out, issue)
	out = append(out, issues...)
	s.columns[ci].Issues = out
}

func cloneColumns(columns []models.IssueBoardColumn) []models.IssueBoardColumn {
	out := make([]models.IssueBoardColumn, len(columns))
	for i, c := range columns {
		issues := make([]models.IssueSummary, len(c.Issues))
		for j, issue := range c.Issues {
			issues[j] = issue.Clone()
		}
		out[i] = models.IssueBoardColumn{Status: c.Status, Issues: issues}
	}
	return out
}
