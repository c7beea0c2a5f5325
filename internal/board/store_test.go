package board

import (
	"sort"
	"sync"
	"testing"

	"github.com/joescharf/flowboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStore() *Store {
	s := NewStore()
	s.SetColumns(GroupByStage([]models.IssueSummary{
		issue(1, models.StageInception),
		issue(2, models.StageBuild),
		issue(3, models.StageBuild),
		issue(4, models.StageReview),
	}))
	return s
}

func column(cols []models.IssueBoardColumn, s models.Stage) []int {
	return numbers(cols[s.Rank()].Issues)
}

func TestStore_MoveOptimisticHeadInserts(t *testing.T) {
	s := seededStore()

	before, ok := s.MoveOptimistic(3, models.StageReview)

	require.True(t, ok)
	assert.Equal(t, models.StageBuild, before.Status, "pre-move snapshot is returned")
	cols := s.Columns()
	assert.Equal(t, []int{2}, column(cols, models.StageBuild))
	assert.Equal(t, []int{3, 4}, column(cols, models.StageReview))
	moved, _ := s.Find(3)
	assert.Equal(t, models.StageReview, moved.Status)
}

func TestStore_MoveRevertRoundTrip(t *testing.T) {
	for _, from := range models.Stages() {
		for _, to := range models.Stages() {
			s := NewStore()
			s.SetColumns(GroupByStage([]models.IssueSummary{issue(10, from), issue(11, from), issue(12, to)}))
			original := s.Columns()

			before, ok := s.MoveOptimistic(11, to)
			require.True(t, ok)
			s.RevertMove(11, before.Status)

			after := s.Columns()
			for i := range original {
				want := numbers(original[i].Issues)
				got := numbers(after[i].Issues)
				sort.Ints(want)
				sort.Ints(got)
				assert.Equal(t, want, got, "%s -> %s column %s", from, to, original[i].Status)
			}
			restored, ok := s.Find(11)
			require.True(t, ok)
			assert.Equal(t, from, restored.Status)
		}
	}
}

func TestStore_MoveMissingIsNoop(t *testing.T) {
	s := seededStore()
	original := s.Columns()

	_, ok := s.MoveOptimistic(99, models.StageDone)

	assert.False(t, ok)
	assert.Equal(t, original, s.Columns())
}

func TestStore_MoveUnknownStageIsNoop(t *testing.T) {
	s := seededStore()
	original := s.Columns()

	_, ok := s.MoveOptimistic(1, models.Stage("shipped"))

	assert.False(t, ok)
	assert.Equal(t, original, s.Columns())
}

func TestStore_RevertMissingIsNoop(t *testing.T) {
	s := seededStore()
	original := s.Columns()

	s.RevertMove(99, models.StageBuild)
	s.RevertMove(99, models.StageBuild)

	assert.Equal(t, original, s.Columns())
}

func TestStore_ColumnsIsACopy(t *testing.T) {
	s := seededStore()
	cols := s.Columns()
	cols[0].Issues[0].Title = "mutated"
	cols[0].Issues[0].Labels[0].Name = "mutated"

	got, _ := s.Find(1)
	assert.Equal(t, "issue", got.Title)
	assert.Equal(t, "status:inception", got.Labels[0].Name)
}

func TestStore_SetColumnsNormalizes(t *testing.T) {
	s := NewStore()
	s.SetColumns([]models.IssueBoardColumn{
		{Status: models.StageDone, Issues: []models.IssueSummary{issue(5, models.StageDone)}},
		{Status: models.Stage("bogus"), Issues: []models.IssueSummary{issue(6, models.StageInception)}},
	})

	cols := s.Columns()
	require.Len(t, cols, 5)
	assert.Equal(t, []int{6}, column(cols, models.StageInception))
	assert.Equal(t, []int{5}, column(cols, models.StageDone))
	assert.Equal(t, 2, s.Count())
}

// Issue 42 labelled status:build + feature is moved to review, the remote
// update fails, and the move is reverted.
func TestStore_Issue42Scenario(t *testing.T) {
	issue42 := decodeIssue(t, `{"id":4200,"number":42,"title":"Scenario","labels":["status:build","feature"],
		"assignees":[{"login":"alice","avatar_url":"https://a/1"}]}`)
	summary := ToIssueSummary(issue42, "acme", "widgets")
	require.Equal(t, models.StageBuild, summary.Status)
	require.Equal(t, []models.WorkType{models.WorkTypeFeature}, summary.WorkTypes)

	s := NewStore()
	s.SetColumns(GroupByStage([]models.IssueSummary{summary, issue(7, models.StageReview)}))

	before, ok := s.MoveOptimistic(42, models.StageReview)
	require.True(t, ok)
	cols := s.Columns()
	assert.NotContains(t, column(cols, models.StageBuild), 42)
	assert.Equal(t, 42, column(cols, models.StageReview)[0])
	moved, _ := s.Find(42)
	assert.Equal(t, models.StageReview, moved.Status)

	s.RevertMove(42, before.Status)

	cols = s.Columns()
	assert.Equal(t, []int{42}, column(cols, models.StageBuild))
	assert.Equal(t, []int{7}, column(cols, models.StageReview))
	restored, _ := s.Find(42)
	assert.Equal(t, summary, restored, "fields other than status never change")
}

func TestStore_ConcurrentMoves(t *testing.T) {
	s := NewStore()
	var issues []models.IssueSummary
	for n := 1; n <= 50; n++ {
		issues = append(issues, issue(n, models.StageInception))
	}
	s.SetColumns(GroupByStage(issues))

	var wg sync.WaitGroup
	for n := 1; n <= 50; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.MoveOptimistic(n, models.StageDone)
		}(n)
	}
	wg.Wait()

	assert.Len(t, s.Columns()[models.StageDone.Rank()].Issues, 50)
	assert.Equal(t, 50, s.Count())
}
