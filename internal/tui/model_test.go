package tui

import (
	"context"
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/flowboard/internal/board"
	"github.com/joescharf/flowboard/internal/models"
)

type fakeMover struct {
	mu    sync.Mutex
	err   error
	moves []models.Stage
}

func (f *fakeMover) MoveIssue(_ context.Context, _ int, to models.Stage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moves = append(f.moves, to)
	return f.err
}

type fakeSource struct {
	pr *models.PullRequestSummary
}

func (f *fakeSource) IssueArtifacts(context.Context, int) ([]models.ArtifactFile, error) {
	return board.SampleArtifacts(), nil
}

func (f *fakeSource) IssueCompare(context.Context, models.IssueSummary) (*models.CompareSummary, string, error) {
	cmp := board.SampleCompare()
	return &cmp, cmp.HeadRef, nil
}

func (f *fakeSource) PullRequestForIssue(context.Context, int) (*models.PullRequestSummary, error) {
	return f.pr, nil
}

func (f *fakeSource) ChecksForPullRequest(context.Context, int) ([]models.WorkflowRunSummary, error) {
	return board.SampleRuns(), nil
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// newLoadedModel returns a sized model with the sample board loaded.
func newLoadedModel(t *testing.T, mover *fakeMover, src *fakeSource) Model {
	t.Helper()
	load := func(context.Context) ([]models.IssueBoardColumn, error) { return board.SampleBoard(), nil }
	m := New(context.Background(), "tardis-pro/navratna", mover, src, load)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	m = next.(Model)
	msg := m.loadBoardCmd()()
	next, _ = m.Update(msg)
	return next.(Model)
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	m, _ = send(t, m, cmd())
	return m
}

func TestModel_LoadsBoard(t *testing.T) {
	m := newLoadedModel(t, &fakeMover{}, &fakeSource{})
	assert.Equal(t, 3, m.Session().Store.Count())
	assert.Contains(t, m.View(), "DISCUSSION")
	assert.Contains(t, m.View(), "#123")
}

func TestModel_LoadError(t *testing.T) {
	load := func(context.Context) ([]models.IssueBoardColumn, error) { return nil, errors.New("bad credentials") }
	m := New(context.Background(), "o/r", &fakeMover{}, &fakeSource{}, load)
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m = run(t, m, m.loadBoardCmd())
	assert.Contains(t, m.View(), "bad credentials")
}

func TestModel_CursorMovesAcrossColumns(t *testing.T) {
	m := newLoadedModel(t, &fakeMover{}, &fakeSource{})

	_, ok := m.cursorIssue()
	assert.False(t, ok, "inception column is empty")

	m, _ = send(t, m, key("l"))
	issue, ok := m.cursorIssue()
	require.True(t, ok)
	assert.Equal(t, 123, issue.Number)

	m, _ = send(t, m, key("j"))
	issue, _ = m.cursorIssue()
	assert.Equal(t, 123, issue.Number, "row is clamped to the column")
}

func TestModel_MoveByNumberKey(t *testing.T) {
	mover := &fakeMover{}
	m := newLoadedModel(t, mover, &fakeSource{})
	m, _ = send(t, m, key("l"))

	m, cmd := send(t, m, key("4"))
	m = run(t, m, cmd)

	issue, ok := m.Session().Store.Find(123)
	require.True(t, ok)
	assert.Equal(t, models.StageReview, issue.Status)
	assert.Equal(t, []models.Stage{models.StageReview}, mover.moves)
}

func TestModel_FailedMoveReverts(t *testing.T) {
	mover := &fakeMover{err: errors.New("forbidden")}
	m := newLoadedModel(t, mover, &fakeSource{})
	m, _ = send(t, m, key("l"))

	m, cmd := send(t, m, key("a"))
	m = run(t, m, cmd)

	issue, _ := m.Session().Store.Find(123)
	assert.Equal(t, models.StageDiscussion, issue.Status)
	assert.Contains(t, m.View(), "forbidden")
}

func TestModel_DrawerLoadsFacets(t *testing.T) {
	src := &fakeSource{pr: &models.PullRequestSummary{Number: 9, Title: "Sample PR", Status: models.PRStatusOpen}}
	m := newLoadedModel(t, &fakeMover{}, src)
	m, _ = send(t, m, key("l"))

	m, cmd := send(t, m, key("enter"))
	require.True(t, m.drawerOpen)
	m = run(t, m, cmd)

	for _, f := range board.Facets() {
		assert.Equal(t, board.Loaded, m.Session().Drawer.State(f).State, f.String())
	}
	assert.Contains(t, m.View(), "#123")

	m, _ = send(t, m, key("tab"))
	m, _ = send(t, m, key("tab"))
	assert.Equal(t, board.FacetPullRequest, m.facet)
	assert.Contains(t, m.viewport.View(), "Sample PR")

	m, _ = send(t, m, key("esc"))
	assert.False(t, m.drawerOpen)
	_, selected := m.Session().Drawer.Selected()
	assert.False(t, selected)
}

func TestRenderFacet_ChecksWithoutPullRequest(t *testing.T) {
	m := newLoadedModel(t, &fakeMover{}, &fakeSource{})
	m, _ = send(t, m, key("l"))
	m, cmd := send(t, m, key("enter"))
	m = run(t, m, cmd)

	out := renderFacet(m.Session().Drawer, board.FacetChecks, 80)
	assert.Contains(t, out, "No pull request")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
}
