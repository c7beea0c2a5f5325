// Package tui is the interactive terminal board. It hosts a board.Session:
// moves are applied to the local store at once and reverted if GitHub
// refuses them, and the drawer loads its facets in the background.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joescharf/flowboard/internal/board"
	"github.com/joescharf/flowboard/internal/models"
)

// noticeTTL is how long a notice stays in the status line.
const noticeTTL = 5 * time.Second

// LoadFunc fetches the board columns.
type LoadFunc func(ctx context.Context) ([]models.IssueBoardColumn, error)

// — messages ————————————————————————————————————————————————————————————————

type boardLoadedMsg struct {
	columns []models.IssueBoardColumn
	err     error
}

type moveDoneMsg struct{ err error }

type drawerLoadedMsg struct{}

// — notices —————————————————————————————————————————————————————————————————

// noticeBox keeps the latest notice. The session calls Notify from loader
// goroutines, so access is guarded.
type noticeBox struct {
	mu     sync.Mutex
	notice board.Notice
	at     time.Time
}

func (n *noticeBox) Notify(notice board.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notice = notice
	n.at = time.Now()
}

func (n *noticeBox) current(now time.Time) (board.Notice, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.notice.Message == "" || now.Sub(n.at) > noticeTTL {
		return board.Notice{}, false
	}
	return n.notice, true
}

// — model ———————————————————————————————————————————————————————————————————

// Model is the bubbletea model for the board.
type Model struct {
	ctx     context.Context
	title   string
	session *board.Session
	load    LoadFunc
	notices *noticeBox

	spinner  spinner.Model
	viewport viewport.Model
	width    int
	height   int

	loading bool
	moving  int
	err     error

	col, row   int
	drawerOpen bool
	facet      board.Facet
}

// New creates a board model for the repository named by title.
func New(ctx context.Context, title string, mover board.Mover, source board.DrawerSource, load LoadFunc) Model {
	notices := &noticeBox{}
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	return Model{
		ctx:      ctx,
		title:    title,
		session:  board.NewSession(mover, source, notices),
		load:     load,
		notices:  notices,
		spinner:  sp,
		viewport: viewport.New(0, 0),
		loading:  true,
	}
}

// Session exposes the hosted session.
func (m Model) Session() *board.Session { return m.session }

// — commands ————————————————————————————————————————————————————————————————

func (m Model) loadBoardCmd() tea.Cmd {
	return func() tea.Msg {
		cols, err := m.load(m.ctx)
		return boardLoadedMsg{columns: cols, err: err}
	}
}

func (m Model) moveCmd(number int, to models.Stage) tea.Cmd {
	return func() tea.Msg {
		return moveDoneMsg{err: m.session.Move(m.ctx, number, to)}
	}
}

func (m Model) advanceCmd(number int) tea.Cmd {
	return func() tea.Msg {
		_, err := m.session.Advance(m.ctx, number)
		return moveDoneMsg{err: err}
	}
}

func (m Model) loadDrawerCmd() tea.Cmd {
	return func() tea.Msg {
		m.session.LoadDrawer(m.ctx)
		return drawerLoadedMsg{}
	}
}

// — tea.Model ———————————————————————————————————————————————————————————————

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadBoardCmd(), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = max(msg.Width-4, 10)
		m.viewport.Height = max(msg.Height/2-4, 3)
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.drawerOpen {
			m.refreshViewport()
		}
		return m, cmd

	case boardLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.session.Store.SetColumns(msg.columns)
		m.clampCursor()
		return m, nil

	case moveDoneMsg:
		m.moving--
		m.clampCursor()
		m.refreshViewport()
		return m, nil

	case drawerLoadedMsg:
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		if m.drawerOpen {
			return m.updateDrawer(msg)
		}
		return m.updateBoard(msg)
	}
	return m, nil
}

func (m Model) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "r":
		m.loading = true
		return m, m.loadBoardCmd()
	case "left", "h":
		if m.col > 0 {
			m.col--
		}
		m.clampCursor()
	case "right", "l":
		if m.col < len(models.Stages())-1 {
			m.col++
		}
		m.clampCursor()
	case "up", "k":
		if m.row > 0 {
			m.row--
		}
	case "down", "j":
		m.row++
		m.clampCursor()
	case "enter":
		issue, ok := m.cursorIssue()
		if !ok {
			return m, nil
		}
		if err := m.session.Select(issue.Number); err != nil {
			return m, nil
		}
		m.drawerOpen = true
		m.facet = board.FacetArtifacts
		m.viewport.GotoTop()
		m.refreshViewport()
		return m, m.loadDrawerCmd()
	case "a", ">":
		if issue, ok := m.cursorIssue(); ok {
			m.moving++
			return m, m.advanceCmd(issue.Number)
		}
	case "1", "2", "3", "4", "5":
		issue, ok := m.cursorIssue()
		if !ok {
			return m, nil
		}
		i, _ := strconv.Atoi(key)
		to := models.Stages()[i-1]
		if to == issue.Status {
			return m, nil
		}
		m.moving++
		return m, m.moveCmd(issue.Number, to)
	}
	return m, nil
}

func (m Model) updateDrawer(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "q":
		m.drawerOpen = false
		m.session.Drawer.Deselect()
		return m, nil
	case "tab":
		m.facet = (m.facet + 1) % board.Facet(len(board.Facets()))
		m.viewport.GotoTop()
		m.refreshViewport()
		return m, nil
	case "shift+tab":
		n := board.Facet(len(board.Facets()))
		m.facet = (m.facet + n - 1) % n
		m.viewport.GotoTop()
		m.refreshViewport()
		return m, nil
	case "r":
		if issue, ok := m.session.Drawer.Selected(); ok {
			_ = m.session.Select(issue.Number)
			m.refreshViewport()
			return m, m.loadDrawerCmd()
		}
	case "a", ">":
		if issue, ok := m.session.Drawer.Selected(); ok {
			m.moving++
			return m, m.advanceCmd(issue.Number)
		}
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// — cursor ——————————————————————————————————————————————————————————————————

func (m Model) cursorIssue() (models.IssueSummary, bool) {
	cols := m.session.Store.Columns()
	if m.col >= len(cols) || m.row >= len(cols[m.col].Issues) {
		return models.IssueSummary{}, false
	}
	return cols[m.col].Issues[m.row], true
}

func (m *Model) clampCursor() {
	cols := m.session.Store.Columns()
	if m.col >= len(cols) {
		m.col = 0
		m.row = 0
		return
	}
	if n := len(cols[m.col].Issues); m.row >= n {
		m.row = max(n-1, 0)
	}
}

// — view ————————————————————————————————————————————————————————————————————

func (m Model) View() string {
	if m.width == 0 {
		return ""
	}
	if m.loading && m.session.Store.Count() == 0 {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.spinner.View() + " Loading " + m.title + "…")
	}
	if m.err != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(
			fmt.Sprintf("Error: %v\n\nPress r to retry, q to quit.", m.err),
		)
	}

	parts := []string{m.renderHeader(), m.renderColumns()}
	if m.drawerOpen {
		parts = append(parts, drawerStyle.Width(max(m.width-2, 10)).Render(m.renderDrawerHeader()+"\n"+m.viewport.View()))
	}
	parts = append(parts, m.renderStatus())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader() string {
	h := titleStyle.Render("flowboard") + " " + dimStyle.Render(m.title)
	if m.loading || m.moving > 0 || m.session.Drawer.Busy() {
		h += " " + m.spinner.View()
	}
	return h
}

func (m Model) renderColumns() string {
	cols := m.session.Store.Columns()
	if len(cols) == 0 {
		return dimStyle.Render("No issues.")
	}
	width := max(m.width/len(cols)-2, 12)
	maxRows := max(m.height-8, 3)
	if m.drawerOpen {
		maxRows = max(m.height/2-6, 2)
	}

	rendered := make([]string, len(cols))
	for i, col := range cols {
		lines := []string{stageHeading(col.Status, len(col.Issues))}
		for j, issue := range col.Issues {
			if j >= maxRows {
				lines = append(lines, dimStyle.Render(fmt.Sprintf("+%d more", len(col.Issues)-j)))
				break
			}
			text := truncate(fmt.Sprintf("#%d %s", issue.Number, issue.Title), width-2)
			style := cardStyle
			if i == m.col && j == m.row {
				style = selectedStyle
			}
			lines = append(lines, style.Render(text))
		}
		st := columnStyle
		if i == m.col {
			st = focusedColumnStyle
		}
		rendered[i] = st.Width(width).Render(strings.Join(lines, "\n"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderDrawerHeader() string {
	issue, ok := m.session.Drawer.Selected()
	if !ok {
		return ""
	}
	head := titleStyle.Render(fmt.Sprintf("#%d %s", issue.Number, issue.Title)) +
		dimStyle.Render(" ["+string(issue.Status)+"]")
	tabs := make([]string, 0, len(board.Facets()))
	for _, f := range board.Facets() {
		label := f.String()
		switch m.session.Drawer.State(f).State {
		case board.Loading:
			label += " " + m.spinner.View()
		case board.Failed:
			label += " !"
		}
		st := tabStyle
		if f == m.facet {
			st = activeTabStyle
		}
		tabs = append(tabs, st.Render(label))
	}
	return head + "\n" + strings.Join(tabs, "")
}

func (m Model) renderStatus() string {
	help := "←/→ column  ↑/↓ issue  enter open  1-5 move  a advance  r reload  q quit"
	if m.drawerOpen {
		help = "tab facet  ↑/↓ scroll  a advance  r reload  esc close"
	}
	if n, ok := m.notices.current(time.Now()); ok {
		return noticeStyle(n.Level).Render(n.Message) + "  " + helpStyle.Render(help)
	}
	return helpStyle.Render(help)
}

func (m *Model) refreshViewport() {
	if !m.drawerOpen {
		return
	}
	m.viewport.SetContent(renderFacet(m.session.Drawer, m.facet, m.viewport.Width))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func itoa(n int) string { return strconv.Itoa(n) }
