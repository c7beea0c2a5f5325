package tui

import (
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"

	"github.com/joescharf/flowboard/internal/board"
	"github.com/joescharf/flowboard/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	focusedColumnStyle = columnStyle.
				BorderForeground(lipgloss.Color("205"))

	cardStyle     = lipgloss.NewStyle()
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	dimStyle      = lipgloss.NewStyle().Faint(true)
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	helpStyle     = lipgloss.NewStyle().Faint(true).PaddingLeft(1)

	drawerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(0, 1)

	tabStyle       = lipgloss.NewStyle().Padding(0, 1)
	activeTabStyle = tabStyle.Bold(true).Underline(true)
)

var stageColors = map[models.Stage]lipgloss.Color{
	models.StageInception:  lipgloss.Color("177"),
	models.StageDiscussion: lipgloss.Color("45"),
	models.StageBuild:      lipgloss.Color("214"),
	models.StageReview:     lipgloss.Color("33"),
	models.StageDone:       lipgloss.Color("42"),
}

func stageHeading(s models.Stage, count int) string {
	return lipgloss.NewStyle().Bold(true).Foreground(stageColors[s]).Render(strings.ToUpper(string(s))) +
		dimStyle.Render(" "+itoa(count))
}

func noticeStyle(level board.NoticeLevel) lipgloss.Style {
	switch level {
	case board.NoticeError:
		return errStyle
	case board.NoticeSuccess:
		return okStyle
	default:
		return infoStyle
	}
}

// highlightPatch colors a unified diff. The plain patch is returned when
// highlighting fails.
func highlightPatch(patch string) string {
	var b strings.Builder
	if err := quick.Highlight(&b, patch, "diff", "terminal256", "monokai"); err != nil {
		return patch
	}
	return b.String()
}
