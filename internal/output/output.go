package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/joescharf/flowboard/internal/models"
)

// UI provides colored output and respects verbose/dry-run modes.
type UI struct {
	Verbose bool
	DryRun  bool
	Out     io.Writer
	ErrOut  io.Writer
}

// New creates a UI with default stdout/stderr writers.
func New() *UI {
	return &UI{
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	}
}

var (
	infoPrefix    = color.New(color.FgHiBlue).Sprint("i")
	successPrefix = color.New(color.FgHiGreen).Sprint("\u2713")
	warningPrefix = color.New(color.FgHiYellow).Sprint("\u26a0")
	errorPrefix   = color.New(color.FgHiRed).Sprint("\u2717")
	verbosePrefix = color.New(color.FgHiBlue).Sprint("  \u2192")
	cyan          = color.New(color.FgHiCyan).SprintFunc()
	green         = color.New(color.FgHiGreen).SprintFunc()
	yellow        = color.New(color.FgHiYellow).SprintFunc()
	red           = color.New(color.FgHiRed).SprintFunc()
	blue          = color.New(color.FgHiBlue).SprintFunc()
	magenta       = color.New(color.FgHiMagenta).SprintFunc()
)

// Cyan returns a cyan-colored string.
func Cyan(s string) string { return cyan(s) }

// Green returns a green-colored string.
func Green(s string) string { return green(s) }

// Yellow returns a yellow-colored string.
func Yellow(s string) string { return yellow(s) }

// Red returns a red-colored string.
func Red(s string) string { return red(s) }

// StageColor returns the stage name colored by how far along the workflow it is.
func StageColor(s models.Stage) string {
	switch s {
	case models.StageInception:
		return magenta(string(s))
	case models.StageDiscussion:
		return cyan(string(s))
	case models.StageBuild:
		return yellow(string(s))
	case models.StageReview:
		return blue(string(s))
	case models.StageDone:
		return green(string(s))
	default:
		return string(s)
	}
}

// CheckColor returns a workflow run outcome colored by result. A nil
// conclusion means the run has not finished and status is shown instead.
func CheckColor(status string, conclusion *string) string {
	if conclusion == nil {
		return yellow(status)
	}
	switch *conclusion {
	case "success":
		return green(*conclusion)
	case "failure", "timed_out", "startup_failure":
		return red(*conclusion)
	default:
		return *conclusion
	}
}

func (u *UI) Info(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", infoPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Success(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", successPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Warning(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", warningPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Error(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", errorPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) VerboseLog(format string, a ...any) {
	if u.Verbose {
		fmt.Fprintf(u.Out, "%s %s\n", verbosePrefix, fmt.Sprintf(format, a...))
	}
}

func (u *UI) DryRunMsg(format string, a ...any) {
	if u.DryRun {
		u.Warning("[DRY-RUN] "+format, a...)
	}
}

// Table creates a new tablewriter configured with consistent styling.
func (u *UI) Table(headers []string) *tablewriter.Table {
	table := tablewriter.NewTable(u.Out,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header(headers)
	return table
}

// Board prints each column as a heading followed by a table of its issues.
// Empty columns are listed with a count of zero.
func (u *UI) Board(columns []models.IssueBoardColumn) error {
	for i, col := range columns {
		if i > 0 {
			fmt.Fprintln(u.Out)
		}
		fmt.Fprintf(u.Out, "%s (%d)\n", StageColor(col.Status), len(col.Issues))
		if len(col.Issues) == 0 {
			continue
		}
		table := u.Table([]string{"#", "Title", "Type", "Assignees"})
		for _, issue := range col.Issues {
			types := make([]string, len(issue.WorkTypes))
			for j, wt := range issue.WorkTypes {
				types[j] = string(wt)
			}
			logins := make([]string, len(issue.Assignees))
			for j, a := range issue.Assignees {
				logins[j] = a.Login
			}
			if err := table.Append([]string{
				fmt.Sprintf("%d", issue.Number),
				issue.Title,
				strings.Join(types, ","),
				strings.Join(logins, ","),
			}); err != nil {
				return err
			}
		}
		if err := table.Render(); err != nil {
			return err
		}
	}
	return nil
}
