package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	bd "github.com/joescharf/flowboard/internal/board"
	"github.com/joescharf/flowboard/internal/gateway"
	"github.com/joescharf/flowboard/internal/labels"
	"github.com/joescharf/flowboard/internal/models"
)

var (
	boardAssignee string
	boardLabels   []string
	boardStatuses []string
	boardQuery    string
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Print the board columns",
	Long: `Print the open issues of the repository grouped by stage.

Examples:
  flowboard board
  flowboard board --owner tardis-pro --repo navratna --status build --status review
  flowboard board --label bugfix -q login`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return boardRun(cmd.Context())
	},
}

func init() {
	boardCmd.Flags().StringVar(&boardAssignee, "assignee", "", "Only issues assigned to this login")
	boardCmd.Flags().StringSliceVar(&boardLabels, "label", nil, "Only issues carrying every given label")
	boardCmd.Flags().StringSliceVar(&boardStatuses, "status", nil, "Only issues in these stages")
	boardCmd.Flags().StringVarP(&boardQuery, "query", "q", "", "Case-insensitive text matched against title and body")
	rootCmd.AddCommand(boardCmd)
}

// buildIssueFilter validates the board flags into a filter.
func buildIssueFilter(owner, repo string) (gateway.IssueFilter, error) {
	f := gateway.IssueFilter{
		Owner:    owner,
		Repo:     repo,
		Assignee: boardAssignee,
		Labels:   boardLabels,
		Query:    boardQuery,
	}
	for _, s := range boardStatuses {
		st, ok := labels.ParseStage(s)
		if !ok {
			return gateway.IssueFilter{}, fmt.Errorf("unknown stage %q (want one of %v)", s, models.Stages())
		}
		f.Statuses = append(f.Statuses, st)
	}
	return f, nil
}

func boardRun(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	owner, repo, err := requireRepo()
	if err != nil {
		return err
	}
	filter, err := buildIssueFilter(owner, repo)
	if err != nil {
		return err
	}

	issues, err := newGateway(nil).FetchIssues(ctx, filter)
	if err != nil {
		return fmt.Errorf("load issues for %s/%s: %w", owner, repo, err)
	}

	ui.Info("%s/%s: %d open issues", owner, repo, len(issues))
	fmt.Fprintln(ui.Out)
	return ui.Board(bd.GroupByStage(issues))
}
