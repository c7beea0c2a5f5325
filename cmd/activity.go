package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joescharf/flowboard/internal/models"
	"github.com/joescharf/flowboard/internal/output"
	"github.com/joescharf/flowboard/internal/store"
)

var (
	activityLimit int
	activityAll   bool
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show recent moves, dispatches and pull requests made through flowboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		return activityRun(cmd.Context())
	},
}

func init() {
	activityCmd.Flags().IntVar(&activityLimit, "limit", store.DefaultActivityLimit, "Maximum entries to show")
	activityCmd.Flags().BoolVar(&activityAll, "all", false, "Show every repository, not just the current one")
	rootCmd.AddCommand(activityCmd)
}

func activityRun(ctx context.Context) error {
	ctx = ctxOrBackground(ctx)
	s, err := getStore()
	if err != nil {
		return err
	}

	filter := store.ActivityFilter{Limit: activityLimit}
	if !activityAll {
		filter.Owner, filter.Repo = defaultRepo()
	}
	entries, err := s.ListActivity(ctx, filter)
	if err != nil {
		return fmt.Errorf("list activity: %w", err)
	}
	if len(entries) == 0 {
		ui.Info("No activity recorded")
		return nil
	}

	table := ui.Table([]string{"When", "Repo", "Issue", "Action", "Stage", "Outcome"})
	for _, a := range entries {
		if err := table.Append([]string{
			a.CreatedAt.Local().Format("2006-01-02 15:04"),
			a.Owner + "/" + a.Repo,
			"#" + strconv.Itoa(a.IssueNumber),
			string(a.Kind),
			stageChange(a),
			outcome(a),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

func stageChange(a *models.Activity) string {
	switch {
	case a.FromStage != "" && a.ToStage != "":
		return string(a.FromStage) + " -> " + output.StageColor(a.ToStage)
	case a.ToStage != "":
		return output.StageColor(a.ToStage)
	default:
		return ""
	}
}

func outcome(a *models.Activity) string {
	if a.Outcome == models.OutcomeFailed {
		return output.Red("failed: " + a.Detail)
	}
	return output.Green(string(a.Outcome))
}
