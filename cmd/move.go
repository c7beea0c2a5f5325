package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joescharf/flowboard/internal/labels"
	"github.com/joescharf/flowboard/internal/models"
	"github.com/joescharf/flowboard/internal/output"
)

var orchestrateWorkType string

var moveCmd = &cobra.Command{
	Use:   "move <number> <stage>",
	Short: "Move an issue to a stage",
	Long: `Replace the issue's status:* label with the given stage and dispatch the
automation workflow with the issue's first work type.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := parseIssueNumber(args[0])
		if err != nil {
			return err
		}
		to, ok := labels.ParseStage(args[1])
		if !ok {
			return fmt.Errorf("unknown stage %q (want one of %v)", args[1], models.Stages())
		}
		return moveRun(cmd.Context(), number, to)
	},
}

var advanceCmd = &cobra.Command{
	Use:   "advance <number>",
	Short: "Move an issue to its next stage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := parseIssueNumber(args[0])
		if err != nil {
			return err
		}
		return advanceRun(cmd.Context(), number)
	},
}

var orchestrateCmd = &cobra.Command{
	Use:   "orchestrate <number>",
	Short: "Dispatch the automation workflow without changing labels",
	Long: `Dispatch the orchestrator workflow for an issue at its current stage.
The work type defaults to the issue's first work-type label.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := parseIssueNumber(args[0])
		if err != nil {
			return err
		}
		return orchestrateRun(cmd.Context(), number)
	},
}

func init() {
	orchestrateCmd.Flags().StringVar(&orchestrateWorkType, "work-type", "", "Work type passed to the workflow")
	rootCmd.AddCommand(moveCmd, advanceCmd, orchestrateCmd)
}

func parseIssueNumber(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(s, "#"))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid issue number %q", s)
	}
	return n, nil
}

func ctxOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func moveRun(ctx context.Context, number int, to models.Stage) error {
	ctx = ctxOrBackground(ctx)
	owner, repo, err := requireRepo()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would move %s/%s#%d to %s", owner, repo, number, to)
		return nil
	}

	res, err := newGateway(nil).MoveIssue(ctx, owner, repo, number, to)
	recordActivity(ctx, &models.Activity{
		Kind: models.ActivityMove, Owner: owner, Repo: repo, IssueNumber: number,
		FromStage: res.From, ToStage: to, WorkType: res.WorkType,
	}, err)
	if err != nil {
		return fmt.Errorf("move #%d: %w", number, err)
	}
	ui.Success("Moved #%d from %s to %s", number, output.StageColor(res.From), output.StageColor(to))
	ui.VerboseLog("Labels: %s", strings.Join(res.Labels, ", "))
	return nil
}

func advanceRun(ctx context.Context, number int) error {
	ctx = ctxOrBackground(ctx)
	owner, repo, err := requireRepo()
	if err != nil {
		return err
	}

	issue, err := newGateway(nil).GetIssue(ctx, owner, repo, number)
	if err != nil {
		return fmt.Errorf("load #%d: %w", number, err)
	}
	next := labels.NextStage(issue.Status)
	if next == issue.Status {
		ui.Info("#%d is already in the final stage", number)
		return nil
	}
	return moveRun(ctx, number, next)
}

func orchestrateRun(ctx context.Context, number int) error {
	ctx = ctxOrBackground(ctx)
	owner, repo, err := requireRepo()
	if err != nil {
		return err
	}
	gw := newGateway(nil)

	issue, err := gw.GetIssue(ctx, owner, repo, number)
	if err != nil {
		return fmt.Errorf("load #%d: %w", number, err)
	}
	wt := issue.PrimaryWorkType()
	if orchestrateWorkType != "" {
		var ok bool
		if wt, ok = labels.ParseWorkType(orchestrateWorkType); !ok {
			return fmt.Errorf("unknown work type %q (want one of %v)", orchestrateWorkType, models.WorkTypes())
		}
	}

	if dryRun {
		ui.DryRunMsg("Would dispatch %s for #%d (%s, %s)", gw.Workflow(), number, issue.Status, wt)
		return nil
	}

	err = gw.DispatchWorkflow(ctx, owner, repo, number, issue.Status, wt)
	recordActivity(ctx, &models.Activity{
		Kind: models.ActivityOrchestrate, Owner: owner, Repo: repo, IssueNumber: number,
		ToStage: issue.Status, WorkType: wt,
	}, err)
	if err != nil {
		return fmt.Errorf("dispatch workflow: %w", err)
	}
	ui.Success("Dispatched %s for #%d (%s)", gw.Workflow(), number, output.StageColor(issue.Status))
	return nil
}
