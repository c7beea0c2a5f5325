package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/joescharf/flowboard/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive terminal board",
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, repo, err := requireRepo()
		if err != nil {
			return err
		}
		ctx := ctxOrBackground(cmd.Context())
		scope := newGateway(nil).Scope(owner, repo)

		m := tui.New(ctx, fmt.Sprintf("%s/%s", owner, repo), scope, scope, scope.Board)
		_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
