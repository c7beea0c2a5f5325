package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joescharf/flowboard/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server",
	Long: `Start an MCP (Model Context Protocol) server on stdio so agents can read
and drive the board. Configure in an MCP client with:

  {
    "mcpServers": {
      "flowboard": { "command": "flowboard", "args": ["mcp"] }
    }
  }

Available tools: flowboard_board, flowboard_issue, flowboard_move,
flowboard_advance, flowboard_orchestrate, flowboard_activity`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries the protocol; diagnostics go to stderr.
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		slog.SetDefault(logger)

		owner, repo := defaultRepo()
		activity, err := getStore()
		if err != nil {
			logger.Warn("activity log disabled", "error", err)
			activity = nil
		}

		srv := mcp.NewServer(newGateway(logger), activity, owner, repo)
		return srv.ServeStdio(ctxOrBackground(cmd.Context()))
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
