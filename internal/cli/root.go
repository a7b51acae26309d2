package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "recount",
	Short: "Export Claude Code conversations to Markdown",
	Long: "Recount scans your stored Claude Code conversation logs, lets you pick one\n" +
		"interactively, and converts it into a clean Markdown document.",
	RunE: runExport, // bare `recount` is the interactive export flow
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
}
