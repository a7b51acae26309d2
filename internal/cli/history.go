package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent exports",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of entries")
}

func runHistory(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	exports, err := db.RecentExports(historyLimit)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	if len(exports) == 0 {
		fmt.Println("No exports recorded yet.")
		return nil
	}

	for _, e := range exports {
		when := humanize.Time(time.UnixMilli(e.ExportedAt))
		fmt.Printf("%-14s %-24s %8s  %s\n", when, e.Project, humanize.Bytes(uint64(e.Bytes)), e.DestPath)
	}
	return nil
}
