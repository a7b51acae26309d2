package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/lazypower/recount/internal/discovery"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List discovered conversations",
	RunE:  runList,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "Show at most N conversations (0 = all)")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	dir, err := projectsDir()
	if err != nil {
		return err
	}
	convs, err := discovery.Scan(dir)
	if err != nil {
		return fmt.Errorf("scan conversations: %w", err)
	}
	if len(convs) == 0 {
		fmt.Printf("No conversations found under %s\n", dir)
		return nil
	}

	if listLimit > 0 && len(convs) > listLimit {
		convs = convs[:listLimit]
	}

	for _, c := range convs {
		preview := discovery.Preview(c.Path, cfg.MaxPreviewLength)
		fmt.Printf("%-38s %-24s %-14s %8s\n", c.SessionID, c.Project, humanize.Time(c.Modified), humanize.Bytes(uint64(c.Size)))
		if preview != "" {
			fmt.Printf("    %s\n", preview)
		}
	}
	return nil
}
