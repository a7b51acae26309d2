package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/lazypower/recount/internal/config"
	"github.com/lazypower/recount/internal/discovery"
	"github.com/lazypower/recount/internal/export"
	"github.com/lazypower/recount/internal/picker"
	"github.com/lazypower/recount/internal/render"
	"github.com/lazypower/recount/internal/store"
	"github.com/lazypower/recount/internal/transcript"
)

var (
	exportFile    string
	exportSession string
	exportOutput  string
	exportAll     bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a conversation to Markdown",
	Long: "Export converts a conversation log into a Markdown document. With no flags\n" +
		"it presents an interactive menu of discovered conversations.",
	RunE: runExport,
}

func init() {
	for _, cmd := range []*cobra.Command{exportCmd, rootCmd} {
		cmd.Flags().StringVarP(&exportFile, "file", "f", "", "Export a specific JSONL file instead of scanning")
		cmd.Flags().StringVarP(&exportSession, "session", "s", "", "Export by session ID (or unique prefix)")
		cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Destination path (default: export directory)")
		cmd.Flags().BoolVar(&exportAll, "all", false, "Export every discovered conversation")
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	if exportFile != "" {
		conv, err := conversationFromFile(exportFile)
		if err != nil {
			return err
		}
		return exportOne(cfg, conv, exportOutput)
	}

	projectsDir, err := projectsDir()
	if err != nil {
		return err
	}
	convs, err := discovery.Scan(projectsDir)
	if err != nil {
		return fmt.Errorf("scan conversations: %w", err)
	}
	if len(convs) == 0 {
		return fmt.Errorf("no conversations found under %s", projectsDir)
	}

	if exportAll {
		for _, conv := range convs {
			if err := exportOne(cfg, conv, ""); err != nil {
				return err
			}
		}
		return nil
	}

	if exportSession != "" {
		conv, ok := discovery.FindBySessionID(convs, exportSession)
		if !ok {
			return fmt.Errorf("no unique conversation matches session %q", exportSession)
		}
		return exportOne(cfg, conv, exportOutput)
	}

	if !picker.IsInteractive(os.Stdin) {
		return fmt.Errorf("stdin is not a terminal; use --file, --session, or --all")
	}

	opts := make([]picker.Option, len(convs))
	for i, conv := range convs {
		opts[i] = picker.Option{
			Conversation: conv,
			Preview:      discovery.Preview(conv.Path, cfg.MaxPreviewLength),
		}
	}

	idx, err := picker.Choose(opts, os.Stdin, os.Stdout, picker.Width(os.Stdout))
	if err != nil {
		return err
	}
	return exportOne(cfg, convs[idx], exportOutput)
}

func exportOne(cfg config.Config, conv discovery.Conversation, dest string) error {
	turns, skipped, err := transcript.ReadFile(conv.Path)
	if err != nil {
		return err
	}
	if skipped > 0 {
		fmt.Fprintf(os.Stderr, "warning: skipped %d malformed lines in %s\n", skipped, conv.Path)
	}

	r := render.New(render.Options{
		MaxResultLength: cfg.MaxResultLength,
		DateFormat:      cfg.DateDisplayFormat,
	})
	doc := r.Assemble(turns)

	db, dbErr := openDB()
	if dbErr != nil {
		fmt.Fprintf(os.Stderr, "warning: history unavailable: %v\n", dbErr)
	} else {
		defer db.Close()
		if prev, err := db.LastExportFor(conv.Path); err == nil && prev != nil {
			fmt.Fprintf(os.Stderr, "note: previously exported to %s %s\n",
				prev.DestPath, humanize.Time(time.UnixMilli(prev.ExportedAt)))
		}
	}

	if dest == "" {
		dest = export.DefaultDest(cfg.ExportDirectory, conv)
	}
	if err := export.Write(doc, dest, cfg.AllowedBasePath); err != nil {
		return err
	}

	if db != nil {
		recordHistory(db, conv, dest, int64(len(doc)))
	}

	fmt.Printf("exported %s\n", dest)
	return nil
}

// recordHistory appends the export to the history ledger. History is a
// convenience, not a requirement: failures only warn.
func recordHistory(db *store.DB, conv discovery.Conversation, dest string, bytes int64) {
	if _, err := db.RecordExport(store.Export{
		SourcePath: conv.Path,
		DestPath:   dest,
		Project:    conv.Project,
		SessionID:  conv.SessionID,
		Bytes:      bytes,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "warning: record export: %v\n", err)
	}
}

func conversationFromFile(path string) (discovery.Conversation, error) {
	info, err := os.Stat(path)
	if err != nil {
		return discovery.Conversation{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return discovery.Conversation{
		Path:      path,
		Project:   discovery.ProjectName(filepath.Base(filepath.Dir(path))),
		SessionID: strings.TrimSuffix(filepath.Base(path), ".jsonl"),
		Modified:  info.ModTime(),
		Size:      info.Size(),
	}, nil
}

// loadConfig loads the user config, falling back to defaults with a warning
// rather than refusing to run.
func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v (using defaults)\n", err)
	}
	return cfg
}

// projectsDir resolves the conversation root, honoring the
// RECOUNT_PROJECTS_DIR override.
func projectsDir() (string, error) {
	if dir := os.Getenv("RECOUNT_PROJECTS_DIR"); dir != "" {
		return dir, nil
	}
	return discovery.DefaultProjectsDir()
}

// openDB opens the export-history database for CLI commands.
func openDB() (*store.DB, error) {
	dbPath := os.Getenv("RECOUNT_DB")
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}
	return store.Open(dbPath)
}
