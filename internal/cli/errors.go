package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/retrykit/internal/control"
	"github.com/vietddude/retrykit/internal/core/domain"
	"github.com/vietddude/retrykit/internal/recovery"
)

var (
	errorsClear    bool
	errorsUser     string
	errorsCritical bool
	errorsJSON     bool
)

var errorsCmd = &cobra.Command{
	Use:   "errors",
	Short: "List or clear the error journal",
	Run:   runErrors,
}

func init() {
	errorsCmd.Flags().BoolVar(&errorsClear, "clear", false, "delete every entry")
	errorsCmd.Flags().StringVar(&errorsUser, "user", "", "only entries for this user id")
	errorsCmd.Flags().BoolVar(&errorsCritical, "critical", false, "only high and critical entries")
	errorsCmd.Flags().BoolVar(&errorsJSON, "json", false, "print the redacted export as JSON")
	rootCmd.AddCommand(errorsCmd)
}

func runErrors(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg.Logging)

	ctx := context.Background()
	store, err := control.OpenStore(ctx, *cfg)
	if err != nil {
		slog.Error("Failed to open journal", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = store.Close()
	}()

	journal := recovery.New(store.Repo, recovery.WithLimit(cfg.Journal.Limit))

	if errorsClear {
		if err := journal.Clear(ctx); err != nil {
			slog.Error("Failed to clear journal", "error", err)
			os.Exit(1)
		}
		fmt.Println("Journal cleared")
		return
	}

	if errorsJSON {
		exported, err := journal.Export(ctx)
		if err != nil {
			slog.Error("Failed to export journal", "error", err)
			os.Exit(1)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(exported)
		return
	}

	var entries []*domain.ErrorEntry
	switch {
	case errorsUser != "":
		entries, err = journal.ForUser(ctx, errorsUser)
	case errorsCritical:
		entries, err = journal.Critical(ctx)
	default:
		entries, err = journal.Entries(ctx)
	}
	if err != nil {
		slog.Error("Failed to read journal", "error", err)
		os.Exit(1)
	}

	printEntries(entries)
}

func printEntries(entries []*domain.ErrorEntry) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "TIME\tSEVERITY\tCATEGORY\tACTION\tUSER\tRECOVERED\tMESSAGE")

	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%v\t%s\n",
			e.CreatedAt.Format(time.RFC3339),
			e.Severity,
			e.Context.Category,
			e.Context.Action,
			e.Context.UserID,
			e.Recovered,
			e.Message,
		)
	}
	_ = w.Flush()
}
