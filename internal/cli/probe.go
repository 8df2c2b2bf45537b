package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/retrykit/internal/control"
	"github.com/vietddude/retrykit/internal/core/retry"
	"github.com/vietddude/retrykit/internal/infra/httpretry"
)

var (
	probeMethod  string
	probeRetries int
	probeTimeout time.Duration
)

var probeCmd = &cobra.Command{
	Use:   "probe <url>",
	Short: "Fetch a URL once through the retry engine",
	Args:  cobra.ExactArgs(1),
	Run:   runProbe,
}

func init() {
	probeCmd.Flags().StringVar(&probeMethod, "method", "GET", "HTTP method")
	probeCmd.Flags().IntVar(&probeRetries, "retries", 0, "total attempts (default from config)")
	probeCmd.Flags().DurationVar(&probeTimeout, "timeout", 0, "per-attempt timeout (default from config)")
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg.Logging)

	retryCfg := cfg.Retry
	if probeRetries > 0 {
		retryCfg.MaxRetries = probeRetries
	}
	if probeTimeout > 0 {
		retryCfg.Timeout = probeTimeout
	}

	client := httpretry.New(cfg.HTTP, control.RetryConfig(retryCfg, slog.Default()))
	defer client.Close()

	url := args[0]
	resp, err := client.Fetch(context.Background(), url, httpretry.FetchOptions{Method: probeMethod})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", retry.UserMessage(err))
		fmt.Fprintf(os.Stderr, "category=%s error=%v\n", retry.Classify(err), err)
		os.Exit(1)
	}

	fmt.Printf("%s %d (%d bytes in %s)\n", url, resp.StatusCode, len(resp.Body), resp.Latency.Round(time.Millisecond))
}
