package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	ctxutil "italiancorner/mydata_core/internal/infrastructure/context"
)

var retryAllCmd = &cobra.Command{
	Use:   "retry-all",
	Short: "Resubmit every payload in the retry queue",
	Long: `retry-all resubmits the queued payloads one after the other, paced by
MYDATA_RETRY_RPS, and prints the report as JSON. It exits non-zero when
any payload is still failing.`,
	RunE: runRetryAll,
}

func init() {
	rootCmd.AddCommand(retryAllCmd)
}

func runRetryAll(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadRuntime(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx, correlationID := ctxutil.EnsureCorrelationID(cmd.Context())
	ctx, cancel := context.WithTimeout(ctx, cfg.HTTP.WriteTimeoutBulk)
	defer cancel()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.submissions.RetryAll(ctx)
	if err != nil {
		return fmt.Errorf("retry queue: %w", err)
	}
	log.Info("Retry queue processed",
		"correlation_id", correlationID,
		"attempted", report.Attempted,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
	)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d of %d queued invoices are still failing", report.Failed, report.Attempted)
	}
	return nil
}
