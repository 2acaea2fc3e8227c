package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/paymentd/internal/core/config"
	"github.com/vietddude/paymentd/internal/infra/storage/postgres"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the most recent payment confirmation attempts",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Database.URL == "" {
		slog.Error("No database configured, nothing to show")
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	repo := postgres.NewPaymentRepo(db)
	attempts, err := repo.RecentAttempts(ctx, 20)
	if err != nil {
		slog.Error("Failed to query attempts", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "INTENT\tATTEMPT\tOUTCOME\tCLASSIFICATION\tAT")

	for _, a := range attempts {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
			a.IntentID, a.Attempt, a.Outcome, a.Classification,
			a.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	_ = w.Flush()
}
