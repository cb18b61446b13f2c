package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/vietddude/predictdash/internal/core/config"
	"github.com/vietddude/predictdash/internal/core/fault"
	"github.com/vietddude/predictdash/internal/core/retry"
	"github.com/vietddude/predictdash/internal/infra/upstream"
	"github.com/vietddude/stylelog"
)

var withHistory bool

var fetchCmd = &cobra.Command{
	Use:   "fetch TICKER",
	Short: "Fetch the current prediction for a ticker and print it",
	Args:  cobra.ExactArgs(1),
	Run:   runFetch,
}

func init() {
	fetchCmd.Flags().BoolVar(&withHistory, "history", false, "also fetch past predictions")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	initLogging(cfg)
	for _, v := range cfg.Sanitize() {
		slog.Warn("Invalid configuration value, using default",
			"field", v.Field, "constraint", v.Constraint, "value", v.Value)
	}

	client := upstream.NewClient(upstream.Config{
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: cfg.Upstream.Timeout(),
		Policy: retry.Policy{
			MaxAttempts: cfg.Upstream.RetryAttempts,
			BaseDelay:   cfg.Upstream.RetryBaseDelay(),
		},
	}, slog.Default())
	defer func() {
		_ = client.Close()
	}()

	ctx := context.Background()

	p, err := client.Prediction(ctx, args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, fault.UserMessage(fault.Normalize(err, nil)))
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "TICKER\tDATE\tDIRECTION\tCONFIDENCE\tLEVEL")
	_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\n", p.Ticker, p.ForDate, p.Direction, p.Confidence, p.Level)
	_ = w.Flush()

	if p.Explanation != "" {
		fmt.Println()
		fmt.Println(p.Explanation)
	}

	if len(p.Factors) > 0 {
		fmt.Println()
		fw := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
		_, _ = fmt.Fprintln(fw, "FACTOR\tWEIGHT")
		for _, f := range p.Factors {
			_, _ = fmt.Fprintf(fw, "%s\t%+.3f\n", f.Label, f.Weight)
		}
		_ = fw.Flush()
	}

	if !withHistory {
		return
	}

	history, err := client.History(ctx, args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, fault.UserMessage(fault.Normalize(err, nil)))
		os.Exit(1)
	}

	fmt.Println()
	hw := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(hw, "DATE\tDIRECTION\tCONFIDENCE\tPROBABILITY UP")
	for _, e := range history {
		_, _ = fmt.Fprintf(hw, "%s\t%s\t%.2f\t%.2f\n",
			e.Date.Format("2006-01-02"), e.Direction, e.Confidence, e.ProbabilityUp)
	}
	_ = hw.Flush()
}
