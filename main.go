package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/vietddude/predictdash/internal/core/retry"
	"github.com/vietddude/predictdash/internal/infra/upstream"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found")
	}

	API_URL := os.Getenv("PREDICTDASH_API_URL")
	if API_URL == "" {
		log.Fatalf("PREDICTDASH_API_URL is not set")
	}

	ctx := context.Background()

	// 1. Create the resilient client
	client := upstream.NewClient(upstream.Config{
		BaseURL: API_URL,
		Timeout: 10 * time.Second,
		Policy:  retry.Policy{MaxAttempts: 3, BaseDelay: time.Second},
	}, nil)
	defer client.Close()

	fmt.Println("=== Testing Prediction Client ===")
	fmt.Println()

	// 2. Fetch predictions for a handful of tickers
	for _, ticker := range []string{"AAPL", "MSFT", "GOOG"} {
		p, err := client.Prediction(ctx, ticker)
		if err != nil {
			log.Printf("Prediction for %s failed: %v", ticker, err)
			continue
		}
		fmt.Printf("%s (%s): %s, confidence %.2f (%s), P(up)=%.2f\n",
			p.Ticker, p.ForDate, p.Direction, p.Confidence, p.Level, p.ProbabilityUp)
		for _, f := range p.Factors {
			fmt.Printf("  %-24s %+.3f\n", f.Label, f.Weight)
		}
		fmt.Println()
	}

	// 3. Show recent history for one ticker
	fmt.Println("=== Prediction History: AAPL ===")
	history, err := client.History(ctx, "AAPL")
	if err != nil {
		log.Fatalf("History failed: %v", err)
	}
	for _, e := range history {
		fmt.Printf("%s  %-4s  confidence %.2f  P(up)=%.2f\n",
			e.Date.Format("2006-01-02"), e.Direction, e.Confidence, e.ProbabilityUp)
	}
}
