package main

import (
	"flag"
	"fmt"
	"os"

	"smc-trading-bot/config"
	"smc-trading-bot/internal/backtest"

	"github.com/joho/godotenv"
)

func main() {
	var (
		barsPath = flag.String("bars", "", "CSV file of bars (unix_seconds,open,high,low,close)")
		trades   = flag.Bool("trades", false, "print every closed trade")
	)
	flag.Parse()

	if *barsPath == "" {
		fmt.Println("Usage: backtest -bars <file.csv> [-trades]")
		os.Exit(1)
	}

	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Config error: %v\n", err)
		os.Exit(1)
	}

	bars, err := backtest.LoadCSV(*barsPath)
	if err != nil {
		fmt.Printf("❌ Failed to load bars: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("📊 Loaded %d bars from %s\n", len(bars), *barsPath)

	runner := backtest.NewRunner(cfg.EngineConfig, cfg.MarketConfig.TickSize)
	res, err := runner.Run(bars)
	if err != nil {
		fmt.Printf("❌ Backtest failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Print(res.Summary())

	if *trades {
		fmt.Println("\nClosed trades:")
		for i, t := range res.Trades {
			fmt.Printf("  #%d %-13s %-8s entry %.2f exit %.2f (%s) pnl %+.2f\n",
				i+1, t.Model, t.Direction, t.EntryPrice, t.ExitPrice, t.ExitReason, t.PnL)
		}
	}
}
