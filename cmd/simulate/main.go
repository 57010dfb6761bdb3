// simulate - command line backtest runner
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bluewave/stocksim/internal/clients/yahoo"
	"github.com/bluewave/stocksim/internal/config"
	"github.com/bluewave/stocksim/internal/database"
	"github.com/bluewave/stocksim/internal/modules/history"
	"github.com/bluewave/stocksim/internal/modules/signals"
	"github.com/bluewave/stocksim/internal/modules/simulation"
	"github.com/bluewave/stocksim/internal/modules/watchlist"
	"github.com/bluewave/stocksim/pkg/logger"
)

var (
	symbolsFlag    string
	startDateFlag  string
	capitalFlag    float64
	feeFlag        float64
	strongBuyFlag  float64
	buyFlag        float64
	sellFlag       float64
	strongSellFlag float64
	maxPositionPct float64
	verboseFlag    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a trading simulation from the command line",
		Long: `simulate runs a MACD-driven portfolio backtest over historical
prices and prints the performance summary.

Symbols default to the stored watchlist when --symbols is omitted.`,
		RunE: runSimulation,
	}

	rootCmd.Flags().StringVarP(&symbolsFlag, "symbols", "s", "", "Comma-separated symbols (default: watchlist)")
	rootCmd.Flags().StringVar(&startDateFlag, "start", "", "Start date YYYY-MM-DD (default: 90 days ago)")
	rootCmd.Flags().Float64VarP(&capitalFlag, "capital", "c", simulation.DefaultInitialCapital, "Initial capital")
	rootCmd.Flags().Float64Var(&feeFlag, "fee", simulation.DefaultFeePercent, "Transaction fee percent")
	rootCmd.Flags().Float64Var(&strongBuyFlag, "strong-buy", simulation.DefaultStrongBuyPercent, "Strong buy percent of cash")
	rootCmd.Flags().Float64Var(&buyFlag, "buy", simulation.DefaultBuyPercent, "Buy percent of cash")
	rootCmd.Flags().Float64Var(&sellFlag, "sell", simulation.DefaultSellPercent, "Sell percent of position")
	rootCmd.Flags().Float64Var(&strongSellFlag, "strong-sell", simulation.DefaultStrongSellPercent, "Strong sell percent of position")
	rootCmd.Flags().Float64Var(&maxPositionPct, "max-position", simulation.DefaultMaxPositionPct, "Max single position percent of portfolio")
	rootCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Print every transaction")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logLevel := "warn"
	if verboseFlag {
		logLevel = "debug"
	}
	log := logger.New(logger.Config{Level: logLevel, Pretty: true})

	symbols, err := resolveSymbols(cfg, log)
	if err != nil {
		return err
	}
	if len(symbols) == 0 {
		return fmt.Errorf("no symbols: pass --symbols or add entries to the watchlist")
	}

	params, err := buildParameters()
	if err != nil {
		return err
	}

	yahooClient := yahoo.NewClient(log)
	store := history.NewStore(cfg.HistoryDir, log)
	provider := history.NewProvider(store, yahooClient, log)

	engine := simulation.NewEngine(provider, params, signals.DefaultRecommendationParameters(), log)

	fmt.Printf("Simulating %s from %s with %.2f capital\n",
		strings.Join(symbols, ", "), params.StartDate.Format("2006-01-02"), params.InitialCapital)

	results, err := engine.Run(context.Background(), symbols, func(fraction float64) {
		fmt.Printf("\rProgress: %3.0f%%", fraction*100)
	})
	fmt.Println()
	if err != nil {
		return err
	}

	printResults(results)
	return nil
}

// resolveSymbols prefers the --symbols flag and falls back to the stored
// watchlist.
func resolveSymbols(cfg *config.Config, log zerolog.Logger) ([]string, error) {
	if symbolsFlag != "" {
		parts := strings.Split(symbolsFlag, ",")
		symbols := make([]string, 0, len(parts))
		for _, p := range parts {
			if s := strings.ToUpper(strings.TrimSpace(p)); s != "" {
				symbols = append(symbols, s)
			}
		}
		return symbols, nil
	}

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return nil, err
	}

	return watchlist.NewRepository(db.Conn(), log).Symbols()
}

func buildParameters() (simulation.Parameters, error) {
	startDate := time.Now().AddDate(0, 0, -90)
	if startDateFlag != "" {
		parsed, err := time.Parse("2006-01-02", startDateFlag)
		if err != nil {
			return simulation.Parameters{}, fmt.Errorf("invalid --start date: %w", err)
		}
		startDate = parsed
	}

	params := simulation.DefaultParameters(startDate)
	params.InitialCapital = capitalFlag
	params.TransactionFeePercent = feeFlag
	params.InvestmentRules = simulation.InvestmentRules{
		StrongBuyPercent:  strongBuyFlag,
		BuyPercent:        buyFlag,
		SellPercent:       sellFlag,
		StrongSellPercent: strongSellFlag,
	}
	params.MaxSinglePositionPercent = maxPositionPct

	return params, nil
}

func printResults(r *simulation.Results) {
	fmt.Println()
	fmt.Println("=== Simulation Results ===")
	fmt.Printf("Initial capital:   %12.2f\n", r.InitialCapital)
	fmt.Printf("Final value:       %12.2f\n", r.FinalPortfolioValue)
	fmt.Printf("Total return:      %12.2f (%.2f%%)\n", r.TotalReturn, r.TotalReturnPercent)
	fmt.Printf("Max drawdown:      %11.2f%%\n", r.MaxDrawdown)
	fmt.Printf("Sharpe ratio:      %12.2f\n", r.SharpeRatio)
	fmt.Printf("Trades:            %12d\n", r.NumberOfTrades)
	fmt.Printf("Win rate:          %11.2f%%\n", r.WinRate)
	fmt.Printf("Avg holding days:  %12.1f\n", r.AvgHoldingPeriod)

	if verboseFlag && len(r.Transactions) > 0 {
		fmt.Println()
		fmt.Println("=== Transactions ===")
		for _, tx := range r.Transactions {
			fmt.Printf("%s  %-11s %-6s %5d @ %9.2f  fees %6.2f\n",
				tx.Date.Format("2006-01-02"), tx.Signal, tx.Symbol, tx.Shares, tx.Price, tx.Fees)
		}
	}
}
