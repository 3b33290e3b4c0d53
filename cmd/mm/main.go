// Command mm replays recorded cross-venue quote streams through the arbitrage
// backtester and reports the resulting trade ledger and PnL.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/gagordon1/mm/internal/arbitrage"
	"github.com/gagordon1/mm/internal/backtest"
	"github.com/gagordon1/mm/internal/config"
	"github.com/gagordon1/mm/internal/database"
	"github.com/gagordon1/mm/internal/feed"
	"github.com/gagordon1/mm/internal/quotes"
)

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	flag.Parse()

	// Load .env if present so viper's env overrides can pick it up.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot load config: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("backtest failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	src, err := quotes.Open(cfg.Data.Dir, cfg.Backtest.Pair, cfg.Backtest.Venues,
		cfg.Data.StartDate, cfg.Data.EndDate)
	if errors.Is(err, quotes.ErrNoQuotes) {
		logger.Warn("nothing to backtest",
			slog.String("pair", cfg.Backtest.Pair),
			slog.String("dir", cfg.Data.Dir),
		)
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("quote stores loaded", slog.Int("events", src.Len()))

	bt := backtest.New(logger, src, cfg.Backtest.Pair, cfg.Backtest.Venues, cfg.Backtest.Fees,
		arbitrage.NewLogObserver(logger))

	var repo *database.PostgresRepository
	if cfg.Database.Enabled {
		repo, err = database.Connect(ctx, cfg.Database.URL())
		if err != nil {
			return err
		}
		defer repo.Pool.Close()
		if err := repo.Migrate(ctx); err != nil {
			return err
		}
		bt.AddObserver(database.NewTradeObserver(ctx, repo, bt.RunID(), logger))
	}

	var feedSrv *feed.Server
	if cfg.Feed.Enabled {
		feedSrv = feed.NewServer(cfg.Feed.Addr, logger)
		bt.AddObserver(feedSrv)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)
	if feedSrv != nil {
		g.Go(func() error { return feedSrv.Run(gctx) })
	}
	g.Go(func() error {
		defer cancel()
		if err := bt.Run(gctx); err != nil {
			return err
		}
		summary, err := bt.Report()
		if err != nil {
			return err
		}
		if feedSrv != nil {
			feedSrv.BroadcastSummary(summary)
		}
		if repo != nil {
			if err := repo.SaveRun(gctx, summary); err != nil {
				logger.Error("failed to persist run summary", "error", err)
			}
		}
		fmt.Printf("Total events: %d\n", summary.Events)
		fmt.Printf("Total trades executed: %d\n", summary.TradeCount)
		fmt.Printf("Total PnL: %.6f\n", summary.TotalPnL)
		return nil
	})
	return g.Wait()
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
