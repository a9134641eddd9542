package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"scalperbot/internal/config"
	"scalperbot/internal/engine"
	"scalperbot/internal/market"
	"scalperbot/internal/notify"
	"scalperbot/internal/siglog"
	"scalperbot/models"
)

func main() {
	root := &cobra.Command{
		Use:   "scalperbot",
		Short: "Triple-confirmation trading signal bot",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.AddCommand(liveCmd(), backtestCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func liveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "live",
		Short: "Run the live signal loop until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			setupLogger(cfg.LogLevel)

			client := market.NewClient(market.TransportOptions{
				Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
			})

			ctx := cmd.Context()
			valid, err := client.ValidateSymbol(ctx, cfg.Symbol)
			if err != nil {
				log.Warn().Err(err).Msg("Could not validate symbol, continuing")
			} else if !valid {
				return fmt.Errorf("symbol %s not listed on exchange", cfg.Symbol)
			}

			if cfg.ReverseMode {
				return runReverse(ctx, client, cfg)
			}

			appender, err := newAppender(cfg)
			if err != nil {
				return err
			}
			defer appender.Close()

			var notifier notify.Notifier
			if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
				notifier, err = notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
				if err != nil {
					return err
				}
			} else {
				log.Warn().Msg("Telegram not configured, alerts disabled")
			}

			strat := cfg.Strategy
			eng, err := engine.New(engine.Options{
				Source:      client,
				Notifier:    notifier,
				Appender:    appender,
				Symbol:      cfg.Symbol,
				Timeframe:   cfg.Timeframe,
				CandleCount: cfg.CandleCount,
				StrategyFn:  func() models.StrategyConfig { return strat },
			})
			if err != nil {
				return err
			}

			if err := eng.Start(context.Background()); err != nil {
				return err
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

			for {
				select {
				case ev := <-eng.Events():
					if ev.Type == engine.EventSignal {
						fmt.Printf("🎯 %s %s @ %.6f (TP %.6f / SL %.6f)\n",
							ev.Signal.Direction.Label(), ev.Signal.Symbol,
							ev.Signal.Price, ev.Signal.TakeProfit, ev.Signal.StopLoss)
					}
				case <-stop:
					log.Info().Msg("Stop requested")
					eng.Stop()
					eng.Wait()
					return nil
				}
			}
		},
	}
}

func backtestCmd() *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Replay historical candles in reverse through the live logic",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			setupLogger(cfg.LogLevel)

			if steps == 0 {
				steps = cfg.BacktestSteps
			}

			client := market.NewClient(market.TransportOptions{
				Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
			})

			return runBacktest(cmd.Context(), client, cfg, steps)
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 0, "number of historical candles to replay")
	return cmd
}

func runBacktest(ctx context.Context, client *market.Client, cfg *config.Config, steps int) error {
	bt := engine.NewBacktester(client)
	signals, summary, err := bt.Run(ctx, cfg.Symbol, cfg.Timeframe, cfg.Strategy, steps)
	if err != nil {
		return err
	}

	for _, s := range signals {
		fmt.Printf("[Reverse Test] %s -> %s at %s (prefix %d)\n",
			summary.Symbol, s.Direction.Label(),
			time.UnixMilli(s.Timestamp).UTC().Format("2006-01-02 15:04:05"), s.Index)
	}
	fmt.Printf("\n%s: %d checks, %d signals found\n",
		summary.Symbol, summary.TotalChecks, summary.FoundCount)
	return nil
}

// runReverse is the one-shot reverse pass the live command takes when
// REVERSE_MODE is set.
func runReverse(ctx context.Context, client *market.Client, cfg *config.Config) error {
	log.Info().Msg("Reverse check mode enabled, running replay instead of live loop")
	return runBacktest(ctx, client, cfg, cfg.BacktestSteps)
}

func newAppender(cfg *config.Config) (siglog.Appender, error) {
	if cfg.DatabaseURL != "" {
		appender, err := siglog.NewPostgresAppender(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("initializing postgres signal log: %w", err)
		}
		return appender, nil
	}
	return siglog.NewCSVAppender(cfg.SignalLogPath)
}

func setupLogger(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)
}
