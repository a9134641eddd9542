package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"scalperbot/internal/indicators"
	"scalperbot/internal/strategy"
	"scalperbot/models"
)

// minReverseLookback is the smallest prefix the reverse runner
// evaluates; shorter prefixes cannot satisfy the indicator lookbacks.
const minReverseLookback = 30

// Backtester replays historical candles in reverse chronological order
// through the live indicator and signal logic.
type Backtester struct {
	source CandleSource
	logger zerolog.Logger
}

// NewBacktester creates a reverse runner over the given candle source.
func NewBacktester(source CandleSource) *Backtester {
	return &Backtester{
		source: source,
		logger: log.With().Str("component", "backtester").Logger(),
	}
}

// Run fetches steps candles and replays them in reverse. The replay
// itself is sequential and never sleeps; callers wanting a responsive
// frontend run it on its own goroutine.
func (b *Backtester) Run(ctx context.Context, symbol, timeframe string, cfg models.StrategyConfig, steps int) ([]models.BacktestSignal, models.BacktestSummary, error) {
	window, err := b.source.GetCandles(ctx, symbol, timeframe, steps)
	if err != nil {
		return nil, models.BacktestSummary{}, fmt.Errorf("fetching historical candles: %w", err)
	}

	signals, summary := ReplayReverse(window, cfg, symbol, timeframe)
	b.logger.Info().
		Str("symbol", symbol).
		Int("total_checks", summary.TotalChecks).
		Int("found", summary.FoundCount).
		Msg("Reverse run complete")
	return signals, summary, nil
}

// ReplayReverse reverses the window and evaluates every growing prefix,
// collecting each fired signal. Each prefix sees only its own candles,
// so indicator values never leak between positions.
func ReplayReverse(window []models.Candle, cfg models.StrategyConfig, symbol, timeframe string) ([]models.BacktestSignal, models.BacktestSummary) {
	reversed := make([]models.Candle, len(window))
	for i, c := range window {
		reversed[len(window)-1-i] = c
	}

	var signals []models.BacktestSignal
	checks := 0
	for prefix := minReverseLookback; prefix <= len(reversed); prefix++ {
		checks++
		slice := reversed[:prefix]
		set := indicators.Compute(slice, cfg)
		event, ok := strategy.Evaluate(slice, set, cfg, symbol, timeframe)
		if !ok {
			continue
		}
		signals = append(signals, models.BacktestSignal{
			Timestamp: slice[prefix-1].Timestamp,
			Direction: event.Direction,
			Index:     prefix,
		})
	}

	return signals, models.BacktestSummary{
		Symbol:      symbol,
		TotalChecks: checks,
		FoundCount:  len(signals),
	}
}
