package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scalperbot/models"
)

// descending returns the window in reverse chronological order, so the
// runner's own reversal restores the original ordering.
func descending(window []models.Candle) []models.Candle {
	out := make([]models.Candle, len(window))
	for i, c := range window {
		out[len(window)-1-i] = c
	}
	return out
}

func TestReplayReverseFlatWindow(t *testing.T) {
	signals, summary := ReplayReverse(flatWindow(80), models.DefaultStrategyConfig(), "BTCUSDT", "1m")

	assert.Empty(t, signals)
	assert.Equal(t, models.BacktestSummary{
		Symbol:      "BTCUSDT",
		TotalChecks: 80 - 30 + 1,
		FoundCount:  0,
	}, summary)
}

func TestReplayReverseFindsSignal(t *testing.T) {
	// The runner reverses its input, so feed the engineered LONG window
	// backwards; only the full prefix ends on the volume-surge candle.
	asc := trendWindow(60, true)
	signals, summary := ReplayReverse(descending(asc), models.DefaultStrategyConfig(), "BTCUSDT", "1m")

	require.Len(t, signals, 1)
	assert.Equal(t, models.DirectionLong, signals[0].Direction)
	assert.Equal(t, 60, signals[0].Index)
	assert.Equal(t, asc[len(asc)-1].Timestamp, signals[0].Timestamp)
	assert.Equal(t, 1, summary.FoundCount)
	assert.Equal(t, 31, summary.TotalChecks)
}

func TestReplayReverseDeterminism(t *testing.T) {
	window := descending(trendWindow(120, false))
	cfg := models.DefaultStrategyConfig()

	first, firstSummary := ReplayReverse(window, cfg, "ETHUSDT", "5m")
	second, secondSummary := ReplayReverse(window, cfg, "ETHUSDT", "5m")

	assert.Equal(t, first, second)
	assert.Equal(t, firstSummary, secondSummary)
}

func TestReplayReverseShortWindow(t *testing.T) {
	signals, summary := ReplayReverse(flatWindow(10), models.DefaultStrategyConfig(), "BTCUSDT", "1m")

	assert.Empty(t, signals)
	assert.Equal(t, 0, summary.TotalChecks)
}

func TestBacktesterRun(t *testing.T) {
	source := &fakeSource{window: flatWindow(100)}
	bt := NewBacktester(source)

	signals, summary, err := bt.Run(context.Background(), "BTCUSDT", "1m", models.DefaultStrategyConfig(), 100)
	require.NoError(t, err)
	assert.Empty(t, signals)
	assert.Equal(t, "BTCUSDT", summary.Symbol)
	assert.Equal(t, 71, summary.TotalChecks)
	assert.Equal(t, 1, source.fetchCount())
}
