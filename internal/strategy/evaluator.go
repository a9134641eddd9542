package strategy

import (
	"math"

	"github.com/google/uuid"

	"scalperbot/models"
)

// minCandles is the minimum history before any evaluation is attempted.
const minCandles = 15

// Evaluate applies the triple-confirmation rule (EMA trend + MACD
// agreement + RSI band + volume surge + trend clarity) to the latest
// row of the indicator set. It returns the signal event and true when a
// direction fires; insufficient or not-yet-defined data is a normal
// no-signal outcome, never an error.
//
// LONG is checked first; the opposite EMA ordering makes LONG and SHORT
// mutually exclusive, so at most one direction fires per call.
func Evaluate(window []models.Candle, set models.IndicatorSet, cfg models.StrategyConfig, symbol, timeframe string) (*models.SignalEvent, bool) {
	if len(window) < minCandles {
		return nil, false
	}

	last := len(window) - 1
	latest := window[last]

	emaShort := seriesAt(set.EMAShort, last)
	emaLong := seriesAt(set.EMALong, last)
	rsi := seriesAt(set.RSI, last)
	macd := seriesAt(set.MACD, last)
	macdSignal := seriesAt(set.MACDSignal, last)
	macdHist := seriesAt(set.MACDHist, last)

	// Every indicator the rule reads must be defined at the latest row.
	if math.IsNaN(emaShort) || math.IsNaN(emaLong) || math.IsNaN(rsi) ||
		math.IsNaN(macd) || math.IsNaN(macdSignal) || math.IsNaN(macdHist) {
		return nil, false
	}

	// Volume surge: current volume above a multiple of its recent
	// average. An undefined average fails the filter.
	volAvg := seriesAt(set.VolumeAvg, last)
	volOK := !math.IsNaN(volAvg) && latest.Volume > volAvg*cfg.VolumeMultiplier

	// Trend clarity: percentage gap between the EMAs.
	trendClear := false
	if emaLong != 0 {
		gapPct := math.Abs((emaShort-emaLong)/emaLong) * 100
		trendClear = gapPct > cfg.TrendThresholdPct
	}

	macdBull := macd > macdSignal && macdHist > 0
	macdBear := macd < macdSignal && macdHist < 0

	longCond := emaShort > emaLong &&
		macdBull &&
		volOK &&
		rsi >= 45 && rsi <= 70 &&
		trendClear

	shortCond := emaShort < emaLong &&
		macdBear &&
		volOK &&
		rsi >= 30 && rsi <= 55 &&
		trendClear

	var direction models.Direction
	switch {
	case longCond:
		direction = models.DirectionLong
	case shortCond:
		direction = models.DirectionShort
	default:
		return nil, false
	}

	return &models.SignalEvent{
		ID:         uuid.NewString(),
		Direction:  direction,
		Symbol:     symbol,
		Timeframe:  timeframe,
		Price:      latest.Close,
		EMAShort:   emaShort,
		EMALong:    emaLong,
		RSI:        rsi,
		MACD:       macd,
		MACDSignal: macdSignal,
		Volume:     latest.Volume,
		VolumeAvg:  volAvg,
		Timestamp:  latest.Time(),
	}, true
}

func seriesAt(s models.Series, i int) float64 {
	if i < 0 || i >= len(s) {
		return math.NaN()
	}
	return s[i]
}
