package models

import (
	"time"
)

// Direction of a trading signal.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Label returns the user-facing signal label.
func (d Direction) Label() string {
	if d == DirectionShort {
		return "SELL SHORT"
	}
	return "BUY LONG"
}

// Candle represents a single closed price candle.
type Candle struct {
	Timestamp int64   `json:"timestamp"` // ms epoch
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Time returns the candle open time in UTC.
func (c Candle) Time() time.Time {
	return time.UnixMilli(c.Timestamp).UTC()
}

// Series is a sequence of indicator values aligned to a candle window.
// Positions where the indicator lookback is not yet satisfied hold NaN.
type Series []float64

// IndicatorSet holds every computed indicator series, position-aligned
// with the window it was computed from. Disabled indicators stay nil.
type IndicatorSet struct {
	EMAShort   Series
	EMALong    Series
	RSI        Series
	MACD       Series
	MACDSignal Series
	MACDHist   Series
	BBUpper    Series
	BBMiddle   Series
	BBLower    Series
	VolumeAvg  Series
}

// StrategyConfig holds the strategy parameters for one evaluation cycle.
// It is copied by value into each cycle, so external updates take effect
// only at the next cycle boundary.
type StrategyConfig struct {
	EMAShortPeriod   int
	EMALongPeriod    int
	RSIPeriod        int
	MACDFastPeriod   int
	MACDSlowPeriod   int
	MACDSignalPeriod int
	BBPeriod         int
	BBStdDev         float64
	VolumeAvgPeriod  int
	VolumeMultiplier float64
	// TrendThresholdPct is the minimum EMA gap (percent of the long EMA)
	// for the trend to count as clear.
	TrendThresholdPct float64
	TakeProfitPct     float64
	StopLossPct       float64

	UseEMA   bool
	UseRSI   bool
	UseMACD  bool
	UseBands bool
}

// DefaultStrategyConfig returns the triple-confirmation defaults.
func DefaultStrategyConfig() StrategyConfig {
	return StrategyConfig{
		EMAShortPeriod:    20,
		EMALongPeriod:     50,
		RSIPeriod:         14,
		MACDFastPeriod:    12,
		MACDSlowPeriod:    26,
		MACDSignalPeriod:  9,
		BBPeriod:          20,
		BBStdDev:          2.0,
		VolumeAvgPeriod:   10,
		VolumeMultiplier:  1.3,
		TrendThresholdPct: 0.15,
		TakeProfitPct:     0.5,
		StopLossPct:       0.25,
		UseEMA:            true,
		UseRSI:            true,
		UseMACD:           true,
		UseBands:          true,
	}
}

// SignalEvent is the immutable record of a fired signal. It snapshots
// every input the evaluator used, so the decision is reproducible from
// the event alone.
type SignalEvent struct {
	ID         string    `json:"id"`
	Direction  Direction `json:"direction"`
	Symbol     string    `json:"symbol"`
	Timeframe  string    `json:"timeframe"`
	Price      float64   `json:"price"`
	EMAShort   float64   `json:"ema_short"`
	EMALong    float64   `json:"ema_long"`
	RSI        float64   `json:"rsi"`
	MACD       float64   `json:"macd"`
	MACDSignal float64   `json:"macd_signal"`
	Volume     float64   `json:"volume"`
	VolumeAvg  float64   `json:"vol_avg"`
	TakeProfit float64   `json:"take_profit"`
	StopLoss   float64   `json:"stop_loss"`
	Timestamp  time.Time `json:"timestamp"`
}

// BacktestSignal is one hit collected by the reverse runner.
type BacktestSignal struct {
	Timestamp int64     `json:"timestamp"` // last candle of the prefix, ms epoch
	Direction Direction `json:"direction"`
	Index     int       `json:"index"` // prefix length that produced the hit
}

// BacktestSummary aggregates a reverse run.
type BacktestSummary struct {
	Symbol      string `json:"symbol"`
	TotalChecks int    `json:"total_checks"`
	FoundCount  int    `json:"found_count"`
}
