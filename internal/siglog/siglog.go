// Package siglog persists fired signals to an append-only destination.
package siglog

import (
	"scalperbot/models"
)

// Record is the flat row written for every fired signal.
type Record struct {
	Timestamp  string  `csv:"timestamp"`
	Pair       string  `csv:"pair"`
	Timeframe  string  `csv:"timeframe"`
	Signal     string  `csv:"signal"`
	Price      float64 `csv:"price"`
	EMAShort   float64 `csv:"ema_short"`
	EMALong    float64 `csv:"ema_long"`
	RSI        float64 `csv:"rsi"`
	MACD       float64 `csv:"macd"`
	MACDSignal float64 `csv:"macd_signal"`
	Volume     float64 `csv:"vol"`
	VolumeAvg  float64 `csv:"vol_avg_10"`
}

// Appender appends one signal record to the log destination. Appends
// are whole-row only; prior rows are never rewritten.
type Appender interface {
	Append(event *models.SignalEvent) error
	Close() error
}

// recordFromEvent flattens a signal event into a log row.
func recordFromEvent(event *models.SignalEvent) Record {
	return Record{
		Timestamp:  event.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
		Pair:       event.Symbol,
		Timeframe:  event.Timeframe,
		Signal:     event.Direction.Label(),
		Price:      event.Price,
		EMAShort:   event.EMAShort,
		EMALong:    event.EMALong,
		RSI:        event.RSI,
		MACD:       event.MACD,
		MACDSignal: event.MACDSignal,
		Volume:     event.Volume,
		VolumeAvg:  event.VolumeAvg,
	}
}
