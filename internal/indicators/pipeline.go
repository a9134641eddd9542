package indicators

import (
	"scalperbot/models"
)

// Compute runs every enabled indicator over the candle window and
// returns the position-aligned set. The window is never mutated and
// each value at position i depends only on positions at or before i,
// which keeps reverse-mode replays free of look-ahead.
func Compute(window []models.Candle, cfg models.StrategyConfig) models.IndicatorSet {
	closes := make([]float64, len(window))
	volumes := make([]float64, len(window))
	for i, c := range window {
		closes[i] = c.Close
		volumes[i] = c.Volume
	}

	var set models.IndicatorSet

	if cfg.UseEMA {
		set.EMAShort = EMA(closes, cfg.EMAShortPeriod)
		set.EMALong = EMA(closes, cfg.EMALongPeriod)
	}
	if cfg.UseRSI {
		set.RSI = RSI(closes, cfg.RSIPeriod)
	}
	if cfg.UseMACD {
		set.MACD, set.MACDSignal, set.MACDHist = MACD(
			closes,
			cfg.MACDFastPeriod,
			cfg.MACDSlowPeriod,
			cfg.MACDSignalPeriod,
		)
	}
	if cfg.UseBands {
		set.BBUpper, set.BBMiddle, set.BBLower = BollingerBands(closes, cfg.BBPeriod, cfg.BBStdDev)
	}

	// Volume average backs the surge filter, so it is always computed.
	set.VolumeAvg = SMA(volumes, cfg.VolumeAvgPeriod)

	return set
}
