package indicators

import (
	"math"
	"testing"

	"scalperbot/models"
)

func generateTestCandles(n int, generator func(int) models.Candle) []models.Candle {
	candles := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		candles[i] = generator(i)
	}
	return candles
}

func testWindow(n int) []models.Candle {
	return generateTestCandles(n, func(i int) models.Candle {
		close := 100 + float64(i)*0.1
		return models.Candle{
			Timestamp: int64(i) * 60_000,
			Open:      close - 0.05,
			High:      close + 0.1,
			Low:       close - 0.1,
			Close:     close,
			Volume:    5,
		}
	})
}

func TestComputeAlignment(t *testing.T) {
	window := testWindow(60)
	set := Compute(window, models.DefaultStrategyConfig())

	series := map[string]models.Series{
		"EMAShort":   set.EMAShort,
		"EMALong":    set.EMALong,
		"RSI":        set.RSI,
		"MACD":       set.MACD,
		"MACDSignal": set.MACDSignal,
		"MACDHist":   set.MACDHist,
		"BBUpper":    set.BBUpper,
		"BBMiddle":   set.BBMiddle,
		"BBLower":    set.BBLower,
		"VolumeAvg":  set.VolumeAvg,
	}
	for name, s := range series {
		if len(s) != len(window) {
			t.Errorf("%s length = %d, want %d", name, len(s), len(window))
		}
	}
}

func TestComputeRespectsEnabledSet(t *testing.T) {
	cfg := models.DefaultStrategyConfig()
	cfg.UseRSI = false
	cfg.UseBands = false

	set := Compute(testWindow(60), cfg)

	if set.RSI != nil {
		t.Error("RSI computed while disabled")
	}
	if set.BBUpper != nil || set.BBMiddle != nil || set.BBLower != nil {
		t.Error("bands computed while disabled")
	}
	if set.EMAShort == nil || set.MACD == nil {
		t.Error("enabled indicators missing")
	}
	if set.VolumeAvg == nil {
		t.Error("volume average must always be computed")
	}
}

func TestComputeToleratesBadPeriods(t *testing.T) {
	cfg := models.DefaultStrategyConfig()
	cfg.BBPeriod = -2
	cfg.RSIPeriod = 0

	set := Compute(testWindow(60), cfg)

	for i := range set.BBUpper {
		if !math.IsNaN(set.BBUpper[i]) || !math.IsNaN(set.RSI[i]) {
			t.Fatalf("index %d defined for degenerate period", i)
		}
	}
}

func TestComputeDoesNotMutateWindow(t *testing.T) {
	window := testWindow(60)
	before := make([]models.Candle, len(window))
	copy(before, window)

	Compute(window, models.DefaultStrategyConfig())

	for i := range window {
		if window[i] != before[i] {
			t.Fatalf("candle %d mutated by Compute", i)
		}
	}
}

func TestComputeVolumeAvgWarmup(t *testing.T) {
	set := Compute(testWindow(60), models.DefaultStrategyConfig())

	for i := 0; i < 9; i++ {
		if !math.IsNaN(set.VolumeAvg[i]) {
			t.Errorf("VolumeAvg[%d] defined during warm-up", i)
		}
	}
	if math.Abs(set.VolumeAvg[20]-5) > 1e-9 {
		t.Errorf("VolumeAvg[20] = %v, want 5", set.VolumeAvg[20])
	}
}
