package indicators

import (
	"math"

	"github.com/montanaflynn/stats"

	"scalperbot/models"
)

// Epsilon guard for the RSI zero-loss division.
const rsiEpsilon = 1e-8

// SMA calculates a simple moving average series. Positions before the
// first full lookback window hold NaN.
func SMA(values []float64, period int) models.Series {
	out := nanSeries(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA calculates an exponential moving average series with smoothing
// factor 2/(period+1), seeded by the first value. Defined from index 0.
func EMA(values []float64, period int) models.Series {
	out := make(models.Series, len(values))
	if len(values) == 0 {
		return out
	}

	k := 2.0 / float64(period+1)
	ema := values[0]
	out[0] = ema
	for i := 1; i < len(values); i++ {
		ema = (values[i]-ema)*k + ema
		out[i] = ema
	}
	return out
}

// RSI calculates a Wilder-smoothed relative strength index series. The
// initial averages are simple means over the first period deltas, so the
// series is defined from index period onward.
//
// A flat window (no gains, no losses) reads as neutral 50; a window with
// gains and zero losses saturates toward 100 via the epsilon guard
// instead of propagating NaN.
func RSI(values []float64, period int) models.Series {
	out := nanSeries(len(values))
	if period <= 0 || len(values) < period+1 {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgGain == 0 && avgLoss == 0 {
		return 50.0
	}
	rs := avgGain / (avgLoss + rsiEpsilon)
	return 100.0 - (100.0 / (1.0 + rs))
}

// MACD calculates the convergence/divergence line, its signal line and
// the histogram. All three series follow EMA semantics and are defined
// from index 0.
func MACD(values []float64, fast, slow, signalPeriod int) (line, signal, hist models.Series) {
	fastEMA := EMA(values, fast)
	slowEMA := EMA(values, slow)

	line = make(models.Series, len(values))
	for i := range values {
		line[i] = fastEMA[i] - slowEMA[i]
	}

	signal = EMA(line, signalPeriod)

	hist = make(models.Series, len(values))
	for i := range values {
		hist[i] = line[i] - signal[i]
	}
	return line, signal, hist
}

// BollingerBands calculates the middle (SMA), upper and lower bands
// using the population standard deviation over the same trailing window.
func BollingerBands(values []float64, period int, width float64) (upper, middle, lower models.Series) {
	middle = SMA(values, period)
	upper = nanSeries(len(values))
	lower = nanSeries(len(values))
	if period <= 0 || len(values) < period {
		return upper, middle, lower
	}

	for i := period - 1; i < len(values); i++ {
		sd, err := stats.StandardDeviationPopulation(values[i-period+1 : i+1])
		if err != nil {
			continue
		}
		upper[i] = middle[i] + width*sd
		lower[i] = middle[i] - width*sd
	}
	return upper, middle, lower
}

func nanSeries(n int) models.Series {
	out := make(models.Series, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
