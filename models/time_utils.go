package models

import (
	"fmt"
	"time"
)

// TimeframeMinutes converts a timeframe string to its bucket length in
// minutes. Supported values match the exchange candle granularities.
func TimeframeMinutes(timeframe string) (int, error) {
	switch timeframe {
	case "1m":
		return 1, nil
	case "3m":
		return 3, nil
	case "5m":
		return 5, nil
	case "15m":
		return 15, nil
	case "30m":
		return 30, nil
	case "1h":
		return 60, nil
	case "4h":
		return 240, nil
	case "1day":
		return 24 * 60, nil
	}
	return 0, fmt.Errorf("unsupported timeframe %q", timeframe)
}

// NextCandleDelay returns the time remaining until the next candle of
// the given timeframe closes, measured from now on the wall clock.
func NextCandleDelay(timeframe string, now time.Time) (time.Duration, error) {
	minutes, err := TimeframeMinutes(timeframe)
	if err != nil {
		return 0, err
	}

	bucket := int64(minutes) * 60
	remaining := bucket - now.Unix()%bucket
	return time.Duration(remaining) * time.Second, nil
}
