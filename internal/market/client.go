package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"scalperbot/models"
)

const defaultBaseURL = "https://api.bitget.com"

// Client fetches market data from the Bitget spot REST API.
type Client struct {
	transport *transport
	baseURL   string
	logger    zerolog.Logger
}

// NewClient creates a new Bitget API client with rate limiting.
func NewClient(opts TransportOptions) *Client {
	return &Client{
		transport: newTransport(opts),
		baseURL:   defaultBaseURL,
		logger:    log.With().Str("component", "market_client").Logger(),
	}
}

// NewClientWithBaseURL creates a client against a non-default endpoint.
// Used by tests to point at a local server.
func NewClientWithBaseURL(opts TransportOptions, baseURL string) *Client {
	c := NewClient(opts)
	c.baseURL = baseURL
	return c
}

// candlesResponse is the Bitget v2 candle payload. Each data row is
// [ts, open, high, low, close, baseVol, usdtVol, quoteVol] as strings.
type candlesResponse struct {
	Code string     `json:"code"`
	Msg  string     `json:"msg"`
	Data [][]string `json:"data"`
}

type symbolsResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		Symbol string `json:"symbol"`
		Status string `json:"status"`
	} `json:"data"`
}

// GetCandles fetches the most recent closed candles for a symbol and
// timeframe, sorted oldest first. At most limit candles are returned.
func (c *Client) GetCandles(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error) {
	granularity, err := granularityFor(timeframe)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf(
		"%s/api/v2/spot/market/candles?symbol=%s&granularity=%s&limit=%d",
		c.baseURL, url.QueryEscape(symbol), granularity, limit,
	)

	c.logger.Debug().Str("symbol", symbol).Str("timeframe", timeframe).Int("limit", limit).Msg("Fetching candles")

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var data candlesResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing JSON")
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if data.Code != "00000" {
		c.logger.Error().Str("code", data.Code).Str("msg", data.Msg).Msg("Bitget API error")
		return nil, fmt.Errorf("bitget API error %s: %s", data.Code, data.Msg)
	}
	if len(data.Data) == 0 {
		c.logger.Warn().Str("symbol", symbol).Msg("No candles in response")
		return nil, fmt.Errorf("empty data returned")
	}

	candles := make([]models.Candle, 0, len(data.Data))
	for _, row := range data.Data {
		candle, err := parseCandleRow(row)
		if err != nil {
			return nil, fmt.Errorf("parsing candle row: %w", err)
		}
		candles = append(candles, candle)
	}

	// Sort candles oldest first for proper calculations.
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Timestamp < candles[j].Timestamp
	})

	// Never return more than asked for; keep the most recent ones.
	if len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}

	c.logger.Debug().Int("count", len(candles)).Msg("Fetched candles")
	return candles, nil
}

// ValidateSymbol checks that the exchange lists the given spot symbol.
func (c *Client) ValidateSymbol(ctx context.Context, symbol string) (bool, error) {
	endpoint := fmt.Sprintf(
		"%s/api/v2/spot/public/symbols?symbol=%s",
		c.baseURL, url.QueryEscape(symbol),
	)

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return false, err
	}

	var data symbolsResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return false, fmt.Errorf("parsing JSON: %w", err)
	}
	if data.Code != "00000" {
		return false, nil
	}

	for _, s := range data.Data {
		if s.Symbol == symbol {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.transport.doRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("after retries: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return body, nil
}

func parseCandleRow(row []string) (models.Candle, error) {
	if len(row) < 6 {
		return models.Candle{}, fmt.Errorf("short candle row: %d fields", len(row))
	}

	fields := make([]float64, 6)
	for i := 0; i < 6; i++ {
		v, err := strconv.ParseFloat(row[i], 64)
		if err != nil {
			return models.Candle{}, fmt.Errorf("field %d: %w", i, err)
		}
		fields[i] = v
	}

	return models.Candle{
		Timestamp: int64(fields[0]),
		Open:      fields[1],
		High:      fields[2],
		Low:       fields[3],
		Close:     fields[4],
		Volume:    fields[5],
	}, nil
}

// granularityFor maps the bot timeframe notation to Bitget granularity.
func granularityFor(timeframe string) (string, error) {
	switch timeframe {
	case "1m":
		return "1min", nil
	case "3m":
		return "3min", nil
	case "5m":
		return "5min", nil
	case "15m":
		return "15min", nil
	case "30m":
		return "30min", nil
	case "1h":
		return "1h", nil
	case "4h":
		return "4h", nil
	case "1day":
		return "1day", nil
	}
	return "", fmt.Errorf("unsupported timeframe %q", timeframe)
}
