package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/mkucko/chartscope/internal/candle"
)

// HistoryClient fetches candle pages from the Binance klines REST endpoint.
type HistoryClient struct {
	baseURL string
	client  *http.Client
}

// NewHistoryClient creates a client against baseURL (e.g.
// "https://api.binance.com").
func NewHistoryClient(baseURL string) *HistoryClient {
	return &HistoryClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Klines fetches up to limit candles ending at endMs (exclusive when > 0),
// in ascending time order. This backs the viewport's need-more-history
// signal and the backfill tool.
func (h *HistoryClient) Klines(ctx context.Context, symbol, interval string, endMs int64, limit int) ([]candle.Candle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))
	if endMs > 0 {
		q.Set("endTime", strconv.FormatInt(endMs-1, 10))
	}

	reqURL := fmt.Sprintf("%s/api/v3/klines?%s", h.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch klines: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read klines: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("klines status %d: %s", resp.StatusCode, body)
	}

	cs, err := ParseKlines(body)
	if err != nil {
		return nil, err
	}

	log.Debug().Str("symbol", symbol).Int("count", len(cs)).Int64("end", endMs).Msg("history page fetched")
	return cs, nil
}

// ParseKlines decodes the klines response: an array of rows, each a
// heterogeneous array of [openTime, open, high, low, close, volume, ...].
func ParseKlines(body []byte) ([]candle.Candle, error) {
	var rows [][]json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}

	cs := make([]candle.Candle, 0, len(rows))
	for i, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("%w: row %d has %d fields", ErrBadMessage, i, len(row))
		}

		var openTime int64
		if err := json.Unmarshal(row[0], &openTime); err != nil {
			return nil, fmt.Errorf("%w: row %d open time: %v", ErrBadMessage, i, err)
		}

		var vals [5]float64
		for j := 1; j <= 5; j++ {
			var s string
			if err := json.Unmarshal(row[j], &s); err != nil {
				return nil, fmt.Errorf("%w: row %d field %d: %v", ErrBadMessage, i, j, err)
			}
			d, err := decimal.NewFromString(s)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d field %d: %v", ErrBadMessage, i, j, err)
			}
			vals[j-1], _ = d.Float64()
		}

		cs = append(cs, candle.Candle{
			Time:   openTime,
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	return cs, nil
}
