package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStream() *KlineStream {
	return NewKlineStream("wss://example.invalid/stream", "BTCUSDT", "1m")
}

func TestParseKlineMessage(t *testing.T) {
	payload := []byte(`{
		"stream": "btcusdt@kline_1m",
		"data": {
			"e": "kline",
			"s": "BTCUSDT",
			"k": {
				"t": 1700000000000,
				"i": "1m",
				"o": "42000.10",
				"h": "42100.00",
				"l": "41950.55",
				"c": "42050.25",
				"v": "12.5",
				"x": true
			}
		}
	}`)

	u, err := newTestStream().parse(payload)
	require.NoError(t, err)

	assert.True(t, u.Closed)
	assert.Equal(t, int64(1700000000000), u.Candle.Time)
	assert.Equal(t, 42000.10, u.Candle.Open)
	assert.Equal(t, 42100.00, u.Candle.High)
	assert.Equal(t, 41950.55, u.Candle.Low)
	assert.Equal(t, 42050.25, u.Candle.Close)
	assert.Equal(t, 12.5, u.Candle.Volume)
}

func TestParseRejectsBadMessages(t *testing.T) {
	s := newTestStream()

	cases := map[string]string{
		"not json":       `{`,
		"empty object":   `{}`,
		"missing kline":  `{"stream":"x","data":{"e":"kline","s":"BTCUSDT"}}`,
		"bad price":      `{"stream":"x","data":{"e":"kline","s":"BTCUSDT","k":{"t":1,"i":"1m","o":"abc","h":"1","l":"1","c":"1","v":"1"}}}`,
		"wrong event":    `{"stream":"x","data":{"e":"trade","s":"BTCUSDT","k":{"t":1,"i":"1m","o":"1","h":"1","l":"1","c":"1","v":"1"}}}`,
		"zero open time": `{"stream":"x","data":{"e":"kline","s":"BTCUSDT","k":{"t":0,"i":"1m","o":"1","h":"1","l":"1","c":"1","v":"1"}}}`,
	}

	for name, payload := range cases {
		_, err := s.parse([]byte(payload))
		assert.ErrorIs(t, err, ErrBadMessage, name)
	}
}

func TestParseKlinesRest(t *testing.T) {
	body := []byte(`[
		[1700000000000, "100.0", "110.0", "90.0", "105.0", "12.0", 1700000059999, "0", 1, "0", "0", "0"],
		[1700000060000, "105.0", "108.0", "101.0", "102.0", "7.5", 1700000119999, "0", 1, "0", "0", "0"]
	]`)

	cs, err := ParseKlines(body)
	require.NoError(t, err)
	require.Len(t, cs, 2)

	assert.Equal(t, int64(1700000000000), cs[0].Time)
	assert.Equal(t, 100.0, cs[0].Open)
	assert.Equal(t, 110.0, cs[0].High)
	assert.Equal(t, 90.0, cs[0].Low)
	assert.Equal(t, 105.0, cs[0].Close)
	assert.Equal(t, 12.0, cs[0].Volume)
	assert.Equal(t, int64(1700000060000), cs[1].Time)
}

func TestParseKlinesRejectsShortRows(t *testing.T) {
	_, err := ParseKlines([]byte(`[[1700000000000, "1.0"]]`))
	assert.ErrorIs(t, err, ErrBadMessage)
}

func TestHistoryClientKlines(t *testing.T) {
	var gotQuery struct {
		symbol, interval, endTime, limit string
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v3/klines", r.URL.Path)
		q := r.URL.Query()
		gotQuery.symbol = q.Get("symbol")
		gotQuery.interval = q.Get("interval")
		gotQuery.endTime = q.Get("endTime")
		gotQuery.limit = q.Get("limit")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[[1700000000000, "100.0", "110.0", "90.0", "105.0", "12.0", 0, "0", 1, "0", "0", "0"]]`))
	}))
	defer srv.Close()

	h := NewHistoryClient(srv.URL)
	cs, err := h.Klines(context.Background(), "BTCUSDT", "1m", 1700000060000, 500)
	require.NoError(t, err)
	require.Len(t, cs, 1)

	assert.Equal(t, "BTCUSDT", gotQuery.symbol)
	assert.Equal(t, "1m", gotQuery.interval)
	assert.Equal(t, "500", gotQuery.limit)
	// endTime is exclusive: the requested bound minus one millisecond.
	assert.Equal(t, "1700000059999", gotQuery.endTime)
}

func TestHistoryClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":-1121,"msg":"Invalid symbol."}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewHistoryClient(srv.URL).Klines(context.Background(), "NOPE", "1m", 0, 10)
	assert.Error(t, err)
}
