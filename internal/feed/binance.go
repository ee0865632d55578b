// Package feed acquires candle data: a websocket stream for live updates
// and a REST client for history pages. The viewport engine never fetches
// data itself; this package feeds dataset mutations into it from outside.
package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/mkucko/chartscope/internal/candle"
)

var (
	// ErrBadMessage indicates a websocket payload that failed validation.
	ErrBadMessage = errors.New("malformed kline message")
)

// Update is one live candle mutation. Closed distinguishes an in-progress
// candle revision from a finalized bucket.
type Update struct {
	Candle candle.Candle
	Closed bool
}

// KlineStream subscribes to a Binance kline websocket stream for one
// symbol and interval.
type KlineStream struct {
	streamURL string
	symbol    string
	interval  string

	conn     *websocket.Conn
	validate *validator.Validate
}

// envelope is the combined-stream wrapper around every payload.
type envelope struct {
	Stream string          `json:"stream" validate:"required"`
	Data   json.RawMessage `json:"data" validate:"required"`
}

// klineEvent is the kline payload. Prices arrive as strings and are parsed
// through decimal to avoid float parsing artifacts before the engine's
// float64 boundary.
type klineEvent struct {
	EventType string `json:"e" validate:"required,eq=kline"`
	Symbol    string `json:"s" validate:"required"`
	Kline     struct {
		Start    int64  `json:"t" validate:"required,gt=0"`
		Interval string `json:"i" validate:"required"`
		Open     string `json:"o" validate:"required,numeric"`
		High     string `json:"h" validate:"required,numeric"`
		Low      string `json:"l" validate:"required,numeric"`
		Close    string `json:"c" validate:"required,numeric"`
		Volume   string `json:"v" validate:"required,numeric"`
		Closed   bool   `json:"x"`
	} `json:"k" validate:"required"`
}

// NewKlineStream creates a stream for one symbol and interval. streamURL is
// the combined-streams endpoint (e.g. "wss://stream.binance.com:9443/stream").
func NewKlineStream(streamURL, symbol, interval string) *KlineStream {
	return &KlineStream{
		streamURL: streamURL,
		symbol:    symbol,
		interval:  interval,
		validate:  validator.New(),
	}
}

// Connect dials the websocket.
func (k *KlineStream) Connect(ctx context.Context) error {
	stream := fmt.Sprintf("%s@kline_%s", strings.ToLower(k.symbol), k.interval)
	url := fmt.Sprintf("%s?streams=%s", k.streamURL, stream)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	k.conn = conn

	log.Info().Str("symbol", k.symbol).Str("interval", k.interval).Msg("kline stream connected")
	return nil
}

// Listen reads updates until the context is cancelled or the connection
// drops, delivering them on the returned channel. Malformed payloads are
// logged and skipped; they never kill the stream.
func (k *KlineStream) Listen(ctx context.Context) <-chan Update {
	out := make(chan Update, 64)

	go func() {
		defer close(out)
		for {
			_, payload, err := k.conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					log.Error().Err(err).Msg("kline stream read failed")
				}
				return
			}

			u, err := k.parse(payload)
			if err != nil {
				log.Warn().Err(err).Msg("skipping kline message")
				continue
			}

			select {
			case out <- u:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

func (k *KlineStream) parse(payload []byte) (Update, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Update{}, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	if err := k.validate.Struct(&env); err != nil {
		return Update{}, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}

	var ev klineEvent
	if err := json.Unmarshal(env.Data, &ev); err != nil {
		return Update{}, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	if err := k.validate.Struct(&ev); err != nil {
		return Update{}, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}

	c, err := klineToCandle(ev)
	if err != nil {
		return Update{}, err
	}
	return Update{Candle: c, Closed: ev.Kline.Closed}, nil
}

func klineToCandle(ev klineEvent) (candle.Candle, error) {
	fields := [5]string{ev.Kline.Open, ev.Kline.High, ev.Kline.Low, ev.Kline.Close, ev.Kline.Volume}
	var parsed [5]float64
	for i, f := range fields {
		d, err := decimal.NewFromString(f)
		if err != nil {
			return candle.Candle{}, fmt.Errorf("%w: bad number %q", ErrBadMessage, f)
		}
		parsed[i], _ = d.Float64()
	}
	return candle.Candle{
		Time:   ev.Kline.Start,
		Open:   parsed[0],
		High:   parsed[1],
		Low:    parsed[2],
		Close:  parsed[3],
		Volume: parsed[4],
	}, nil
}

// Close tears down the websocket.
func (k *KlineStream) Close() error {
	if k.conn != nil {
		return k.conn.Close()
	}
	return nil
}
