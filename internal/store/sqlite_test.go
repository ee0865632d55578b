package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkucko/chartscope/internal/candle"
)

func openTestStore(t *testing.T) *CandleStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)

	cs := candle.Synthetic(1, 50, 0, 60_000, 100)
	require.NoError(t, s.SaveBatch("BTCUSDT", "1m", cs))

	got, err := s.LoadRecent("BTCUSDT", "1m", 100)
	require.NoError(t, err)
	require.Len(t, got, 50)

	// REAL columns round-trip float64 exactly.
	assert.Equal(t, cs, got)
}

func TestLoadBefore(t *testing.T) {
	s := openTestStore(t)

	cs := candle.Synthetic(2, 100, 0, 60_000, 100)
	require.NoError(t, s.SaveBatch("BTCUSDT", "1m", cs))

	got, err := s.LoadBefore("BTCUSDT", "1m", 50*60_000, 20)
	require.NoError(t, err)
	require.Len(t, got, 20)

	// Ascending, ending just below the cutoff.
	assert.Equal(t, int64(30*60_000), got[0].Time)
	assert.Equal(t, int64(49*60_000), got[19].Time)
	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i].Time, got[i-1].Time)
	}
}

func TestUpsertReplacesCandle(t *testing.T) {
	s := openTestStore(t)

	first := []candle.Candle{{Time: 0, Open: 1, High: 2, Low: 1, Close: 1.5, Volume: 10}}
	require.NoError(t, s.SaveBatch("BTCUSDT", "1m", first))

	updated := []candle.Candle{{Time: 0, Open: 1, High: 3, Low: 0.5, Close: 2, Volume: 25}}
	require.NoError(t, s.SaveBatch("BTCUSDT", "1m", updated))

	got, err := s.LoadRecent("BTCUSDT", "1m", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, updated[0], got[0])
}

func TestSymbolsAndIntervalsIsolated(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveBatch("BTCUSDT", "1m", candle.Synthetic(3, 10, 0, 60_000, 100)))
	require.NoError(t, s.SaveBatch("ETHUSDT", "1m", candle.Synthetic(4, 5, 0, 60_000, 50)))
	require.NoError(t, s.SaveBatch("BTCUSDT", "5m", candle.Synthetic(5, 7, 0, 300_000, 100)))

	btc, err := s.LoadRecent("BTCUSDT", "1m", 100)
	require.NoError(t, err)
	assert.Len(t, btc, 10)

	eth, err := s.LoadRecent("ETHUSDT", "1m", 100)
	require.NoError(t, err)
	assert.Len(t, eth, 5)

	btc5, err := s.LoadRecent("BTCUSDT", "5m", 100)
	require.NoError(t, err)
	assert.Len(t, btc5, 7)
}

func TestLoadFromEmptyStore(t *testing.T) {
	s := openTestStore(t)

	got, err := s.LoadRecent("BTCUSDT", "1m", 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.LoadBefore("BTCUSDT", "1m", 1000, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}
