// Package store persists candle history to a SQLite database so panning
// into the past does not re-fetch pages the app has already seen.
package store

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/mkucko/chartscope/internal/candle"
)

// CandleStore caches candles per symbol and interval.
type CandleStore struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database and runs migrations.
func Open(dbPath string) (*CandleStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so the backfill tool and the viewer can share the file.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &CandleStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("candle store opened")
	return s, nil
}

func (s *CandleStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS candles (
			symbol   TEXT    NOT NULL,
			interval TEXT    NOT NULL,
			ts       INTEGER NOT NULL,
			open     REAL    NOT NULL,
			high     REAL    NOT NULL,
			low      REAL    NOT NULL,
			close    REAL    NOT NULL,
			volume   REAL    NOT NULL,
			PRIMARY KEY (symbol, interval, ts)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_candles_lookup ON candles(symbol, interval, ts)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveBatch upserts candles for a symbol and interval in one transaction.
func (s *CandleStore) SaveBatch(symbol, interval string, cs []candle.Candle) error {
	if len(cs) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO candles (symbol, interval, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, interval, ts) DO UPDATE SET
			open=excluded.open, high=excluded.high, low=excluded.low,
			close=excluded.close, volume=excluded.volume`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, c := range cs {
		if _, err := stmt.Exec(symbol, interval, c.Time, c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			return fmt.Errorf("insert candle %d: %w", c.Time, err)
		}
	}
	return tx.Commit()
}

// LoadBefore returns up to limit candles strictly older than beforeMs, in
// ascending time order. Used to satisfy the viewport's need-more-history
// signal from cache before going to the network.
func (s *CandleStore) LoadBefore(symbol, interval string, beforeMs int64, limit int) ([]candle.Candle, error) {
	rows, err := s.db.Query(`SELECT ts, open, high, low, close, volume
		FROM (
			SELECT ts, open, high, low, close, volume FROM candles
			WHERE symbol = ? AND interval = ? AND ts < ?
			ORDER BY ts DESC LIMIT ?
		) ORDER BY ts ASC`, symbol, interval, beforeMs, limit)
	if err != nil {
		return nil, fmt.Errorf("query candles: %w", err)
	}
	defer rows.Close()
	return scanCandles(rows)
}

// LoadRecent returns the newest limit candles in ascending time order.
func (s *CandleStore) LoadRecent(symbol, interval string, limit int) ([]candle.Candle, error) {
	rows, err := s.db.Query(`SELECT ts, open, high, low, close, volume
		FROM (
			SELECT ts, open, high, low, close, volume FROM candles
			WHERE symbol = ? AND interval = ?
			ORDER BY ts DESC LIMIT ?
		) ORDER BY ts ASC`, symbol, interval, limit)
	if err != nil {
		return nil, fmt.Errorf("query candles: %w", err)
	}
	defer rows.Close()
	return scanCandles(rows)
}

func scanCandles(rows *sql.Rows) ([]candle.Candle, error) {
	var cs []candle.Candle
	for rows.Next() {
		var c candle.Candle
		if err := rows.Scan(&c.Time, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		cs = append(cs, c)
	}
	return cs, rows.Err()
}

// Close closes the database.
func (s *CandleStore) Close() error {
	return s.db.Close()
}
