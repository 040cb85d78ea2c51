package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Alias1177/QuantLab/internal/model"
	"github.com/Alias1177/QuantLab/models"
	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Supported drivers
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// DB is a SQL-backed price store
type DB struct {
	*sql.DB
	driver string
	logger zerolog.Logger
}

// ConnectionParams holds database connection parameters
type ConnectionParams struct {
	Driver     string
	SQLitePath string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SSLMode    string
	// PingTimeout bounds the connection retries, default 30s
	PingTimeout time.Duration
}

func (p ConnectionParams) dsn() (string, error) {
	switch p.Driver {
	case DriverPostgres:
		return fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode,
		), nil
	case DriverSQLite:
		if p.SQLitePath == "" {
			return ":memory:", nil
		}
		return p.SQLitePath, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", p.Driver)
	}
}

// New opens a database connection, waits for it to answer and creates
// the schema
func New(ctx context.Context, params ConnectionParams) (*DB, error) {
	dsn, err := params.dsn()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(params.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", params.Driver, err)
	}
	if params.Driver == DriverSQLite {
		// every sqlite connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	logger := log.With().Str("component", "database").Str("driver", params.Driver).Logger()

	timeout := params.PingTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	retry := backoff.NewExponentialBackOff()
	retry.MaxElapsedTime = timeout

	ping := func() error {
		err := db.PingContext(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("Database not ready, retrying")
		}
		return err
	}
	if err := backoff.Retry(ping, backoff.WithContext(retry, ctx)); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", params.Driver, err)
	}

	store := &DB{DB: db, driver: params.Driver, logger: logger}
	if err := store.createTables(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info().Msg("Database connected")
	return store, nil
}

// createTables creates the necessary tables if they don't exist
func (db *DB) createTables(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS price_bars (
			symbol TEXT NOT NULL,
			trade_date TEXT NOT NULL,
			open DOUBLE PRECISION NOT NULL,
			high DOUBLE PRECISION NOT NULL,
			low DOUBLE PRECISION NOT NULL,
			close DOUBLE PRECISION NOT NULL,
			volume DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (symbol, trade_date)
		)
	`)
	if err != nil {
		return fmt.Errorf("create price_bars: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders to $n for postgres
func (db *DB) rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// GetSeries returns the most recent days bars of symbol in date order.
// days ≤ 0 returns the whole history.
func (db *DB) GetSeries(ctx context.Context, symbol string, days int) (models.PriceSeries, error) {
	query := `
		SELECT trade_date, open, high, low, close, volume
		FROM price_bars
		WHERE symbol = ?
		ORDER BY trade_date DESC`
	args := []any{symbol}
	if days > 0 {
		query += ` LIMIT ?`
		args = append(args, days)
	}

	rows, err := db.QueryContext(ctx, db.rebind(query), args...)
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("query %s: %w", symbol, err)
	}
	defer rows.Close()

	var bars []models.PriceBar
	for rows.Next() {
		var (
			day string
			bar models.PriceBar
		)
		if err := rows.Scan(&day, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return models.PriceSeries{}, fmt.Errorf("scan %s: %w", symbol, err)
		}
		if bar.Date, err = models.ParseDate(day); err != nil {
			return models.PriceSeries{}, fmt.Errorf("scan %s: %w", symbol, err)
		}
		bars = append(bars, bar)
	}
	if err := rows.Err(); err != nil {
		return models.PriceSeries{}, fmt.Errorf("query %s: %w", symbol, err)
	}

	if len(bars) == 0 {
		return models.PriceSeries{}, model.SymbolNotFound(symbol)
	}

	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return models.PriceSeries{Symbol: symbol, Bars: bars}, nil
}

// Symbols lists the stored symbols in lexical order
func (db *DB) Symbols(ctx context.Context) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT DISTINCT symbol FROM price_bars ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

// PutSeries upserts every bar of series in one transaction
func (db *DB) PutSeries(ctx context.Context, series models.PriceSeries) error {
	if err := validateSeries(series); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", series.Symbol, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, db.rebind(`
		INSERT INTO price_bars (symbol, trade_date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol, trade_date)
		DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume
	`))
	if err != nil {
		return fmt.Errorf("prepare %s: %w", series.Symbol, err)
	}
	defer stmt.Close()

	for _, bar := range series.Bars {
		_, err := stmt.ExecContext(ctx, series.Symbol, bar.Date.Format(models.DateLayout),
			bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
		if err != nil {
			return fmt.Errorf("insert %s %s: %w", series.Symbol, bar.Date.Format(models.DateLayout), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", series.Symbol, err)
	}

	db.logger.Debug().Str("symbol", series.Symbol).Int("bars", series.Len()).Msg("Series stored")
	return nil
}
