package storage

import (
	"database/sql"
	"fmt"

	"signal-tracker/src/logger"
	"signal-tracker/src/models"

	_ "modernc.org/sqlite"
)

// SQLite batch constants
const (
	sqliteMaxVars   = 32000
	paramsPerRow    = 9
	sqliteBatchSize = sqliteMaxVars / paramsPerRow
)

// -----------------------------------------------------------------------------

// SQLiteDB persists computed price points to a local SQLite file. It
// doubles as the reload source: LoadHistory replays stored observations
// so a restart can skip the provider's history endpoint.
type SQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*SQLiteDB, error) {
	return &SQLiteDB{Config: cfg, Logger: log}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Initialize() error {
	db, err := sql.Open("sqlite", d.Config.Storage.DBPath)
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		return err
	}
	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	query := `
		CREATE TABLE IF NOT EXISTS price_points (
			symbol TEXT,
			timestamp INTEGER,
			price REAL,
			rolling_avg REAL,
			rolling_std REAL,
			has_stats INTEGER,
			signal INTEGER,
			pnl REAL,
			cumulative_pnl REAL,
			PRIMARY KEY (symbol, timestamp)
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create price_points: %w", err)
	}

	d.Logger.Info("SQLiteDB initialized (%s)", d.Config.Storage.DBPath)
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) SavePricePoints(symbol string, points []models.MPricePoint) error {
	if len(points) == 0 {
		return nil
	}

	for start := 0; start < len(points); start += sqliteBatchSize {
		end := start + sqliteBatchSize
		if end > len(points) {
			end = len(points)
		}
		if err := d.saveBatch(symbol, points[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) saveBatch(symbol string, points []models.MPricePoint) error {
	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO price_points
		(symbol, timestamp, price, rolling_avg, rolling_std, has_stats, signal, pnl, cumulative_pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, pt := range points {
		hasStats := 0
		if pt.HasStats {
			hasStats = 1
		}
		if _, err := stmt.Exec(symbol, pt.Timestamp, pt.Price, pt.RollingAvg,
			pt.RollingStd, hasStats, int(pt.Signal), pt.PnL, pt.CumulativePnL); err != nil {
			return fmt.Errorf("failed to insert point for %s: %w", symbol, err)
		}
	}
	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) LoadHistory(symbol string) ([]models.MQuote, error) {
	rows, err := d.DB.Query(`
		SELECT timestamp, price FROM price_points
		WHERE symbol = ? ORDER BY timestamp ASC
	`, symbol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quotes []models.MQuote
	for rows.Next() {
		q := models.MQuote{Symbol: symbol}
		if err := rows.Scan(&q.Timestamp, &q.Price); err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) DeleteSymbol(symbol string) error {
	_, err := d.DB.Exec("DELETE FROM price_points WHERE symbol = ?", symbol)
	return err
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Close() error {
	if d.DB == nil {
		return nil
	}
	return d.DB.Close()
}
