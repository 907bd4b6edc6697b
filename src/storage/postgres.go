package storage

import (
	"database/sql"
	"fmt"

	"signal-tracker/src/logger"
	"signal-tracker/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

// PostgresDB is the Postgres flavor of the price-point store, for
// deployments where the reload source outlives a single host.
type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	return &PostgresDB{Config: cfg, Logger: log}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	db, err := sql.Open("postgres", d.Config.Storage.DBConnectionString)
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		return err
	}
	d.DB = db

	query := `
		CREATE TABLE IF NOT EXISTS price_points (
			symbol TEXT,
			timestamp BIGINT,
			price DOUBLE PRECISION,
			rolling_avg DOUBLE PRECISION,
			rolling_std DOUBLE PRECISION,
			has_stats BOOLEAN,
			signal SMALLINT,
			pnl DOUBLE PRECISION,
			cumulative_pnl DOUBLE PRECISION,
			PRIMARY KEY (symbol, timestamp)
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create price_points: %w", err)
	}

	d.Logger.Info("PostgresDB initialized")
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SavePricePoints(symbol string, points []models.MPricePoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO price_points
		(symbol, timestamp, price, rolling_avg, rolling_std, has_stats, signal, pnl, cumulative_pnl)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (symbol, timestamp) DO UPDATE SET
			price = EXCLUDED.price,
			rolling_avg = EXCLUDED.rolling_avg,
			rolling_std = EXCLUDED.rolling_std,
			has_stats = EXCLUDED.has_stats,
			signal = EXCLUDED.signal,
			pnl = EXCLUDED.pnl,
			cumulative_pnl = EXCLUDED.cumulative_pnl
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, pt := range points {
		if _, err := stmt.Exec(symbol, pt.Timestamp, pt.Price, pt.RollingAvg,
			pt.RollingStd, pt.HasStats, int(pt.Signal), pt.PnL, pt.CumulativePnL); err != nil {
			return fmt.Errorf("failed to insert point for %s: %w", symbol, err)
		}
	}
	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) LoadHistory(symbol string) ([]models.MQuote, error) {
	rows, err := d.DB.Query(`
		SELECT timestamp, price FROM price_points
		WHERE symbol = $1 ORDER BY timestamp ASC
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

func (d *PostgresDB) DeleteSymbol(symbol string) error {
	_, err := d.DB.Exec("DELETE FROM price_points WHERE symbol = $1", symbol)
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB == nil {
		return nil
	}
	return d.DB.Close()
}
