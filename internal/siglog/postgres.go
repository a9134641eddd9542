package siglog

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"scalperbot/models"
)

// PostgresAppender inserts signal rows into a Postgres table.
type PostgresAppender struct {
	db *sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters.
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// ConnString renders the parameters as a lib/pq connection string.
func (p ConnectionParams) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode,
	)
}

// NewPostgresAppender opens the connection and creates the signals
// table if it does not exist. connStr is any lib/pq connection string,
// including postgres:// URLs.
func NewPostgresAppender(connStr string) (*PostgresAppender, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := createTable(db); err != nil {
		return nil, err
	}

	return &PostgresAppender{db: db}, nil
}

func createTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS signals (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMP NOT NULL,
			pair TEXT NOT NULL,
			timeframe TEXT NOT NULL,
			signal TEXT NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			ema_short DOUBLE PRECISION,
			ema_long DOUBLE PRECISION,
			rsi DOUBLE PRECISION,
			macd DOUBLE PRECISION,
			macd_signal DOUBLE PRECISION,
			vol DOUBLE PRECISION,
			vol_avg_10 DOUBLE PRECISION
		)
	`)
	return err
}

// Append inserts one signal row.
func (a *PostgresAppender) Append(event *models.SignalEvent) error {
	_, err := a.db.Exec(`
		INSERT INTO signals (
			id, created_at, pair, timeframe, signal, price,
			ema_short, ema_long, rsi, macd, macd_signal, vol, vol_avg_10
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		event.ID, event.Timestamp, event.Symbol, event.Timeframe,
		event.Direction.Label(), event.Price,
		event.EMAShort, event.EMALong, event.RSI,
		event.MACD, event.MACDSignal, event.Volume, event.VolumeAvg,
	)
	return err
}

// Close closes the database connection.
func (a *PostgresAppender) Close() error {
	return a.db.Close()
}
