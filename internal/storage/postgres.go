package storage

import (
	"context"
	"database/sql"
	"fmt"

	json "github.com/goccy/go-json"
	_ "github.com/lib/pq"
	"github.com/mselser95/betview/internal/report"
	"go.uber.org/zap"
)

// PostgresStorage implements Storage using PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage creates a new PostgreSQL storage.
func NewPostgresStorage(cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return NewPostgresStorageFromDB(db, cfg.Logger), nil
}

// NewPostgresStorageFromDB wraps an open database handle.
func NewPostgresStorageFromDB(db *sql.DB, logger *zap.Logger) *PostgresStorage {
	return &PostgresStorage{
		db:     db,
		logger: logger,
	}
}

type storedIndicator struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// StoreProjection stores a projection; indicators go into a JSONB column.
func (p *PostgresStorage) StoreProjection(ctx context.Context, rec *Record) error {
	indicators := make([]storedIndicator, 0, len(rec.Indicators))
	for _, ind := range rec.Indicators {
		indicators = append(indicators, storedIndicator(ind))
	}
	encoded, err := json.Marshal(indicators)
	if err != nil {
		return fmt.Errorf("encode indicators: %w", err)
	}

	query := `
		INSERT INTO projections (
			id, scenario, branch, match_name, match_date,
			indicators, popup, recorded_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	_, err = p.db.ExecContext(ctx, query,
		rec.ID,
		rec.Scenario,
		rec.Branch,
		nullString(rec.Match),
		rec.MatchDate,
		encoded,
		nullString(rec.Popup),
		rec.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("insert projection: %w", err)
	}

	p.logger.Debug("projection-stored",
		zap.String("projection-id", rec.ID),
		zap.String("scenario", rec.Scenario),
		zap.String("branch", rec.Branch))

	return nil
}

// Recent returns the latest projections, newest first.
func (p *PostgresStorage) Recent(ctx context.Context, scenario string, limit int) ([]Record, error) {
	query := `
		SELECT id, scenario, branch, match_name, match_date, indicators, popup, recorded_at
		FROM projections
		WHERE ($1 = '' OR scenario = $1)
		ORDER BY recorded_at DESC
		LIMIT $2
	`

	rows, err := p.db.QueryContext(ctx, query, scenario, limit)
	if err != nil {
		return nil, fmt.Errorf("query projections: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec       Record
			match     sql.NullString
			popup     sql.NullString
			matchDate sql.NullTime
			encoded   []byte
		)
		err = rows.Scan(&rec.ID, &rec.Scenario, &rec.Branch, &match, &matchDate, &encoded, &popup, &rec.RecordedAt)
		if err != nil {
			return nil, fmt.Errorf("scan projection: %w", err)
		}

		var indicators []storedIndicator
		if len(encoded) > 0 {
			err = json.Unmarshal(encoded, &indicators)
			if err != nil {
				return nil, fmt.Errorf("decode indicators of %s: %w", rec.ID, err)
			}
		}
		for _, ind := range indicators {
			rec.Indicators = append(rec.Indicators, report.Indicator(ind))
		}

		rec.Match = match.String
		rec.Popup = popup.String
		if matchDate.Valid {
			d := matchDate.Time
			rec.MatchDate = &d
		}
		records = append(records, rec)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate projections: %w", err)
	}

	return records, nil
}

// Ping checks that the database is reachable.
func (p *PostgresStorage) Ping(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
