package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // PostgreSQL driver

	"ConsignmentExtraction/pkg/config"
	"ConsignmentExtraction/pkg/models"
)

// ConnectDB establishes a connection to the PostgreSQL database
func ConnectDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD environment variable is not set")
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	return db, nil
}

// InitDB creates the extractions table if it doesn't exist
func InitDB(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS extractions (
		id SERIAL PRIMARY KEY,
		record JSONB NOT NULL,
		document_name VARCHAR NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("error creating extractions table: %w", err)
	}

	logger.Info("database.initialized")
	return nil
}

// Store keeps finalized extraction records
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// SaveExtraction stores a finalized record and returns its id
func (s *Store) SaveExtraction(ctx context.Context, record []byte, documentName string) (int, error) {
	query := `
	INSERT INTO extractions (record, document_name, created_at, updated_at)
	VALUES ($1, $2, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	RETURNING id`

	var id int
	if err := s.db.QueryRowContext(ctx, query, record, documentName).Scan(&id); err != nil {
		return 0, fmt.Errorf("error storing extraction: %w", err)
	}
	return id, nil
}

// GetExtraction loads a stored record by id. It returns sql.ErrNoRows when there is none.
func (s *Store) GetExtraction(ctx context.Context, id int) (models.StoredExtraction, error) {
	query := `
	SELECT id, record, document_name, created_at, updated_at
	FROM extractions
	WHERE id = $1`

	var out models.StoredExtraction
	err := s.db.QueryRowContext(ctx, query, id).Scan(&out.ID, &out.Record, &out.DocumentName, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return models.StoredExtraction{}, fmt.Errorf("error loading extraction %d: %w", id, err)
	}
	return out, nil
}
