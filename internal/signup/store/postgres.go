package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"waitlist/internal/signup/models"
)

// uniqueViolation is the SQLSTATE Postgres raises when the email uniqueness
// index rejects an insert.
const uniqueViolation = "23505"

// PostgresStore persists signup records in PostgreSQL. The unique index on
// email is the safety net against two concurrent requests for the same
// address both succeeding.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed signup store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres opens a database handle over the pgx stdlib driver and
// verifies connectivity.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func (s *PostgresStore) Insert(ctx context.Context, record *models.SignupRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO signups (id, email, zip, role, use_case, source, created_at, user_agent, device_summary, referer, identity_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		record.ID,
		record.Email,
		record.Zip,
		string(record.Role),
		record.UseCase,
		record.Source,
		record.CreatedAt,
		record.UserAgent,
		record.DeviceSummary,
		record.Referer,
		record.IdentityHash,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert signup: %w", err)
	}
	return nil
}

func (s *PostgresStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM signups WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check signup exists: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.SignupRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, zip, role, use_case, source, created_at, user_agent, device_summary, referer, identity_hash
		FROM signups
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list signups: %w", err)
	}
	defer rows.Close()

	var records []*models.SignupRecord
	for rows.Next() {
		var record models.SignupRecord
		var role string
		err := rows.Scan(
			&record.ID,
			&record.Email,
			&record.Zip,
			&role,
			&record.UseCase,
			&record.Source,
			&record.CreatedAt,
			&record.UserAgent,
			&record.DeviceSummary,
			&record.Referer,
			&record.IdentityHash,
		)
		if err != nil {
			return nil, fmt.Errorf("scan signup: %w", err)
		}
		record.Role = models.Role(role)
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list signups: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM signups`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count signups: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
