// Package ban persists IP ban records. Stores are pure I/O; the
// read-modify-write upsert and escalation policy live in the service.
package ban

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Aleksandr505/Confa/internal/ipban/models"
)

// PostgresStore persists ban records in the ip_ban table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// FindActiveBan returns the most recent ban that blocks the IP at now,
// or nil when none does.
func (s *PostgresStore) FindActiveBan(ctx context.Context, ip string, now time.Time) (*models.BanRecord, error) {
	query := `
		SELECT id, ip, reason, banned_until, permanent, created_at, updated_at
		FROM ip_ban
		WHERE ip = $1
		  AND (permanent = TRUE OR (banned_until IS NOT NULL AND banned_until > $2))
		ORDER BY banned_until DESC NULLS FIRST
		LIMIT 1
	`
	rec, err := scanBanRecord(s.db.QueryRowContext(ctx, query, ip, now))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find active ban: %w", err)
	}
	return rec, nil
}

// FindLatestByIP returns the newest ban row for the IP regardless of
// whether it is still active, or nil when the IP was never banned.
func (s *PostgresStore) FindLatestByIP(ctx context.Context, ip string) (*models.BanRecord, error) {
	query := `
		SELECT id, ip, reason, banned_until, permanent, created_at, updated_at
		FROM ip_ban
		WHERE ip = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	rec, err := scanBanRecord(s.db.QueryRowContext(ctx, query, ip))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find latest ban: %w", err)
	}
	return rec, nil
}

// FindAllActive lists every ban active at now, newest first.
func (s *PostgresStore) FindAllActive(ctx context.Context, now time.Time) ([]models.BanRecord, error) {
	query := `
		SELECT id, ip, reason, banned_until, permanent, created_at, updated_at
		FROM ip_ban
		WHERE permanent = TRUE OR (banned_until IS NOT NULL AND banned_until > $1)
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("find all active bans: %w", err)
	}
	defer rows.Close()

	var records []models.BanRecord
	for rows.Next() {
		rec, err := scanBanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan active ban: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate active bans: %w", err)
	}
	return records, nil
}

// Save inserts a new row when rec.ID is zero and updates the existing row
// otherwise. The record's ID and timestamps are refreshed from the row.
func (s *PostgresStore) Save(ctx context.Context, rec *models.BanRecord) error {
	if rec == nil {
		return fmt.Errorf("ban record is required")
	}

	if rec.ID == 0 {
		query := `
			INSERT INTO ip_ban (ip, reason, banned_until, permanent, created_at, updated_at)
			VALUES ($1, $2, $3, $4, NOW(), NOW())
			RETURNING id, created_at, updated_at
		`
		err := s.db.QueryRowContext(ctx, query, rec.IP, rec.Reason, rec.BannedUntil, rec.Permanent).
			Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert ban: %w", err)
		}
		return nil
	}

	query := `
		UPDATE ip_ban
		SET reason = $2, banned_until = $3, permanent = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := s.db.QueryRowContext(ctx, query, rec.ID, rec.Reason, rec.BannedUntil, rec.Permanent).
		Scan(&rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update ban: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBanRecord(row rowScanner) (*models.BanRecord, error) {
	var rec models.BanRecord
	var bannedUntil sql.NullTime
	err := row.Scan(&rec.ID, &rec.IP, &rec.Reason, &bannedUntil, &rec.Permanent, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if bannedUntil.Valid {
		rec.BannedUntil = &bannedUntil.Time
	}
	return &rec, nil
}
