package licensing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// CreateLicense stores a new license
func (s *PGStore) CreateLicense(ctx context.Context, license *License) error {
	query := `
		INSERT INTO licenses (key, owner_id, tier, expires_on, bound_device, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query,
		license.Key,
		license.OwnerID,
		license.Tier,
		DateOnly(license.ExpiresOn),
		license.BoundDevice,
		license.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create license: %w", err)
	}

	return nil
}

// GetLicenseByKey retrieves a license by its key
func (s *PGStore) GetLicenseByKey(ctx context.Context, key string) (*License, error) {
	query := `
		SELECT key, owner_id, tier, expires_on, bound_device, created_at
		FROM licenses
		WHERE key = $1
	`

	license := &License{}
	err := s.pool.QueryRow(ctx, query, key).Scan(
		&license.Key,
		&license.OwnerID,
		&license.Tier,
		&license.ExpiresOn,
		&license.BoundDevice,
		&license.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLicenseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get license: %w", err)
	}

	return license, nil
}

// SetExpiry overwrites the expiry date of an existing license
func (s *PGStore) SetExpiry(ctx context.Context, key string, expiresOn time.Time) error {
	result, err := s.pool.Exec(ctx,
		`UPDATE licenses SET expires_on = $2 WHERE key = $1`,
		key, DateOnly(expiresOn),
	)
	if err != nil {
		return fmt.Errorf("failed to set expiry: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrLicenseNotFound
	}
	return nil
}

// SetBoundDevice overwrites the bound device unconditionally (admin override)
func (s *PGStore) SetBoundDevice(ctx context.Context, key, fingerprint string) error {
	result, err := s.pool.Exec(ctx,
		`UPDATE licenses SET bound_device = $2 WHERE key = $1`,
		key, fingerprint,
	)
	if err != nil {
		return fmt.Errorf("failed to set bound device: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrLicenseNotFound
	}
	return nil
}

// BindDevice performs the one-time first-use binding write. The conditional
// UPDATE is the compare-and-set: of N concurrent callers on an unbound
// license exactly one matches the empty bound_device and wins. Everyone gets
// back whatever device is bound afterward.
func (s *PGStore) BindDevice(ctx context.Context, key, fingerprint string) (string, error) {
	_, err := s.pool.Exec(ctx,
		`UPDATE licenses SET bound_device = $2 WHERE key = $1 AND bound_device = ''`,
		key, fingerprint,
	)
	if err != nil {
		return "", fmt.Errorf("failed to bind device: %w", err)
	}

	var bound string
	err = s.pool.QueryRow(ctx,
		`SELECT bound_device FROM licenses WHERE key = $1`, key,
	).Scan(&bound)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrLicenseNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read bound device: %w", err)
	}

	return bound, nil
}

// DeleteLicense removes a license and its feature grants in one transaction
func (s *PGStore) DeleteLicense(ctx context.Context, key string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `DELETE FROM licenses WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete license: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrLicenseNotFound
	}

	// Cascade: only grants keyed by this license's key. Tier-scoped grants
	// are shared across licenses and survive.
	if _, err := tx.Exec(ctx, `DELETE FROM feature_grants WHERE subject = $1`, key); err != nil {
		return fmt.Errorf("failed to delete feature grants: %w", err)
	}

	return tx.Commit(ctx)
}

// ListLicenses returns all licenses in insertion order
func (s *PGStore) ListLicenses(ctx context.Context) ([]*License, error) {
	query := `
		SELECT key, owner_id, tier, expires_on, bound_device, created_at
		FROM licenses
		ORDER BY created_at ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list licenses: %w", err)
	}
	defer rows.Close()

	var licenses []*License
	for rows.Next() {
		license := &License{}
		err := rows.Scan(
			&license.Key,
			&license.OwnerID,
			&license.Tier,
			&license.ExpiresOn,
			&license.BoundDevice,
			&license.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan license: %w", err)
		}
		licenses = append(licenses, license)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating licenses: %w", err)
	}

	return licenses, nil
}

// CountLicenses returns the number of stored licenses
func (s *PGStore) CountLicenses(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM licenses`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count licenses: %w", err)
	}
	return count, nil
}

// ReplaceGrants swaps the full grant set for a subject in one transaction
func (s *PGStore) ReplaceGrants(ctx context.Context, subject string, features []string) ([]string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM feature_grants WHERE subject = $1`, subject); err != nil {
		return nil, fmt.Errorf("failed to clear feature grants: %w", err)
	}

	granted := dedupeFeatures(features)
	for _, name := range granted {
		if _, err := tx.Exec(ctx,
			`INSERT INTO feature_grants (subject, feature_name) VALUES ($1, $2)`,
			subject, name,
		); err != nil {
			return nil, fmt.Errorf("failed to insert feature grant: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit grants: %w", err)
	}

	return granted, nil
}

// GrantsFor returns the feature names granted to a subject, sorted
func (s *PGStore) GrantsFor(ctx context.Context, subject string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT feature_name FROM feature_grants WHERE subject = $1 ORDER BY feature_name ASC`,
		subject,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query feature grants: %w", err)
	}
	defer rows.Close()

	features := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan feature grant: %w", err)
		}
		features = append(features, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feature grants: %w", err)
	}

	return features, nil
}
