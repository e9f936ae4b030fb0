package licensing

import "context"

// migrate creates the necessary database tables. The grants table is keyed
// by a subject column rather than a FK to licenses(key) because tier-mode
// deployments store tier names in the same column; the delete cascade is
// handled transactionally instead.
func (s *PGStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS licenses (
		key TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL DEFAULT '',
		tier TEXT NOT NULL DEFAULT 'basic',
		expires_on DATE NOT NULL,
		bound_device TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS feature_grants (
		subject TEXT NOT NULL,
		feature_name TEXT NOT NULL,
		PRIMARY KEY (subject, feature_name)
	);

	CREATE INDEX IF NOT EXISTS idx_feature_grants_subject ON feature_grants(subject);
	CREATE INDEX IF NOT EXISTS idx_licenses_created_at ON licenses(created_at);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}
