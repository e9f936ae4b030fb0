package licensing

import (
	"context"
	"time"
)

// LicenseStore defines the interface for license and feature grant
// persistence. Grants are keyed by a subject string: the license key in the
// per-license design, or a tier name in tier-mode deployments.
type LicenseStore interface {
	CreateLicense(ctx context.Context, license *License) error
	GetLicenseByKey(ctx context.Context, key string) (*License, error)
	SetExpiry(ctx context.Context, key string, expiresOn time.Time) error
	SetBoundDevice(ctx context.Context, key, fingerprint string) error

	// BindDevice atomically sets the bound device if and only if the license
	// is currently unbound, and returns whatever device ends up bound. Two
	// concurrent callers must observe a single winner.
	BindDevice(ctx context.Context, key, fingerprint string) (string, error)

	// DeleteLicense removes the license and every grant whose subject is the
	// license key, in one transaction.
	DeleteLicense(ctx context.Context, key string) error

	ListLicenses(ctx context.Context) ([]*License, error)
	CountLicenses(ctx context.Context) (int, error)

	// ReplaceGrants discards all grants for the subject and inserts the
	// given set atomically. Duplicates in the input collapse to one grant.
	ReplaceGrants(ctx context.Context, subject string, features []string) ([]string, error)

	// GrantsFor returns the feature names granted to the subject, sorted.
	// This is the explicit query that replaces any implicit license->grants
	// relationship traversal.
	GrantsFor(ctx context.Context, subject string) ([]string, error)

	Ping(ctx context.Context) error
	Close() error
}
