package licensing

import (
	"context"
	"fmt"
	"time"

	"github.com/dd0wney/keygate/pkg/logging"
)

// Seed license created on first startup of an empty store. Strictly a
// development convenience - production deployments leave seeding disabled.
const (
	SeedLicenseKey   = "KYGT-DEMO-0000-0000-0000"
	SeedOwnerID      = "demo_user"
	SeedValidityDays = 365
)

// Manager performs the administrative license mutations. Authorization is
// the caller's responsibility (the HTTP layer gates admin routes).
type Manager struct {
	store    LicenseStore
	resolver FeatureResolver
	mode     FeatureMode
	logger   logging.Logger
	now      func() time.Time
}

// NewManager creates a lifecycle manager over the given store
func NewManager(store LicenseStore, resolver FeatureResolver, mode FeatureMode, logger logging.Logger) *Manager {
	return &Manager{
		store:    store,
		resolver: resolver,
		mode:     mode,
		logger:   logger,
		now:      time.Now,
	}
}

// LicenseRecord is a license together with its currently resolved features,
// as returned by List.
type LicenseRecord struct {
	License  *License `json:"license"`
	Features []string `json:"features"`
}

// Create issues a fresh license valid for the given number of days.
// The feature set starts empty and no device is bound.
func (m *Manager) Create(ctx context.Context, validityDays int, ownerID string) (*License, error) {
	if validityDays <= 0 {
		return nil, &ValidationError{Field: "validity_days", Message: "must be a positive number of days"}
	}

	key, err := GenerateLicenseKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate license key: %w", err)
	}

	license := &License{
		Key:       key,
		OwnerID:   ownerID,
		Tier:      TierBasic,
		ExpiresOn: DateOnly(m.now()).AddDate(0, 0, validityDays),
		CreatedAt: m.now(),
	}

	if err := m.store.CreateLicense(ctx, license); err != nil {
		return nil, fmt.Errorf("failed to create license: %w", err)
	}

	m.logger.Info("license created",
		logging.String("key", license.Key),
		logging.String("owner_id", ownerID),
		logging.Int("validity_days", validityDays))

	return license, nil
}

// Extend shifts the expiry by the given number of days. Negative values
// shorten the license.
func (m *Manager) Extend(ctx context.Context, key string, additionalDays int) (*License, error) {
	license, err := m.store.GetLicenseByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	license.ExpiresOn = DateOnly(license.ExpiresOn).AddDate(0, 0, additionalDays)
	if err := m.store.SetExpiry(ctx, key, license.ExpiresOn); err != nil {
		return nil, fmt.Errorf("failed to extend license: %w", err)
	}

	m.logger.Info("license extended",
		logging.String("key", key),
		logging.Int("additional_days", additionalDays),
		logging.Date("expires_on", license.ExpiresOn))

	return license, nil
}

// SetExpiry overwrites the expiry date outright
func (m *Manager) SetExpiry(ctx context.Context, key string, expiresOn time.Time) (*License, error) {
	license, err := m.store.GetLicenseByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	license.ExpiresOn = DateOnly(expiresOn)
	if err := m.store.SetExpiry(ctx, key, license.ExpiresOn); err != nil {
		return nil, fmt.Errorf("failed to set expiry: %w", err)
	}

	m.logger.Info("license expiry set",
		logging.String("key", key),
		logging.Date("expires_on", license.ExpiresOn))

	return license, nil
}

// SetDevice overwrites the bound device unconditionally. This is the
// administrative override that bypasses the one-bind-only rule.
func (m *Manager) SetDevice(ctx context.Context, key, fingerprint string) (*License, error) {
	license, err := m.store.GetLicenseByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	if err := m.store.SetBoundDevice(ctx, key, fingerprint); err != nil {
		return nil, fmt.Errorf("failed to set device: %w", err)
	}
	license.BoundDevice = fingerprint

	m.logger.Info("license device set",
		logging.String("key", key),
		logging.String("device", fingerprint))

	return license, nil
}

// ClearDevice resets the license to unbound so a new device can claim it
func (m *Manager) ClearDevice(ctx context.Context, key string) (*License, error) {
	license, err := m.store.GetLicenseByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	if err := m.store.SetBoundDevice(ctx, key, ""); err != nil {
		return nil, fmt.Errorf("failed to clear device: %w", err)
	}
	license.BoundDevice = ""

	m.logger.Info("license device cleared", logging.String("key", key))

	return license, nil
}

// ReplaceFeatures atomically discards the target's existing grants and
// inserts the new set. Duplicate names collapse to one grant. In tier mode
// the target is the license's tier bucket; replacing grants for a tier that
// no license references yet is allowed and simply creates the bucket.
func (m *Manager) ReplaceFeatures(ctx context.Context, key string, featureNames []string) ([]string, error) {
	subject := key
	license, err := m.store.GetLicenseByKey(ctx, key)
	switch {
	case err == nil:
		subject = m.resolver.Subject(license)
	case IsNotFound(err) && m.mode == FeatureModeTier:
		// Tier-scoped grants can be staged before any license carries the
		// tier, so the identifier is taken as the tier name itself.
		subject = key
	default:
		return nil, err
	}

	granted, err := m.store.ReplaceGrants(ctx, subject, featureNames)
	if err != nil {
		return nil, fmt.Errorf("failed to replace feature grants: %w", err)
	}

	m.logger.Info("feature grants replaced",
		logging.String("subject", subject),
		logging.Int("count", len(granted)))

	return granted, nil
}

// Delete removes the license and cascades removal of its feature grants.
// No soft delete.
func (m *Manager) Delete(ctx context.Context, key string) error {
	if err := m.store.DeleteLicense(ctx, key); err != nil {
		return err
	}

	m.logger.Info("license deleted", logging.String("key", key))
	return nil
}

// List returns every license with its current resolved feature set, in
// insertion order.
func (m *Manager) List(ctx context.Context) ([]*LicenseRecord, error) {
	licenses, err := m.store.ListLicenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list licenses: %w", err)
	}

	records := make([]*LicenseRecord, 0, len(licenses))
	for _, license := range licenses {
		features, err := m.resolver.Resolve(ctx, license)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve features for %s: %w", license.Key, err)
		}
		if features == nil {
			features = []string{}
		}
		records = append(records, &LicenseRecord{License: license, Features: features})
	}

	return records, nil
}

// EnsureSeeded creates the demo license if and only if the store is
// completely empty. Idempotent: a non-empty store is left untouched.
func (m *Manager) EnsureSeeded(ctx context.Context) error {
	count, err := m.store.CountLicenses(ctx)
	if err != nil {
		return fmt.Errorf("failed to count licenses: %w", err)
	}
	if count > 0 {
		return nil
	}

	license := &License{
		Key:       SeedLicenseKey,
		OwnerID:   SeedOwnerID,
		Tier:      TierPro,
		ExpiresOn: DateOnly(m.now()).AddDate(0, 0, SeedValidityDays),
		CreatedAt: m.now(),
	}

	if err := m.store.CreateLicense(ctx, license); err != nil {
		return fmt.Errorf("failed to seed demo license: %w", err)
	}

	if _, err := m.store.ReplaceGrants(ctx, m.resolver.Subject(license), ProFeatureNames()); err != nil {
		return fmt.Errorf("failed to seed demo grants: %w", err)
	}

	m.logger.Info("seeded demo license",
		logging.String("key", SeedLicenseKey),
		logging.String("tier", string(TierPro)))

	return nil
}
