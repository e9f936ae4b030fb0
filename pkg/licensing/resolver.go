package licensing

import "context"

// FeatureMode selects how feature grants are keyed
type FeatureMode string

const (
	// FeatureModeLicense attaches grants directly to a license key (primary design)
	FeatureModeLicense FeatureMode = "license"

	// FeatureModeTier resolves grants through the license's tier bucket
	// (backward-compatible variant for deployments created before grants
	// moved to per-license keys)
	FeatureModeTier FeatureMode = "tier"
)

// Valid reports whether the mode is one of the two supported variants
func (m FeatureMode) Valid() bool {
	return m == FeatureModeLicense || m == FeatureModeTier
}

// FeatureResolver computes the feature set a license currently grants.
// Both grant-keying designs implement this one interface so call sites
// never branch on the deployment mode.
type FeatureResolver interface {
	// Resolve returns the feature names the license grants right now.
	// Empty slice when none.
	Resolve(ctx context.Context, license *License) ([]string, error)

	// Subject returns the grant subject for the license (its key, or its
	// tier name in tier mode). Administrative grant mutations target this.
	Subject(license *License) string
}

// GrantResolver resolves features attached directly to the license key
type GrantResolver struct {
	store LicenseStore
}

// NewGrantResolver creates the per-license resolver
func NewGrantResolver(store LicenseStore) *GrantResolver {
	return &GrantResolver{store: store}
}

func (r *GrantResolver) Resolve(ctx context.Context, license *License) ([]string, error) {
	return r.store.GrantsFor(ctx, license.Key)
}

func (r *GrantResolver) Subject(license *License) string {
	return license.Key
}

// TierResolver resolves features through the shared tier bucket
type TierResolver struct {
	store LicenseStore
}

// NewTierResolver creates the legacy tier-mode resolver
func NewTierResolver(store LicenseStore) *TierResolver {
	return &TierResolver{store: store}
}

func (r *TierResolver) Resolve(ctx context.Context, license *License) ([]string, error) {
	return r.store.GrantsFor(ctx, string(license.Tier))
}

func (r *TierResolver) Subject(license *License) string {
	return string(license.Tier)
}

// NewResolver returns the resolver for the configured mode
func NewResolver(mode FeatureMode, store LicenseStore) FeatureResolver {
	if mode == FeatureModeTier {
		return NewTierResolver(store)
	}
	return NewGrantResolver(store)
}
