package licensing

import (
	"context"
	"fmt"
	"time"

	"github.com/dd0wney/keygate/pkg/logging"
)

// BindingEngine decides the validation outcome for a (license key, device
// fingerprint) pair and performs the one-time first-use binding write.
//
// State machine for a license's bound device:
//
//	UNBOUND    --(validate with fingerprint)--> BOUND(f)
//	BOUND(f)   --(admin clear)-->               UNBOUND
//	BOUND(f)   --(admin set f')-->              BOUND(f')
//	BOUND(f)   on validate with f  -> valid     (no transition)
//	BOUND(f)   on validate with f' -> mismatch  (no transition)
type BindingEngine struct {
	store    LicenseStore
	resolver FeatureResolver
	logger   logging.Logger
	now      func() time.Time
	onBind   func()
}

// NewBindingEngine creates a binding engine over the given store and resolver
func NewBindingEngine(store LicenseStore, resolver FeatureResolver, logger logging.Logger) *BindingEngine {
	return &BindingEngine{
		store:    store,
		resolver: resolver,
		logger:   logger,
		now:      time.Now,
	}
}

// OnBind registers a callback invoked whenever a first-use binding wins,
// for metrics reporting
func (e *BindingEngine) OnBind(fn func()) {
	e.onBind = fn
}

// Validate looks up the license and decides the outcome. An empty fingerprint
// selects the validation-only variant: no binding check and no bind write.
// Only the first-use binding mutates the store; every other path is read-only.
func (e *BindingEngine) Validate(ctx context.Context, licenseKey, fingerprint string) (*Result, error) {
	license, err := e.store.GetLicenseByKey(ctx, licenseKey)
	if IsNotFound(err) {
		e.logger.Info("license validation failed",
			logging.String("reason", "not_found"),
			logging.String("key", licenseKey))
		return &Result{Status: StatusInvalid, Features: []string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up license: %w", err)
	}

	if license.ExpiredAt(e.now()) {
		e.logger.Info("license validation failed",
			logging.String("reason", "expired"),
			logging.String("key", licenseKey))
		return &Result{Status: StatusExpired, ExpiresOn: license.ExpiresOn, Features: []string{}}, nil
	}

	if fingerprint != "" {
		bound := license.BoundDevice
		if bound == "" {
			// First use: commit this license to the calling device. The
			// store serializes concurrent first binds to a single winner.
			bound, err = e.store.BindDevice(ctx, licenseKey, fingerprint)
			if err != nil {
				return nil, fmt.Errorf("failed to bind device: %w", err)
			}
			if bound == fingerprint {
				e.logger.Info("license bound to device",
					logging.String("key", licenseKey),
					logging.String("device", fingerprint))
				if e.onBind != nil {
					e.onBind()
				}
			}
		}
		// Exact, case-sensitive comparison. No normalization.
		if bound != fingerprint {
			e.logger.Info("license validation failed",
				logging.String("reason", "device_mismatch"),
				logging.String("key", licenseKey))
			return &Result{Status: StatusMismatch, Features: []string{}}, nil
		}
	}

	features, err := e.resolver.Resolve(ctx, license)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve features: %w", err)
	}
	if features == nil {
		features = []string{}
	}

	return &Result{Status: StatusValid, ExpiresOn: license.ExpiresOn, Features: features}, nil
}
