package licensing

import (
	"sort"
	"time"
)

// Tier is a legacy named bucket that grouped feature grants before grants
// moved to per-license keys. It only matters to deployments running the
// tier-mode resolver.
type Tier string

const (
	TierBasic Tier = "basic"
	TierPro   Tier = "pro"
)

// Status is the outcome of a validation attempt. Statuses are successful
// responses, not errors - clients branch on the value.
type Status string

const (
	StatusValid    Status = "valid"
	StatusInvalid  Status = "invalid"
	StatusExpired  Status = "expired"
	StatusMismatch Status = "mismatch"
)

// License is a key entitling its holder to gated features until an expiry
// date, optionally bound to a single device fingerprint.
type License struct {
	Key         string    `json:"key"`
	OwnerID     string    `json:"owner_id,omitempty"`
	Tier        Tier      `json:"tier"`
	ExpiresOn   time.Time `json:"expires_on"`
	BoundDevice string    `json:"bound_device,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ValidateRequest is what clients send to the license server
type ValidateRequest struct {
	LicenseKey        string `json:"license_key"`
	DeviceFingerprint string `json:"device_fingerprint,omitempty"`
}

// ValidateResponse is what the license server returns
type ValidateResponse struct {
	Status    Status   `json:"status"`
	ExpiresOn string   `json:"expires_on,omitempty"`
	Features  []string `json:"features"`
}

// Result is the outcome of a validation decision
type Result struct {
	Status    Status
	ExpiresOn time.Time
	Features  []string
}

// DateOnly truncates a time to its UTC calendar day. Expiry comparisons
// operate on whole days.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current UTC calendar day
func Today() time.Time {
	return DateOnly(time.Now())
}

// ExpiredAt reports whether the license is expired as of the given day.
// A license expiring today is still valid.
func (l *License) ExpiredAt(day time.Time) bool {
	return DateOnly(l.ExpiresOn).Before(DateOnly(day))
}

// Bound reports whether the license has a device binding
func (l *License) Bound() bool {
	return l.BoundDevice != ""
}

// dedupeFeatures collapses duplicate names and drops empties, returning a
// sorted grant set
func dedupeFeatures(features []string) []string {
	seen := make(map[string]struct{}, len(features))
	deduped := make([]string, 0, len(features))
	for _, name := range features {
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		deduped = append(deduped, name)
	}
	sort.Strings(deduped)
	return deduped
}
