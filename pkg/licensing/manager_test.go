package licensing

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/dd0wney/keygate/pkg/logging"
)

func newTestManager(t *testing.T, store *Store, mode FeatureMode) *Manager {
	t.Helper()
	resolver := NewResolver(mode, store)
	return NewManager(store, resolver, mode, logging.NewNopLogger())
}

func TestManager_Create(t *testing.T) {
	store := newTestStore(t)
	manager := newTestManager(t, store, FeatureModeLicense)
	manager.now = func() time.Time { return time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC) }

	license, err := manager.Create(context.Background(), 30, "alice")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if !WellFormedKey(license.Key) {
		t.Errorf("Create() key = %q, not well-formed", license.Key)
	}
	if license.OwnerID != "alice" {
		t.Errorf("Create() owner = %q, want alice", license.OwnerID)
	}
	if license.Tier != TierBasic {
		t.Errorf("Create() tier = %s, want %s", license.Tier, TierBasic)
	}
	if license.BoundDevice != "" {
		t.Errorf("Create() bound device = %q, want empty", license.BoundDevice)
	}

	wantExpiry := time.Date(2026, 4, 14, 0, 0, 0, 0, time.UTC)
	if !license.ExpiresOn.Equal(wantExpiry) {
		t.Errorf("Create() expiry = %v, want %v", license.ExpiresOn, wantExpiry)
	}

	// New licenses start with no feature grants
	features, err := store.GrantsFor(context.Background(), license.Key)
	if err != nil {
		t.Fatalf("GrantsFor() error = %v", err)
	}
	if len(features) != 0 {
		t.Errorf("new license grants = %v, want empty", features)
	}
}

func TestManager_Create_InvalidDays(t *testing.T) {
	store := newTestStore(t)
	manager := newTestManager(t, store, FeatureModeLicense)

	for _, days := range []int{0, -1, -365} {
		_, err := manager.Create(context.Background(), days, "alice")
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("Create(%d) error = %v, want *ValidationError", days, err)
		}
	}

	count, _ := store.CountLicenses(context.Background())
	if count != 0 {
		t.Errorf("store count = %d, want 0", count)
	}
}

func TestManager_Extend(t *testing.T) {
	store := newTestStore(t)
	manager := newTestManager(t, store, FeatureModeLicense)

	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	mustCreate(t, store, &License{Key: "KYGT-EXT-KEY", ExpiresOn: base})

	tests := []struct {
		name string
		days int
		want time.Time
	}{
		{name: "extend", days: 30, want: base.AddDate(0, 0, 30)},
		{name: "shorten", days: -10, want: base.AddDate(0, 0, 20)},
		{name: "no-op", days: 0, want: base.AddDate(0, 0, 20)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			license, err := manager.Extend(context.Background(), "KYGT-EXT-KEY", tt.days)
			if err != nil {
				t.Fatalf("Extend() error = %v", err)
			}
			if !license.ExpiresOn.Equal(tt.want) {
				t.Errorf("Extend(%d) expiry = %v, want %v", tt.days, license.ExpiresOn, tt.want)
			}
		})
	}
}

func TestManager_Extend_NotFound(t *testing.T) {
	store := newTestStore(t)
	manager := newTestManager(t, store, FeatureModeLicense)

	_, err := manager.Extend(context.Background(), "KYGT-MISSING-KEY", 30)
	if !IsNotFound(err) {
		t.Errorf("Extend() error = %v, want ErrLicenseNotFound", err)
	}
}

func TestManager_SetExpiry(t *testing.T) {
	store := newTestStore(t)
	manager := newTestManager(t, store, FeatureModeLicense)

	mustCreate(t, store, &License{Key: "KYGT-EXP-KEY", ExpiresOn: Today().AddDate(0, 0, 30)})

	// Time-of-day components are discarded
	license, err := manager.SetExpiry(context.Background(), "KYGT-EXP-KEY",
		time.Date(2027, 1, 15, 23, 59, 59, 0, time.UTC))
	if err != nil {
		t.Fatalf("SetExpiry() error = %v", err)
	}

	want := time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC)
	if !license.ExpiresOn.Equal(want) {
		t.Errorf("SetExpiry() expiry = %v, want %v", license.ExpiresOn, want)
	}

	stored, _ := store.GetLicenseByKey(context.Background(), "KYGT-EXP-KEY")
	if !stored.ExpiresOn.Equal(want) {
		t.Errorf("stored expiry = %v, want %v", stored.ExpiresOn, want)
	}
}

func TestManager_SetAndClearDevice(t *testing.T) {
	store := newTestStore(t)
	manager := newTestManager(t, store, FeatureModeLicense)

	mustCreate(t, store, &License{
		Key:         "KYGT-DEV-KEY",
		ExpiresOn:   Today().AddDate(0, 0, 30),
		BoundDevice: "AA:BB:CC:DD:EE:FF",
	})

	// Admin override rebinds a bound license without clearing first
	license, err := manager.SetDevice(context.Background(), "KYGT-DEV-KEY", "11:22:33:44:55:66")
	if err != nil {
		t.Fatalf("SetDevice() error = %v", err)
	}
	if license.BoundDevice != "11:22:33:44:55:66" {
		t.Errorf("SetDevice() bound device = %q, want 11:22:33:44:55:66", license.BoundDevice)
	}

	license, err = manager.ClearDevice(context.Background(), "KYGT-DEV-KEY")
	if err != nil {
		t.Fatalf("ClearDevice() error = %v", err)
	}
	if license.BoundDevice != "" {
		t.Errorf("ClearDevice() bound device = %q, want empty", license.BoundDevice)
	}

	// A cleared license accepts a new first bind
	engine := newTestEngine(t, store)
	result, err := engine.Validate(context.Background(), "KYGT-DEV-KEY", "99:88:77:66:55:44")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if result.Status != StatusValid {
		t.Errorf("Validate() after clear: status = %s, want %s", result.Status, StatusValid)
	}
}

func TestManager_ReplaceFeatures(t *testing.T) {
	store := newTestStore(t)
	manager := newTestManager(t, store, FeatureModeLicense)

	mustCreate(t, store, &License{Key: "KYGT-RF-KEY", ExpiresOn: Today().AddDate(0, 0, 30)})

	tests := []struct {
		name     string
		features []string
		want     []string
	}{
		{name: "initial grant", features: []string{"like", "comment"}, want: []string{"comment", "like"}},
		{name: "full overwrite", features: []string{"reply"}, want: []string{"reply"}},
		{name: "duplicates collapse", features: []string{"like", "like", "comment"}, want: []string{"comment", "like"}},
		{name: "empty set revokes all", features: []string{}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			granted, err := manager.ReplaceFeatures(context.Background(), "KYGT-RF-KEY", tt.features)
			if err != nil {
				t.Fatalf("ReplaceFeatures() error = %v", err)
			}
			if !reflect.DeepEqual(granted, tt.want) {
				t.Errorf("ReplaceFeatures(%v) = %v, want %v", tt.features, granted, tt.want)
			}

			stored, err := store.GrantsFor(context.Background(), "KYGT-RF-KEY")
			if err != nil {
				t.Fatalf("GrantsFor() error = %v", err)
			}
			if !reflect.DeepEqual(stored, tt.want) {
				t.Errorf("stored grants = %v, want %v", stored, tt.want)
			}
		})
	}
}

func TestManager_ReplaceFeatures_Idempotent(t *testing.T) {
	store := newTestStore(t)
	manager := newTestManager(t, store, FeatureModeLicense)

	mustCreate(t, store, &License{Key: "KYGT-IDEM-KEY", ExpiresOn: Today().AddDate(0, 0, 30)})

	features := []string{"comment", "like"}
	first, err := manager.ReplaceFeatures(context.Background(), "KYGT-IDEM-KEY", features)
	if err != nil {
		t.Fatalf("ReplaceFeatures() error = %v", err)
	}
	second, err := manager.ReplaceFeatures(context.Background(), "KYGT-IDEM-KEY", features)
	if err != nil {
		t.Fatalf("ReplaceFeatures() replay error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("replay = %v, want %v", second, first)
	}
}

func TestManager_ReplaceFeatures_NotFound(t *testing.T) {
	store := newTestStore(t)
	manager := newTestManager(t, store, FeatureModeLicense)

	_, err := manager.ReplaceFeatures(context.Background(), "KYGT-MISSING-KEY", []string{"like"})
	if !IsNotFound(err) {
		t.Errorf("ReplaceFeatures() error = %v, want ErrLicenseNotFound", err)
	}
}

func TestManager_ReplaceFeatures_TierMode(t *testing.T) {
	store := newTestStore(t)
	manager := newTestManager(t, store, FeatureModeTier)

	// Tier buckets can be staged before any license carries the tier
	granted, err := manager.ReplaceFeatures(context.Background(), "pro", []string{"like", "comment"})
	if err != nil {
		t.Fatalf("ReplaceFeatures() error = %v", err)
	}
	if !reflect.DeepEqual(granted, []string{"comment", "like"}) {
		t.Errorf("ReplaceFeatures() = %v, want [comment like]", granted)
	}

	// A pro-tier license resolves to the tier bucket
	mustCreate(t, store, &License{Key: "KYGT-TIER-KEY", Tier: TierPro, ExpiresOn: Today().AddDate(0, 0, 30)})

	engine := NewBindingEngine(store, NewTierResolver(store), logging.NewNopLogger())
	result, err := engine.Validate(context.Background(), "KYGT-TIER-KEY", "")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !reflect.DeepEqual(result.Features, []string{"comment", "like"}) {
		t.Errorf("Validate() features = %v, want [comment like]", result.Features)
	}
}

func TestManager_Delete_CascadesGrants(t *testing.T) {
	store := newTestStore(t)
	manager := newTestManager(t, store, FeatureModeLicense)

	mustCreate(t, store, &License{Key: "KYGT-DEL-KEY", ExpiresOn: Today().AddDate(0, 0, 30)})
	if _, err := manager.ReplaceFeatures(context.Background(), "KYGT-DEL-KEY", []string{"like"}); err != nil {
		t.Fatalf("ReplaceFeatures() error = %v", err)
	}

	if err := manager.Delete(context.Background(), "KYGT-DEL-KEY"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := store.GetLicenseByKey(context.Background(), "KYGT-DEL-KEY"); !IsNotFound(err) {
		t.Errorf("GetLicenseByKey() after delete: error = %v, want ErrLicenseNotFound", err)
	}
	grants, _ := store.GrantsFor(context.Background(), "KYGT-DEL-KEY")
	if len(grants) != 0 {
		t.Errorf("grants after delete = %v, want empty", grants)
	}

	if err := manager.Delete(context.Background(), "KYGT-DEL-KEY"); !IsNotFound(err) {
		t.Errorf("Delete() replay error = %v, want ErrLicenseNotFound", err)
	}
}

func TestManager_List(t *testing.T) {
	store := newTestStore(t)
	manager := newTestManager(t, store, FeatureModeLicense)

	base := time.Now()
	for i, key := range []string{"KYGT-LIST-A", "KYGT-LIST-B", "KYGT-LIST-C"} {
		mustCreate(t, store, &License{
			Key:       key,
			ExpiresOn: Today().AddDate(0, 0, 30),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
	}
	if _, err := manager.ReplaceFeatures(context.Background(), "KYGT-LIST-B", []string{"like"}); err != nil {
		t.Fatalf("ReplaceFeatures() error = %v", err)
	}

	records, err := manager.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("List() returned %d records, want 3", len(records))
	}

	// Insertion order is preserved
	for i, want := range []string{"KYGT-LIST-A", "KYGT-LIST-B", "KYGT-LIST-C"} {
		if records[i].License.Key != want {
			t.Errorf("records[%d].Key = %s, want %s", i, records[i].License.Key, want)
		}
	}

	if !reflect.DeepEqual(records[1].Features, []string{"like"}) {
		t.Errorf("records[1].Features = %v, want [like]", records[1].Features)
	}
	if records[0].Features == nil || len(records[0].Features) != 0 {
		t.Errorf("records[0].Features = %v, want empty non-nil slice", records[0].Features)
	}
}

func TestManager_EnsureSeeded(t *testing.T) {
	store := newTestStore(t)
	manager := newTestManager(t, store, FeatureModeLicense)

	if err := manager.EnsureSeeded(context.Background()); err != nil {
		t.Fatalf("EnsureSeeded() error = %v", err)
	}

	license, err := store.GetLicenseByKey(context.Background(), SeedLicenseKey)
	if err != nil {
		t.Fatalf("GetLicenseByKey() error = %v", err)
	}
	if license.OwnerID != SeedOwnerID {
		t.Errorf("seed owner = %q, want %q", license.OwnerID, SeedOwnerID)
	}
	if license.Tier != TierPro {
		t.Errorf("seed tier = %s, want %s", license.Tier, TierPro)
	}

	grants, err := store.GrantsFor(context.Background(), SeedLicenseKey)
	if err != nil {
		t.Fatalf("GrantsFor() error = %v", err)
	}
	want := append([]string(nil), ProFeatureNames()...)
	sort.Strings(want)
	if !reflect.DeepEqual(grants, want) {
		t.Errorf("seed grants = %v, want %v", grants, want)
	}

	// Idempotent on a seeded store
	if err := manager.EnsureSeeded(context.Background()); err != nil {
		t.Fatalf("EnsureSeeded() replay error = %v", err)
	}
	count, _ := store.CountLicenses(context.Background())
	if count != 1 {
		t.Errorf("store count after replay = %d, want 1", count)
	}
}

func TestManager_EnsureSeeded_NonEmptyStore(t *testing.T) {
	store := newTestStore(t)
	manager := newTestManager(t, store, FeatureModeLicense)

	mustCreate(t, store, &License{Key: "KYGT-EXISTING", ExpiresOn: Today().AddDate(0, 0, 30)})

	if err := manager.EnsureSeeded(context.Background()); err != nil {
		t.Fatalf("EnsureSeeded() error = %v", err)
	}

	if _, err := store.GetLicenseByKey(context.Background(), SeedLicenseKey); !IsNotFound(err) {
		t.Errorf("seed license created in non-empty store, error = %v", err)
	}
}
