package licensing

import "testing"

func TestHashComponents_Deterministic(t *testing.T) {
	components := map[string]string{
		"arch":        "amd64",
		"os":          "linux",
		"hostname":    "build-01",
		"mac_address": "AA:BB:CC:DD:EE:FF",
	}

	first := hashComponents(components)
	second := hashComponents(components)
	if first != second {
		t.Errorf("hashComponents() not deterministic: %s != %s", first, second)
	}
	if len(first) != 64 {
		t.Errorf("hashComponents() length = %d, want 64 hex characters", len(first))
	}
}

func TestHashComponents_SensitiveToValues(t *testing.T) {
	base := map[string]string{"hostname": "build-01", "mac_address": "AA:BB:CC:DD:EE:FF"}
	changed := map[string]string{"hostname": "build-02", "mac_address": "AA:BB:CC:DD:EE:FF"}

	if hashComponents(base) == hashComponents(changed) {
		t.Error("hashComponents() collides for different component values")
	}
}

func TestGenerateFingerprint(t *testing.T) {
	fp, err := GenerateFingerprint()
	if err != nil {
		t.Skipf("no usable network interface: %v", err)
	}

	if len(fp.Value) != 64 {
		t.Errorf("fingerprint value length = %d, want 64", len(fp.Value))
	}
	for _, key := range []string{"arch", "os", "hostname", "mac_address"} {
		if fp.Components[key] == "" {
			t.Errorf("fingerprint missing component %q", key)
		}
	}

	// Stable across calls on the same machine
	again, err := GenerateFingerprint()
	if err != nil {
		t.Fatalf("GenerateFingerprint() second call error = %v", err)
	}
	if fp.Value != again.Value {
		t.Errorf("fingerprint not stable: %s != %s", fp.Value, again.Value)
	}
}
