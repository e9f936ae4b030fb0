package licensing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"runtime"
	"sort"
	"strings"
)

// DeviceFingerprint identifies the machine a license gets bound to
type DeviceFingerprint struct {
	Value      string            `json:"value"`
	Components map[string]string `json:"components"`
}

// GenerateFingerprint derives the calling machine's fingerprint from:
// - Primary MAC address
// - Hostname
// - CPU architecture and OS
// The server treats the value as an opaque string; this just makes it
// stable across restarts of the same machine.
func GenerateFingerprint() (*DeviceFingerprint, error) {
	components := make(map[string]string)

	components["arch"] = runtime.GOARCH
	components["os"] = runtime.GOOS

	hostname, err := os.Hostname()
	if err != nil {
		// Non-fatal - fingerprint still works off the MAC address
		hostname = "unknown"
	}
	components["hostname"] = hostname

	macAddr, err := PrimaryMACAddress()
	if err != nil {
		return nil, fmt.Errorf("failed to read MAC address: %w", err)
	}
	components["mac_address"] = macAddr

	return &DeviceFingerprint{
		Value:      hashComponents(components),
		Components: components,
	}, nil
}

// PrimaryMACAddress returns the MAC address of the first non-loopback
// interface, in deterministic interface-name order
func PrimaryMACAddress() (string, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return "", err
	}

	sort.Slice(interfaces, func(i, j int) bool {
		return interfaces[i].Name < interfaces[j].Name
	})

	for _, iface := range interfaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if len(iface.HardwareAddr) == 0 {
			continue
		}
		return iface.HardwareAddr.String(), nil
	}

	return "", fmt.Errorf("no network interfaces found")
}

// hashComponents creates a SHA-256 hex digest from the fingerprint components
func hashComponents(components map[string]string) string {
	keys := make([]string, 0, len(components))
	for k := range components {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for _, k := range keys {
		builder.WriteString(k)
		builder.WriteString("=")
		builder.WriteString(components[k])
		builder.WriteString(";")
	}

	hash := sha256.Sum256([]byte(builder.String()))
	return hex.EncodeToString(hash[:])
}
