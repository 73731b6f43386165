package wmi

import (
	"testing"
)

func TestFormatLicenseStatus(t *testing.T) {
	tests := []struct {
		name     string
		code     uint32
		expected string
	}{
		{"Unlicensed", 0, "0 (Unlicensed)"},
		{"Licensed", 1, "1 (Licensed)"},
		{"OOB grace", 2, "2 (OOBGrace)"},
		{"OOT grace", 3, "3 (OOTGrace)"},
		{"Non-genuine grace", 4, "4 (NonGenuineGrace)"},
		{"Notification", 5, "5 (Notification)"},
		{"Extended grace", 6, "6 (ExtendedGrace)"},
		{"Unknown code", 99, "99 (unknown)"},
		{"Unknown large code", 4294967295, "4294967295 (unknown)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatLicenseStatus(tt.code)
			if result != tt.expected {
				t.Errorf("FormatLicenseStatus(%d) = %q, want %q", tt.code, result, tt.expected)
			}
		})
	}
}

func TestFormatStatusReason(t *testing.T) {
	tests := []struct {
		name     string
		reason   uint32
		expected string
	}{
		{"Grace time expired", 0xC004F009, "0xC004F009"},
		{"Success", 0, "0x00000000"},
		{"Notification reason", 0xC004F00F, "0xC004F00F"},
		{"Small value keeps width", 0x4004F401, "0x4004F401"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatStatusReason(tt.reason)
			if result != tt.expected {
				t.Errorf("FormatStatusReason(%#x) = %q, want %q", tt.reason, result, tt.expected)
			}
		})
	}
}
