// Package report defines the fixed-schema audit output and its renderings.
package report

// Record is one row of the activation report. Every field starts at a
// sentinel value and is only overwritten by data that was actually
// retrieved, so the row for an unreachable host is still well formed.
type Record struct {
	System             string `json:"system"`
	Type               string `json:"type"`
	Version            string `json:"version"`
	LicenseProduct     string `json:"license_product"`
	LicenseStatus      string `json:"license_status"`
	LicenseReason      string `json:"license_reason"`
	LicenseDescription string `json:"license_description"`
	ProductKeyChannel  string `json:"product_key_channel"`
	KMSServer          string `json:"kms_server"`
}

// New returns the record for host with every other field at its sentinel.
func New(host string) Record {
	return Record{
		System:         host,
		Type:           "Unknown",
		Version:        "Unknown",
		LicenseProduct: "Unknown",
		LicenseStatus:  "-1",
	}
}

// Header lists the column names in rendering order.
func Header() []string {
	return []string{
		"System",
		"Type",
		"Version",
		"LicenseProduct",
		"LicenseStatus",
		"LicenseReason",
		"LicenseDescription",
		"ProductKeyChannel",
		"KMSServer",
	}
}

// Fields returns the record values in Header order.
func (r Record) Fields() []string {
	return []string{
		r.System,
		r.Type,
		r.Version,
		r.LicenseProduct,
		r.LicenseStatus,
		r.LicenseReason,
		r.LicenseDescription,
		r.ProductKeyChannel,
		r.KMSServer,
	}
}
