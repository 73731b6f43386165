package wmi

import "fmt"

// licenseStatusLabels maps SoftwareLicensingProduct.LicenseStatus codes to
// the activation states slmgr reports.
var licenseStatusLabels = map[uint32]string{
	0: "Unlicensed",
	1: "Licensed",
	2: "OOBGrace",
	3: "OOTGrace",
	4: "NonGenuineGrace",
	5: "Notification",
	6: "ExtendedGrace",
}

// FormatLicenseStatus renders a status code as "<code> (<label>)". Codes this
// build does not know keep the raw number with an "unknown" label.
func FormatLicenseStatus(code uint32) string {
	label, ok := licenseStatusLabels[code]
	if !ok {
		label = "unknown"
	}
	return fmt.Sprintf("%d (%s)", code, label)
}

// FormatStatusReason renders LicenseStatusReason in the HRESULT hex form
// activation tooling shows, e.g. 0xC004F009 for an expired grace period.
func FormatStatusReason(reason uint32) string {
	return fmt.Sprintf("0x%08X", reason)
}
