// Package wmi describes the Windows management classes the audit reads and
// decodes their PowerShell JSON output into typed records.
package wmi

import (
	"fmt"
	"strings"
)

// Class identifies a CIM class together with the properties projected out of
// it. Property order is preserved in the generated query.
type Class struct {
	Name       string
	Properties []string
}

var (
	// ClassLicensingProduct is the software licensing view used to determine
	// activation state. Hosts enumerate one instance per known SKU, most of
	// them inactive.
	ClassLicensingProduct = Class{
		Name: "SoftwareLicensingProduct",
		Properties: []string{
			"Name",
			"Description",
			"LicenseStatus",
			"LicenseStatusReason",
			"ProductKeyChannel",
			"DiscoveredKeyManagementServiceMachineName",
		},
	}

	// ClassOperatingSystem describes the host operating system. A healthy
	// system exposes exactly one instance.
	ClassOperatingSystem = Class{
		Name:       "Win32_OperatingSystem",
		Properties: []string{"Caption", "Version"},
	}
)

// Query returns the PowerShell pipeline that dumps the class instances as
// compact JSON. -ErrorAction Stop turns provider failures into a non-zero
// exit code instead of silently empty output.
func (c Class) Query() string {
	return fmt.Sprintf(
		"Get-CimInstance -ClassName %s -ErrorAction Stop | Select-Object %s | ConvertTo-Json -Compress",
		c.Name, strings.Join(c.Properties, ", "),
	)
}
