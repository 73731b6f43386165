package wmi

// LicenseProduct mirrors a SoftwareLicensingProduct instance. Every field is
// a pointer because the class schema varies by OS version and edition
// (ProductKeyChannel only exists from Windows 8 / Server 2012 on), and
// Select-Object resolves a missing property to null. A nil field therefore
// means "absent on this host", distinct from an empty value.
type LicenseProduct struct {
	Name                                      *string `json:"Name"`
	Description                               *string `json:"Description"`
	LicenseStatus                             *uint32 `json:"LicenseStatus"`
	LicenseStatusReason                       *uint32 `json:"LicenseStatusReason"`
	ProductKeyChannel                         *string `json:"ProductKeyChannel"`
	DiscoveredKeyManagementServiceMachineName *string `json:"DiscoveredKeyManagementServiceMachineName"`
}

// OperatingSystem mirrors a Win32_OperatingSystem instance. Caption and
// Version are present on every supported Windows build.
type OperatingSystem struct {
	Caption string `json:"Caption"`
	Version string `json:"Version"`
}

// StringPtr returns a pointer to the given string value
func StringPtr(v string) *string {
	return &v
}

// Uint32Ptr returns a pointer to the given uint32 value
func Uint32Ptr(v uint32) *uint32 {
	return &v
}
