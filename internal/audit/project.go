package audit

import (
	"errors"

	"github.com/noveris-inf/winact/internal/report"
	"github.com/noveris-inf/winact/internal/wmi"
)

// applyLicense decodes licensing instances, picks the relevant product and
// projects it onto the record. Finding no active product is a legitimate
// outcome, not an error: the sentinels already say "no licensing data".
func applyLicense(output string, record *report.Record) error {
	products, err := wmi.DecodeInstances[wmi.LicenseProduct](output)
	if err != nil {
		return err
	}

	product, ok := selectLicenseProduct(products)
	if !ok {
		return nil
	}

	projectLicenseProduct(product, record)
	return nil
}

// selectLicenseProduct picks the product the report should describe. Hosts
// enumerate an instance per known SKU; status 0 entries are inactive
// listings and are skipped. Among the rest the lowest status code wins, so
// a fully licensed product (1) beats grace and notification states. Equal
// codes keep the first instance seen.
func selectLicenseProduct(products []wmi.LicenseProduct) (wmi.LicenseProduct, bool) {
	best := -1
	for i, p := range products {
		if p.LicenseStatus == nil || *p.LicenseStatus == 0 {
			continue
		}
		if best < 0 || *p.LicenseStatus < *products[best].LicenseStatus {
			best = i
		}
	}
	if best < 0 {
		return wmi.LicenseProduct{}, false
	}
	return products[best], true
}

// projectLicenseProduct copies product attributes onto the record. Each copy
// checks presence first: the class schema varies across OS versions and
// editions, and an absent attribute leaves the report field untouched.
func projectLicenseProduct(product wmi.LicenseProduct, record *report.Record) {
	if product.LicenseStatus != nil {
		record.LicenseStatus = wmi.FormatLicenseStatus(*product.LicenseStatus)
	}
	if product.Name != nil {
		record.LicenseProduct = *product.Name
	}
	if product.LicenseStatusReason != nil {
		record.LicenseReason = wmi.FormatStatusReason(*product.LicenseStatusReason)
	}
	if product.ProductKeyChannel != nil {
		record.ProductKeyChannel = *product.ProductKeyChannel
	}
	if product.DiscoveredKeyManagementServiceMachineName != nil {
		record.KMSServer = *product.DiscoveredKeyManagementServiceMachineName
	}
	if product.Description != nil {
		record.LicenseDescription = *product.Description
	}
}

// applyOperatingSystem decodes the OS instance and projects it onto the
// record. Caption and Version exist on every retrievable instance, so both
// are copied unconditionally.
func applyOperatingSystem(output string, record *report.Record) error {
	systems, err := wmi.DecodeInstances[wmi.OperatingSystem](output)
	if err != nil {
		return err
	}
	if len(systems) == 0 {
		return errors.New("query returned no operating system instance")
	}

	record.Type = systems[0].Caption
	record.Version = systems[0].Version
	return nil
}
