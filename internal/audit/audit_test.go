package audit

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/noveris-inf/winact/internal/report"
	"github.com/noveris-inf/winact/internal/wmi"
)

// stubFetcher serves canned output or errors keyed by host and class name.
type stubFetcher struct {
	outputs map[string]string
	errs    map[string]error
}

func (s *stubFetcher) Fetch(_ context.Context, host string, class wmi.Class) (string, error) {
	key := host + "/" + class.Name
	if err, ok := s.errs[key]; ok {
		return "", err
	}
	return s.outputs[key], nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_RecordPerHostInInputOrder(t *testing.T) {
	hosts := []string{"web03", "dc01", "app02"}

	fetcher := &stubFetcher{errs: map[string]error{}}
	for _, host := range hosts {
		fetcher.errs[host+"/"+wmi.ClassLicensingProduct.Name] = errors.New("unreachable")
		fetcher.errs[host+"/"+wmi.ClassOperatingSystem.Name] = errors.New("unreachable")
	}

	records := New(fetcher, discardLogger()).Run(context.Background(), hosts)

	if len(records) != len(hosts) {
		t.Fatalf("Run() produced %d records, want %d", len(records), len(hosts))
	}
	for i, host := range hosts {
		if records[i].System != host {
			t.Errorf("records[%d].System = %q, want %q", i, records[i].System, host)
		}
	}
}

func TestRun_NoHosts(t *testing.T) {
	records := New(&stubFetcher{}, discardLogger()).Run(context.Background(), nil)
	if len(records) != 0 {
		t.Errorf("Run() produced %d records, want 0", len(records))
	}
}

func TestRun_MixedFleet(t *testing.T) {
	fetcher := &stubFetcher{
		outputs: map[string]string{
			"HOST-A/" + wmi.ClassLicensingProduct.Name: `[{"Name":"Windows Server Std",` +
				`"Description":"VOLUME_KMSCLIENT channel","LicenseStatus":1,` +
				`"LicenseStatusReason":3221549065,"ProductKeyChannel":"Volume:GVLK",` +
				`"DiscoveredKeyManagementServiceMachineName":"kms01.corp.example.com"}]`,
			"HOST-A/" + wmi.ClassOperatingSystem.Name: `{"Caption":"Microsoft Windows Server 2022 Standard","Version":"10.0.20348"}`,
		},
		errs: map[string]error{
			"HOST-B/" + wmi.ClassLicensingProduct.Name: errors.New("winrm: connection refused"),
			"HOST-B/" + wmi.ClassOperatingSystem.Name:  errors.New("winrm: connection refused"),
		},
	}

	var logBuf bytes.Buffer
	auditor := New(fetcher, slog.New(slog.NewTextHandler(&logBuf, nil)))

	records := auditor.Run(context.Background(), []string{"HOST-A", "HOST-B"})
	if len(records) != 2 {
		t.Fatalf("Run() produced %d records, want 2", len(records))
	}

	got := records[0]
	want := report.Record{
		System:             "HOST-A",
		Type:               "Microsoft Windows Server 2022 Standard",
		Version:            "10.0.20348",
		LicenseProduct:     "Windows Server Std",
		LicenseStatus:      "1 (Licensed)",
		LicenseReason:      "0xC004F009",
		LicenseDescription: "VOLUME_KMSCLIENT channel",
		ProductKeyChannel:  "Volume:GVLK",
		KMSServer:          "kms01.corp.example.com",
	}
	if got != want {
		t.Errorf("healthy host record = %+v, want %+v", got, want)
	}

	if sentinel := report.New("HOST-B"); records[1] != sentinel {
		t.Errorf("unreachable host record = %+v, want sentinels %+v", records[1], sentinel)
	}

	warnings := 0
	for _, line := range strings.Split(strings.TrimSpace(logBuf.String()), "\n") {
		if !strings.Contains(line, "level=WARN") {
			continue
		}
		warnings++
		if !strings.Contains(line, "HOST-B") {
			t.Errorf("warning does not name the failed host: %s", line)
		}
	}
	if warnings != 2 {
		t.Errorf("run logged %d warnings, want 2 (one per failed stage)", warnings)
	}
}

func TestRun_LicenseFailureKeepsOperatingSystem(t *testing.T) {
	fetcher := &stubFetcher{
		outputs: map[string]string{
			"srv01/" + wmi.ClassOperatingSystem.Name: `{"Caption":"Microsoft Windows Server 2019 Datacenter","Version":"10.0.17763"}`,
		},
		errs: map[string]error{
			"srv01/" + wmi.ClassLicensingProduct.Name: errors.New("access denied"),
		},
	}

	records := New(fetcher, discardLogger()).Run(context.Background(), []string{"srv01"})
	if len(records) != 1 {
		t.Fatalf("Run() produced %d records, want 1", len(records))
	}

	record := records[0]
	if record.Type != "Microsoft Windows Server 2019 Datacenter" || record.Version != "10.0.17763" {
		t.Errorf("operating system stage skipped: Type=%q Version=%q", record.Type, record.Version)
	}
	if record.LicenseStatus != "-1" || record.LicenseProduct != "Unknown" {
		t.Errorf("license fields not left at sentinels: Status=%q Product=%q",
			record.LicenseStatus, record.LicenseProduct)
	}
}

func TestRun_OperatingSystemFailureKeepsLicense(t *testing.T) {
	fetcher := &stubFetcher{
		outputs: map[string]string{
			"srv01/" + wmi.ClassLicensingProduct.Name: `{"Name":"Windows Server Std","LicenseStatus":1}`,
		},
		errs: map[string]error{
			"srv01/" + wmi.ClassOperatingSystem.Name: errors.New("access denied"),
		},
	}

	records := New(fetcher, discardLogger()).Run(context.Background(), []string{"srv01"})
	if len(records) != 1 {
		t.Fatalf("Run() produced %d records, want 1", len(records))
	}

	record := records[0]
	if record.LicenseStatus != "1 (Licensed)" || record.LicenseProduct != "Windows Server Std" {
		t.Errorf("license stage skipped: Status=%q Product=%q", record.LicenseStatus, record.LicenseProduct)
	}
	if record.Type != "Unknown" || record.Version != "Unknown" {
		t.Errorf("operating system fields not left at sentinels: Type=%q Version=%q",
			record.Type, record.Version)
	}
}

func TestRun_UnusableDataIsAWarningNotAFailure(t *testing.T) {
	fetcher := &stubFetcher{
		outputs: map[string]string{
			"srv01/" + wmi.ClassLicensingProduct.Name: "Access is denied.",
			"srv01/" + wmi.ClassOperatingSystem.Name:  `{"Caption":"Microsoft Windows 11 Pro","Version":"10.0.26100"}`,
		},
	}

	var logBuf bytes.Buffer
	records := New(fetcher, slog.New(slog.NewTextHandler(&logBuf, nil))).
		Run(context.Background(), []string{"srv01"})

	if len(records) != 1 {
		t.Fatalf("Run() produced %d records, want 1", len(records))
	}
	if records[0].Type != "Microsoft Windows 11 Pro" {
		t.Errorf("Type = %q, want Microsoft Windows 11 Pro", records[0].Type)
	}
	if records[0].LicenseStatus != "-1" {
		t.Errorf("LicenseStatus = %q, want sentinel -1", records[0].LicenseStatus)
	}
	if !strings.Contains(logBuf.String(), "license data unusable") {
		t.Error("expected a warning about unusable license data")
	}
}
