// Package audit drives the per-host activation audit: fetch licensing and
// operating-system state from each machine and reduce it to one report row.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/noveris-inf/winact/internal/report"
	"github.com/noveris-inf/winact/internal/wmi"
)

// Fetcher retrieves raw class instances from a host. transport.Retriever is
// the production implementation.
type Fetcher interface {
	Fetch(ctx context.Context, host string, class wmi.Class) (string, error)
}

// Auditor runs the audit pipeline over a fleet.
type Auditor struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// New creates an auditor reading through fetcher.
func New(fetcher Fetcher, logger *slog.Logger) *Auditor {
	return &Auditor{fetcher: fetcher, logger: logger.With("component", "audit")}
}

// Run audits every host sequentially and returns exactly one record per
// host, in input order. Hosts never fail the run: retrieval and projection
// problems are downgraded to warnings and leave the affected fields at
// their sentinels.
func (a *Auditor) Run(ctx context.Context, hosts []string) []report.Record {
	start := time.Now()
	logger := a.logger.With("run_id", uuid.New().String())
	logger.Info("audit run started", "hosts", len(hosts))

	records := make([]report.Record, 0, len(hosts))
	for _, host := range hosts {
		records = append(records, a.auditHost(ctx, logger, host))
	}

	logger.Info("audit run finished",
		"hosts", len(hosts),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return records
}

// auditHost builds the report row for one host. The licensing and
// operating-system stages are attempted independently: failure in one never
// blocks the other, and the row is emitted regardless.
func (a *Auditor) auditHost(ctx context.Context, logger *slog.Logger, host string) report.Record {
	record := report.New(host)

	if output, err := a.fetcher.Fetch(ctx, host, wmi.ClassLicensingProduct); err != nil {
		logger.Warn("license retrieval failed", "host", host, "error", err)
	} else if err := applyLicense(output, &record); err != nil {
		logger.Warn("license data unusable", "host", host, "error", err)
	}

	if output, err := a.fetcher.Fetch(ctx, host, wmi.ClassOperatingSystem); err != nil {
		logger.Warn("operating system retrieval failed", "host", host, "error", err)
	} else if err := applyOperatingSystem(output, &record); err != nil {
		logger.Warn("operating system data unusable", "host", host, "error", err)
	}

	return record
}
