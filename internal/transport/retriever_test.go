package transport

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/noveris-inf/winact/internal/wmi"
)

type stubRunner struct {
	name   string
	output string
	err    error
	calls  int
}

func (s *stubRunner) Name() string {
	return s.name
}

func (s *stubRunner) Run(ctx context.Context, host, command string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.output, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestRetrieverFetch_PrimarySucceeds(t *testing.T) {
	primary := &stubRunner{name: "winrm", output: `{"Caption":"x"}`}
	secondary := &stubRunner{name: "ssh", output: "unused"}
	retriever := NewRetriever(discardLogger(), primary, secondary)

	output, err := retriever.Fetch(context.Background(), "srv01", wmi.ClassOperatingSystem)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if output != `{"Caption":"x"}` {
		t.Errorf("Fetch() output = %q, want primary output", output)
	}
	if primary.calls != 1 {
		t.Errorf("primary called %d times, want 1", primary.calls)
	}
	if secondary.calls != 0 {
		t.Errorf("secondary called %d times, want 0 after primary success", secondary.calls)
	}
}

func TestRetrieverFetch_FallsBack(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	primary := &stubRunner{name: "winrm", err: errors.New("connection refused")}
	secondary := &stubRunner{name: "ssh", output: "[]"}
	retriever := NewRetriever(logger, primary, secondary)

	output, err := retriever.Fetch(context.Background(), "srv01", wmi.ClassLicensingProduct)
	if err != nil {
		t.Fatalf("Fetch() error = %v, want fallback success", err)
	}
	if output != "[]" {
		t.Errorf("Fetch() output = %q, want secondary output", output)
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", primary.calls, secondary.calls)
	}

	logged := logBuf.String()
	if strings.Count(logged, "level=WARN") != 1 {
		t.Errorf("logged %q, want exactly one warning for the failed attempt", logged)
	}
	if !strings.Contains(logged, "srv01") || !strings.Contains(logged, "winrm") {
		t.Errorf("warning %q missing host or protocol", logged)
	}
}

func TestRetrieverFetch_AllFail(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	primaryErr := errors.New("connection refused")
	secondaryErr := errors.New("auth failed")
	primary := &stubRunner{name: "winrm", err: primaryErr}
	secondary := &stubRunner{name: "ssh", err: secondaryErr}
	retriever := NewRetriever(logger, primary, secondary)

	_, err := retriever.Fetch(context.Background(), "srv02", wmi.ClassLicensingProduct)
	if err == nil {
		t.Fatal("Fetch() expected error when all protocols fail")
	}

	var retrievalErr *RetrievalError
	if !errors.As(err, &retrievalErr) {
		t.Fatalf("Fetch() error = %T, want *RetrievalError", err)
	}
	if retrievalErr.Host != "srv02" {
		t.Errorf("RetrievalError.Host = %q, want srv02", retrievalErr.Host)
	}
	if retrievalErr.Class != "SoftwareLicensingProduct" {
		t.Errorf("RetrievalError.Class = %q, want SoftwareLicensingProduct", retrievalErr.Class)
	}
	if !errors.Is(err, secondaryErr) {
		t.Errorf("RetrievalError does not wrap the last attempt's error")
	}

	if got := strings.Count(logBuf.String(), "level=WARN"); got != 2 {
		t.Errorf("logged %d warnings, want one per failed attempt", got)
	}
}

func TestRetrieverFetch_NoRunners(t *testing.T) {
	retriever := NewRetriever(discardLogger())

	_, err := retriever.Fetch(context.Background(), "srv01", wmi.ClassOperatingSystem)
	var retrievalErr *RetrievalError
	if !errors.As(err, &retrievalErr) {
		t.Fatalf("Fetch() error = %v, want *RetrievalError", err)
	}
}

func TestRetrieverFetch_CommandIsEncoded(t *testing.T) {
	var captured string
	runner := &captureRunner{}
	retriever := NewRetriever(discardLogger(), runner)

	if _, err := retriever.Fetch(context.Background(), "srv01", wmi.ClassOperatingSystem); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	captured = runner.command

	if !strings.HasPrefix(captured, "powershell.exe -NoProfile -NonInteractive -EncodedCommand ") {
		t.Errorf("command = %q, want powershell -EncodedCommand invocation", captured)
	}
}

type captureRunner struct {
	command string
}

func (c *captureRunner) Name() string {
	return "capture"
}

func (c *captureRunner) Run(ctx context.Context, host, command string) (string, error) {
	c.command = command
	return "", nil
}
