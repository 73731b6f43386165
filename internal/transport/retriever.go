package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/noveris-inf/winact/internal/wmi"
)

// RetrievalError reports that every configured protocol failed for one class
// query against one host. It wraps the last attempt's error.
type RetrievalError struct {
	Host  string
	Class string
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("%s query failed on %s over all protocols: %v", e.Class, e.Host, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// Retriever fetches management class instances with protocol fallback.
// Runners are tried in configuration order: protocol availability differs
// per host (firewalling, feature deployment), so walking the list maximizes
// coverage without the caller knowing what a given host speaks.
type Retriever struct {
	runners []Runner
	logger  *slog.Logger
}

// NewRetriever creates a retriever trying runners in the given order.
func NewRetriever(logger *slog.Logger, runners ...Runner) *Retriever {
	return &Retriever{runners: runners, logger: logger.With("component", "transport")}
}

// Fetch runs the query for class against host and returns the raw JSON
// output of the first protocol that succeeds. Each failed attempt is logged
// as a warning; only when every protocol has failed does a *RetrievalError
// surface.
func (r *Retriever) Fetch(ctx context.Context, host string, class wmi.Class) (string, error) {
	if len(r.runners) == 0 {
		return "", &RetrievalError{Host: host, Class: class.Name, Err: errors.New("no protocols configured")}
	}

	command := PowerShellCommand(class.Query())

	var lastErr error
	for _, runner := range r.runners {
		output, err := runner.Run(ctx, host, command)
		if err == nil {
			return output, nil
		}

		r.logger.Warn("query attempt failed",
			"host", host,
			"class", class.Name,
			"protocol", runner.Name(),
			"error", err,
		)
		lastErr = err
	}

	return "", &RetrievalError{Host: host, Class: class.Name, Err: lastErr}
}
