// Package source enumerates the machines an audit run covers. Hosts come
// from an explicit list, Active Directory, a network sweep or the saved
// inventory; every provider yields plain hostnames for the audit pipeline.
package source

import (
	"context"
	"fmt"
)

// Source yields the hostnames a run should audit.
type Source interface {
	// Name identifies the provider in logs and the API.
	Name() string
	// Hosts enumerates the fleet. Enumeration is all-or-nothing: a failing
	// provider returns an EnumerationError rather than a partial list.
	Hosts(ctx context.Context) ([]string, error)
}

// Computer identifies one enumerated machine for inventory sync: the
// hostname the audit uses plus the distinguished name when the provider
// knows one.
type Computer struct {
	Hostname string
	DN       string
}

// EnumerationError reports that a provider could not produce its host list.
type EnumerationError struct {
	Source string
	Err    error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("%s enumeration failed: %v", e.Source, e.Err)
}

func (e *EnumerationError) Unwrap() error { return e.Err }
