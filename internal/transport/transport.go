// Package transport runs remote PowerShell against Windows hosts over the
// management protocols the fleet exposes, and layers protocol fallback on
// top of them.
package transport

import "context"

// Runner executes a command on a remote host over one management protocol.
// Implementations carry their own credentials and timeouts; the host is the
// only per-call identity.
type Runner interface {
	Name() string
	Run(ctx context.Context, host, command string) (string, error)
}
