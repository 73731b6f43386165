package transport

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/masterzen/winrm"
)

// WinRMOptions configures the WinRM runner. One account serves the whole
// fleet; setting Domain switches the client from Basic to NTLM auth.
type WinRMOptions struct {
	Port     int
	UseHTTPS bool
	Insecure bool
	Domain   string
	Username string
	Password string
	Timeout  time.Duration
}

// WinRM runs commands over WS-Man. Connections are per-request; no state is
// held between calls.
type WinRM struct {
	opts WinRMOptions
}

// NewWinRM creates the WinRM runner.
func NewWinRM(opts WinRMOptions) *WinRM {
	return &WinRM{opts: opts}
}

func (w *WinRM) Name() string {
	return "winrm"
}

// Run executes command on host and returns its stdout.
func (w *WinRM) Run(ctx context.Context, host, command string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	endpoint := winrm.NewEndpoint(
		host,
		w.opts.Port,
		w.opts.UseHTTPS,
		w.opts.Insecure,
		nil, // CA certificate
		nil, // client certificate
		nil, // client key
		w.opts.Timeout,
	)

	var client *winrm.Client
	var err error

	if w.opts.Domain != "" {
		// Domain accounts authenticate over NTLM
		params := winrm.DefaultParameters
		params.TransportDecorator = func() winrm.Transporter {
			return &winrm.ClientNTLM{}
		}
		client, err = winrm.NewClientWithParameters(
			endpoint,
			fmt.Sprintf("%s\\%s", w.opts.Domain, w.opts.Username),
			w.opts.Password,
			params,
		)
	} else {
		client, err = winrm.NewClient(endpoint, w.opts.Username, w.opts.Password)
	}
	if err != nil {
		return "", fmt.Errorf("failed to create WinRM client: %w", err)
	}

	stdout, stderr, exitCode, err := client.RunWithContextWithString(ctx, command, "")
	if err != nil {
		return "", fmt.Errorf("WinRM execution failed: %w", err)
	}
	if exitCode != 0 {
		return "", fmt.Errorf("remote command failed (exit code %d): %s", exitCode, strings.TrimSpace(stderr))
	}

	return strings.TrimSpace(stdout), nil
}
