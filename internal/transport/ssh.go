package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

// SSHOptions configures the SSH runner for hosts running Windows OpenSSH.
// Password and private key auth can both be supplied; password is tried
// first.
type SSHOptions struct {
	Port       int
	Username   string
	Password   string
	PrivateKey []byte // PEM encoded, optional
	Passphrase string
	Timeout    time.Duration
}

// SSH runs commands through the host's OpenSSH server. The default Windows
// OpenSSH shell is cmd.exe, so commands must not rely on a PowerShell parent.
type SSH struct {
	opts   SSHOptions
	config *ssh.ClientConfig
}

// NewSSH creates the SSH runner, parsing the private key up front so a bad
// key fails at startup instead of on the first host.
func NewSSH(opts SSHOptions) (*SSH, error) {
	var authMethods []ssh.AuthMethod

	if opts.Password != "" {
		authMethods = append(authMethods, ssh.Password(opts.Password))
	}

	if len(opts.PrivateKey) > 0 {
		var signer ssh.Signer
		var err error

		if opts.Passphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(opts.PrivateKey, []byte(opts.Passphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(opts.PrivateKey)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}

		authMethods = append(authMethods, ssh.PublicKeys(signer))
	}

	if len(authMethods) == 0 {
		return nil, errors.New("no authentication method provided (password or private key required)")
	}

	return &SSH{
		opts: opts,
		config: &ssh.ClientConfig{
			User:            opts.Username,
			Auth:            authMethods,
			HostKeyCallback: ssh.InsecureIgnoreHostKey(), // fleet hosts are not in known_hosts
			Timeout:         opts.Timeout,
		},
	}, nil
}

func (s *SSH) Name() string {
	return "ssh"
}

// Run executes command on host and returns its stdout.
func (s *SSH) Run(ctx context.Context, host, command string) (string, error) {
	address := fmt.Sprintf("%s:%d", host, s.opts.Port)

	// Dial through the context so cancellation interrupts connection setup
	dialer := net.Dialer{Timeout: s.opts.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return "", fmt.Errorf("SSH dial failed: %w", err)
	}

	clientConn, chans, reqs, err := ssh.NewClientConn(conn, address, s.config)
	if err != nil {
		conn.Close()
		return "", fmt.Errorf("SSH handshake failed: %w", err)
	}
	client := ssh.NewClient(clientConn, chans, reqs)
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("failed to open SSH session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	if err := session.Run(command); err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("remote command failed (exit code %d): %s",
				exitErr.ExitStatus(), strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("SSH execution failed: %w", err)
	}

	return strings.TrimSpace(stdout.String()), nil
}
