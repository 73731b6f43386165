package source

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"
)

// maxScanHosts caps target expansion so a stray /8 cannot stall a run.
const maxScanHosts = 65536

// sysNameOID identifies the managed node's administratively-assigned name.
const sysNameOID = "1.3.6.1.2.1.1.5.0"

// Scan sweeps address ranges for machines listening on a management port.
// Addresses that answer are reported by SNMP sysName when the agent
// responds, by address otherwise.
type Scan struct {
	opts ScanOptions
}

// ScanOptions configures a sweep.
type ScanOptions struct {
	// Targets are single IPs, CIDR blocks or inclusive start-end ranges.
	Targets []string
	// ProbePorts are tried in order; a listener on any marks a live
	// machine. Typically the WinRM and SSH ports.
	ProbePorts []uint16
	// Community enables SNMP name resolution when non-empty.
	Community string
	SNMPPort  uint16
	Timeout   time.Duration
}

func NewScan(opts ScanOptions) *Scan {
	return &Scan{opts: opts}
}

func (s *Scan) Name() string { return "scan" }

// Hosts expands the configured targets and probes each address for an open
// management port.
func (s *Scan) Hosts(ctx context.Context) ([]string, error) {
	addrs, err := expandTargets(s.opts.Targets)
	if err != nil {
		return nil, &EnumerationError{Source: s.Name(), Err: err}
	}

	var hosts []string
	for _, addr := range addrs {
		if err := ctx.Err(); err != nil {
			return nil, &EnumerationError{Source: s.Name(), Err: err}
		}
		if !s.probe(ctx, addr) {
			continue
		}
		hosts = append(hosts, s.resolve(addr))
	}
	return hosts, nil
}

// probe reports whether addr accepts connections on any management port.
func (s *Scan) probe(ctx context.Context, addr string) bool {
	dialer := net.Dialer{Timeout: s.opts.Timeout}
	for _, port := range s.opts.ProbePorts {
		conn, err := dialer.DialContext(ctx, "tcp",
			net.JoinHostPort(addr, strconv.Itoa(int(port))))
		if err != nil {
			continue
		}
		conn.Close()
		return true
	}
	return false
}

// resolve asks the SNMP agent for its sysName so the report carries a
// hostname rather than an address. Without a community, or when the agent
// stays silent, the address stands in.
func (s *Scan) resolve(addr string) string {
	if s.opts.Community == "" {
		return addr
	}

	g := &gosnmp.GoSNMP{
		Target:    addr,
		Port:      s.opts.SNMPPort,
		Version:   gosnmp.Version2c,
		Community: s.opts.Community,
		Timeout:   s.opts.Timeout,
		Retries:   0,
	}
	if err := g.Connect(); err != nil {
		return addr
	}
	defer g.Conn.Close()

	result, err := g.Get([]string{sysNameOID})
	if err != nil || len(result.Variables) == 0 {
		return addr
	}
	pdu := result.Variables[0]
	if pdu.Type != gosnmp.OctetString {
		return addr
	}
	name, ok := pdu.Value.([]byte)
	if !ok || len(name) == 0 {
		return addr
	}
	return string(name)
}

// expandTargets flattens every configured target into individual addresses.
func expandTargets(targets []string) ([]string, error) {
	var addrs []string
	for _, target := range targets {
		expanded, err := expandTarget(target)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, expanded...)
		if len(addrs) > maxScanHosts {
			return nil, fmt.Errorf("scan targets expand to more than %d addresses", maxScanHosts)
		}
	}
	return addrs, nil
}

// expandTarget turns one target into addresses. Accepted forms are a
// single IP, CIDR notation, and an inclusive start-end range.
func expandTarget(target string) ([]string, error) {
	target = strings.TrimSpace(target)

	if strings.Contains(target, "/") {
		prefix, err := netip.ParsePrefix(target)
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR target %q: %w", target, err)
		}
		return expandPrefix(prefix)
	}

	if start, end, ok := strings.Cut(target, "-"); ok {
		return expandRange(strings.TrimSpace(start), strings.TrimSpace(end))
	}

	addr, err := netip.ParseAddr(target)
	if err != nil {
		return nil, fmt.Errorf("invalid scan target %q: %w", target, err)
	}
	return []string{addr.String()}, nil
}

// expandPrefix lists the usable addresses of a CIDR block. IPv4 network
// and broadcast addresses are skipped except in /31 and /32 blocks.
func expandPrefix(prefix netip.Prefix) ([]string, error) {
	if prefix.Addr().BitLen()-prefix.Bits() > 16 {
		return nil, fmt.Errorf("CIDR block %s expands past %d hosts", prefix, maxScanHosts)
	}

	trimEdges := prefix.Addr().Is4() && prefix.Bits() < 31

	var addrs []string
	addr := prefix.Masked().Addr()
	if trimEdges {
		addr = addr.Next()
	}
	for prefix.Contains(addr) {
		addrs = append(addrs, addr.String())
		addr = addr.Next()
	}
	if trimEdges && len(addrs) > 0 {
		addrs = addrs[:len(addrs)-1]
	}
	return addrs, nil
}

// expandRange lists every address from start to end inclusive.
func expandRange(start, end string) ([]string, error) {
	startAddr, err := netip.ParseAddr(start)
	if err != nil {
		return nil, fmt.Errorf("invalid range start %q: %w", start, err)
	}
	endAddr, err := netip.ParseAddr(end)
	if err != nil {
		return nil, fmt.Errorf("invalid range end %q: %w", end, err)
	}
	if startAddr.Is4() != endAddr.Is4() {
		return nil, fmt.Errorf("range %s-%s mixes address families", startAddr, endAddr)
	}
	if startAddr.Compare(endAddr) > 0 {
		return nil, fmt.Errorf("range start %s is past end %s", startAddr, endAddr)
	}

	var addrs []string
	for addr := startAddr; ; addr = addr.Next() {
		addrs = append(addrs, addr.String())
		if len(addrs) > maxScanHosts {
			return nil, fmt.Errorf("range %s-%s expands past %d hosts", startAddr, endAddr, maxScanHosts)
		}
		if addr == endAddr {
			break
		}
	}
	return addrs, nil
}
