package source

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// Directory enumerates computer accounts from Active Directory.
type Directory struct {
	opts DirectoryOptions
}

// DirectoryOptions configures the LDAP search.
type DirectoryOptions struct {
	URL      string
	BindDN   string
	Password string
	BaseDN   string
	// NamePattern narrows the search to computers whose cn matches, LDAP
	// wildcards included ("WS-*").
	NamePattern string
	// Filter is a raw LDAP expression ANDed into the computer search,
	// e.g. "(operatingSystem=*Server*)".
	Filter   string
	PageSize uint32
	// MaxAge excludes computers whose lastLogonTimestamp is older than the
	// cutoff. Zero disables the staleness filter.
	MaxAge  time.Duration
	Timeout time.Duration
}

func NewDirectory(opts DirectoryOptions) *Directory {
	if opts.PageSize == 0 {
		opts.PageSize = 500
	}
	return &Directory{opts: opts}
}

func (d *Directory) Name() string { return "directory" }

// Hosts binds to the directory and pages through enabled computer accounts
// under the base DN. Machines are identified by dNSHostName, falling back
// to cn when the attribute is unset.
func (d *Directory) Hosts(ctx context.Context) ([]string, error) {
	computers, err := d.Computers(ctx)
	if err != nil {
		return nil, err
	}
	hosts := make([]string, 0, len(computers))
	for _, c := range computers {
		hosts = append(hosts, c.Hostname)
	}
	return hosts, nil
}

// Computers enumerates like Hosts but keeps the distinguished name of
// every account, for syncing into the inventory.
func (d *Directory) Computers(ctx context.Context) ([]Computer, error) {
	computers, err := d.search(ctx)
	if err != nil {
		return nil, &EnumerationError{Source: d.Name(), Err: err}
	}
	return computers, nil
}

func (d *Directory) search(ctx context.Context) ([]Computer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, err := ldap.DialURL(d.opts.URL,
		ldap.DialWithDialer(&net.Dialer{Timeout: d.opts.Timeout}))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", d.opts.URL, err)
	}
	defer conn.Close()

	conn.SetTimeout(d.opts.Timeout)

	if err := conn.Bind(d.opts.BindDN, d.opts.Password); err != nil {
		return nil, fmt.Errorf("bind as %s failed: %w", d.opts.BindDN, err)
	}

	request := ldap.NewSearchRequest(
		d.opts.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, 0, false,
		d.filter(time.Now()),
		[]string{"dNSHostName", "cn"},
		nil,
	)

	result, err := conn.SearchWithPaging(request, d.opts.PageSize)
	if err != nil {
		return nil, fmt.Errorf("computer search under %s failed: %w", d.opts.BaseDN, err)
	}

	computers := make([]Computer, 0, len(result.Entries))
	for _, entry := range result.Entries {
		host := entry.GetAttributeValue("dNSHostName")
		if host == "" {
			host = entry.GetAttributeValue("cn")
		}
		if host == "" {
			continue
		}
		computers = append(computers, Computer{Hostname: host, DN: entry.DN})
	}
	return computers, nil
}

// filter builds the computer search filter. Disabled accounts are excluded
// through the ADS_UF_ACCOUNTDISABLE bit; the name pattern, staleness
// cutoff and raw extra filter are ANDed in when configured.
func (d *Directory) filter(now time.Time) string {
	filter := "(&(objectCategory=computer)(!(userAccountControl:1.2.840.113556.1.4.803:=2))"
	if d.opts.NamePattern != "" {
		filter += fmt.Sprintf("(cn=%s)", d.opts.NamePattern)
	}
	if d.opts.MaxAge > 0 {
		filter += fmt.Sprintf("(lastLogonTimestamp>=%d)", filetime(now.Add(-d.opts.MaxAge)))
	}
	if d.opts.Filter != "" {
		filter += d.opts.Filter
	}
	return filter + ")"
}

// filetime converts a time to Windows FILETIME, the 100ns-tick count since
// 1601-01-01 UTC that lastLogonTimestamp uses.
func filetime(t time.Time) int64 {
	const epochDelta = 116444736000000000 // 1601 to 1970 in FILETIME ticks
	return t.UnixNano()/100 + epochDelta
}
