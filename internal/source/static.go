package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Static serves a fixed host list.
type Static struct {
	hosts []string
}

// NewStatic builds a static source from explicit hostnames. Blank entries
// are dropped and duplicates keep their first position.
func NewStatic(hosts []string) *Static {
	seen := make(map[string]struct{}, len(hosts))
	deduped := make([]string, 0, len(hosts))
	for _, host := range hosts {
		host = strings.TrimSpace(host)
		if host == "" {
			continue
		}
		if _, ok := seen[host]; ok {
			continue
		}
		seen[host] = struct{}{}
		deduped = append(deduped, host)
	}
	return &Static{hosts: deduped}
}

func (s *Static) Name() string { return "static" }

func (s *Static) Hosts(context.Context) ([]string, error) {
	hosts := make([]string, len(s.hosts))
	copy(hosts, s.hosts)
	return hosts, nil
}

// ParseHostList reads one hostname per line, skipping blank lines and
// '#' comments.
func ParseHostList(r io.Reader) ([]string, error) {
	var hosts []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		hosts = append(hosts, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read host list: %w", err)
	}
	return hosts, nil
}
