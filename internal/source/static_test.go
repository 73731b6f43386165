package source

import (
	"context"
	"slices"
	"strings"
	"testing"
)

func TestNewStaticDeduplicates(t *testing.T) {
	static := NewStatic([]string{"dc01", "web01", "dc01", "  web01  ", "", "app01"})

	hosts, err := static.Hosts(context.Background())
	if err != nil {
		t.Fatalf("Hosts() error: %v", err)
	}

	want := []string{"dc01", "web01", "app01"}
	if !slices.Equal(hosts, want) {
		t.Errorf("Hosts() = %v, want %v", hosts, want)
	}
}

func TestStaticHostsReturnsACopy(t *testing.T) {
	static := NewStatic([]string{"dc01", "web01"})

	first, _ := static.Hosts(context.Background())
	first[0] = "mutated"

	second, _ := static.Hosts(context.Background())
	if second[0] != "dc01" {
		t.Errorf("Hosts() shares state with callers: got %v", second)
	}
}

func TestParseHostList(t *testing.T) {
	input := `# production fleet
dc01.corp.example.com

web01.corp.example.com
  web02.corp.example.com
# decommissioned 2024-01
`
	hosts, err := ParseHostList(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseHostList() error: %v", err)
	}

	want := []string{"dc01.corp.example.com", "web01.corp.example.com", "web02.corp.example.com"}
	if !slices.Equal(hosts, want) {
		t.Errorf("ParseHostList() = %v, want %v", hosts, want)
	}
}

func TestParseHostListEmpty(t *testing.T) {
	hosts, err := ParseHostList(strings.NewReader("# nothing but comments\n\n"))
	if err != nil {
		t.Fatalf("ParseHostList() error: %v", err)
	}
	if len(hosts) != 0 {
		t.Errorf("ParseHostList() = %v, want none", hosts)
	}
}
