package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
)

func sampleRecords() []Record {
	populated := New("HOST-A")
	populated.Type = "Windows Server 2022"
	populated.Version = "10.0.20348"
	populated.LicenseProduct = "Windows Server Std"
	populated.LicenseStatus = "1 (Licensed)"
	return []Record{populated, New("HOST-B")}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name        string
		value       string
		expected    Format
		expectError bool
	}{
		{"Table", "table", FormatTable, false},
		{"CSV", "csv", FormatCSV, false},
		{"JSON", "json", FormatJSON, false},
		{"Mixed case", "Table", FormatTable, false},
		{"Padded", " csv ", FormatCSV, false},
		{"Unknown", "xml", "", true},
		{"Empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseFormat(tt.value)
			if tt.expectError {
				if err == nil {
					t.Errorf("ParseFormat(%q) expected error but got none", tt.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFormat(%q) error = %v", tt.value, err)
			}
			if result != tt.expected {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.value, result, tt.expected)
			}
		})
	}
}

func TestWrite_Table(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatTable, sampleRecords()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("table has %d lines, want header plus 2 rows", len(lines))
	}
	if !strings.HasPrefix(lines[0], "System") || !strings.Contains(lines[0], "KMSServer") {
		t.Errorf("header line = %q, want System..KMSServer columns", lines[0])
	}
	if !strings.HasPrefix(lines[1], "HOST-A") || !strings.Contains(lines[1], "1 (Licensed)") {
		t.Errorf("first row = %q, want populated HOST-A values", lines[1])
	}
	if !strings.HasPrefix(lines[2], "HOST-B") || !strings.Contains(lines[2], "Unknown") {
		t.Errorf("second row = %q, want HOST-B sentinels", lines[2])
	}
}

func TestWrite_CSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatCSV, sampleRecords()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse CSV output: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("CSV has %d rows, want header plus 2 records", len(rows))
	}
	if rows[0][0] != "System" || rows[0][8] != "KMSServer" {
		t.Errorf("header row = %v, want Header() order", rows[0])
	}
	if rows[1][0] != "HOST-A" || rows[1][4] != "1 (Licensed)" {
		t.Errorf("first record row = %v, want HOST-A values", rows[1])
	}
	if rows[2][4] != "-1" {
		t.Errorf("second record LicenseStatus = %q, want -1 sentinel", rows[2][4])
	}
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatJSON, sampleRecords()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	var decoded []Record
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to parse JSON output: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("JSON has %d records, want 2", len(decoded))
	}
	if decoded[0].System != "HOST-A" || decoded[1].LicenseStatus != "-1" {
		t.Errorf("decoded records = %+v, want HOST-A populated and HOST-B sentinels", decoded)
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, Format("xml"), sampleRecords()); err == nil {
		t.Error("Write() with unknown format expected error but got none")
	}
}
