package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Format selects how a report is rendered.
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
)

// ParseFormat validates a format name from a flag or config value.
func ParseFormat(value string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(value))); f {
	case FormatTable, FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want table, csv or json)", value)
	}
}

// Write renders records to w in the given format.
func Write(w io.Writer, format Format, records []Record) error {
	switch format {
	case FormatTable:
		return writeTable(w, records)
	case FormatCSV:
		return writeCSV(w, records)
	case FormatJSON:
		return writeJSON(w, records)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func writeTable(w io.Writer, records []Record) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, strings.Join(Header(), "\t")); err != nil {
		return err
	}
	for _, r := range records {
		if _, err := fmt.Fprintln(tw, strings.Join(r.Fields(), "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func writeCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(r.Fields()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
