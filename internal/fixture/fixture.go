// Package fixture writes files that scenarios upload through the page.
// Fixtures are left on disk after a run.
package fixture

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// CSV is a header row plus data records.
type CSV struct {
	Header []string
	Rows   [][]string
}

// Bytes encodes the table with "\n" line endings and no newline after the
// final record.
func (c CSV) Bytes() ([]byte, error) {
	if len(c.Header) == 0 {
		return nil, fmt.Errorf("fixture: csv header is empty")
	}
	for i, row := range c.Rows {
		if len(row) != len(c.Header) {
			return nil, fmt.Errorf("fixture: csv row %d has %d fields, header has %d", i+1, len(row), len(c.Header))
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(c.Header); err != nil {
		return nil, fmt.Errorf("fixture: write csv header: %w", err)
	}
	if err := w.WriteAll(c.Rows); err != nil {
		return nil, fmt.Errorf("fixture: write csv rows: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// WriteCSV writes the table to path, creating parent directories.
func WriteCSV(path string, c CSV) error {
	data, err := c.Bytes()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("fixture: create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("fixture: write %s: %w", path, err)
	}
	return nil
}
