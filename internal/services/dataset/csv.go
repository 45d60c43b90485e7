package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// LoadCSV reads a header-first CSV with a timestamp column.
func LoadCSV(r io.Reader, opts ...Option) (*Dataset, error) {
	o := newOptions(opts)
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	tsCol := -1
	for i, h := range header {
		if h == o.TimestampColumn {
			tsCol = i
			break
		}
	}
	if tsCol < 0 {
		return nil, fmt.Errorf("timestamp column %q not in header", o.TimestampColumn)
	}

	t := Table{Columns: header}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		ts, err := ParseTimestamp(cellAt(rec, tsCol))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		t.Timestamps = append(t.Timestamps, ts)
		t.Cells = append(t.Cells, rec)
	}
	return Build(t, opts...)
}

// LoadCSVFile opens path and calls LoadCSV.
func LoadCSVFile(path string, opts ...Option) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return LoadCSV(f, opts...)
}

