// Package identity turns tabular rows into identity records.
package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/Nehilsa2/fb_profile_enrichment/failure"
)

// Record maps a column header to the row's cell value
type Record map[string]string

// Name returns the person's name, read from the "Name" column or, failing
// that, the "name" column.
func (r Record) Name() string {
	if v := strings.TrimSpace(r["Name"]); v != "" {
		return v
	}
	return strings.TrimSpace(r["name"])
}

// Source supplies the raw grid; row 0 holds the headers
type Source interface {
	Rows(ctx context.Context) ([][]string, error)
}

// FromGrid maps every data row to a Record keyed by the header row.
// Short rows get "" for their missing cells; cells beyond the header are dropped.
func FromGrid(grid [][]string) []Record {
	if len(grid) == 0 {
		return nil
	}

	headers := grid[0]
	records := make([]Record, 0, len(grid)-1)

	for _, row := range grid[1:] {
		rec := make(Record, len(headers))
		for i, header := range headers {
			if i < len(row) {
				rec[header] = row[i]
			} else {
				rec[header] = ""
			}
		}
		records = append(records, rec)
	}

	return records
}

// Load reads the grid from src and returns the record at index.
// Any problem here is fatal for the run.
func Load(ctx context.Context, src Source, index int) (Record, error) {
	grid, err := src.Rows(ctx)
	if err != nil {
		return nil, failure.Wrapf(failure.KindSourceRead, "identity.load", err, "error reading identity source")
	}
	if len(grid) == 0 {
		return nil, failure.New(failure.KindSourceRead, "identity.load", "no data found in identity source")
	}

	records := FromGrid(grid)
	if index < 0 || index >= len(records) {
		return nil, failure.New(failure.KindSourceRead, "identity.load",
			fmt.Sprintf("record %d requested but source has %d records", index, len(records)))
	}

	rec := records[index]
	if rec.Name() == "" {
		return nil, failure.New(failure.KindSourceRead, "identity.load",
			fmt.Sprintf("record %d has no Name value", index))
	}

	return rec, nil
}
