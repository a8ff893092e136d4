package identity

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsSource reads a range of a Google Sheet with an API key.
// The sheet must be readable by anyone holding the link.
type SheetsSource struct {
	SpreadsheetID string
	Range         string

	opts []option.ClientOption
}

// NewSheetsSource creates a source for spreadsheetID. Extra client options
// (endpoint, HTTP client) are appended after the API key.
func NewSheetsSource(spreadsheetID, readRange, apiKey string, opts ...option.ClientOption) *SheetsSource {
	all := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	return &SheetsSource{
		SpreadsheetID: spreadsheetID,
		Range:         readRange,
		opts:          all,
	}
}

// Rows fetches the configured range as strings
func (s *SheetsSource) Rows(ctx context.Context) ([][]string, error) {
	srv, err := sheets.NewService(ctx, s.opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	resp, err := srv.Spreadsheets.Values.Get(s.SpreadsheetID, s.Range).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s!%s: %w", s.SpreadsheetID, s.Range, err)
	}

	grid := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, len(row))
		for i, cell := range row {
			if cell != nil {
				cells[i] = fmt.Sprint(cell)
			}
		}
		grid = append(grid, cells)
	}

	return grid, nil
}
