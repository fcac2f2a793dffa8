// package takeout reads the subscriptions export produced by Google Takeout.
//
// The export is a CSV with a header row; column order is not assumed. The
// exact column set belongs to the export format, not to this tool, so
// unrecognized columns are ignored and recognized ones are matched by name.
package takeout

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/desertthunder/resub/internal/models"
)

// Header names as written by Takeout. Matched case-insensitively.
const (
	colID    = "channel id"
	colURL   = "channel url"
	colTitle = "channel title"
)

// LoadEntries reads all channel entries from the CSV file at path, in file
// order. Returns an error when the file is missing or has no header row.
func LoadEntries(path string) ([]models.ChannelEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open subscriptions export: %w", err)
	}
	defer f.Close()

	return ReadEntries(f)
}

// ReadEntries parses channel entries from r. The first record is the header.
func ReadEntries(r io.Reader) ([]models.ChannelEntry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("subscriptions export is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	idx := columnIndex(header)

	var entries []models.ChannelEntry
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(entries)+2, err)
		}

		entries = append(entries, models.ChannelEntry{
			ID:    field(record, idx.id),
			URL:   field(record, idx.url),
			Title: field(record, idx.title),
		})
	}

	return entries, nil
}

type columns struct {
	id, url, title int
}

// columnIndex maps known header names to their positions. Missing columns
// get index -1 and yield empty fields.
func columnIndex(header []string) columns {
	idx := columns{id: -1, url: -1, title: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case colID:
			idx.id = i
		case colURL:
			idx.url = i
		case colTitle:
			idx.title = i
		}
	}
	return idx
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
