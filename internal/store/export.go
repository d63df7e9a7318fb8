package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/roach88/aionic/internal/model"
)

// ExportFileName returns the default export file name for the day of now.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("aionic-journal-%s.json", now.UTC().Format(time.DateOnly))
}

// Export writes every active entry to w as an indented JSON array, newest
// first. Each element carries its schema version so Import can migrate it.
func Export(ctx context.Context, s EntryStore, w io.Writer) (int, error) {
	entries, err := s.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}

	records := make([]record, 0, len(entries))
	for _, e := range entries {
		records = append(records, record{SchemaVersion: model.SchemaVersion, Entry: e})
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}
	return len(records), nil
}

// ImportResult summarizes an Import run.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Import reads a JSON array of entries, either an Export file or the legacy
// browser array, migrates each element and stores it. Malformed elements are
// skipped and counted. Imported entries keep their id and created_at.
func Import(ctx context.Context, s EntryStore, r io.Reader) (ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import: %w", err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(data), &raw); err != nil {
		return ImportResult{}, fmt.Errorf("import: %w: %v", ErrMalformedRecord, err)
	}

	var res ImportResult
	for _, item := range raw {
		e, err := decodeRecord(0, item)
		if err != nil {
			res.Skipped++
			continue
		}
		if _, err := s.Store(ctx, e); err != nil {
			return res, fmt.Errorf("import %s: %w", e.ID, err)
		}
		res.Imported++
	}
	return res, nil
}
