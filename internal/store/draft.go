package store

import (
	"context"
	"fmt"
)

// LoadDraft returns the buffered draft text, or "" when the slot is empty.
func (s *Store) LoadDraft(ctx context.Context) (string, error) {
	var text string
	err := s.db.QueryRowContext(ctx, `SELECT text FROM draft WHERE slot = 1`).Scan(&text)
	if isNoRows(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load draft: %w", err)
	}
	return text, nil
}

// SaveDraft overwrites the draft slot. Saving "" clears it.
func (s *Store) SaveDraft(ctx context.Context, text string) error {
	if text == "" {
		return s.ClearDraft(ctx)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO draft (slot, text, updated_ns) VALUES (1, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET text = excluded.text, updated_ns = excluded.updated_ns
	`, text, s.clock.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// ClearDraft empties the draft slot.
func (s *Store) ClearDraft(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM draft`); err != nil {
		return fmt.Errorf("clear draft: %w", err)
	}
	return nil
}
