package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/aionic/internal/model"
)

// Store writes an entry. An existing id is overwritten only when the new
// updated_at is not older than the stored one, so the later write wins.
// The returned entry is the row as stored after the write.
func (s *Store) Store(ctx context.Context, e model.Entry) (model.Entry, error) {
	e = Materialize(e, s.clock.Now(), s.ids)

	payload, err := encodeRecord(e)
	if err != nil {
		return model.Entry{}, fmt.Errorf("store entry: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Entry{}, fmt.Errorf("store entry: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO entries
		(id, seq, created_ns, updated_ns, deleted, schema_version, payload)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM entries), ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			created_ns = excluded.created_ns,
			updated_ns = excluded.updated_ns,
			deleted = excluded.deleted,
			schema_version = excluded.schema_version,
			payload = excluded.payload
		WHERE excluded.updated_ns >= entries.updated_ns
	`,
		e.ID,
		e.CreatedAt.UnixNano(),
		e.UpdatedAt.UnixNano(),
		boolToInt(e.Deleted),
		model.SchemaVersion,
		payload,
	)
	if err != nil {
		return model.Entry{}, fmt.Errorf("store entry: %w", err)
	}

	stored, err := scanEntry(tx.QueryRowContext(ctx, `
		SELECT seq, schema_version, payload FROM entries WHERE id = ?
	`, e.ID))
	if err != nil {
		return model.Entry{}, fmt.Errorf("store entry: read back: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.Entry{}, fmt.Errorf("store entry: commit: %w", err)
	}

	return stored, nil
}

// ListActive returns every non-deleted entry ordered newest first.
// Malformed rows are logged and skipped.
func (s *Store) ListActive(ctx context.Context) ([]model.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, schema_version, payload
		FROM entries
		WHERE deleted = 0
		ORDER BY created_ns DESC, seq DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []model.Entry{}
	for rows.Next() {
		var id string
		var seq int64
		var version int
		var payload string
		if err := rows.Scan(&id, &seq, &version, &payload); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e, err := decodeRecord(version, []byte(payload))
		if err != nil {
			s.logger.Warn("skipping malformed entry", "id", id, "error", err)
			continue
		}
		e.Seq = seq
		if e.Deleted {
			continue
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return entries, nil
}

// Get reads a single entry by id, including tombstoned entries.
// Returns ErrNotFound if absent and ErrMalformedRecord if unreadable.
func (s *Store) Get(ctx context.Context, id string) (model.Entry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx, `
		SELECT seq, schema_version, payload FROM entries WHERE id = ?
	`, id))
	if isNoRows(err) {
		return model.Entry{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Entry{}, fmt.Errorf("get %s: %w", id, err)
	}
	return e, nil
}

// SoftDelete tombstones the entry. Deleting an already deleted entry keeps
// its original deleted_at.
func (s *Store) SoftDelete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("soft delete: begin tx: %w", err)
	}
	defer tx.Rollback()

	e, err := scanEntry(tx.QueryRowContext(ctx, `
		SELECT seq, schema_version, payload FROM entries WHERE id = ?
	`, id))
	if isNoRows(err) {
		return fmt.Errorf("soft delete %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("soft delete %s: %w", id, err)
	}
	if e.Deleted {
		return nil
	}

	now := s.clock.Now().UTC()
	e.Deleted = true
	e.DeletedAt = &now

	payload, err := encodeRecord(e)
	if err != nil {
		return fmt.Errorf("soft delete %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE entries SET deleted = 1, schema_version = ?, payload = ? WHERE id = ?
	`, model.SchemaVersion, payload, id); err != nil {
		return fmt.Errorf("soft delete %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("soft delete %s: commit: %w", id, err)
	}
	return nil
}

// ClearAll removes every entry row. The draft buffer is untouched.
func (s *Store) ClearAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	return nil
}

// scanEntry decodes a (seq, schema_version, payload) row.
func scanEntry(row *sql.Row) (model.Entry, error) {
	var seq int64
	var version int
	var payload string
	if err := row.Scan(&seq, &version, &payload); err != nil {
		return model.Entry{}, err
	}
	e, err := decodeRecord(version, []byte(payload))
	if err != nil {
		return model.Entry{}, err
	}
	e.Seq = seq
	return e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
