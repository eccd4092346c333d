package index

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/Ryanu9/albus-imagine/internal/models"
	"github.com/Ryanu9/albus-imagine/internal/parser"
	"github.com/Ryanu9/albus-imagine/internal/refs"
)

// targetKey normalizes a written reference target for lookup: the bare
// filename, lowercased. Embeds routinely omit folder prefixes, so the
// key deliberately drops them; same-named files in different folders
// share a key, matching the host's shortest-path link resolution.
func targetKey(written string) string {
	return strings.ToLower(path.Base(strings.TrimSpace(written)))
}

// UpsertDocument replaces a document row and its occurrences in one
// transaction.
func (db *DB) UpsertDocument(docPath, checksum string, occs []parser.Occurrence) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO documents (path, checksum, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, docPath, checksum, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM occurrences WHERE source = ?`, docPath); err != nil {
		return fmt.Errorf("index: clear occurrences: %w", err)
	}
	if len(occs) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO occurrences (source, target, target_key, raw, embed, start_line, start_col, end_line, end_col)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("index: prepare occurrence insert: %w", err)
		}
		defer stmt.Close()
		for _, o := range occs {
			embed := 0
			if o.Embed {
				embed = 1
			}
			if _, err := stmt.Exec(docPath, o.Target, targetKey(o.Target), o.Raw, embed,
				o.Line, o.StartCol, o.Line, o.EndCol); err != nil {
				return fmt.Errorf("index: insert occurrence: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteDocument removes a document and its occurrences.
func (db *DB) DeleteDocument(docPath string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, _ = tx.Exec(`DELETE FROM occurrences WHERE source = ?`, docPath)
	_, _ = tx.Exec(`DELETE FROM documents WHERE path = ?`, docPath)

	return tx.Commit()
}

// AllChecksums returns path → checksum for every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Backlinks returns every occurrence referencing targetPath, matched by
// bare filename and by extensionless base name. It implements the
// resolver interface the reference checker consumes.
func (db *DB) Backlinks(ctx context.Context, targetPath string) ([]refs.Occurrence, error) {
	file := strings.ToLower(path.Base(targetPath))
	base := strings.TrimSuffix(file, path.Ext(file))

	rows, err := db.conn.QueryContext(ctx, `
		SELECT source, raw, start_line, start_col, end_line, end_col
		FROM occurrences
		WHERE target_key = ? OR target_key = ?
		ORDER BY source, start_line, start_col
	`, file, base)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks %s: %w", targetPath, err)
	}
	defer rows.Close()

	var out []refs.Occurrence
	for rows.Next() {
		var occ refs.Occurrence
		pos := &models.Position{}
		if err := rows.Scan(&occ.SourcePath, &occ.Raw,
			&pos.StartLine, &pos.StartCol, &pos.EndLine, &pos.EndCol); err != nil {
			return nil, err
		}
		occ.Position = pos
		out = append(out, occ)
	}
	return out, rows.Err()
}

// TargetsOf returns the distinct target keys a document references,
// used for reference-cache invalidation when the document changes.
func (db *DB) TargetsOf(docPath string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT DISTINCT target_key FROM occurrences WHERE source = ?`, docPath)
	if err != nil {
		return nil, fmt.Errorf("index: targets of %s: %w", docPath, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// Verify *DB satisfies the checker's resolver interface.
var _ refs.BacklinkResolver = (*DB)(nil)
