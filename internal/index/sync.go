package index

import (
	"fmt"
	"log/slog"

	"github.com/starford/grove/internal/graph"
	"github.com/starford/grove/internal/models"
)

// Changes lists the slugs a Sync created, updated and removed.
type Changes struct {
	Created []string `json:"created"`
	Updated []string `json:"updated"`
	Deleted []string `json:"deleted"`
}

// Empty reports whether the sync changed no note.
func (c Changes) Empty() bool {
	return len(c.Created) == 0 && len(c.Updated) == 0 && len(c.Deleted) == 0
}

// Sync brings the index in line with notes:
//   - new or changed non-draft notes are upserted
//   - indexed notes that are gone or became drafts are deleted
//   - the reference table is rebuilt from scratch, since a note's references
//     depend on which other notes exist
//
// Everything happens in one transaction.
func Sync(db *DB, notes []models.Note, b *graph.Builder, logger *slog.Logger) (Changes, error) {
	var ch Changes

	checksums, err := db.AllChecksums()
	if err != nil {
		return ch, err
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return ch, fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	known := graph.KnownKeys(notes)
	live := make(map[string]struct{}, len(notes))
	var refs []graph.Reference

	for _, n := range notes {
		if n.Draft {
			continue
		}
		live[n.Slug] = struct{}{}
		refs = append(refs, b.References(n, known)...)

		prev, indexed := checksums[n.Slug]
		if indexed && prev == n.Checksum {
			continue
		}
		if err := upsertNote(tx, RowFromNote(n), n.Body); err != nil {
			return Changes{}, err
		}
		if indexed {
			ch.Updated = append(ch.Updated, n.Slug)
		} else {
			ch.Created = append(ch.Created, n.Slug)
		}
		logger.Debug("index: upserted", slog.String("slug", n.Slug))
	}

	for s := range checksums {
		if _, ok := live[s]; ok {
			continue
		}
		if err := deleteNote(tx, s); err != nil {
			return Changes{}, err
		}
		ch.Deleted = append(ch.Deleted, s)
		logger.Debug("index: removed stale", slog.String("slug", s))
	}

	if _, err := tx.Exec(`DELETE FROM links`); err != nil {
		return Changes{}, fmt.Errorf("index: clear links: %w", err)
	}
	if err := insertLinks(tx, refs); err != nil {
		return Changes{}, err
	}
	if err := tx.Commit(); err != nil {
		return Changes{}, fmt.Errorf("index: commit sync: %w", err)
	}
	return ch, nil
}
