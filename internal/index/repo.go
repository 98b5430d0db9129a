package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/starford/grove/internal/apperr"
	"github.com/starford/grove/internal/graph"
	"github.com/starford/grove/internal/models"
)

// NoteRow is a row of the notes table.
type NoteRow struct {
	Slug      string    `json:"slug"`
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Topic     string    `json:"topic"`
	Maturity  string    `json:"maturity"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RowFromNote maps a note to its index row.
func RowFromNote(n models.Note) NoteRow {
	return NoteRow{
		Slug:      n.Slug,
		Path:      n.Path,
		Title:     n.Title,
		Topic:     n.Topic,
		Maturity:  n.Maturity,
		Checksum:  n.Checksum,
		Tags:      n.Tags,
		UpdatedAt: n.LastModified(),
	}
}

// SearchResult is one search hit.
type SearchResult struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Backlink is a note that references the queried note, with every way it
// does so.
type Backlink struct {
	Slug  string       `json:"slug"`
	Title string       `json:"title"`
	Kinds []graph.Kind `json:"kinds"`
}

// UpsertNote inserts or replaces a note and its outgoing references in one
// transaction.
func (db *DB) UpsertNote(n NoteRow, body string, refs []graph.Reference) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := upsertNote(tx, n, body); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, n.Slug); err != nil {
		return fmt.Errorf("index: clear links: %w", err)
	}
	if err := insertLinks(tx, refs); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertNote(tx *sql.Tx, n NoteRow, body string) error {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, _ := json.Marshal(tags)

	_, err := tx.Exec(`
		INSERT INTO notes (slug, path, title, topic, maturity, checksum, tags, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			path       = excluded.path,
			title      = excluded.title,
			topic      = excluded.topic,
			maturity   = excluded.maturity,
			checksum   = excluded.checksum,
			tags       = excluded.tags,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, n.Slug, n.Path, n.Title, n.Topic, n.Maturity, n.Checksum, string(tagsJSON), body, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}
	return ftsUpsert(tx, n.Slug, n.Title, body, tags)
}

func insertLinks(tx *sql.Tx, refs []graph.Reference) error {
	if len(refs) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target, type) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare link insert: %w", err)
	}
	defer stmt.Close()
	for _, r := range refs {
		if _, err := stmt.Exec(r.Source, r.Target, string(r.Kind)); err != nil {
			return fmt.Errorf("index: insert link: %w", err)
		}
	}
	return nil
}

// DeleteNote removes a note, its search entry and its outgoing references.
func (db *DB) DeleteNote(slug string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := deleteNote(tx, slug); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteNote(tx *sql.Tx, slug string) error {
	ftsDelete(tx, slug)
	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, slug); err != nil {
		return fmt.Errorf("index: delete links: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM notes WHERE slug = ?`, slug); err != nil {
		return fmt.Errorf("index: delete note: %w", err)
	}
	return nil
}

// GetNote returns the row for slug, or apperr.ErrNotFound.
func (db *DB) GetNote(slug string) (*NoteRow, error) {
	var (
		row  NoteRow
		tags string
	)
	err := db.conn.QueryRow(`
		SELECT slug, path, title, topic, maturity, checksum, tags, updated_at
		FROM notes WHERE slug = ?
	`, slug).Scan(&row.Slug, &row.Path, &row.Title, &row.Topic, &row.Maturity, &row.Checksum, &tags, &row.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: note %q: %w", slug, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get note: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &row.Tags); err != nil {
		return nil, fmt.Errorf("index: decode tags: %w", err)
	}
	return &row, nil
}

// AllChecksums maps every indexed slug to its stored checksum.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT slug, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var s, cs string
		if err := rows.Scan(&s, &cs); err != nil {
			return nil, err
		}
		out[s] = cs
	}
	return out, rows.Err()
}

// Backlinks returns the notes referencing target, ordered by title.
func (db *DB) Backlinks(target string) ([]Backlink, error) {
	rows, err := db.conn.Query(`
		SELECT l.source, n.title, group_concat(l.type)
		FROM links l JOIN notes n ON n.slug = l.source
		WHERE l.target = ?
		GROUP BY l.source, n.title
		ORDER BY n.title, l.source
	`, target)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	out := []Backlink{}
	for rows.Next() {
		var (
			b     Backlink
			kinds string
		)
		if err := rows.Scan(&b.Slug, &b.Title, &kinds); err != nil {
			return nil, err
		}
		parts := strings.Split(kinds, ",")
		sort.Strings(parts)
		for _, k := range parts {
			b.Kinds = append(b.Kinds, graph.Kind(k))
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Outlinks returns the stored references of source.
func (db *DB) Outlinks(source string) ([]graph.Reference, error) {
	rows, err := db.conn.Query(`
		SELECT source, target, type FROM links
		WHERE source = ?
		ORDER BY type, target
	`, source)
	if err != nil {
		return nil, fmt.Errorf("index: outlinks: %w", err)
	}
	defer rows.Close()

	out := []graph.Reference{}
	for rows.Next() {
		var (
			r    graph.Reference
			kind string
		)
		if err := rows.Scan(&r.Source, &r.Target, &kind); err != nil {
			return nil, err
		}
		r.Kind = graph.Kind(kind)
		out = append(out, r)
	}
	return out, rows.Err()
}
