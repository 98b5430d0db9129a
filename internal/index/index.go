package index

import "github.com/starford/grove/internal/graph"

// NoteIndex is the query side of the index used by the HTTP and MCP layers.
// Consumers depend on it rather than on *DB so handlers can be tested with
// fakes.
type NoteIndex interface {
	GetNote(slug string) (*NoteRow, error)
	Search(query string, limit int) ([]SearchResult, error)
	Backlinks(target string) ([]Backlink, error)
	Outlinks(source string) ([]graph.Reference, error)
	Close() error
}

// Verify *DB satisfies NoteIndex at compile time.
var _ NoteIndex = (*DB)(nil)
