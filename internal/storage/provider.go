// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/grove/internal/models"

// Provider is the interface the garden loads notes through.
type Provider interface {
	// List returns metadata for every note file under dir (relative to root),
	// sorted by path.
	List(dir string) ([]models.NoteMetadata, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
}

// IsNoteFile reports whether name carries a Markdown note extension.
func IsNoteFile(name string) bool {
	for _, ext := range noteExts {
		if len(name) > len(ext) && name[len(name)-len(ext):] == ext {
			return true
		}
	}
	return false
}

var noteExts = []string{".md", ".markdown"}
