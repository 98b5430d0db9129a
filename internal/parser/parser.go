// Package parser turns raw note files into models.Note values: it splits the
// YAML frontmatter from the Markdown body, decodes and validates it, and
// derives the note slug from the file path.
package parser

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/grove/internal/apperr"
	"github.com/starford/grove/internal/checksum"
	"github.com/starford/grove/internal/models"
	"github.com/starford/grove/internal/slug"
)

// Result holds the output of parsing a Markdown file.
type Result struct {
	Meta           models.Frontmatter
	HasFrontmatter bool
	Body           string
}

// Parse splits data into frontmatter and body. A file without frontmatter
// yields an empty Meta and the whole content as body; frontmatter that is not
// valid YAML is an error.
func Parse(data []byte) (*Result, error) {
	block, body, ok := splitFrontmatter(data)

	res := &Result{Body: body, HasFrontmatter: ok}
	if ok {
		if err := yaml.Unmarshal(block, &res.Meta); err != nil {
			return nil, fmt.Errorf("parser: frontmatter: %w: %v", apperr.ErrInvalidNote, err)
		}
	}
	return res, nil
}

// ParseNote builds a validated note from the file at relPath. Defaults are
// applied before validation; a missing title falls back to the first H1.
func ParseNote(relPath string, data []byte) (models.Note, error) {
	res, err := Parse(data)
	if err != nil {
		return models.Note{}, fmt.Errorf("%s: %w", relPath, err)
	}
	if !res.HasFrontmatter {
		return models.Note{}, fmt.Errorf("%s: %w: missing frontmatter", relPath, apperr.ErrInvalidNote)
	}

	meta := res.Meta
	meta.ApplyDefaults()
	if meta.Title == "" {
		meta.Title = deriveTitle(res.Body)
	}
	if err := meta.Validate(); err != nil {
		return models.Note{}, fmt.Errorf("%s: %w: %v", relPath, apperr.ErrInvalidNote, err)
	}

	return models.Note{
		Slug:         SlugFromPath(relPath),
		Path:         relPath,
		Title:        meta.Title,
		Description:  meta.Description,
		Maturity:     meta.Maturity,
		Topic:        meta.Topic,
		Created:      meta.Created,
		Updated:      meta.Updated,
		Tags:         meta.Tags,
		RelatedNotes: meta.RelatedNotes,
		Featured:     meta.Featured,
		Draft:        meta.Draft,
		Body:         res.Body,
		Checksum:     checksum.Sum(data),
	}, nil
}

// SlugFromPath derives a note slug from its vault-relative path:
// "systems/Leverage Points.md" becomes "systems-leverage-points".
func SlugFromPath(relPath string) string {
	p := strings.ReplaceAll(relPath, "\\", "/")
	p = strings.TrimSuffix(p, path.Ext(p))
	return slug.Canonicalize(p)
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. ok is false when no frontmatter block is found.
func splitFrontmatter(data []byte) (block []byte, body string, ok bool) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), false
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		// No closing delimiter: everything is body.
		return nil, string(data), false
	}

	block = rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	// Drop the remainder of the closing delimiter line.
	if nl := bytes.IndexByte(afterDelim, '\n'); nl >= 0 {
		afterDelim = afterDelim[nl+1:]
	} else {
		afterDelim = nil
	}
	body = strings.TrimLeft(string(afterDelim), "\n\r")
	return block, body, true
}

// deriveTitle returns the first H1 heading of body, or "".
func deriveTitle(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
