// Package models defines the domain types for grove.
package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Maturity levels, from least to most developed.
const (
	MaturitySeedling  = "seedling"
	MaturityBudding   = "budding"
	MaturityEvergreen = "evergreen"
)

// Maturities lists every maturity level in display order.
var Maturities = []string{MaturitySeedling, MaturityBudding, MaturityEvergreen}

// Note is a parsed garden note. Notes are built once per load and never
// mutated afterwards.
type Note struct {
	Slug         string     `json:"slug"`
	Path         string     `json:"path"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Maturity     string     `json:"maturity"`
	Topic        string     `json:"topic"`
	Created      time.Time  `json:"created"`
	Updated      *time.Time `json:"updated,omitempty"`
	Tags         []string   `json:"tags"`
	RelatedNotes []string   `json:"relatedNotes"`
	Featured     bool       `json:"featured"`
	Draft        bool       `json:"draft"`
	Body         string     `json:"body"`
	Checksum     string     `json:"checksum"`
}

// LastModified returns Updated when set, Created otherwise.
func (n *Note) LastModified() time.Time {
	if n.Updated != nil {
		return *n.Updated
	}
	return n.Created
}

// Frontmatter is the YAML header of a note file.
type Frontmatter struct {
	Title        string     `yaml:"title"`
	Description  string     `yaml:"description"`
	Maturity     string     `yaml:"maturity"`
	Topic        string     `yaml:"topic"`
	Created      time.Time  `yaml:"created"`
	Updated      *time.Time `yaml:"updated"`
	Tags         []string   `yaml:"tags"`
	RelatedNotes []string   `yaml:"relatedNotes"`
	Featured     bool       `yaml:"featured"`
	Draft        bool       `yaml:"draft"`
}

// ApplyDefaults fills optional fields with their default values.
func (f *Frontmatter) ApplyDefaults() {
	if f.Maturity == "" {
		f.Maturity = MaturitySeedling
	}
	if f.Tags == nil {
		f.Tags = []string{}
	}
	if f.RelatedNotes == nil {
		f.RelatedNotes = []string{}
	}
}

// Validate checks the frontmatter against the garden schema.
func (f *Frontmatter) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Title, validation.Required),
		validation.Field(&f.Maturity, validation.Required, validation.In(toAny(Maturities)...)),
		validation.Field(&f.Topic, validation.Required, validation.In(toAny(TopicSlugs())...)),
		validation.Field(&f.Created, validation.Required),
	)
}

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
