package garden

import (
	"github.com/starford/grove/internal/render"
	"github.com/starford/grove/internal/slug"
)

// Problem kinds reported by Check.
const (
	ProblemUnreadable      = "unreadable"
	ProblemInvalid         = "invalid"
	ProblemDuplicate       = "duplicate-slug"
	ProblemUnresolvedLink  = "unresolved-link"
	ProblemDanglingRelated = "dangling-related"
	ProblemEmptyTarget     = "empty-target"
)

// Problem is one lint finding.
type Problem struct {
	Slug    string `json:"slug,omitempty"`
	Path    string `json:"path"`
	Kind    string `json:"kind"`
	Target  string `json:"target,omitempty"`
	Message string `json:"message,omitempty"`
}

// Report is the result of Check.
type Report struct {
	Notes    int       `json:"notes"`
	Drafts   int       `json:"drafts"`
	Problems []Problem `json:"problems"`
}

// OK reports whether the garden has no problems.
func (r Report) OK() bool { return len(r.Problems) == 0 }

// Check lints the current snapshot. Besides the files skipped at load time
// it reports, for every published note, rendered wikilinks and relatedNotes
// entries that do not land on a published note. Syntax inside code is not a
// link and is not reported. Such references are
// tolerated at render time (the link is still emitted, the graph edge is
// dropped) but usually point at a typo or an unpublished draft.
func (s *Service) Check() Report {
	snap := s.current()
	rep := Report{
		Notes:    len(snap.published),
		Drafts:   len(snap.all) - len(snap.published),
		Problems: append([]Problem{}, snap.problems...),
	}

	for _, n := range snap.published {
		for _, related := range n.RelatedNotes {
			if !snap.known.Has(slug.Canonicalize(related)) {
				rep.Problems = append(rep.Problems, Problem{
					Slug: n.Slug, Path: n.Path, Kind: ProblemDanglingRelated, Target: related,
				})
			}
		}
		reported := make(map[string]bool)
		for _, l := range render.Links(s.renderer.Tree(n.Body)) {
			switch {
			case l.Key == "":
				rep.Problems = append(rep.Problems, Problem{
					Slug: n.Slug, Path: n.Path, Kind: ProblemEmptyTarget, Target: l.Target,
					Message: "resolves to " + l.Href,
				})
			case !snap.known.Has(l.Key) && !reported[l.Key]:
				reported[l.Key] = true
				rep.Problems = append(rep.Problems, Problem{
					Slug: n.Slug, Path: n.Path, Kind: ProblemUnresolvedLink, Target: l.Target,
				})
			}
		}
	}
	return rep
}
