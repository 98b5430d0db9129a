// Package wikilink recognises the [[target#anchor|label]] cross-reference
// syntax inside note bodies and resolves each occurrence to a hyperlink.
//
// Grammar:
//
//	link   = "[[" target [ "#" anchor ] [ "|" label ] "]]"
//	target = 1*( any char except "]" "|" "#" )
//	anchor = 1*( any char except "]" "|" )
//	label  = 1*( any char except "]" )
//
// Matching is left to right and non-overlapping. Anything that does not form
// a complete link (an unterminated "[[", an empty target such as "[[]]" or
// "[[|x]]") is literal text.
package wikilink

import (
	"iter"
	"regexp"
	"strings"
)

var linkRe = regexp.MustCompile(`\[\[([^\]|#]+)(?:#([^\]|]+))?(?:\|([^\]]+))?\]\]`)

// LeadingPattern matches a link at the very start of its input. Markdown
// parsers use it to claim a link before their own bracket handling runs.
var LeadingPattern = regexp.MustCompile(`^` + linkRe.String())

// Opener is the two-character prefix every link starts with. Callers use it
// as a cheap pre-filter before tokenizing.
const Opener = "[["

// Reference is one parsed occurrence of the link syntax. Target is kept
// exactly as written.
type Reference struct {
	Target    string
	Anchor    string
	Label     string
	HasAnchor bool
	HasLabel  bool
}

// Source reconstructs the "[[...]]" text the reference was parsed from.
func (r Reference) Source() string {
	var b strings.Builder
	b.WriteString("[[")
	b.WriteString(r.Target)
	if r.HasAnchor {
		b.WriteByte('#')
		b.WriteString(r.Anchor)
	}
	if r.HasLabel {
		b.WriteByte('|')
		b.WriteString(r.Label)
	}
	b.WriteString("]]")
	return b.String()
}

// Token is either a literal run of text (Ref == nil) or a link reference.
type Token struct {
	Literal string
	Ref     *Reference
}

// IsLink reports whether the token is a link reference.
func (t Token) IsLink() bool { return t.Ref != nil }

// Source returns the exact source text covered by the token.
func (t Token) Source() string {
	if t.Ref != nil {
		return t.Ref.Source()
	}
	return t.Literal
}

// Tokenize splits text into literal runs and link references. The returned
// sequence covers text with no gaps or overlaps; concatenating Source() of
// every token yields text again. Each call to the sequence rescans text from
// the start, so it can be ranged over any number of times. Empty input
// yields no tokens.
func Tokenize(text string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		if !strings.Contains(text, Opener) {
			if text != "" {
				yield(Token{Literal: text})
			}
			return
		}

		pos := 0
		for pos < len(text) {
			loc := linkRe.FindStringSubmatchIndex(text[pos:])
			if loc == nil {
				break
			}
			start, end := pos+loc[0], pos+loc[1]
			if start > pos {
				if !yield(Token{Literal: text[pos:start]}) {
					return
				}
			}
			if !yield(Token{Ref: referenceAt(text[pos:], loc)}) {
				return
			}
			pos = end
		}
		if pos < len(text) {
			yield(Token{Literal: text[pos:]})
		}
	}
}

func referenceAt(s string, loc []int) *Reference {
	ref := &Reference{Target: s[loc[2]:loc[3]]}
	if loc[4] >= 0 {
		ref.Anchor = s[loc[4]:loc[5]]
		ref.HasAnchor = true
	}
	if loc[6] >= 0 {
		ref.Label = s[loc[6]:loc[7]]
		ref.HasLabel = true
	}
	return ref
}

// References returns every link reference in text, in order of appearance.
func References(text string) []Reference {
	var out []Reference
	for tok := range Tokenize(text) {
		if tok.IsLink() {
			out = append(out, *tok.Ref)
		}
	}
	return out
}

// ContainsLink reports whether text holds at least one complete link.
func ContainsLink(text string) bool {
	return strings.Contains(text, Opener) && linkRe.MatchString(text)
}
