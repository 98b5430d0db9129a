package mcpserver

// NoteFormatContract describes the Markdown note format that LLM consumers
// should follow when drafting garden notes.
const NoteFormatContract = `# Grove Note Format Contract

Every note in the garden is a Markdown file with YAML frontmatter.

## Structure

` + "```" + `markdown
---
title: Leverage Points          # REQUIRED; falls back to the first "# " heading
description: One-line summary   # OPTIONAL
maturity: budding               # OPTIONAL: seedling (default), budding, evergreen
topic: systems                  # REQUIRED: systems, hospitality, horticulture, ai, play, meta
created: 2024-03-01             # REQUIRED date
updated: 2024-04-02             # OPTIONAL date
tags: [systems, meadows]        # OPTIONAL list
relatedNotes: [feedback-loops]  # OPTIONAL list of note slugs
featured: false                 # OPTIONAL
draft: false                    # OPTIONAL; drafts are never published
---

Body text in standard Markdown with [[wikilinks]].
` + "```" + `

## Slugs

A note's slug is its path relative to the vault without the extension,
lowercased, with spaces and directory separators turned into "-":
` + "`" + `systems/Leverage Points.md` + "`" + ` becomes ` + "`" + `systems-leverage-points` + "`" + `.

## Wikilinks

- ` + "`" + `[[target]]` + "`" + ` links to the note whose slug is the canonical form of target.
- ` + "`" + `[[target#section]]` + "`" + ` adds an anchor.
- ` + "`" + `[[target|label]]` + "`" + ` sets the link text; otherwise the target is prettified.
- Wikilinks inside code spans and code blocks are left as text.
- ` + "`" + `relatedNotes` + "`" + ` entries count as explicit links in the graph; body
  wikilinks count as implicit links.
`
