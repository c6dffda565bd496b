// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Occurrence is one physical SNIPPET:BEGIN/SNIPPET:END block found in a
// source file. Occurrences are ephemeral: they are rebuilt from the file
// system on every run and folded into Snippets by the extractor.
type Occurrence struct {
	// Tag is the identifier shared by the begin and end markers.
	Tag string `json:"tag" yaml:"tag"`

	// Comment is the free text after a '$' on the begin marker line.
	// It is ignored for matching and only surfaced in diagnostics.
	Comment string `json:"comment,omitempty" yaml:"comment,omitempty"`

	// Active reports whether the block is live. Underscore-prefixed
	// markers (_SNIPPET:BEGIN) mark a frozen, inactive block.
	Active bool `json:"active" yaml:"active"`

	// Body is the exact byte range strictly between the begin marker's
	// line and the end marker's line, line breaks and indentation intact.
	Body string `json:"body" yaml:"body"`

	// File is the source file the block was found in.
	File string `json:"file" yaml:"file"`

	// BeginLine and EndLine are the 1-based marker line numbers.
	BeginLine int `json:"begin_line" yaml:"begin_line"`
	EndLine   int `json:"end_line" yaml:"end_line"`
}

// Snippet is the resolved, deduplicated record for one tag. At most one
// occurrence per tag may exist across the whole source corpus; a second
// occurrence is a fatal duplicate, never a silent overwrite.
type Snippet struct {
	// Tag is the canonical snippet name, e.g. "Worksheet 1 - A". The
	// sanitized tag doubles as the stem of the target file name.
	Tag string `json:"tag" yaml:"tag"`

	// Active controls the write policy: active snippets always track the
	// live source, inactive ones are captured once and then preserved.
	Active bool `json:"active" yaml:"active"`

	// Body is the snippet content, verbatim.
	Body string `json:"body" yaml:"body"`

	// Comment is the optional trailing comment from the begin marker.
	Comment string `json:"comment,omitempty" yaml:"comment,omitempty"`

	// File, BeginLine, and EndLine locate the block for diagnostics.
	File      string `json:"file" yaml:"file"`
	BeginLine int    `json:"begin_line" yaml:"begin_line"`
	EndLine   int    `json:"end_line" yaml:"end_line"`
}

// Reference is one \lstinputlisting-style directive found in a document
// file. The stem of its path argument names a snippet; resolution is a
// string lookup, and a missing snippet is a warning, never fatal.
type Reference struct {
	// Stem is the final path-segment stem of the directive's argument,
	// with directories and extension stripped.
	Stem string `json:"stem" yaml:"stem"`

	// File and Line locate the directive for diagnostics.
	File string `json:"file" yaml:"file"`
	Line int    `json:"line" yaml:"line"`
}
