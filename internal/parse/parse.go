// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package parse implements the line-oriented snippet marker grammar.
//
// A begin marker line carries an optional leading underscore, the literal
// SNIPPET:BEGIN, a tag in braces, and an optional '$'-prefixed comment:
//
//	// SNIPPET:BEGIN {Worksheet 1 - A} $ shown in chapter 3
//	...body, captured verbatim...
//	// SNIPPET:END {Worksheet 1 - A}
//
// Markers may be embedded in any surrounding syntax; matching starts at the
// literal keyword, so the tool stays language-agnostic across source file
// types. The underscore prefix marks a block inactive and must agree
// between the begin and end markers.
package parse

import (
	"fmt"
	"strings"

	"github.com/pdiddy/snipper/pkg/types"
)

const (
	beginKeyword = "SNIPPET:BEGIN"
	endKeyword   = "SNIPPET:END"
)

// Error is a fatal marker syntax error: malformed braces, mismatched tags
// or underscore prefixes, or unterminated/unmatched blocks. Any Error
// aborts the whole run before a single target file is written.
type Error struct {
	File string
	Line int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// Scanner yields the snippet occurrences in one file's content as a
// pull-based sequence. Scanning is single-pass and keeps no state outside
// the struct, so two Scanners over the same content yield identical
// results.
type Scanner struct {
	file    string
	content string

	pos  int // byte offset of the next unread line
	line int // 1-based number of the last line handed out
	open *openBlock
	done bool
	err  *Error
}

// openBlock tracks the begin marker awaiting its end marker.
type openBlock struct {
	tag       string
	comment   string
	active    bool
	beginLine int
	bodyStart int // byte offset just past the begin marker's line break
}

// NewScanner returns a Scanner over content. The file name is carried into
// occurrences and errors for diagnostics only; no I/O happens here.
func NewScanner(file, content string) *Scanner {
	return &Scanner{file: file, content: content}
}

// Next returns the next well-formed occurrence. It returns ok=false when
// the content is exhausted or a syntax error is hit; Err distinguishes the
// two.
func (s *Scanner) Next() (types.Occurrence, bool) {
	if s.done || s.err != nil {
		return types.Occurrence{}, false
	}

	for s.pos < len(s.content) {
		lineStart := s.pos
		s.line++

		lineEnd := strings.IndexByte(s.content[lineStart:], '\n')
		if lineEnd < 0 {
			lineEnd = len(s.content)
			s.pos = lineEnd
		} else {
			lineEnd += lineStart
			s.pos = lineEnd + 1
		}

		line := strings.TrimSuffix(s.content[lineStart:lineEnd], "\r")

		m, ok, msg := matchMarker(line)
		if msg != "" {
			s.err = &Error{File: s.file, Line: s.line, Msg: msg}
			return types.Occurrence{}, false
		}
		if !ok {
			continue
		}

		if m.begin {
			if s.open != nil {
				s.err = &Error{File: s.file, Line: s.line, Msg: fmt.Sprintf(
					"unterminated snippet %q (begin at line %d): second begin marker %q before its end",
					s.open.tag, s.open.beginLine, m.tag)}
				return types.Occurrence{}, false
			}
			s.open = &openBlock{
				tag:       m.tag,
				comment:   m.comment,
				active:    m.active,
				beginLine: s.line,
				bodyStart: s.pos,
			}
			continue
		}

		if s.open == nil {
			s.err = &Error{File: s.file, Line: s.line, Msg: fmt.Sprintf("unmatched end marker %q", m.tag)}
			return types.Occurrence{}, false
		}
		if m.tag != s.open.tag {
			s.err = &Error{File: s.file, Line: s.line, Msg: fmt.Sprintf(
				"end marker %q does not match begin marker %q (line %d)",
				m.tag, s.open.tag, s.open.beginLine)}
			return types.Occurrence{}, false
		}
		if m.active != s.open.active {
			s.err = &Error{File: s.file, Line: s.line, Msg: fmt.Sprintf(
				"begin and end markers for %q disagree on the underscore prefix", m.tag)}
			return types.Occurrence{}, false
		}

		occ := types.Occurrence{
			Tag:       s.open.tag,
			Comment:   s.open.comment,
			Active:    s.open.active,
			Body:      s.content[s.open.bodyStart:lineStart],
			File:      s.file,
			BeginLine: s.open.beginLine,
			EndLine:   s.line,
		}
		s.open = nil
		return occ, true
	}

	s.done = true
	if s.open != nil {
		s.err = &Error{File: s.file, Line: s.open.beginLine, Msg: fmt.Sprintf(
			"unterminated snippet %q: no end marker before end of file", s.open.tag)}
	}
	return types.Occurrence{}, false
}

// Err returns the syntax error that stopped the scan, or nil after a clean
// pass.
func (s *Scanner) Err() error {
	if s.err == nil {
		return nil
	}
	return s.err
}

// ParseAll drains a Scanner over content and returns every occurrence.
func ParseAll(file, content string) ([]types.Occurrence, error) {
	sc := NewScanner(file, content)
	var occs []types.Occurrence
	for {
		occ, ok := sc.Next()
		if !ok {
			break
		}
		occs = append(occs, occ)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return occs, nil
}

// marker is one parsed begin or end marker line.
type marker struct {
	begin   bool
	active  bool
	tag     string
	comment string
}

// matchMarker parses a marker from line, if one is present. A non-empty
// msg reports a grammar violation on a line that does contain a marker
// keyword. Any prefix before the keyword is ignored, except that an
// immediately preceding underscore flips the block inactive.
func matchMarker(line string) (marker, bool, string) {
	var m marker

	idx := strings.Index(line, beginKeyword)
	keyword := beginKeyword
	m.begin = true
	if endIdx := strings.Index(line, endKeyword); endIdx >= 0 && (idx < 0 || endIdx < idx) {
		idx = endIdx
		keyword = endKeyword
		m.begin = false
	}
	if idx < 0 {
		return marker{}, false, ""
	}

	m.active = !(idx > 0 && line[idx-1] == '_')

	rest := strings.TrimLeft(line[idx+len(keyword):], " \t")
	if !strings.HasPrefix(rest, "{") {
		return marker{}, false, fmt.Sprintf("malformed marker: expected '{' after %s", keyword)
	}
	closing := strings.IndexByte(rest, '}')
	if closing < 0 {
		return marker{}, false, fmt.Sprintf("malformed marker: '{' with no matching '}' after %s", keyword)
	}
	m.tag = strings.TrimSpace(rest[1:closing])
	if m.tag == "" {
		return marker{}, false, fmt.Sprintf("malformed marker: empty tag after %s", keyword)
	}

	trailer := strings.TrimLeft(rest[closing+1:], " \t")
	if strings.HasPrefix(trailer, "$") {
		m.comment = strings.TrimSpace(trailer[1:])
	}

	return m, true, ""
}
