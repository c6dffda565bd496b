// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/snipper/pkg/types"
)

func TestParseAll(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []types.Occurrence
	}{
		{
			name:    "single active block",
			content: "// SNIPPET:BEGIN {A}\ncode\n// SNIPPET:END {A}\n",
			want: []types.Occurrence{{
				Tag: "A", Active: true, Body: "code\n",
				File: "main.cpp", BeginLine: 1, EndLine: 3,
			}},
		},
		{
			name:    "inactive block with underscore on both markers",
			content: "// _SNIPPET:BEGIN {B}\nfrozen\n// _SNIPPET:END {B}\n",
			want: []types.Occurrence{{
				Tag: "B", Active: false, Body: "frozen\n",
				File: "main.cpp", BeginLine: 1, EndLine: 3,
			}},
		},
		{
			name:    "comment after dollar sign",
			content: "// SNIPPET:BEGIN {C} $ shown in chapter 3\nx\n// SNIPPET:END {C}\n",
			want: []types.Occurrence{{
				Tag: "C", Comment: "shown in chapter 3", Active: true, Body: "x\n",
				File: "main.cpp", BeginLine: 1, EndLine: 3,
			}},
		},
		{
			name:    "tag whitespace is trimmed",
			content: "// SNIPPET:BEGIN {  Worksheet 1 - A  }\ny\n// SNIPPET:END { Worksheet 1 - A }\n",
			want: []types.Occurrence{{
				Tag: "Worksheet 1 - A", Active: true, Body: "y\n",
				File: "main.cpp", BeginLine: 1, EndLine: 3,
			}},
		},
		{
			name:    "marker embedded in arbitrary comment syntax",
			content: "<!-- SNIPPET:BEGIN {D} -->\nbody\n<!-- SNIPPET:END {D} -->\n",
			want: []types.Occurrence{{
				Tag: "D", Active: true, Body: "body\n",
				File: "main.cpp", BeginLine: 1, EndLine: 3,
			}},
		},
		{
			name: "body kept verbatim with indentation and blank lines",
			content: "# SNIPPET:BEGIN {E}\n" +
				"\tindented\n\n  spaced\n" +
				"# SNIPPET:END {E}\n",
			want: []types.Occurrence{{
				Tag: "E", Active: true, Body: "\tindented\n\n  spaced\n",
				File: "main.cpp", BeginLine: 1, EndLine: 5,
			}},
		},
		{
			name:    "empty body",
			content: "// SNIPPET:BEGIN {F}\n// SNIPPET:END {F}\n",
			want: []types.Occurrence{{
				Tag: "F", Active: true, Body: "",
				File: "main.cpp", BeginLine: 1, EndLine: 2,
			}},
		},
		{
			name: "two blocks in one file",
			content: "// SNIPPET:BEGIN {G}\ng\n// SNIPPET:END {G}\n" +
				"plain line\n" +
				"// SNIPPET:BEGIN {H}\nh\n// SNIPPET:END {H}\n",
			want: []types.Occurrence{
				{Tag: "G", Active: true, Body: "g\n", File: "main.cpp", BeginLine: 1, EndLine: 3},
				{Tag: "H", Active: true, Body: "h\n", File: "main.cpp", BeginLine: 5, EndLine: 7},
			},
		},
		{
			name:    "no markers",
			content: "int main() {\n\treturn 0;\n}\n",
			want:    nil,
		},
		{
			name:    "trailing text after closing brace is ignored",
			content: "/* SNIPPET:BEGIN {I} */\nz\n/* SNIPPET:END {I} */\n",
			want: []types.Occurrence{{
				Tag: "I", Active: true, Body: "z\n",
				File: "main.cpp", BeginLine: 1, EndLine: 3,
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAll("main.cpp", tt.content)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAllErrors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantLine int
		wantMsg  string
	}{
		{
			name:     "mismatched tags",
			content:  "// SNIPPET:BEGIN {A}\nx\n// SNIPPET:END {B}\n",
			wantLine: 3,
			wantMsg:  `end marker "B" does not match begin marker "A"`,
		},
		{
			name:     "underscore disagreement",
			content:  "// _SNIPPET:BEGIN {A}\nx\n// SNIPPET:END {A}\n",
			wantLine: 3,
			wantMsg:  "disagree on the underscore prefix",
		},
		{
			name:     "second begin before end",
			content:  "// SNIPPET:BEGIN {A}\n// SNIPPET:BEGIN {B}\n// SNIPPET:END {B}\n",
			wantLine: 2,
			wantMsg:  `unterminated snippet "A"`,
		},
		{
			name:     "unmatched end",
			content:  "x\n// SNIPPET:END {A}\n",
			wantLine: 2,
			wantMsg:  `unmatched end marker "A"`,
		},
		{
			name:     "unterminated at end of file",
			content:  "// SNIPPET:BEGIN {A}\nbody\n",
			wantLine: 1,
			wantMsg:  "no end marker before end of file",
		},
		{
			name:     "missing closing brace",
			content:  "// SNIPPET:BEGIN {A\nx\n",
			wantLine: 1,
			wantMsg:  "no matching '}'",
		},
		{
			name:     "missing opening brace",
			content:  "// SNIPPET:BEGIN A}\n",
			wantLine: 1,
			wantMsg:  "expected '{'",
		},
		{
			name:     "empty tag",
			content:  "// SNIPPET:BEGIN {}\n",
			wantLine: 1,
			wantMsg:  "empty tag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAll("src.h", tt.content)
			require.Error(t, err)

			var perr *Error
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, "src.h", perr.File)
			assert.Equal(t, tt.wantLine, perr.Line)
			assert.Contains(t, perr.Msg, tt.wantMsg)
		})
	}
}

func TestScannerPull(t *testing.T) {
	content := "// SNIPPET:BEGIN {A}\na\n// SNIPPET:END {A}\n" +
		"// SNIPPET:BEGIN {B}\nb\n// SNIPPET:END {B}\n"

	sc := NewScanner("f.go", content)

	first, ok := sc.Next()
	require.True(t, ok)
	assert.Equal(t, "A", first.Tag)

	second, ok := sc.Next()
	require.True(t, ok)
	assert.Equal(t, "B", second.Tag)

	_, ok = sc.Next()
	assert.False(t, ok)
	assert.NoError(t, sc.Err())

	// Exhausted scanners stay exhausted.
	_, ok = sc.Next()
	assert.False(t, ok)
}

func TestScannerRestartable(t *testing.T) {
	content := "// SNIPPET:BEGIN {A} $ note\nbody\n// SNIPPET:END {A}\n"

	first, err := ParseAll("f.go", content)
	require.NoError(t, err)
	second, err := ParseAll("f.go", content)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestScannerStopsAfterError(t *testing.T) {
	content := "// SNIPPET:END {A}\n// SNIPPET:BEGIN {B}\nx\n// SNIPPET:END {B}\n"

	sc := NewScanner("f.go", content)
	_, ok := sc.Next()
	assert.False(t, ok)
	require.Error(t, sc.Err())

	// No occurrences after a fatal syntax error.
	_, ok = sc.Next()
	assert.False(t, ok)
}

func TestParseAllCRLF(t *testing.T) {
	content := "// SNIPPET:BEGIN {A}\r\nline\r\n// SNIPPET:END {A}\r\n"

	got, err := ParseAll("win.cpp", content)
	require.NoError(t, err)
	require.Len(t, got, 1)
	// The body keeps its original CRLF line breaks byte for byte.
	assert.Equal(t, "line\r\n", got[0].Body)
}
