// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package latex

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestReferences(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "worksheets.tex",
		`\section{Sorting}`+"\n"+
			`\lstinputlisting{"Content/Snippets/Worksheet 1 - A.cpp"}`+"\n"+
			`\lstinputlisting[caption=Heaps, label=lst:b]{Content/Snippets/Worksheet 1 - B.cpp}`+"\n")
	writeFile(t, dir, "chapters/intro.tex",
		`\lstinputlisting{"Content/Snippets/Worksheet 1 - A.cpp"}`+"\n")
	writeFile(t, dir, "notes.md", `\lstinputlisting{"ignored.cpp"}`+"\n")

	refs, err := References(dir, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Worksheet 1 - A", "Worksheet 1 - B"}, Stems(refs))

	// The same identifier referenced from two documents yields two
	// references, sorted by file then line.
	a := refs["Worksheet 1 - A"]
	require.Len(t, a, 2)
	assert.Equal(t, filepath.Join(dir, "chapters/intro.tex"), a[0].File)
	assert.Equal(t, filepath.Join(dir, "worksheets.tex"), a[1].File)
	assert.Equal(t, 2, a[1].Line)
}

func TestReferencesMalformedDirective(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "doc.tex",
		`\lstinputlisting{}`+"\n"+
			`\lstinputlisting{"Content/Snippets/Good.cpp"}`+"\n")

	var warnings bytes.Buffer
	refs, err := References(dir, &warnings)
	require.NoError(t, err)

	assert.Equal(t, []string{"Good"}, Stems(refs))
	assert.Contains(t, warnings.String(), "malformed inclusion directive")
	assert.Contains(t, warnings.String(), "doc.tex:1")
}

func TestReferencesEmptyTree(t *testing.T) {
	refs, err := References(t.TempDir(), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestPathStem(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		want string
		ok   bool
	}{
		{"quoted path with directories", `"Content/Snippets/Worksheet 1 - A.cpp"`, "Worksheet 1 - A", true},
		{"bare path", "Snippets/Intro.h", "Intro", true},
		{"no directories", "Loose.cpp", "Loose", true},
		{"no extension", "Snippets/NoExt", "NoExt", true},
		{"empty argument", "", "", false},
		{"quotes only", `""`, "", false},
		{"extension only", "Snippets/.cpp", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := pathStem(tt.arg)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
