// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package latex finds snippet inclusion directives in a LaTeX document
// tree. The scan is advisory: its output only feeds the unresolved
// reference and orphan diagnostics and never blocks or mutates extraction.
package latex

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/snipper/pkg/types"
)

// directivePattern matches \lstinputlisting with an optional options block
// and a brace-delimited path argument, e.g.
//
//	\lstinputlisting[caption=Sorting]{"Content/Snippets/Worksheet 1 - A.cpp"}
//
// Only the path argument matters; label, caption, and position are ignored.
var directivePattern = regexp.MustCompile(`\\lstinputlisting(?:\[[^\]]*\])?\{([^}]*)\}`)

// References recursively scans root for .tex files and returns the snippet
// identifiers referenced by inclusion directives, keyed by stem. Malformed
// directives and unreadable files warn on w and are skipped.
func References(root string, w io.Writer) (map[string][]types.Reference, error) {
	refs := make(map[string][]types.Reference)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("walking LaTeX root %s: %w", root, err)
			}
			fmt.Fprintf(w, "warning: skipping %s: %v\n", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !strings.EqualFold(filepath.Ext(path), ".tex") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(w, "warning: skipping %s: %v\n", path, err)
			return nil
		}

		for _, ref := range scanDocument(path, string(data), w) {
			refs[ref.Stem] = append(refs[ref.Stem], ref)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, list := range refs {
		sort.Slice(list, func(i, j int) bool {
			if list[i].File != list[j].File {
				return list[i].File < list[j].File
			}
			return list[i].Line < list[j].Line
		})
	}
	return refs, nil
}

// Stems returns the sorted set of referenced identifiers.
func Stems(refs map[string][]types.Reference) []string {
	stems := make([]string, 0, len(refs))
	for stem := range refs {
		stems = append(stems, stem)
	}
	sort.Strings(stems)
	return stems
}

// scanDocument extracts the references from one document's content,
// line by line so diagnostics carry line numbers.
func scanDocument(file, content string, w io.Writer) []types.Reference {
	var refs []types.Reference

	for i, line := range strings.Split(content, "\n") {
		for _, match := range directivePattern.FindAllStringSubmatch(line, -1) {
			stem, ok := pathStem(match[1])
			if !ok {
				fmt.Fprintf(w, "warning: %s:%d: malformed inclusion directive %q\n", file, i+1, match[0])
				continue
			}
			refs = append(refs, types.Reference{Stem: stem, File: file, Line: i + 1})
		}
	}
	return refs
}

// pathStem reduces a directive path argument to the snippet identifier:
// surrounding quotes, directory segments (including the conventional
// Snippets/ prefix), and the extension are all stripped.
func pathStem(arg string) (string, bool) {
	arg = strings.TrimSpace(arg)
	arg = strings.Trim(arg, `"`)
	if arg == "" {
		return "", false
	}

	// Directive paths use forward slashes regardless of platform.
	if i := strings.LastIndexByte(arg, '/'); i >= 0 {
		arg = arg[i+1:]
	}
	stem := strings.TrimSuffix(arg, filepath.Ext(arg))
	if stem == "" {
		return "", false
	}
	return stem, true
}
