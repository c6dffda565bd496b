// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract walks a source corpus and folds snippet occurrences into
// the snippet map. The walk-and-parse phase is read-only and runs on a
// bounded worker pool; per-file results converge in a single aggregator, so
// duplicate detection does not depend on traversal or completion order.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/snipper/internal/parse"
	"github.com/pdiddy/snipper/pkg/types"
)

const defaultWorkers = 4

// binarySniffLen bounds how many leading bytes are checked for NUL when
// deciding whether a file is binary.
const binarySniffLen = 8000

// DuplicateTagError reports every tag defined by more than one snippet
// block across the source corpus. Duplicates are fatal: a second
// occurrence of a tag is never a silent overwrite.
type DuplicateTagError struct {
	Duplicates []Duplicate
}

// Duplicate is one tag with all the source locations defining it.
type Duplicate struct {
	Tag       string
	Locations []string // "file:line", sorted
}

func (e *DuplicateTagError) Error() string {
	var b strings.Builder
	b.WriteString("duplicate snippet tags:")
	for _, d := range e.Duplicates {
		fmt.Fprintf(&b, "\n  %q defined at %s", d.Tag, strings.Join(d.Locations, ", "))
	}
	return b.String()
}

// Summary holds counts from one source corpus scan.
type Summary struct {
	// Files is the number of files parsed for markers.
	Files int

	// Snippets is the number of distinct snippets found.
	Snippets int

	// Skipped is the number of unreadable or binary files skipped with a
	// warning.
	Skipped int
}

// Corpus recursively scans cfg.SourceDir for snippet blocks and returns
// the mapping from tag to snippet. Unreadable and binary files warn on w
// and are skipped; marker syntax errors and duplicate tags are fatal and
// return before anything downstream may write.
func Corpus(ctx context.Context, cfg types.ScanConfig, w io.Writer) (map[string]types.Snippet, Summary, error) {
	files, err := ListFiles(cfg.SourceDir, cfg.TraversalConfig, w)
	if err != nil {
		return nil, Summary{}, err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	if len(files) < 2 {
		workers = 1
	}

	type fileResult struct {
		path        string
		occurrences []types.Occurrence
		skipReason  string
	}

	results := make(chan fileResult)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	go func() {
		for _, path := range files {
			path := path
			g.Go(func() error {
				data, err := os.ReadFile(path)
				if err != nil {
					return send(gctx, results, fileResult{path: path, skipReason: err.Error()})
				}
				if reason := binaryReason(data); reason != "" {
					return send(gctx, results, fileResult{path: path, skipReason: reason})
				}
				occs, err := parse.ParseAll(path, string(data))
				if err != nil {
					return err
				}
				return send(gctx, results, fileResult{path: path, occurrences: occs})
			})
		}
		g.Wait()
		close(results)
	}()

	var summary Summary
	occurrences := make(map[string][]types.Occurrence)

	for r := range results {
		if r.skipReason != "" {
			fmt.Fprintf(w, "warning: skipping %s: %s\n", r.path, r.skipReason)
			summary.Skipped++
			continue
		}
		summary.Files++
		for _, occ := range r.occurrences {
			occurrences[occ.Tag] = append(occurrences[occ.Tag], occ)
		}
	}

	if err := g.Wait(); err != nil {
		return nil, Summary{}, err
	}

	if dup := duplicates(occurrences); dup != nil {
		return nil, Summary{}, dup
	}

	snippets := make(map[string]types.Snippet, len(occurrences))
	for tag, occs := range occurrences {
		occ := occs[0]
		snippets[tag] = types.Snippet{
			Tag:       occ.Tag,
			Active:    occ.Active,
			Body:      occ.Body,
			Comment:   occ.Comment,
			File:      occ.File,
			BeginLine: occ.BeginLine,
			EndLine:   occ.EndLine,
		}
	}
	summary.Snippets = len(snippets)

	return snippets, summary, nil
}

// send delivers a result unless the group context is already cancelled.
func send[T any](ctx context.Context, ch chan<- T, v T) error {
	select {
	case ch <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// duplicates returns a DuplicateTagError covering every tag with more than
// one occurrence, or nil. Tags and locations are sorted so the report is
// stable across runs.
func duplicates(occurrences map[string][]types.Occurrence) error {
	var dups []Duplicate
	for tag, occs := range occurrences {
		if len(occs) < 2 {
			continue
		}
		locations := make([]string, len(occs))
		for i, occ := range occs {
			locations[i] = fmt.Sprintf("%s:%d", occ.File, occ.BeginLine)
		}
		sort.Strings(locations)
		dups = append(dups, Duplicate{Tag: tag, Locations: locations})
	}
	if len(dups) == 0 {
		return nil
	}
	sort.Slice(dups, func(i, j int) bool { return dups[i].Tag < dups[j].Tag })
	return &DuplicateTagError{Duplicates: dups}
}

// ListFiles collects the regular files under root that match the include
// patterns and none of the exclude patterns. Patterns are doublestar globs
// against the slash-separated path relative to root; an empty include list
// matches everything. Unreadable directory entries warn on w and are
// skipped. The result is sorted for deterministic traversal.
func ListFiles(root string, cfg types.TraversalConfig, w io.Writer) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("walking source root %s: %w", root, err)
			}
			fmt.Fprintf(w, "warning: skipping %s: %v\n", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if !matchAny(cfg.Include, rel, true) || matchAny(cfg.Exclude, rel, false) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// matchAny reports whether rel matches any of the patterns. empty controls
// the result for an empty pattern list.
func matchAny(patterns []string, rel string, empty bool) bool {
	if len(patterns) == 0 {
		return empty
	}
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// binaryReason reports why data is not parseable text, or "" for text.
func binaryReason(data []byte) string {
	sample := data
	if len(sample) > binarySniffLen {
		sample = sample[:binarySniffLen]
	}
	if bytes.IndexByte(sample, 0) >= 0 {
		return "binary content"
	}
	if !utf8.Valid(data) {
		return "not valid UTF-8"
	}
	return ""
}
