// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package run composes the pipeline: source extraction, LaTeX reference
// scanning, and target reconciliation. The scan phases are read-only and
// the reconciliation plan is computed fully in memory, so a fatal parse,
// duplicate, or collision error leaves the target directory untouched.
package run

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/snipper/internal/extract"
	"github.com/pdiddy/snipper/internal/latex"
	"github.com/pdiddy/snipper/internal/reconcile"
	"github.com/pdiddy/snipper/pkg/types"
)

// SnippetReport is one row of the run report: a snippet with its
// provenance flags and planned (or applied) action.
type SnippetReport struct {
	Tag     string `json:"tag" yaml:"tag"`
	Active  bool   `json:"active" yaml:"active"`
	Comment string `json:"comment,omitempty" yaml:"comment,omitempty"`

	// File and Line locate the begin marker in the source corpus.
	File string `json:"file" yaml:"file"`
	Line int    `json:"line" yaml:"line"`

	// Target is the derived target file name, Action the reconciliation
	// decision for it.
	Target string           `json:"target" yaml:"target"`
	Action reconcile.Action `json:"action" yaml:"action"`

	// Referenced reports whether a LaTeX inclusion directive names this
	// snippet; Extracted whether its target file existed before the run.
	Referenced bool `json:"referenced" yaml:"referenced"`
	Extracted  bool `json:"extracted" yaml:"extracted"`

	// Body is the snippet content, carried for the catalog and report
	// export.
	Body string `json:"body,omitempty" yaml:"body,omitempty"`
}

// Summary aggregates the counts of one pass. For a scan the write counts
// are the planned actions; for an extract they were performed.
type Summary struct {
	Files        int `json:"files" yaml:"files"`
	SkippedFiles int `json:"skipped_files" yaml:"skipped_files"`
	Snippets     int `json:"snippets" yaml:"snippets"`
	Written      int `json:"written" yaml:"written"`
	Captured     int `json:"captured" yaml:"captured"`
	Preserved    int `json:"preserved" yaml:"preserved"`
	Unresolved   int `json:"unresolved" yaml:"unresolved"`
	Orphans      int `json:"orphans" yaml:"orphans"`
}

// HasWarnings reports whether the pass produced advisory diagnostics.
func (s Summary) HasWarnings() bool {
	return s.SkippedFiles > 0 || s.Unresolved > 0 || s.Orphans > 0
}

// Report is the outcome of one scan or extract pass.
type Report struct {
	// Mode is "scan" for the read-only pass or "extract" when the plan
	// was applied.
	Mode string `json:"mode" yaml:"mode"`

	// Snippets lists every snippet sorted by tag.
	Snippets []SnippetReport `json:"snippets" yaml:"snippets"`

	// Unresolved lists identifiers referenced from LaTeX with no
	// matching snippet; Orphans lists target files no snippet accounts
	// for. Both are advisory.
	Unresolved []string `json:"unresolved,omitempty" yaml:"unresolved,omitempty"`
	Orphans    []string `json:"orphans,omitempty" yaml:"orphans,omitempty"`

	Summary Summary `json:"summary" yaml:"summary"`
}

// Scan performs the read-only pass: extract the snippet map, scan the
// LaTeX tree for references, and plan the reconciliation. Nothing under
// the target directory is modified. Warnings go to w.
func Scan(ctx context.Context, cfg types.ScanConfig, w io.Writer) (*Report, error) {
	report, _, err := plan(ctx, cfg, w)
	return report, err
}

// Extract performs Scan and then applies the plan to the target
// directory. Per-snippet outcome lines go to w.
func Extract(ctx context.Context, cfg types.ScanConfig, w io.Writer) (*Report, error) {
	report, steps, err := plan(ctx, cfg, w)
	if err != nil {
		return nil, err
	}
	report.Mode = "extract"

	if _, err := reconcile.Apply(cfg.TargetDir, steps, w); err != nil {
		return nil, err
	}
	return report, nil
}

func plan(ctx context.Context, cfg types.ScanConfig, w io.Writer) (*Report, []reconcile.Step, error) {
	snippets, exSummary, err := extract.Corpus(ctx, cfg, w)
	if err != nil {
		return nil, nil, err
	}

	refs := make(map[string][]types.Reference)
	if cfg.LatexDir != "" {
		refs, err = latex.References(cfg.LatexDir, w)
		if err != nil {
			return nil, nil, err
		}
	}

	steps, err := reconcile.Plan(snippets, cfg.TargetDir, nil)
	if err != nil {
		return nil, nil, err
	}

	orphans, err := reconcile.Orphans(cfg.TargetDir, steps)
	if err != nil {
		return nil, nil, err
	}

	report := &Report{
		Mode:    "scan",
		Orphans: orphans,
		Summary: Summary{
			Files:        exSummary.Files,
			SkippedFiles: exSummary.Skipped,
			Snippets:     exSummary.Snippets,
			Orphans:      len(orphans),
		},
	}

	// A document references a snippet through its target file stem, which
	// is the sanitized tag.
	stems := make(map[string]bool, len(steps))
	for _, step := range steps {
		stem := strings.TrimSuffix(step.Name, filepath.Ext(step.Name))
		stems[stem] = true

		row := SnippetReport{
			Tag:        step.Snippet.Tag,
			Active:     step.Snippet.Active,
			Comment:    step.Snippet.Comment,
			File:       step.Snippet.File,
			Line:       step.Snippet.BeginLine,
			Target:     step.Name,
			Action:     step.Action,
			Referenced: len(refs[stem]) > 0 || len(refs[step.Snippet.Tag]) > 0,
			Extracted:  step.Exists,
			Body:       step.Snippet.Body,
		}
		report.Snippets = append(report.Snippets, row)

		switch step.Action {
		case reconcile.ActionWrite:
			report.Summary.Written++
		case reconcile.ActionCapture:
			report.Summary.Captured++
		case reconcile.ActionPreserve:
			report.Summary.Preserved++
		}
	}

	for stem, list := range refs {
		if stems[stem] {
			continue
		}
		first := list[0]
		fmt.Fprintf(w, "warning: %s:%d: reference %q matches no snippet\n", first.File, first.Line, stem)
		report.Unresolved = append(report.Unresolved, stem)
	}
	sort.Strings(report.Unresolved)
	report.Summary.Unresolved = len(report.Unresolved)

	return report, steps, nil
}

// WriteTable renders the name-sorted snippet table with aligned columns.
func (r *Report) WriteTable(w io.Writer) {
	nameWidth := len("Snippet")
	sourceWidth := len("Source")
	for _, row := range r.Snippets {
		if len(row.Tag) > nameWidth {
			nameWidth = len(row.Tag)
		}
		if base := filepath.Base(row.File); len(base) > sourceWidth {
			sourceWidth = len(base)
		}
	}

	fmt.Fprintf(w, "%-4s  %-*s  %-8s  %-*s  %-4s  %s\n",
		"#", nameWidth, "Snippet", "State", sourceWidth, "Source", "Ref", "Action")
	fmt.Fprintln(w, strings.Repeat("-", 4+nameWidth+8+sourceWidth+4+len("Action")+10))

	for i, row := range r.Snippets {
		state := "active"
		if !row.Active {
			state = "frozen"
		}
		ref := "-"
		if row.Referenced {
			ref = "yes"
		}
		fmt.Fprintf(w, "%-4d  %-*s  %-8s  %-*s  %-4s  %s\n",
			i+1, nameWidth, row.Tag, state, sourceWidth, filepath.Base(row.File), ref, row.Action)
	}

	if len(r.Unresolved) > 0 {
		fmt.Fprintf(w, "\nreferenced but missing: %s\n", strings.Join(r.Unresolved, ", "))
	}
	if len(r.Orphans) > 0 {
		fmt.Fprintf(w, "orphaned target files: %s\n", strings.Join(r.Orphans, ", "))
	}

	fmt.Fprintln(w)
	r.WriteSummary(w)
}

// WriteSummary prints the one-line count summary.
func (r *Report) WriteSummary(w io.Writer) {
	fmt.Fprintf(w, "%d snippets: %d written, %d captured, %d preserved (%d files scanned, %d skipped)\n",
		r.Summary.Snippets, r.Summary.Written, r.Summary.Captured, r.Summary.Preserved,
		r.Summary.Files, r.Summary.SkippedFiles)
}

// WriteYAML saves the report to path.
func (r *Report) WriteYAML(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
