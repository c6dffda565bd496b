// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reconcile decides, per snippet, how the target directory is
// brought up to date: active snippets always track the live source,
// inactive snippets are captured once and then preserved even when the
// disabled source block drifts. The target directory itself is the only
// memory of which inactive snippets have been captured; it is consulted
// through an injected stat function so the policy stays pure.
package reconcile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/snipper/pkg/types"
)

// genericExt is the target extension when none can be inferred from the
// snippet's source file.
const genericExt = ".txt"

// Action is the write decision for one snippet.
type Action string

const (
	// ActionWrite unconditionally (re)writes the target file of an
	// active snippet.
	ActionWrite Action = "write"

	// ActionCapture writes an inactive snippet's target file once,
	// because none exists yet.
	ActionCapture Action = "capture"

	// ActionPreserve leaves an inactive snippet's existing target file
	// untouched, whatever its content.
	ActionPreserve Action = "preserve"
)

// PathCollisionError reports distinct tags whose sanitized names resolve
// to the same target file. Writing either would be ambiguous, so planning
// fails before anything is written.
type PathCollisionError struct {
	Collisions []Collision
}

// Collision is one contested target name with the tags claiming it.
type Collision struct {
	Name string
	Tags []string // sorted
}

func (e *PathCollisionError) Error() string {
	var b strings.Builder
	b.WriteString("target path collisions:")
	for _, c := range e.Collisions {
		fmt.Fprintf(&b, "\n  %q claimed by tags %s", c.Name, strings.Join(c.Tags, ", "))
	}
	return b.String()
}

// Step is one planned reconciliation action for one snippet.
type Step struct {
	Snippet types.Snippet

	// Name is the derived target file name, Path the name joined with
	// the target root.
	Name string
	Path string

	Action Action

	// Exists records whether the target file was present at plan time.
	Exists bool
}

// StatFunc reports whether a target path exists.
type StatFunc func(path string) (bool, error)

// OSStat is the StatFunc backed by os.Stat.
func OSStat(path string) (bool, error) {
	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// TargetName derives the file name for a snippet: the tag sanitized for
// the file system (spaces preserved) plus the extension of the snippet's
// source file, falling back to a generic one. The mapping is deterministic
// so the write-if-absent policy stays meaningful across runs.
func TargetName(s types.Snippet) string {
	ext := filepath.Ext(s.File)
	if ext == "" {
		ext = genericExt
	}
	return sanitizeTag(s.Tag) + ext
}

// sanitizeTag replaces characters unsafe for file systems with
// underscores and trims surrounding whitespace.
func sanitizeTag(tag string) string {
	var b strings.Builder
	for _, r := range tag {
		if r < 0x20 || strings.ContainsRune(`/\:*?"<>|`, r) {
			b.WriteRune('_')
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// Plan computes the action for every snippet without touching the target.
// Steps come back sorted by tag. A path collision between distinct tags is
// fatal; a failing stat call is fatal too, since the policy cannot be
// decided without knowing whether the target exists.
func Plan(snippets map[string]types.Snippet, targetDir string, stat StatFunc) ([]Step, error) {
	if stat == nil {
		stat = OSStat
	}

	tags := make([]string, 0, len(snippets))
	for tag := range snippets {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	claims := make(map[string][]string)
	steps := make([]Step, 0, len(snippets))

	for _, tag := range tags {
		s := snippets[tag]
		name := TargetName(s)
		claims[name] = append(claims[name], tag)

		path := filepath.Join(targetDir, name)
		exists, err := stat(path)
		if err != nil {
			return nil, fmt.Errorf("checking target %s: %w", path, err)
		}

		action := ActionWrite
		if !s.Active {
			if exists {
				action = ActionPreserve
			} else {
				action = ActionCapture
			}
		}

		steps = append(steps, Step{
			Snippet: s,
			Name:    name,
			Path:    path,
			Action:  action,
			Exists:  exists,
		})
	}

	if err := collisions(claims); err != nil {
		return nil, err
	}
	return steps, nil
}

// collisions returns a PathCollisionError covering every contested name,
// or nil.
func collisions(claims map[string][]string) error {
	var cols []Collision
	for name, tags := range claims {
		if len(tags) < 2 {
			continue
		}
		sort.Strings(tags)
		cols = append(cols, Collision{Name: name, Tags: tags})
	}
	if len(cols) == 0 {
		return nil
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].Name < cols[j].Name })
	return &PathCollisionError{Collisions: cols}
}

// Summary holds counts from one apply pass.
type Summary struct {
	Written   int
	Captured  int
	Preserved int
}

// Total returns the number of snippets reconciled.
func (s Summary) Total() int {
	return s.Written + s.Captured + s.Preserved
}

// Apply executes a plan under the target root, creating it if needed, and
// prints a per-snippet outcome line to w. Stale target files for snippets
// no longer in source are never deleted.
func Apply(targetDir string, steps []Step, w io.Writer) (Summary, error) {
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("creating target directory: %w", err)
	}

	var summary Summary
	for _, step := range steps {
		switch step.Action {
		case ActionWrite:
			if err := os.WriteFile(step.Path, []byte(step.Snippet.Body), 0o644); err != nil {
				return summary, fmt.Errorf("writing %s: %w", step.Path, err)
			}
			fmt.Fprintf(w, "written   %s\n", step.Name)
			summary.Written++
		case ActionCapture:
			if err := os.WriteFile(step.Path, []byte(step.Snippet.Body), 0o644); err != nil {
				return summary, fmt.Errorf("writing %s: %w", step.Path, err)
			}
			fmt.Fprintf(w, "captured  %s\n", step.Name)
			summary.Captured++
		case ActionPreserve:
			fmt.Fprintf(w, "preserved %s\n", step.Name)
			summary.Preserved++
		}
	}
	return summary, nil
}

// Orphans lists the regular files in targetDir no planned step accounts
// for. Orphans are reported, never removed. A missing target directory has
// no orphans.
func Orphans(targetDir string, steps []Step) ([]string, error) {
	entries, err := os.ReadDir(targetDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading target directory %s: %w", targetDir, err)
	}

	planned := make(map[string]bool, len(steps))
	for _, step := range steps {
		planned[step.Name] = true
	}

	var orphans []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || planned[entry.Name()] {
			continue
		}
		orphans = append(orphans, entry.Name())
	}
	sort.Strings(orphans)
	return orphans, nil
}
