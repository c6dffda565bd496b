// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/snipper/internal/run"
	"github.com/pdiddy/snipper/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.CatalogConfig{CatalogDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testReport() *run.Report {
	return &run.Report{
		Mode: "scan",
		Snippets: []run.SnippetReport{
			{
				Tag: "Binary Search", Active: true, File: "src/search.cpp", Line: 10,
				Target: "Binary Search.cpp", Action: "write", Referenced: true,
				Body: "int lo = 0, hi = n;\n",
			},
			{
				Tag: "Heap Sort", Active: false, File: "src/sort.cpp", Line: 3,
				Target: "Heap Sort.cpp", Action: "preserve", Extracted: true,
				Body: "sift_down(heap, 0);\n",
			},
		},
		Summary: run.Summary{Snippets: 2, Written: 1, Preserved: 1},
	}
}

func TestStoreReportAndList(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.StoreReport(ctx, testReport()))

	entries, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "Binary Search", entries[0].Tag)
	assert.True(t, entries[0].Active)
	assert.Equal(t, "write", entries[0].Action)
	assert.NotEmpty(t, entries[0].FirstSeen)

	assert.Equal(t, "Heap Sort", entries[1].Tag)
	assert.False(t, entries[1].Active)
	assert.True(t, entries[1].Extracted)
}

func TestStoreReportUpsertKeepsFirstSeen(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.StoreReport(ctx, testReport()))
	before, err := s.List(ctx)
	require.NoError(t, err)

	// Second run with a changed body updates in place.
	report := testReport()
	report.Snippets[0].Body = "int lo = 1;\n"
	require.NoError(t, s.StoreReport(ctx, report))

	after, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.Equal(t, "int lo = 1;\n", after[0].Body)
	assert.Equal(t, before[0].FirstSeen, after[0].FirstSeen)
}

func TestFind(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.StoreReport(ctx, testReport()))

	entries, err := s.Find(ctx, "sift_down", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Heap Sort", entries[0].Tag)

	// Tags are searchable too.
	entries, err = s.Find(ctx, "Binary", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Binary Search", entries[0].Tag)
}

func TestFindRequiresQuery(t *testing.T) {
	s := testStore(t)
	_, err := s.Find(context.Background(), "  ", 0)
	require.Error(t, err)
}

func TestExport(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.StoreReport(ctx, testReport()))

	yamlPath, err := s.ExportYAML(ctx)
	require.NoError(t, err)
	data, err := os.ReadFile(yamlPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "tag: Binary Search")

	jsonPath, err := s.ExportJSON(ctx)
	require.NoError(t, err)
	assert.Equal(t, "export.json", filepath.Base(jsonPath))

	raw, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var entries []Entry
	require.NoError(t, json.Unmarshal(raw, &entries))
	assert.Len(t, entries, 2)
}
