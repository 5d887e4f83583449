// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/zconvert/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(types.HistoryConfig{
		Enabled:    true,
		Path:       filepath.Join(t.TempDir(), "db", "history.db"),
		MaxResults: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func record(id string, at time.Time, status types.ConversionStatus, strategy string) types.ConversionRecord {
	return types.ConversionRecord{
		ID:               id,
		CreatedAt:        at,
		OriginalFilename: id + ".docx",
		SourceFormat:     "docx",
		TargetFormat:     "pdf",
		Category:         types.CategoryDocument,
		Strategy:         strategy,
		Status:           status,
		Duration:         1500 * time.Millisecond,
		OutputBytes:      100,
	}
}

func seed(t *testing.T, s *Store) {
	t.Helper()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	recs := []types.ConversionRecord{
		record("a", base, types.ConversionDone, "libreoffice"),
		record("b", base.Add(time.Minute), types.ConversionDone, "pandoc"),
		record("c", base.Add(2*time.Minute), types.ConversionFailed, ""),
	}
	recs[2].Error = "unsupported conversion: pdf to docx"
	recs[2].OutputBytes = 0
	for _, r := range recs {
		if err := s.Record(context.Background(), r); err != nil {
			t.Fatal(err)
		}
	}
}

// --- tests ---

func TestRecordAndRecent(t *testing.T) {
	s := testStore(t)
	seed(t, s)

	got, err := s.Recent(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}
	if got[0].ID != "c" || got[2].ID != "a" {
		t.Errorf("order = %s,%s,%s; want newest first", got[0].ID, got[1].ID, got[2].ID)
	}
	if got[0].Status != types.ConversionFailed || got[0].Error == "" {
		t.Errorf("failed record not round-tripped: %+v", got[0])
	}
	if got[1].Duration != 1500*time.Millisecond {
		t.Errorf("duration = %v, want 1.5s", got[1].Duration)
	}
	if got[1].Category != types.CategoryDocument {
		t.Errorf("category = %q", got[1].Category)
	}
	if !got[2].CreatedAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("created_at = %v", got[2].CreatedAt)
	}
}

func TestRecentDefaultLimit(t *testing.T) {
	s := testStore(t)
	seed(t, s)

	got, err := s.Recent(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("got %d records, want configured default 2", len(got))
	}
}

func TestRecordRejectsDuplicateAndEmptyID(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	r := record("dup", time.Now(), types.ConversionDone, "native")
	if err := s.Record(ctx, r); err != nil {
		t.Fatal(err)
	}
	if err := s.Record(ctx, r); err == nil {
		t.Error("expected error for duplicate id")
	}
	if err := s.Record(ctx, types.ConversionRecord{}); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestSummary(t *testing.T) {
	s := testStore(t)
	seed(t, s)

	sum, err := s.Summary(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sum.Total != 3 {
		t.Errorf("total = %d, want 3", sum.Total)
	}
	if sum.ByStatus["converted"] != 2 || sum.ByStatus["failed"] != 1 {
		t.Errorf("by status = %v", sum.ByStatus)
	}
	if sum.ByStrategy["libreoffice"] != 1 || sum.ByStrategy["pandoc"] != 1 || len(sum.ByStrategy) != 2 {
		t.Errorf("by strategy = %v", sum.ByStrategy)
	}
	if sum.ByCategory["document"] != 3 {
		t.Errorf("by category = %v", sum.ByCategory)
	}
	if sum.OutputBytes != 200 {
		t.Errorf("output bytes = %d, want 200", sum.OutputBytes)
	}
}

func TestSummaryEmpty(t *testing.T) {
	sum, err := testStore(t).Summary(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sum.Total != 0 || len(sum.ByStatus) != 0 {
		t.Errorf("empty summary = %+v", sum)
	}
}

func TestExport(t *testing.T) {
	s := testStore(t)
	seed(t, s)
	ctx := context.Background()

	var jsonBuf bytes.Buffer
	if err := s.Export(ctx, &jsonBuf, FormatJSON); err != nil {
		t.Fatal(err)
	}
	var fromJSON []exportRecord
	if err := json.Unmarshal(jsonBuf.Bytes(), &fromJSON); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(fromJSON) != 3 || fromJSON[0].ID != "c" {
		t.Errorf("json export = %+v", fromJSON)
	}
	if fromJSON[1].DurationSeconds != 1.5 {
		t.Errorf("duration_seconds = %v, want 1.5", fromJSON[1].DurationSeconds)
	}

	var yamlBuf bytes.Buffer
	if err := s.Export(ctx, &yamlBuf, FormatYAML); err != nil {
		t.Fatal(err)
	}
	var fromYAML []exportRecord
	if err := yaml.Unmarshal(yamlBuf.Bytes(), &fromYAML); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if len(fromYAML) != 3 || fromYAML[2].Strategy != "libreoffice" {
		t.Errorf("yaml export = %+v", fromYAML)
	}
	if fromYAML[0].Error != "unsupported conversion: pdf to docx" {
		t.Errorf("yaml error field = %q", fromYAML[0].Error)
	}
	if !strings.HasPrefix(yamlBuf.String(), "- id: c\n") {
		t.Errorf("unexpected yaml layout:\n%s", yamlBuf.String())
	}

	if err := s.Export(ctx, &bytes.Buffer{}, "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
