package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/epistemia/internal/model"
)

type mockAuditor struct {
	failOn string
}

func (m *mockAuditor) AuditFile(ctx context.Context, path string) (*model.Report, error) {
	if path == m.failOn {
		return nil, errors.New("audit error")
	}
	return &model.Report{Subject: "Test Subject", SourceURL: path}, nil
}

func TestBatchProcessor_ProcessPaths(t *testing.T) {
	processor := NewBatchProcessor(&mockAuditor{failOn: "b.json"}, 2, nil)
	paths := []string{"a.json", "b.json", "c.yaml"}

	results := processor.ProcessPaths(context.Background(), paths)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, res := range results {
		if res.Path != paths[i] {
			t.Errorf("result %d: expected path %s, got %s", i, paths[i], res.Path)
		}
	}
	if results[1].Error == nil {
		t.Error("expected error for b.json")
	}
	if results[0].Report == nil || results[2].Report == nil {
		t.Error("expected reports for successful audits")
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockAuditor{}, 2, nil)
	if results := processor.ProcessPaths(context.Background(), nil); len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestReadPathsFromFile(t *testing.T) {
	content := `
# claim documents
docs/a.json
docs/b.yaml

docs/a.json
  docs/c.json  
`
	listFile := filepath.Join(t.TempDir(), "docs.txt")
	if err := os.WriteFile(listFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	paths, err := ReadPathsFromFile(listFile)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	want := []string{"docs/a.json", "docs/b.yaml", "docs/c.json"}
	if len(paths) != len(want) {
		t.Fatalf("expected %d paths, got %d: %v", len(want), len(paths), paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("path %d: expected %s, got %s", i, want[i], paths[i])
		}
	}
}

func TestReadPathsFromFile_Missing(t *testing.T) {
	if _, err := ReadPathsFromFile(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
