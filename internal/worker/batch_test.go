package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/ticketdebate/internal/model"
)

type mockDebater struct {
	failOn string
}

func (m *mockDebater) DebateFile(ctx context.Context, path string) (*model.DebateReport, error) {
	time.Sleep(5 * time.Millisecond)
	if m.failOn != "" && strings.Contains(path, m.failOn) {
		return nil, errors.New("debate error")
	}
	state := model.NewDebateState(nil)
	if strings.Contains(path, "concede") {
		state = state.Append(model.Entry{Side: model.SidePro, Content: "fine", Concession: true})
	}
	return &model.DebateReport{ID: path, State: state}, nil
}

func writeList(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tickets.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBatchProcessor_ProcessPaths_PreservesOrder(t *testing.T) {
	processor := NewBatchProcessor(&mockDebater{}, 3)
	paths := []string{"a.jpg", "b.png", "c.txt", "d.jpg", "e.jpg"}

	results := processor.ProcessPaths(context.Background(), paths)

	if len(results) != len(paths) {
		t.Fatalf("expected %d results, got %d", len(paths), len(results))
	}
	for i, res := range results {
		if res.Path != paths[i] {
			t.Errorf("result %d: expected %s, got %s", i, paths[i], res.Path)
		}
		if res.Err() != nil {
			t.Errorf("unexpected error for %s: %v", res.Path, res.Err())
		}
		if res.Report == nil || res.Report.ID != paths[i] {
			t.Errorf("expected report for %s", res.Path)
		}
	}
}

func TestBatchProcessor_ProcessPaths_Error(t *testing.T) {
	processor := NewBatchProcessor(&mockDebater{failOn: "bad"}, 2)

	results := processor.ProcessPaths(context.Background(), []string{"good.jpg", "bad.jpg"})

	if results[0].Error != nil {
		t.Errorf("expected success for good.jpg, got %v", results[0].Error)
	}
	if results[1].Error == nil {
		t.Error("expected error for bad.jpg")
	}
	if results[1].Report != nil {
		t.Error("expected nil report on error")
	}
}

func TestBatchProcessor_ProcessPaths_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockDebater{}, 2)

	results := processor.ProcessPaths(context.Background(), []string{})
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessPaths_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	processor := NewBatchProcessor(&mockDebater{}, 1)
	results := processor.ProcessPaths(ctx, []string{"a.jpg", "b.jpg", "c.jpg"})

	if len(results) != 3 {
		t.Fatalf("expected a result per path, got %d", len(results))
	}
	for _, r := range results {
		if r == nil {
			t.Fatal("expected no nil results")
		}
	}
}

func TestBatchProcessor_OnResult(t *testing.T) {
	processor := NewBatchProcessor(&mockDebater{}, 2)

	var mu sync.Mutex
	seen := map[string]bool{}
	processor.OnResult = func(r *DebateResult) {
		mu.Lock()
		defer mu.Unlock()
		seen[r.Path] = true
	}

	processor.ProcessPaths(context.Background(), []string{"a.jpg", "b.jpg"})

	if !seen["a.jpg"] || !seen["b.jpg"] {
		t.Errorf("expected callback for every path, got %v", seen)
	}
}

type ctxRecorder struct {
	mu   sync.Mutex
	ctxs []context.Context
}

func (r *ctxRecorder) DebateFile(ctx context.Context, path string) (*model.DebateReport, error) {
	r.mu.Lock()
	r.ctxs = append(r.ctxs, ctx)
	r.mu.Unlock()
	return &model.DebateReport{ID: path}, nil
}

func TestBatchProcessor_ProcessPaths_ReleasesJobContext(t *testing.T) {
	rec := &ctxRecorder{}
	bp := NewBatchProcessor(rec, 2)

	results := bp.ProcessPaths(context.Background(), []string{"a.txt", "b.txt", "c.txt"})
	for _, r := range results {
		if r.Error != nil {
			t.Fatalf("unexpected error for %s: %v", r.Path, r.Error)
		}
	}

	if len(rec.ctxs) != 3 {
		t.Fatalf("expected 3 debates, got %d", len(rec.ctxs))
	}
	for i, ctx := range rec.ctxs {
		if ctx.Err() == nil {
			t.Errorf("job context %d still live after ProcessPaths returned", i)
		}
	}
}

func TestSummarize(t *testing.T) {
	processor := NewBatchProcessor(&mockDebater{failOn: "bad"}, 2)
	results := processor.ProcessPaths(context.Background(), []string{"a.jpg", "concede.jpg", "bad.jpg"})

	s := Summarize(results)
	want := BatchSummary{Total: 3, Failed: 1, ProConceded: 1, RoundLimit: 1}
	if s != want {
		t.Errorf("expected %+v, got %+v", want, s)
	}
}

func TestReadPathsFromFile(t *testing.T) {
	path := writeList(t, "tickets/a.jpg\n# comment\ntickets/b.png\n   \ntickets/a.jpg\ntickets/c.txt   ")

	paths, err := ReadPathsFromFile(path)
	if err != nil {
		t.Fatalf("ReadPathsFromFile failed: %v", err)
	}

	expected := []string{"tickets/a.jpg", "tickets/b.png", "tickets/c.txt"}
	if len(paths) != len(expected) {
		t.Fatalf("expected %d paths, got %d", len(expected), len(paths))
	}
	for i := range paths {
		if paths[i] != expected[i] {
			t.Errorf("expected %s at index %d, got %s", expected[i], i, paths[i])
		}
	}
}

func TestReadPathsFromFile_NonExistent(t *testing.T) {
	if _, err := ReadPathsFromFile("non_existent_file.txt"); err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := writeList(t, "a.jpg\nb.jpg\n# comment\n\nc.jpg\n")

	processor := NewBatchProcessor(&mockDebater{}, 2)
	results, err := processor.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessFile_NonExistent(t *testing.T) {
	processor := NewBatchProcessor(&mockDebater{}, 2)

	if _, err := processor.ProcessFile(context.Background(), "no_such_file.txt"); err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}
