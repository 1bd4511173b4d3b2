package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pavelanni/quizboard/internal/model"
)

func newTestResultStore(t *testing.T) *ResultStore {
	t.Helper()
	s, err := NewResultStore(filepath.Join(t.TempDir(), "data", "results.json"))
	if err != nil {
		t.Fatalf("NewResultStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func readRaw(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestReadAllTolerant(t *testing.T) {
	tests := []struct {
		name      string
		content   *string
		wantReset bool
	}{
		{"missing file", nil, false},
		{"empty file", ptr(""), false},
		{"whitespace only", ptr("  \n\t"), false},
		{"malformed JSON", ptr("[{\"name\": "), true},
		{"object instead of array", ptr(`{"name": "x"}`), true},
		{"null", ptr("null"), true},
		{"number", ptr("42"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestResultStore(t)
			if tt.content != nil {
				if err := os.WriteFile(s.Path(), []byte(*tt.content), 0o644); err != nil {
					t.Fatalf("write fixture: %v", err)
				}
			}

			got := s.ReadAll()
			if got == nil || len(got) != 0 {
				t.Fatalf("ReadAll() = %v, want empty non-nil slice", got)
			}

			_, statErr := os.Stat(s.Path())
			switch {
			case tt.content == nil:
				if !errors.Is(statErr, os.ErrNotExist) {
					t.Errorf("missing file should not be created on read, stat err = %v", statErr)
				}
			case tt.wantReset:
				if raw := readRaw(t, s.Path()); raw != "[]" {
					t.Errorf("file should be reset to [], got %q", raw)
				}
			}
		})
	}
}

func TestReadAllDropsUnreadableElements(t *testing.T) {
	s := newTestResultStore(t)
	content := `[{"name": "ana", "score": 2}, {"name": 7}, {"name": "bia", "score": 1}]`
	if err := os.WriteFile(s.Path(), []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	got := s.ReadAll()
	if len(got) != 2 {
		t.Fatalf("expected 2 readable attempts, got %d", len(got))
	}
	if got[0].Name != "ana" || got[1].Name != "bia" {
		t.Errorf("unexpected attempts: %+v", got)
	}
}

func TestWriteAllRoundTrip(t *testing.T) {
	s := newTestResultStore(t)
	in := []model.Attempt{
		{ID: "a1", Name: "ana", TotalQuestions: 3, Score: 2, Status: model.StatusFinished,
			PerSubjectCorrect: map[string]int{"Math": 2}},
	}
	if err := s.WriteAll(in); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	got := s.ReadAll()
	if len(got) != 1 || got[0].ID != "a1" || got[0].Score != 2 || got[0].PerSubjectCorrect["Math"] != 2 {
		t.Errorf("ReadAll() = %+v", got)
	}

	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(s.Path()), "*.tmp"))
	if len(matches) != 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
}

func TestQueuedWritesApplyInOrder(t *testing.T) {
	s := newTestResultStore(t)

	const n = 40
	var dones []chan error
	for i := range n {
		done, err := s.submit(writeRequest{data: []model.Attempt{{Name: fmt.Sprintf("w%d", i)}}})
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		dones = append(dones, done)
	}
	for i, done := range dones {
		if err := <-done; err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	got := s.ReadAll()
	if len(got) != 1 || got[0].Name != fmt.Sprintf("w%d", n-1) {
		t.Errorf("final content = %+v, want the last enqueued payload", got)
	}
}

func TestConcurrentWritesNeverCorrupt(t *testing.T) {
	s := newTestResultStore(t)
	if err := s.WriteAll(nil); err != nil {
		t.Fatalf("initial WriteAll: %v", err)
	}

	stop := make(chan struct{})
	var readerErr error
	var readerWG sync.WaitGroup
	readerWG.Add(1)
	go func() {
		defer readerWG.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			data, err := os.ReadFile(s.Path())
			if err != nil {
				readerErr = err
				return
			}
			var attempts []model.Attempt
			if err := json.Unmarshal(data, &attempts); err != nil {
				readerErr = fmt.Errorf("observed corrupt content: %w", err)
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payload := make([]model.Attempt, i+1)
			for j := range payload {
				payload[j] = model.Attempt{Name: fmt.Sprintf("writer-%d", i)}
			}
			if err := s.WriteAll(payload); err != nil {
				t.Errorf("WriteAll %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()
	close(stop)
	readerWG.Wait()

	if readerErr != nil {
		t.Fatal(readerErr)
	}
	got := s.ReadAll()
	if len(got) == 0 {
		t.Fatal("expected some payload to be stored")
	}
	for _, a := range got {
		if a.Name != got[0].Name {
			t.Fatalf("final content mixes payloads: %q and %q", got[0].Name, a.Name)
		}
	}
}

func TestUpdateDoesNotLoseConcurrentChanges(t *testing.T) {
	s := newTestResultStore(t)

	const n = 25
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.Update(func(cur []model.Attempt) ([]model.Attempt, error) {
				return append(cur, model.Attempt{Name: fmt.Sprintf("u%d", i)}), nil
			})
			if err != nil {
				t.Errorf("Update %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	if got := len(s.ReadAll()); got != n {
		t.Errorf("expected %d attempts, got %d", n, got)
	}
}

func TestUpdateErrorSkipsWrite(t *testing.T) {
	s := newTestResultStore(t)
	if err := s.WriteAll([]model.Attempt{{Name: "keep"}}); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	sentinel := errors.New("nope")
	err := s.Update(func(cur []model.Attempt) ([]model.Attempt, error) {
		return nil, sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("Update error = %v, want sentinel", err)
	}
	if got := s.ReadAll(); len(got) != 1 || got[0].Name != "keep" {
		t.Errorf("content changed after failed update: %+v", got)
	}
}

func TestFailedWriteDoesNotBlockQueue(t *testing.T) {
	s := newTestResultStore(t)

	// A directory at the target path makes the rename fail.
	if err := os.Mkdir(s.Path(), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := s.WriteAll([]model.Attempt{{Name: "first"}}); err == nil {
		t.Fatal("expected write onto a directory to fail")
	}

	if err := os.Remove(s.Path()); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.WriteAll([]model.Attempt{{Name: "second"}}); err != nil {
		t.Fatalf("WriteAll after failure: %v", err)
	}
	if got := s.ReadAll(); len(got) != 1 || got[0].Name != "second" {
		t.Errorf("ReadAll() = %+v", got)
	}
}

func TestClearGoesThroughQueue(t *testing.T) {
	s := newTestResultStore(t)
	if err := s.WriteAll([]model.Attempt{{Name: "a"}, {Name: "b"}}); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if raw := readRaw(t, s.Path()); raw != "[]" {
		t.Errorf("file after Clear = %q, want []", raw)
	}
}

func TestWriteAfterClose(t *testing.T) {
	s := newTestResultStore(t)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.WriteAll(nil); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("WriteAll after Close = %v, want ErrStoreClosed", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestResolveAndLocate(t *testing.T) {
	attempts := []model.Attempt{{ID: "aaa"}, {ID: "bbb"}, {ID: "ccc"}}
	idx := func(i int) *int { return &i }

	resolveTests := []struct {
		ref  string
		want int
	}{
		{"0", 0},
		{"2", 2},
		{"3", -1},
		{"-1", -1},
		{"bbb", 1},
		{"zzz", -1},
		{"", -1},
	}
	for _, tt := range resolveTests {
		if got := Resolve(attempts, tt.ref); got != tt.want {
			t.Errorf("Resolve(%q) = %d, want %d", tt.ref, got, tt.want)
		}
	}

	locateTests := []struct {
		name  string
		id    string
		index *int
		want  int
	}{
		{"id wins over index", "ccc", idx(0), 2},
		{"unknown id ignores index", "zzz", idx(1), -1},
		{"index without id", "", idx(1), 1},
		{"index out of range", "", idx(5), -1},
		{"nothing given", "", nil, -1},
	}
	for _, tt := range locateTests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Locate(attempts, tt.id, tt.index); got != tt.want {
				t.Errorf("Locate() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGet(t *testing.T) {
	s := newTestResultStore(t)
	if err := s.WriteAll([]model.Attempt{{ID: "x", Name: "ana"}, {ID: "y", Name: "bia"}}); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	a, pos, err := s.Get("y")
	if err != nil || pos != 1 || a.Name != "bia" {
		t.Errorf("Get(y) = (%+v, %d, %v)", a, pos, err)
	}
	if _, _, err := s.Get("5"); !errors.Is(err, ErrAttemptNotFound) {
		t.Errorf("Get(5) error = %v, want ErrAttemptNotFound", err)
	}
}

func ptr(s string) *string { return &s }
