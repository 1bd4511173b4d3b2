package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/pavelanni/quizboard/internal/model"
)

var (
	// ErrAttemptNotFound is returned when a reference matches no stored attempt.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrAttemptFinished is returned when a partial answer targets an
	// attempt that has already been finished.
	ErrAttemptFinished = errors.New("attempt already finished")
	// ErrStoreClosed is returned for writes submitted after Close.
	ErrStoreClosed = errors.New("result store closed")
)

// queueSize bounds how many writes may wait before submitters block.
const queueSize = 64

type writeRequest struct {
	// update, when set, receives the current collection and returns the
	// replacement. Otherwise data replaces the collection.
	update func([]model.Attempt) ([]model.Attempt, error)
	data   []model.Attempt
	done   chan error
}

// ResultStore persists the attempts collection as a JSON array. All writes
// go through a single writer goroutine in FIFO order, and each one replaces
// the file atomically.
type ResultStore struct {
	path  string
	queue chan writeRequest
	quit  chan struct{}
	wg    sync.WaitGroup

	mu     sync.RWMutex // guards closed against in-flight submits
	closed bool
}

// NewResultStore opens the attempts file at path and starts its writer.
// The file itself is created on the first write.
func NewResultStore(path string) (*ResultStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &ResultStore{
		path:  path,
		queue: make(chan writeRequest, queueSize),
		quit:  make(chan struct{}),
	}
	s.wg.Add(1)
	go s.run()
	return s, nil
}

// Path returns the backing file path.
func (s *ResultStore) Path() string {
	return s.path
}

// Close stops accepting writes, drains the queue and waits for the writer.
func (s *ResultStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.quit)
	s.mu.Unlock()
	s.wg.Wait()
	return nil
}

// ReadAll returns every stored attempt. It never fails: a missing file reads
// as empty, and malformed content reads as empty and is reset to [].
func (s *ResultStore) ReadAll() []model.Attempt {
	attempts, corrupt, err := s.load()
	if err != nil {
		slog.Error("failed to read results", "path", s.path, "error", err)
		return []model.Attempt{}
	}
	if corrupt {
		// The writer re-reads the file, so a write that landed in between is kept.
		if err := s.Update(func(cur []model.Attempt) ([]model.Attempt, error) { return cur, nil }); err != nil {
			slog.Error("failed to reset results file", "path", s.path, "error", err)
		}
	}
	return attempts
}

// WriteAll replaces the whole collection. It blocks until this write has
// been applied or has failed.
func (s *ResultStore) WriteAll(attempts []model.Attempt) error {
	return s.wait(s.submit(writeRequest{data: attempts}))
}

// Update runs fn on the writer goroutine with the current collection and
// stores what it returns. If fn returns an error nothing is written.
func (s *ResultStore) Update(fn func([]model.Attempt) ([]model.Attempt, error)) error {
	return s.wait(s.submit(writeRequest{update: fn}))
}

// Clear empties the collection through the same write queue.
func (s *ResultStore) Clear() error {
	if err := s.WriteAll([]model.Attempt{}); err != nil {
		return err
	}
	slog.Info("cleared results", "path", s.path)
	return nil
}

// Get resolves ref (a position or an attempt id) and returns the attempt
// with its position.
func (s *ResultStore) Get(ref string) (model.Attempt, int, error) {
	attempts := s.ReadAll()
	pos := Resolve(attempts, ref)
	if pos < 0 {
		return model.Attempt{}, -1, ErrAttemptNotFound
	}
	return attempts[pos], pos, nil
}

// Resolve returns the position ref points at, or -1. A ref that parses as an
// integer is a position; anything else is matched against attempt ids.
func Resolve(attempts []model.Attempt, ref string) int {
	if n, err := strconv.Atoi(ref); err == nil {
		if n >= 0 && n < len(attempts) {
			return n
		}
		return -1
	}
	return indexOfID(attempts, ref)
}

// Locate finds an attempt by id, or by position when no id is given. An id
// that is no longer stored never falls back to the position, which may now
// hold someone else's attempt. It returns -1 when nothing matches.
func Locate(attempts []model.Attempt, id string, index *int) int {
	if id != "" {
		return indexOfID(attempts, id)
	}
	if index != nil && *index >= 0 && *index < len(attempts) {
		return *index
	}
	return -1
}

func indexOfID(attempts []model.Attempt, id string) int {
	if id == "" {
		return -1
	}
	for i, a := range attempts {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func (s *ResultStore) submit(req writeRequest) (chan error, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	req.done = make(chan error, 1)
	s.queue <- req
	return req.done, nil
}

func (s *ResultStore) wait(done chan error, err error) error {
	if err != nil {
		return err
	}
	return <-done
}

func (s *ResultStore) run() {
	defer s.wg.Done()
	for {
		select {
		case req := <-s.queue:
			req.done <- s.apply(req)
		case <-s.quit:
			for {
				select {
				case req := <-s.queue:
					req.done <- s.apply(req)
				default:
					return
				}
			}
		}
	}
}

func (s *ResultStore) apply(req writeRequest) error {
	data := req.data
	if req.update != nil {
		current, _, err := s.load()
		if err != nil {
			return fmt.Errorf("read results: %w", err)
		}
		data, err = req.update(current)
		if err != nil {
			return err
		}
	}
	if data == nil {
		data = []model.Attempt{}
	}
	if err := writeJSONAtomic(s.path, data); err != nil {
		slog.Error("failed to save results", "path", s.path, "error", err)
		return fmt.Errorf("save results: %w", err)
	}
	return nil
}

// load reads the file tolerantly. corrupt reports content that is not a JSON
// array; elements that fail to decode are dropped and logged.
func (s *ResultStore) load() (attempts []model.Attempt, corrupt bool, err error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []model.Attempt{}, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return []model.Attempt{}, false, nil
	}
	if raw[0] != '[' {
		slog.Warn("results file is not a JSON array, resetting", "path", s.path)
		return []model.Attempt{}, true, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		slog.Warn("results file is malformed, resetting", "path", s.path, "error", err)
		return []model.Attempt{}, true, nil
	}

	attempts = make([]model.Attempt, 0, len(elems))
	for i, e := range elems {
		var a model.Attempt
		if err := json.Unmarshal(e, &a); err != nil {
			slog.Warn("dropping unreadable attempt", "path", s.path, "position", i, "error", err)
			continue
		}
		attempts = append(attempts, a)
	}
	return attempts, false, nil
}
