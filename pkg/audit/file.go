package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

const fileLogPrefix = "audit:file"

const maxLineBytes = 4 << 20

// FileSink appends entries as NDJSON lines. Each entry is a single write made
// under the sink's mutex, so concurrent dispatches never interleave lines.
type FileSink struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// NewFileSink opens path for appending, creating it and its parent directory as needed.
func NewFileSink(path string) (*FileSink, error) {
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%s - create audit directory %s: %w", fileLogPrefix, dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%s - open audit log %s: %w", fileLogPrefix, path, err)
	}
	slog.Info(fmt.Sprintf("%s - Audit log opened", fileLogPrefix), "path", path)
	return &FileSink{path: path, f: f}, nil
}

// Path returns the file being appended to.
func (s *FileSink) Path() string { return s.path }

// Append writes e as one JSON line. ctx is checked again once the lock is held,
// so an append that waited past its deadline writes nothing.
func (s *FileSink) Append(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("%s - encode entry %s: %w", fileLogPrefix, e.ID, err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.f == nil {
		return fmt.Errorf("%s - audit log %s is closed", fileLogPrefix, s.path)
	}
	if _, err := s.f.Write(line); err != nil {
		return fmt.Errorf("%s - write entry %s: %w", fileLogPrefix, e.ID, err)
	}
	return nil
}

// Close closes the underlying file. Further appends fail.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

// ReadFile reads every entry from an NDJSON trail. Blank lines are skipped;
// a missing file yields no entries.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s - open %s: %w", fileLogPrefix, path, err)
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return entries, fmt.Errorf("%s - %s line %d: %w", fileLogPrefix, path, lineNo, err)
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return entries, fmt.Errorf("%s - read %s: %w", fileLogPrefix, path, err)
	}
	return entries, nil
}

// Tail returns the last n entries, or all of them when n <= 0 or n exceeds the count.
func Tail(entries []Entry, n int) []Entry {
	if n <= 0 || n >= len(entries) {
		return entries
	}
	return entries[len(entries)-n:]
}
