// Package eventlog persists session progress as append-only NDJSON files,
// one per session. Appends are line-atomic and reads tolerate garbage, so
// interleaved short-lived processes can share a log without coordination
package eventlog

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/tidwall/gjson"

	"github.com/kode4food/waypost/pkg/api"
	"github.com/kode4food/waypost/pkg/log"
)

type (
	// Store reads and appends the per-session event logs under a root
	// directory. A Store holds no state between calls; every read scans
	// the file from the start
	Store struct {
		root        string
		lockTimeout time.Duration
		lockRetry   time.Duration
	}

	// Option configures a Store
	Option func(*Store)
)

const (
	// DefaultLockTimeout bounds how long an append waits for the advisory
	// lock before falling back to an unlocked write
	DefaultLockTimeout = 2 * time.Second

	// DefaultLockRetry is the poll interval while waiting for the lock
	DefaultLockRetry = 25 * time.Millisecond

	// LogExt is the file extension of session logs under the root
	LogExt = ".jsonl"

	lockExt = ".lock"

	dirPerm  = 0o755
	filePerm = 0o644

	// maxRecordBytes caps a single log line; anything longer is treated
	// as corruption
	maxRecordBytes = 10 * 1024 * 1024
)

var (
	ErrNilEvent       = errors.New("event is nil")
	ErrSessionIDEmpty = errors.New("session ID empty")
	ErrCreateRoot     = errors.New("failed to create log root")
	ErrOpenLog        = errors.New("failed to open session log")
	ErrWriteLog       = errors.New("failed to write session log")
)

// New creates a Store rooted at the given directory
func New(root string, opts ...Option) *Store {
	s := &Store{
		root:        root,
		lockTimeout: DefaultLockTimeout,
		lockRetry:   DefaultLockRetry,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithLockTimeout bounds the advisory lock wait during appends
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.lockTimeout = d
	}
}

// WithLockRetry sets the advisory lock poll interval
func WithLockRetry(d time.Duration) Option {
	return func(s *Store) {
		s.lockRetry = d
	}
}

// Root returns the directory containing the session logs
func (s *Store) Root() string {
	return s.root
}

// SessionPath returns the log file path for a session
func (s *Store) SessionPath(session api.SessionID) string {
	name := string(api.SanitizeID(session))
	if name == "" {
		name = "unnamed"
	}
	return filepath.Join(s.root, name+LogExt)
}

// Append writes a single event record to its session's log. The record and
// its trailing newline go out in one write so that concurrent appenders
// interleave at record granularity
func (s *Store) Append(ctx context.Context, ev *api.Event) error {
	if ev == nil {
		return ErrNilEvent
	}
	if err := ev.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.root, dirPerm); err != nil {
		return fmt.Errorf("%w: %w", ErrCreateRoot, err)
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteLog, err)
	}

	path := s.SessionPath(ev.SessionID)
	release := s.lockSession(ctx, path)
	defer release()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpenLog, err)
	}
	_, werr := f.Write(append(data, '\n'))
	cerr := f.Close()
	if werr != nil {
		return fmt.Errorf("%w: %w", ErrWriteLog, werr)
	}
	if cerr != nil {
		return fmt.Errorf("%w: %w", ErrWriteLog, cerr)
	}
	return nil
}

// ReadSession returns every valid event in a session's log, in file order.
// A missing file is an empty session. Blank, truncated, or otherwise
// unparsable lines are skipped, never fatal; on a scanner failure the
// records read so far are returned alongside the error
func (s *Store) ReadSession(
	ctx context.Context, session api.SessionID,
) ([]*api.Event, error) {
	if session == "" {
		return nil, ErrSessionIDEmpty
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.SessionPath(session))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenLog, err)
	}
	defer func() { _ = f.Close() }()

	var res []*api.Event
	skipped := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordBytes)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		ev := parseRecord(line)
		if ev == nil {
			skipped++
			continue
		}
		res = append(res, ev)
	}
	if skipped > 0 {
		slog.Debug("Skipped unparsable log records",
			log.SessionID(session),
			log.Count(skipped))
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("%w: %w", ErrOpenLog, err)
	}
	return res, nil
}

// ReadSessionFrom reads the valid events beginning at the given byte
// offset, returning them with the offset just past the last complete line
// consumed. A line not yet terminated by a newline is left for the next
// read, so a concurrent writer's in-flight append is never half-parsed.
// Tail readers resume by passing the returned offset back in
func (s *Store) ReadSessionFrom(
	ctx context.Context, session api.SessionID, offset int64,
) ([]*api.Event, int64, error) {
	if session == "" {
		return nil, offset, ErrSessionIDEmpty
	}
	if err := ctx.Err(); err != nil {
		return nil, offset, err
	}

	f, err := os.Open(s.SessionPath(session))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, offset, fmt.Errorf("%w: %w", ErrOpenLog, err)
	}
	defer func() { _ = f.Close() }()

	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			return nil, offset, fmt.Errorf("%w: %w", ErrOpenLog, err)
		}
	}

	var res []*api.Event
	skipped := 0

	r := bufio.NewReader(f)
	for {
		chunk, err := r.ReadBytes('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return res, offset, fmt.Errorf("%w: %w", ErrOpenLog, err)
			}
			break
		}
		offset += int64(len(chunk))
		line := bytes.TrimSpace(chunk)
		if len(line) == 0 {
			continue
		}
		if len(line) > maxRecordBytes {
			skipped++
			continue
		}
		ev := parseRecord(line)
		if ev == nil {
			skipped++
			continue
		}
		res = append(res, ev)
	}
	if skipped > 0 {
		slog.Debug("Skipped unparsable log records",
			log.SessionID(session),
			log.Count(skipped))
	}
	return res, offset, nil
}

// Size returns the current byte length of a session's log, with zero for a
// missing file
func (s *Store) Size(session api.SessionID) int64 {
	info, err := os.Stat(s.SessionPath(session))
	if err != nil {
		return 0
	}
	return info.Size()
}

// Sessions lists the sessions that have a log under the root, sorted by ID
func (s *Store) Sessions(ctx context.Context) ([]api.SessionID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenLog, err)
	}

	var res []api.SessionID
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), LogExt) {
			continue
		}
		res = append(res, api.SessionID(strings.TrimSuffix(e.Name(), LogExt)))
	}
	slices.Sort(res)
	return res, nil
}

// RemoveSession deletes a session's log file. Removing a session that has
// no log is not an error
func (s *Store) RemoveSession(session api.SessionID) error {
	if session == "" {
		return ErrSessionIDEmpty
	}
	err := os.Remove(s.SessionPath(session))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// parseRecord decodes one log line, returning nil for anything replay
// cannot use
func parseRecord(line []byte) *api.Event {
	if !gjson.ValidBytes(line) {
		return nil
	}
	ev := &api.Event{}
	if err := json.Unmarshal(line, ev); err != nil {
		return nil
	}
	if err := ev.Validate(); err != nil {
		return nil
	}
	return ev
}

// lockSession takes the session's advisory file lock, returning its release
// function. The lock is a hardening layer for hosts that interleave many
// concurrent appenders; when it cannot be acquired in time the append
// proceeds unlocked rather than failing
func (s *Store) lockSession(ctx context.Context, path string) func() {
	fl := flock.New(path + lockExt)
	deadline := time.Now().Add(s.lockTimeout)
	for {
		locked, err := fl.TryLock()
		if err == nil && locked {
			return func() { _ = fl.Unlock() }
		}
		if err != nil || !time.Now().Before(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			slog.Debug("Append lock wait canceled", log.Path(path))
			return func() {}
		case <-time.After(s.lockRetry):
		}
	}
	slog.Debug("Appending without advisory lock", log.Path(path))
	return func() {}
}
