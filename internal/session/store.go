// Copyright 2026 The NovaGuard Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package session

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const (
	guardDirName     = ".novaguard"
	sessionsDirName  = "sessions"
	reportsDirName   = "reports"
	streamExt        = ".jsonl"
	activeMarkerName = ".active"
)

// GenerateSessionID produces a fresh session identifier of the form
// 2026-01-10_16-30-45_a1b2c3: a filesystem-safe UTC timestamp plus six
// random hex characters. The suffix keeps IDs unique even for sub-second
// session creation; the timestamp component is informational only.
func GenerateSessionID() string {
	stamp := time.Now().UTC().Format("2006-01-02_15-04-05")

	suffix := make([]byte, 3)
	// rand.Read never fails on supported platforms; a zero suffix still
	// yields a usable (if less unique) ID.
	_, _ = rand.Read(suffix)

	return stamp + "_" + hex.EncodeToString(suffix)
}

// Store persists session record streams for one project directory.
//
// Each hook invocation constructs its own Store; all cross-invocation
// coordination happens through the filesystem (the stream files and the
// active marker), never through in-process state.
type Store struct {
	projectDir string
	logger     *slog.Logger
}

// NewStore creates a store rooted at projectDir.
// A nil logger falls back to slog.Default().
func NewStore(projectDir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{projectDir: projectDir, logger: logger}
}

// ProjectDir returns the project directory this store is bound to.
func (s *Store) ProjectDir() string { return s.projectDir }

// SessionsDir returns the directory holding stream files and the active
// marker, creating it if needed. Creation failures are logged, not fatal:
// downstream operations will fail open on the missing directory.
func (s *Store) SessionsDir() string {
	dir := filepath.Join(s.projectDir, guardDirName, sessionsDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger.Warn("session: create sessions dir", "dir", dir, "error", err)
	}
	return dir
}

// ReportsDir returns the default report output directory, creating it if
// needed.
func (s *Store) ReportsDir() string {
	dir := filepath.Join(s.projectDir, guardDirName, reportsDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger.Warn("session: create reports dir", "dir", dir, "error", err)
	}
	return dir
}

// StreamPath returns the backing file path for a session ID.
func (s *Store) StreamPath(sessionID string) string {
	return filepath.Join(s.SessionsDir(), sessionID+streamExt)
}

func (s *Store) markerPath() string {
	return filepath.Join(s.SessionsDir(), activeMarkerName)
}

// Create initializes a new session stream: writes the init record as the
// first line and sets the session as active for the project. Returns the
// stream path, or "" if the filesystem is unwritable (fail-open).
func (s *Store) Create(sessionID string) string {
	path := s.StreamPath(sessionID)

	projectDir := s.projectDir
	if abs, err := filepath.Abs(projectDir); err == nil {
		projectDir = abs
	}

	init := Record{
		Type:       TypeInit,
		SessionID:  sessionID,
		Timestamp:  FormatTimestamp(time.Now()),
		Platform:   runtime.GOOS,
		ProjectDir: projectDir,
	}

	line, err := json.Marshal(init)
	if err != nil {
		s.logger.Warn("session: marshal init record", "error", err)
		return ""
	}
	if err := os.WriteFile(path, append(line, '\n'), 0o644); err != nil {
		s.logger.Warn("session: write init record", "path", path, "error", err)
		return ""
	}

	if err := os.WriteFile(s.markerPath(), []byte(sessionID), 0o644); err != nil {
		s.logger.Warn("session: write active marker", "error", err)
	}

	s.logger.Debug("session: initialized", "session_id", sessionID)
	return path
}

// Append writes one record as a single JSON line. Records missing a type
// are stored as events. Returns false (never panics) if the stream does
// not exist or the record cannot be serialized.
//
// This runs synchronously inside every tool-call hook, so it stays a
// single open/write/close with no locking or retries.
func (s *Store) Append(sessionID string, rec Record) bool {
	path := s.StreamPath(sessionID)
	if _, err := os.Stat(path); err != nil {
		s.logger.Warn("session: stream not found", "path", path)
		return false
	}

	if rec.Type == "" {
		rec.Type = TypeEvent
	}

	line, err := json.Marshal(rec)
	if err != nil {
		s.logger.Warn("session: marshal record", "error", err)
		return false
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		s.logger.Warn("session: open stream for append", "path", path, "error", err)
		return false
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		s.logger.Warn("session: append record", "path", path, "error", err)
		return false
	}
	return true
}

// ReadAll parses every line of a session stream in order. Lines that fail
// to parse are skipped with a warning so a corrupted middle line never
// prevents reading the rest. A missing stream yields an empty slice.
func (s *Store) ReadAll(sessionID string) []Record {
	path := s.StreamPath(sessionID)

	f, err := os.Open(path)
	if err != nil {
		s.logger.Debug("session: open stream for read", "path", path, "error", err)
		return nil
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			s.logger.Warn("session: skip unparseable line", "line", lineNum, "error", err)
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		s.logger.Warn("session: scan stream", "path", path, "error", err)
	}
	return records
}

// ActiveSession returns the currently active session ID for the project,
// or "" if there is none. A marker pointing at a stream that no longer
// exists is stale: it is deleted and "" is returned (self-healing).
func (s *Store) ActiveSession() string {
	data, err := os.ReadFile(s.markerPath())
	if err != nil {
		return ""
	}

	sessionID := strings.TrimSpace(string(data))
	if sessionID == "" {
		return ""
	}

	if _, err := os.Stat(s.StreamPath(sessionID)); err != nil {
		s.logger.Warn("session: stale active marker", "session_id", sessionID)
		if err := os.Remove(s.markerPath()); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("session: remove stale marker", "error", err)
		}
		return ""
	}
	return sessionID
}

// Finalize removes the active marker if — and only if — it still points at
// sessionID, so finalizing an old session never clobbers a newer one. The
// stream file is left intact for report generation. Returns the stream
// path, or "" if the stream is missing.
func (s *Store) Finalize(sessionID string) string {
	if data, err := os.ReadFile(s.markerPath()); err == nil {
		if strings.TrimSpace(string(data)) == sessionID {
			if err := os.Remove(s.markerPath()); err != nil && !os.IsNotExist(err) {
				s.logger.Warn("session: remove active marker", "error", err)
			}
		}
	}

	path := s.StreamPath(sessionID)
	if _, err := os.Stat(path); err != nil {
		s.logger.Warn("session: stream not found during finalize", "session_id", sessionID)
		return ""
	}

	s.logger.Debug("session: finalized", "session_id", sessionID)
	return path
}

// NextEventID returns max(id)+1 over all event and prompt records in the
// stream, or 1 for an empty or unreadable stream. The full rescan keeps
// IDs unique across writer restarts; under truly concurrent writers two
// processes can race to the same ID, an accepted limitation for a
// single-agent sequential tool-call loop.
func (s *Store) NextEventID(sessionID string) int {
	records := s.ReadAll(sessionID)

	maxID := 0
	for _, rec := range records {
		if rec.Type != TypeEvent && rec.Type != TypeUserPrompt {
			continue
		}
		if rec.ID > maxID {
			maxID = rec.ID
		}
	}
	return maxID + 1
}

// ListSessions returns the IDs of every stored session stream, sorted by
// filename (which sorts chronologically given the ID format).
func (s *Store) ListSessions() []string {
	entries, err := os.ReadDir(s.SessionsDir())
	if err != nil {
		s.logger.Warn("session: read sessions dir", "error", err)
		return nil
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, streamExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, streamExt))
	}
	return ids
}
