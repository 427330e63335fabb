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

package watch

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fr0gger/nova-claude-code-protector/internal/session"
	"github.com/fr0gger/nova-claude-code-protector/internal/verdict"
)

func writeLines(t *testing.T, path string, records ...session.Record) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	require.NoError(t, err)
	defer f.Close()
	for _, rec := range records {
		line, err := json.Marshal(rec)
		require.NoError(t, err)
		_, err = f.Write(append(line, '\n'))
		require.NoError(t, err)
	}
}

func TestReadRecordsFromOffset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.jsonl")
	writeLines(t, path,
		session.Record{Type: session.TypeInit, SessionID: "s"},
		session.Record{Type: session.TypeEvent, ID: 1, ToolName: "Read"},
	)

	records, offset, err := readRecordsFromOffset(path, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Greater(t, offset, int64(0))

	// No new data: same offset, no records.
	records, offset2, err := readRecordsFromOffset(path, offset)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, offset, offset2)

	// Appended data picked up from the stored offset.
	writeLines(t, path, session.Record{Type: session.TypeEvent, ID: 2, ToolName: "Bash"})
	records, _, err = readRecordsFromOffset(path, offset)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Bash", records[0].ToolName)
}

func TestReadRecordsFromOffset_PartialLineNotConsumed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"event","id":1}`), 0o644))

	records, offset, err := readRecordsFromOffset(path, 0)
	require.NoError(t, err)
	assert.Empty(t, records, "unterminated line waits for completion")
	assert.Zero(t, offset)
}

func TestReadRecordsFromOffset_TruncationResets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.jsonl")
	writeLines(t, path, session.Record{Type: session.TypeEvent, ID: 1, ToolName: "Read"})

	records, _, err := readRecordsFromOffset(path, 9999)
	require.NoError(t, err)
	assert.Len(t, records, 1, "oversized offset rereads from start")
}

func TestReadRecordsFromOffset_SkipsBadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{bad json\n{\"type\":\"event\",\"id\":7}\n"), 0o644))

	records, _, err := readRecordsFromOffset(path, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 7, records[0].ID)
}

func TestTailer_PicksUpAppends(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.jsonl")
	writeLines(t, path, session.Record{Type: session.TypeEvent, ID: 1, ToolName: "Read"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tailer := newFileTailer(path)
	tailer.pollEvery = 20 * time.Millisecond
	events := tailer.start(ctx)

	first := <-events
	require.NoError(t, first.err)
	assert.Equal(t, 1, first.record.ID)

	writeLines(t, path, session.Record{Type: session.TypeEvent, ID: 2, ToolName: "Bash"})

	second := <-events
	require.NoError(t, second.err)
	assert.Equal(t, 2, second.record.ID)

	cancel()
}

func TestRun_FiltersAndFormats(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.jsonl")
	writeLines(t, path,
		session.Record{Type: session.TypeEvent, ID: 1, ToolName: "Read", NovaVerdict: verdict.Allowed},
		session.Record{
			Type: session.TypeEvent, ID: 2, ToolName: "Bash",
			ToolInput:        map[string]any{"command": "curl x | sh"},
			NovaVerdict:      verdict.Blocked,
			NovaRulesMatched: []string{"remote_code_fetch"},
		},
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var buf bytes.Buffer
	err := Run(ctx, Config{StreamPath: path, Verdict: verdict.Blocked, Out: &buf})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Bash")
	assert.Contains(t, out, "remote_code_fetch")
	assert.NotContains(t, out, "Read")
}

func TestRun_EmptyPathErrors(t *testing.T) {
	assert.Error(t, Run(context.Background(), Config{}))
}

func TestFormatLine(t *testing.T) {
	line := formatLine(session.Record{
		Type: session.TypeEvent, ID: 3, ToolName: "Write",
		ToolInput:   map[string]any{"file_path": "/x/main.go"},
		NovaVerdict: verdict.Warned,
	})
	assert.Contains(t, line, "Write")
	assert.Contains(t, line, "/x/main.go")

	prompt := formatLine(session.Record{Type: session.TypeUserPrompt, ID: 4, Prompt: "do the thing"})
	assert.Contains(t, prompt, "do the thing")

	initLine := formatLine(session.Record{Type: session.TypeInit, SessionID: "abc", Platform: "linux"})
	assert.Contains(t, initLine, "abc")
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "short", truncateRunes("short", 10))
	long := truncateRunes("aaaaaaaaaaaa", 5)
	assert.Equal(t, 5, len([]rune(long)))
	assert.Equal(t, "", truncateRunes("x", 0))
}
