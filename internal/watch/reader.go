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

// Package watch tails the active session stream and renders one line
// per captured record.
package watch

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fr0gger/nova-claude-code-protector/internal/session"
)

// readRecordsFromOffset reads session records from path starting at the
// given byte offset. Returns the parsed records, the new offset, and any
// error. A truncated file (offset > size) resets to the beginning.
// Partial (unterminated) lines are not consumed — the offset stays
// before them so they can be re-read once complete.
func readRecordsFromOffset(path string, offset int64) ([]session.Record, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, offset, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, offset, fmt.Errorf("watch: stat %s: %w", path, err)
	}
	if offset > info.Size() {
		offset = 0
	}

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, fmt.Errorf("watch: seek %s: %w", path, err)
	}

	reader := bufio.NewReader(f)
	cursor := offset
	records := make([]session.Record, 0, 8)

	for {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, cursor, fmt.Errorf("watch: read line: %w", err)
		}

		if line == "" && errors.Is(err, io.EOF) {
			return records, cursor, nil
		}

		if !strings.HasSuffix(line, "\n") {
			return records, cursor, nil
		}

		cursor += int64(len(line))
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if errors.Is(err, io.EOF) {
				return records, cursor, nil
			}
			continue
		}

		var rec session.Record
		if unmarshalErr := json.Unmarshal([]byte(trimmed), &rec); unmarshalErr == nil {
			records = append(records, rec)
		}

		if errors.Is(err, io.EOF) {
			return records, cursor, nil
		}
	}
}
