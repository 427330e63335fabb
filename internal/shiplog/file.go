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

package shiplog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fr0gger/nova-claude-code-protector/internal/config"
)

// fileHandler appends entries as JSON lines to a per-session log file.
type fileHandler struct {
	path string
}

func newFileHandler(cfg config.Logging, sessionID, projectDir string) (Handler, error) {
	dir := cfg.File.OutputDir
	switch {
	case dir == "":
		dir = filepath.Join(projectDir, ".novaguard", "logs")
	case !filepath.IsAbs(dir):
		dir = filepath.Join(projectDir, dir)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("shiplog: create log dir: %w", err)
	}
	return &fileHandler{path: filepath.Join(dir, sessionID+".log")}, nil
}

func (h *fileHandler) Name() string { return "file" }

func (h *fileHandler) Ship(entry map[string]any) error {
	line, err := marshalEntry(entry)
	if err != nil {
		return fmt.Errorf("shiplog: marshal entry: %w", err)
	}

	f, err := os.OpenFile(h.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("shiplog: open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("shiplog: append entry: %w", err)
	}
	return nil
}
