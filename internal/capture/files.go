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

package capture

import (
	"regexp"
	"strings"
)

// bashPathPattern recognizes absolute, ./, ../ and ~/ paths inside a shell
// command. Quote characters, redirections and separators end a path token.
var bashPathPattern = regexp.MustCompile(
	`(?:^|\s)(` +
		`/[^\s"'<>|;&]+|` +
		`\./[^\s"'<>|;&]+|` +
		`\.\./[^\s"'<>|;&]+|` +
		`~/[^\s"'<>|;&]+` +
		`)`)

// FilesAccessed extracts the file paths a tool touches, based on the tool
// type: direct path fields for file tools, a pattern scan of the command
// string for Bash. Results are deduplicated preserving first-seen order.
func FilesAccessed(toolName string, toolInput map[string]any) []string {
	if len(toolInput) == 0 {
		return nil
	}

	var paths []string
	switch toolName {
	case "Read", "Edit", "Write":
		if p, ok := toolInput["file_path"].(string); ok && p != "" {
			paths = append(paths, p)
		}
	case "Glob", "Grep":
		if p, ok := toolInput["path"].(string); ok && p != "" {
			paths = append(paths, p)
		}
	case "NotebookEdit":
		if p, ok := toolInput["notebook_path"].(string); ok && p != "" {
			paths = append(paths, p)
		}
	case "Bash":
		if cmd, ok := toolInput["command"].(string); ok && cmd != "" {
			paths = append(paths, pathsFromCommand(cmd)...)
		}
	}

	return dedupe(paths)
}

// pathsFromCommand scans a shell command for path-looking tokens,
// excluding CLI flags and URLs, and stripping trailing punctuation.
func pathsFromCommand(command string) []string {
	var paths []string
	for _, match := range bashPathPattern.FindAllStringSubmatch(command, -1) {
		path := strings.TrimSpace(match[1])
		if path == "" || strings.HasPrefix(path, "-") || strings.Contains(path, "://") {
			continue
		}
		path = strings.TrimRight(path, ".,;:)")
		if path != "" {
			paths = append(paths, path)
		}
	}
	return paths
}

func dedupe(paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(paths))
	unique := make([]string, 0, len(paths))
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			unique = append(unique, p)
		}
	}
	return unique
}
