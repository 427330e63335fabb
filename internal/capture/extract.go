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

// Package capture normalizes raw tool-call inputs and outputs into the
// canonical event record appended to the session stream.
//
// Tool results arrive in many ad hoc shapes — plain strings, maps with a
// content/output/stdout field, nested error objects, lists of any of the
// above. Extraction is an explicit ordered fallback chain over named
// fields, not reflection.
package capture

import (
	"encoding/json"
	"fmt"
	"strings"
)

const errorPrefix = "[ERROR]"

// resultFields is the ordered fallback chain of map fields that may carry
// the primary text of a tool result.
var resultFields = []string{"output", "result", "text", "file_content", "stdout", "data", "stderr"}

// inputFields lists tool-input fields that can carry injectable text and
// are therefore worth scanning.
var inputFields = []string{"command", "content", "prompt", "query", "new_string", "old_string", "pattern"}

// ExtractText normalizes a heterogeneous tool result into one text blob
// for scanning and storage.
func ExtractText(toolName string, rawResult any) string {
	switch result := rawResult.(type) {
	case nil:
		return ""

	case string:
		if strings.HasPrefix(result, "Error:") || strings.HasPrefix(result, errorPrefix) {
			return errorPrefix + " " + result
		}
		return result

	case map[string]any:
		return extractFromMap(toolName, result)

	case []any:
		var parts []string
		for _, item := range result {
			if text := ExtractText(toolName, item); text != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, "\n")

	default:
		return fmt.Sprint(result)
	}
}

func extractFromMap(toolName string, result map[string]any) string {
	if content, ok := result["content"]; ok {
		switch c := content.(type) {
		case string:
			return c
		case []any:
			var parts []string
			for _, block := range c {
				switch b := block.(type) {
				case map[string]any:
					if text, ok := b["text"]; ok {
						parts = append(parts, stringify(text))
					}
				case string:
					parts = append(parts, b)
				}
			}
			return strings.Join(parts, "\n")
		}
	}

	// A top-level error field captures failed tool calls (403s, timeouts).
	if errVal, ok := result["error"]; ok {
		switch e := errVal.(type) {
		case string:
			return errorPrefix + " " + e
		case map[string]any:
			if msg, ok := e["message"]; ok {
				return errorPrefix + " " + stringify(msg)
			}
			return errorPrefix + " " + stringify(e)
		}
	}

	for _, field := range resultFields {
		if value, ok := result[field]; ok && value != nil {
			return stringify(value)
		}
	}

	// Read results sometimes nest content under a file object.
	if file, ok := result["file"].(map[string]any); ok {
		if content, ok := file["content"]; ok {
			return stringify(content)
		}
	}

	return stringify(result)
}

// stringify renders a value as text: strings pass through, everything
// else is serialized as compact JSON (with fmt as a last resort).
func stringify(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	if data, err := json.Marshal(value); err == nil {
		return string(data)
	}
	return fmt.Sprint(value)
}

// IsError reports whether a tool result represents a failed call: either
// the extracted text carries an error marker, the raw result is a map with
// an error key, or a plain string starting with "Error:".
func IsError(text string, rawResult any) bool {
	if strings.HasPrefix(text, errorPrefix) {
		return true
	}
	if m, ok := rawResult.(map[string]any); ok {
		if _, exists := m["error"]; exists {
			return true
		}
	}
	if s, ok := rawResult.(string); ok && strings.HasPrefix(s, "Error:") {
		return true
	}
	return false
}

// ExtractInputText gathers the scannable text fields from a tool input,
// joined by newlines. Used to scan inputs for injection payloads before
// they reach the tool.
func ExtractInputText(toolInput map[string]any) string {
	if len(toolInput) == 0 {
		return ""
	}

	var parts []string
	for _, field := range inputFields {
		if value, ok := toolInput[field].(string); ok && value != "" {
			parts = append(parts, value)
		}
	}
	return strings.Join(parts, "\n")
}
