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

// Package session implements the append-only session record stream.
//
// One session is one continuous interaction between the driving agent and
// its tools. Every session is backed by a newline-delimited JSON file where
// each line is an independently parseable record. The first line is always
// the init record; subsequent lines are tool-call events and user prompts.
//
// All store operations are fail-open by contract: they execute inside
// latency-sensitive tool-call hooks of a host process that must never be
// blocked or crashed by auditing failures. Errors are logged to stderr and
// a safe default is returned.
package session

import (
	"strings"
	"time"
)

// Record type discriminators, stored in the "type" field of every line.
const (
	TypeInit       = "init"
	TypeEvent      = "event"
	TypeUserPrompt = "user_prompt"
)

// timeLayout renders ISO-8601 timestamps with a literal "Z" suffix for UTC,
// matching the wire format consumed by the report viewer.
const timeLayout = "2006-01-02T15:04:05.999999Z07:00"

// Record is one line of a session stream.
//
// A single struct covers all three record shapes; omitempty keeps each
// serialized line compact and limited to the fields its type actually uses.
// Records are immutable once appended.
type Record struct {
	Type string `json:"type"`

	// Init record fields.
	SessionID  string `json:"session_id,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
	Platform   string `json:"platform,omitempty"`
	ProjectDir string `json:"project_dir,omitempty"`

	// Event and user_prompt records share the sequential ID space.
	ID int `json:"id,omitempty"`

	// Event record fields.
	TimestampStart string `json:"timestamp_start,omitempty"`
	TimestampEnd   string `json:"timestamp_end,omitempty"`
	DurationMS     int64  `json:"duration_ms,omitempty"`
	ToolName       string `json:"tool_name,omitempty"`

	IsMCP       bool   `json:"is_mcp,omitempty"`
	MCPServer   string `json:"mcp_server,omitempty"`
	MCPFunction string `json:"mcp_function,omitempty"`

	IsSkill   bool   `json:"is_skill,omitempty"`
	SkillName string `json:"skill_name,omitempty"`
	SkillArgs string `json:"skill_args,omitempty"`

	ToolInput     map[string]any `json:"tool_input,omitempty"`
	ToolOutput    string         `json:"tool_output,omitempty"`
	IsError       bool           `json:"is_error,omitempty"`
	WorkingDir    string         `json:"working_dir,omitempty"`
	FilesAccessed []string       `json:"files_accessed,omitempty"`

	NovaVerdict      string   `json:"nova_verdict,omitempty"`
	NovaSeverity     string   `json:"nova_severity,omitempty"`
	NovaRulesMatched []string `json:"nova_rules_matched,omitempty"`
	NovaScanTimeMS   int64    `json:"nova_scan_time_ms,omitempty"`

	// OriginalOutputSize is present only when ToolOutput was truncated.
	// Its presence, not a length comparison, is the truncation signal.
	OriginalOutputSize int `json:"original_output_size,omitempty"`

	// User prompt record fields.
	Prompt       string `json:"prompt,omitempty"`
	PromptLength int    `json:"prompt_length,omitempty"`
}

// IsEvent reports whether the record is a tool-call event.
func (r Record) IsEvent() bool { return r.Type == TypeEvent }

// IsPrompt reports whether the record is a captured user prompt.
func (r Record) IsPrompt() bool { return r.Type == TypeUserPrompt }

// FormatTimestamp renders t as an ISO-8601 UTC timestamp with "Z" suffix.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// ParseTimestamp parses a stream timestamp. It accepts both the "Z" suffix
// written by this store and an explicit "+00:00" offset.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
