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
	"time"

	"github.com/fr0gger/nova-claude-code-protector/internal/session"
)

// EventParams carries the raw material for one tool-call event record.
type EventParams struct {
	EventID   int
	ToolName  string
	ToolInput map[string]any
	RawResult any

	Start time.Time
	End   time.Time

	WorkingDir string

	// Scan outcome, already decided by the verdict layer.
	Verdict      string
	Severity     string
	RulesMatched []string
	ScanTimeMS   int64

	// MaxOutputBytes caps stored output text; zero disables truncation.
	MaxOutputBytes int
}

// BuildEvent assembles the canonical event record for one completed tool
// call: output extraction, truncation, error detection, MCP and skill
// classification, and file-path capture all happen here so the hook
// commands stay thin.
func BuildEvent(p EventParams) session.Record {
	text := ExtractText(p.ToolName, p.RawResult)
	isError := IsError(text, p.RawResult)
	text, originalSize := Truncate(text, p.MaxOutputBytes)

	mcp := ClassifyMCP(p.ToolName)
	skill := ClassifySkill(p.ToolName, p.ToolInput)

	rec := session.Record{
		Type:           session.TypeEvent,
		ID:             p.EventID,
		TimestampStart: session.FormatTimestamp(p.Start),
		TimestampEnd:   session.FormatTimestamp(p.End),
		DurationMS:     p.End.Sub(p.Start).Milliseconds(),
		ToolName:       p.ToolName,
		ToolInput:      p.ToolInput,
		ToolOutput:     text,
		IsError:        isError,
		WorkingDir:     p.WorkingDir,
		FilesAccessed:  FilesAccessed(p.ToolName, p.ToolInput),

		NovaVerdict:      p.Verdict,
		NovaSeverity:     p.Severity,
		NovaRulesMatched: p.RulesMatched,
		NovaScanTimeMS:   p.ScanTimeMS,
	}

	if mcp.IsMCP {
		rec.IsMCP = true
		rec.MCPServer = mcp.Server
		rec.MCPFunction = mcp.Function
	}
	if skill.IsSkill {
		rec.IsSkill = true
		rec.SkillName = skill.Name
		rec.SkillArgs = skill.Args
	}
	if originalSize > 0 {
		rec.OriginalOutputSize = originalSize
	}

	return rec
}

// BuildPrompt assembles a user prompt record.
func BuildPrompt(eventID int, prompt string, at time.Time) session.Record {
	return session.Record{
		Type:         session.TypeUserPrompt,
		ID:           eventID,
		Timestamp:    session.FormatTimestamp(at),
		Prompt:       prompt,
		PromptLength: len(prompt),
	}
}
