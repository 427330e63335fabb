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
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fr0gger/nova-claude-code-protector/internal/session"
	"github.com/fr0gger/nova-claude-code-protector/internal/verdict"
)

const maxDetailWidth = 80

// recordSummary extracts a short description of what a record did.
func recordSummary(rec session.Record) string {
	if rec.Type == session.TypeUserPrompt {
		return strings.TrimSpace(rec.Prompt)
	}

	if command, ok := rec.ToolInput["command"].(string); ok {
		return strings.TrimSpace(command)
	}
	if path, ok := rec.ToolInput["file_path"].(string); ok {
		return strings.TrimSpace(path)
	}
	if rec.IsSkill && rec.SkillName != "" {
		return rec.SkillName
	}
	if len(rec.FilesAccessed) > 0 {
		return rec.FilesAccessed[0]
	}
	return ""
}

func verdictMeta(v string) (icon string, color lipgloss.Color) {
	switch v {
	case verdict.Allowed, "":
		return "✅", lipgloss.Color("10")
	case verdict.Warned:
		return "\U0001f7e1", lipgloss.Color("11")
	case verdict.Blocked:
		return "\U0001f534", lipgloss.Color("9")
	case verdict.ScanFailed:
		return "❓", lipgloss.Color("8")
	default:
		return "•", lipgloss.Color("7")
	}
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

// formatLine renders one record as a single colored terminal line.
func formatLine(rec session.Record) string {
	if rec.Type == session.TypeInit {
		return lipgloss.NewStyle().Faint(true).
			Render(fmt.Sprintf("session %s started (%s)", rec.SessionID, rec.Platform))
	}

	if rec.Type == session.TypeUserPrompt {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
		return style.Render(fmt.Sprintf("%4d  \U0001f4ac prompt  %s",
			rec.ID, truncateRunes(recordSummary(rec), maxDetailWidth)))
	}

	icon, color := verdictMeta(rec.NovaVerdict)
	style := lipgloss.NewStyle().Foreground(color)

	line := fmt.Sprintf("%4d  %s %-10s  %s", rec.ID, icon, rec.ToolName,
		truncateRunes(recordSummary(rec), maxDetailWidth))
	if len(rec.NovaRulesMatched) > 0 {
		line += "  [" + strings.Join(rec.NovaRulesMatched, ", ") + "]"
	}
	return style.Render(line)
}
