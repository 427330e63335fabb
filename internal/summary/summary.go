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

// Package summary writes the narrative session summary for reports.
//
// With an API key present it asks Claude Haiku for a 2-3 sentence
// summary; on any failure, or when disabled, it degrades to a
// stats-only sentence. Summary generation never blocks a report.
package summary

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fr0gger/nova-claude-code-protector/internal/verdict"
)

// Generator produces session summaries.
type Generator struct {
	client *anthropicClient
	logger *slog.Logger
}

// NewGenerator builds a summary generator. A nil client is valid and
// means stats-only summaries.
func NewGenerator(logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}

	g := &Generator{logger: logger}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		g.client = newAnthropicClient(key)
	}
	return g
}

// Generate returns a narrative summary for the session. aiEnabled comes
// from config; with it off, or no API key, or any API failure, the
// stats-only fallback is returned instead.
func (g *Generator) Generate(obj verdict.SessionObject, aiEnabled bool) string {
	if !aiEnabled {
		return StatsSummary(obj)
	}
	if g.client == nil {
		g.logger.Debug("summary: no API key, using stats-only summary")
		return StatsSummary(obj)
	}

	text, err := g.client.complete(buildPrompt(obj))
	if err != nil {
		g.logger.Warn("summary: AI summary failed, using stats-only summary", "error", err)
		return StatsSummary(obj)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		g.logger.Warn("summary: empty API response, using stats-only summary")
		return StatsSummary(obj)
	}
	return text
}

// StatsSummary builds the fallback summary from statistics alone.
func StatsSummary(obj verdict.SessionObject) string {
	stats := obj.Summary.Statistics

	parts := []string{fmt.Sprintf("Session completed %d tool calls over %s.",
		stats.TotalEvents, formatDuration(stats.DurationSeconds, false))}

	if stats.FilesTouched > 0 {
		parts = append(parts, fmt.Sprintf("Modified %d files.", stats.FilesTouched))
	}

	if stats.Warnings > 0 || stats.Blocked > 0 {
		var security []string
		if stats.Warnings > 0 {
			security = append(security, fmt.Sprintf("%d warnings", stats.Warnings))
		}
		if stats.Blocked > 0 {
			security = append(security, fmt.Sprintf("%d blocked", stats.Blocked))
		}
		parts = append(parts, strings.Join(security, ", ")+".")
	}

	return strings.Join(parts, " ")
}

func formatDuration(seconds int64, long bool) string {
	h, m, s := seconds/3600, (seconds%3600)/60, seconds%60
	switch {
	case seconds >= 3600:
		if long {
			return fmt.Sprintf("%d hours %d minutes", h, m)
		}
		return fmt.Sprintf("%dh %dm", h, m)
	case seconds >= 60:
		if long {
			return fmt.Sprintf("%d minutes %d seconds", m, s)
		}
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		if long {
			return fmt.Sprintf("%d seconds", s)
		}
		return fmt.Sprintf("%ds", s)
	}
}

// buildPrompt condenses the session into a prompt: top tools, up to ten
// events, touched file names.
func buildPrompt(obj verdict.SessionObject) string {
	stats := obj.Summary.Statistics

	type toolCount struct {
		name  string
		count int
	}
	tools := make([]toolCount, 0, len(stats.ToolsUsed))
	for name, count := range stats.ToolsUsed {
		tools = append(tools, toolCount{name, count})
	}
	sort.Slice(tools, func(i, j int) bool {
		if tools[i].count != tools[j].count {
			return tools[i].count > tools[j].count
		}
		return tools[i].name < tools[j].name
	})
	if len(tools) > 5 {
		tools = tools[:5]
	}
	toolParts := make([]string, 0, len(tools))
	for _, tc := range tools {
		toolParts = append(toolParts, fmt.Sprintf("%s: %d", tc.name, tc.count))
	}
	toolsSummary := strings.Join(toolParts, ", ")
	if toolsSummary == "" {
		toolsSummary = "None"
	}

	var eventLines []string
	fileNames := make(map[string]bool)
	limit := len(obj.Events)
	if limit > 10 {
		limit = 10
	}
	for _, event := range obj.Events[:limit] {
		tool := event.ToolName
		if tool == "" {
			tool = "Unknown"
		}
		v := event.NovaVerdict
		if v == "" {
			v = verdict.Allowed
		}

		if path, ok := event.ToolInput["file_path"].(string); ok && path != "" {
			name := filepath.Base(path)
			fileNames[name] = true
			eventLines = append(eventLines, fmt.Sprintf("- %s: %s (%s)", tool, name, v))
		} else if cmd, ok := event.ToolInput["command"].(string); ok && tool == "Bash" {
			if len(cmd) > 50 {
				cmd = cmd[:50]
			}
			eventLines = append(eventLines, fmt.Sprintf("- %s: %s... (%s)", tool, cmd, v))
		} else {
			eventLines = append(eventLines, fmt.Sprintf("- %s (%s)", tool, v))
		}
	}
	if len(obj.Events) > 10 {
		eventLines = append(eventLines, fmt.Sprintf("- ... and %d more events", len(obj.Events)-10))
	}
	eventsText := strings.Join(eventLines, "\n")
	if eventsText == "" {
		eventsText = "No events recorded."
	}

	names := make([]string, 0, len(fileNames))
	for name := range fileNames {
		names = append(names, name)
	}
	sort.Strings(names)
	filesList := strings.Join(names, ", ")
	if filesList == "" {
		filesList = "None"
	}

	project := obj.ProjectDir
	if project == "" {
		project = "unknown project"
	}

	return fmt.Sprintf(`You are summarizing a Claude Code development session. Generate a 2-3 sentence summary.

SESSION DATA:
- Project: %s
- Duration: %s
- Tool calls: %d
- Files modified: %d
- Files accessed: %s
- Tools: %s
- Security: %d warnings, %d blocked

EVENTS:
%s

TASK: Write exactly 2-3 sentences describing what was done. Be specific about files created/modified. Do not apologize or ask for more information - just summarize based on the data above.`,
		project,
		formatDuration(stats.DurationSeconds, true),
		stats.TotalEvents,
		stats.FilesTouched,
		filesList,
		toolsSummary,
		stats.Warnings,
		stats.Blocked,
		eventsText,
	)
}
