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

// Package report renders self-contained HTML session reports from the
// session object.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fr0gger/nova-claude-code-protector/internal/session"
	"github.com/fr0gger/nova-claude-code-protector/internal/verdict"
)

// reportData is the template input prepared from a session object.
type reportData struct {
	Title       string
	SessionID   string
	Platform    string
	ProjectDir  string
	StartTime   string
	EndTime     string
	GeneratedAt time.Time

	AISummary string

	TotalEvents     int
	FilesTouched    int
	Warnings        int
	Blocked         int
	DurationDisplay string
	UserPrompts     int

	ToolsUsed []namedCount

	MCPCalls   int
	MCPErrors  int
	MCPServers []namedCount

	SkillCalls  int
	SkillErrors int
	SkillsUsed  []namedCount

	Activity verdict.ActivityMetrics

	Events []reportEvent
}

type namedCount struct {
	Name  string
	Count int
}

// reportEvent is one row of the event table.
type reportEvent struct {
	ID       int
	Time     string
	Tool     string
	Detail   string
	Verdict  string
	Severity string
	Rules    string
	CSSClass string
	IsPrompt bool
}

// Generate renders the HTML report for a session object.
func Generate(obj verdict.SessionObject, writer io.Writer) error {
	data := prepare(obj)
	if err := reportTemplate.Execute(writer, data); err != nil {
		return fmt.Errorf("report: execute template: %w", err)
	}
	return nil
}

// Save renders the report into dir as <session_id>.html. Failures are
// logged and reported with an empty path; report generation never stops
// session finalization.
func Save(obj verdict.SessionObject, dir string, logger *slog.Logger) string {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn("report: create report dir", "dir", dir, "error", err)
		return ""
	}

	path := filepath.Join(dir, obj.SessionID+".html")
	f, err := os.Create(path)
	if err != nil {
		logger.Warn("report: create report file", "path", path, "error", err)
		return ""
	}
	defer f.Close()

	if err := Generate(obj, f); err != nil {
		logger.Warn("report: render report", "path", path, "error", err)
		return ""
	}
	return path
}

func prepare(obj verdict.SessionObject) reportData {
	stats := obj.Summary.Statistics

	data := reportData{
		Title:       "NovaGuard Session Report",
		SessionID:   obj.SessionID,
		Platform:    obj.Platform,
		ProjectDir:  obj.ProjectDir,
		StartTime:   displayTime(obj.SessionStart),
		EndTime:     displayTime(obj.SessionEnd),
		GeneratedAt: time.Now(),

		AISummary: obj.Summary.AISummary,

		TotalEvents:     stats.TotalEvents,
		FilesTouched:    stats.FilesTouched,
		Warnings:        stats.Warnings,
		Blocked:         stats.Blocked,
		DurationDisplay: displayDuration(stats.DurationSeconds),
		UserPrompts:     stats.UserPrompts,

		ToolsUsed: sortedCounts(stats.ToolsUsed),

		MCPCalls:   stats.MCPCalls,
		MCPErrors:  stats.MCPErrors,
		MCPServers: sortedCounts(stats.MCPServers),

		SkillCalls:  stats.SkillCalls,
		SkillErrors: stats.SkillErrors,
		SkillsUsed:  sortedCounts(stats.SkillsUsed),

		Activity: obj.Summary.Activity,
	}

	for _, rec := range obj.Events {
		data.Events = append(data.Events, prepareEvent(rec))
	}
	return data
}

func prepareEvent(rec session.Record) reportEvent {
	if rec.Type == session.TypeUserPrompt {
		prompt := rec.Prompt
		if len(prompt) > 80 {
			prompt = prompt[:77] + "..."
		}
		return reportEvent{
			ID:       rec.ID,
			Time:     displayTime(rec.Timestamp),
			Tool:     "User Prompt",
			Detail:   prompt,
			Verdict:  "prompt",
			CSSClass: "verdict-prompt",
			IsPrompt: true,
		}
	}

	event := reportEvent{
		ID:      rec.ID,
		Time:    displayTime(rec.TimestampStart),
		Tool:    rec.ToolName,
		Detail:  eventDetail(rec),
		Verdict: rec.NovaVerdict,
	}
	if event.Verdict == "" {
		event.Verdict = verdict.Allowed
	}
	event.Severity = rec.NovaSeverity
	if len(rec.NovaRulesMatched) > 0 {
		event.Rules = fmt.Sprintf("%v", rec.NovaRulesMatched)
	}

	switch event.Verdict {
	case verdict.Blocked:
		event.CSSClass = "verdict-blocked"
	case verdict.Warned:
		event.CSSClass = "verdict-warned"
	case verdict.ScanFailed:
		event.CSSClass = "verdict-failed"
	default:
		event.CSSClass = "verdict-allowed"
	}
	return event
}

// eventDetail extracts a readable one-liner from the event input.
func eventDetail(rec session.Record) string {
	var detail string
	if cmd, ok := rec.ToolInput["command"].(string); ok {
		detail = cmd
	} else if path, ok := rec.ToolInput["file_path"].(string); ok {
		detail = path
	} else if url, ok := rec.ToolInput["url"].(string); ok {
		detail = url
	} else if rec.IsSkill && rec.SkillName != "" {
		detail = rec.SkillName
	} else if len(rec.ToolInput) > 0 {
		raw, _ := json.Marshal(rec.ToolInput)
		detail = string(raw)
	}

	if len(detail) > 80 {
		detail = detail[:77] + "..."
	}
	return detail
}

func sortedCounts(counts map[string]int) []namedCount {
	out := make([]namedCount, 0, len(counts))
	for name, count := range counts {
		out = append(out, namedCount{name, count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func displayTime(stored string) string {
	if stored == "" {
		return "-"
	}
	ts, err := session.ParseTimestamp(stored)
	if err != nil {
		return stored
	}
	return ts.UTC().Format("2006-01-02 15:04:05")
}

func displayDuration(seconds int64) string {
	switch {
	case seconds >= 3600:
		return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
	case seconds >= 60:
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
