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

package verdict

import (
	"encoding/json"

	"github.com/fr0gger/nova-claude-code-protector/internal/session"
)

// Statistics summarizes a full session record stream. Always recomputed
// from the stored stream, never maintained incrementally, so a report can
// be rebuilt from the file alone.
type Statistics struct {
	TotalEvents  int            `json:"total_events"`
	ToolsUsed    map[string]int `json:"tools_used"`
	FilesTouched int            `json:"files_touched"`
	Warnings     int            `json:"warnings"`
	Blocked      int            `json:"blocked"`

	MCPCalls   int            `json:"mcp_calls"`
	MCPServers map[string]int `json:"mcp_servers"`
	MCPErrors  int            `json:"mcp_errors"`

	SkillCalls  int            `json:"skill_calls"`
	SkillsUsed  map[string]int `json:"skills_used"`
	SkillErrors int            `json:"skill_errors"`

	DurationSeconds  int64 `json:"duration_seconds"`
	UserPrompts      int   `json:"user_prompts"`
	TotalPromptChars int   `json:"total_prompt_chars"`
}

// ActivityMetrics estimates token usage from stored text sizes. The
// counts are a chars/4 heuristic, not API-reported usage, and reports
// must label them as estimates.
type ActivityMetrics struct {
	InputChars        int   `json:"input_chars"`
	OutputChars       int   `json:"output_chars"`
	InputTokensEst    int   `json:"input_tokens_est"`
	OutputTokensEst   int   `json:"output_tokens_est"`
	TotalProcessingMS int64 `json:"total_processing_ms"`
	IsEstimate        bool  `json:"is_estimate"`
}

// Compute folds an entire record stream into session statistics. A
// malformed record degrades its own contribution, never the whole fold:
// the returned statistics are always usable.
func Compute(records []session.Record) Statistics {
	stats := Statistics{
		ToolsUsed:  make(map[string]int),
		MCPServers: make(map[string]int),
		SkillsUsed: make(map[string]int),
	}

	uniqueFiles := make(map[string]bool)
	var initTimestamp, lastEnd string

	for _, rec := range records {
		switch rec.Type {
		case session.TypeInit:
			initTimestamp = rec.Timestamp

		case session.TypeUserPrompt:
			stats.UserPrompts++
			stats.TotalPromptChars += rec.PromptLength

		case session.TypeEvent:
			stats.TotalEvents++
			if rec.ToolName != "" {
				stats.ToolsUsed[rec.ToolName]++
			}
			for _, path := range rec.FilesAccessed {
				uniqueFiles[path] = true
			}

			switch rec.NovaVerdict {
			case Warned:
				stats.Warnings++
			case Blocked:
				stats.Blocked++
			}

			if rec.IsMCP {
				stats.MCPCalls++
				if rec.MCPServer != "" {
					stats.MCPServers[rec.MCPServer]++
				}
				if rec.IsError {
					stats.MCPErrors++
				}
			}
			if rec.IsSkill {
				stats.SkillCalls++
				if rec.SkillName != "" {
					stats.SkillsUsed[rec.SkillName]++
				}
				if rec.IsError {
					stats.SkillErrors++
				}
			}

			if rec.TimestampEnd != "" {
				lastEnd = rec.TimestampEnd
			}
		}
	}

	stats.FilesTouched = len(uniqueFiles)
	stats.DurationSeconds = durationSeconds(initTimestamp, lastEnd)
	return stats
}

// durationSeconds floors the span between two stored timestamps to whole
// seconds. Missing or unparsable timestamps degrade to zero, as does a
// negative span from clock skew.
func durationSeconds(start, end string) int64 {
	if start == "" || end == "" {
		return 0
	}
	from, err := session.ParseTimestamp(start)
	if err != nil {
		return 0
	}
	to, err := session.ParseTimestamp(end)
	if err != nil {
		return 0
	}

	seconds := int64(to.Sub(from).Seconds())
	if seconds < 0 {
		return 0
	}
	return seconds
}

// ComputeActivity estimates session activity from stored event payloads.
func ComputeActivity(records []session.Record) ActivityMetrics {
	metrics := ActivityMetrics{IsEstimate: true}
	for _, rec := range records {
		if rec.Type != session.TypeEvent {
			continue
		}
		if len(rec.ToolInput) > 0 {
			if data, err := json.Marshal(rec.ToolInput); err == nil {
				metrics.InputChars += len(data)
			}
		}
		metrics.OutputChars += len(rec.ToolOutput)
		metrics.TotalProcessingMS += rec.DurationMS
	}

	metrics.InputTokensEst = metrics.InputChars / 4
	metrics.OutputTokensEst = metrics.OutputChars / 4
	return metrics
}
