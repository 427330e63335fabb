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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fr0gger/nova-claude-code-protector/internal/session"
)

func TestAssign_Precedence(t *testing.T) {
	tests := []struct {
		name         string
		detections   []Detection
		wantVerdict  string
		wantSeverity string
	}{
		{"empty", nil, Allowed, ""},
		{"single low", []Detection{{Severity: SeverityLow}}, Warned, SeverityLow},
		{"single medium", []Detection{{Severity: SeverityMedium}}, Warned, SeverityMedium},
		{"single high", []Detection{{Severity: SeverityHigh}}, Blocked, SeverityHigh},
		{
			"high outranks many lower",
			[]Detection{
				{Severity: SeverityLow}, {Severity: SeverityMedium},
				{Severity: SeverityLow}, {Severity: SeverityHigh},
			},
			Blocked, SeverityHigh,
		},
		{
			"medium outranks low",
			[]Detection{{Severity: SeverityLow}, {Severity: SeverityMedium}},
			Warned, SeverityMedium,
		},
		// Unrecognized severities fall through to the low bucket.
		{"unrecognized severity", []Detection{{Severity: "critical"}}, Warned, SeverityLow},
		{"missing severity", []Detection{{RuleName: "r1"}}, Warned, SeverityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, severity := Assign(tt.detections)
			assert.Equal(t, tt.wantVerdict, verdict)
			assert.Equal(t, tt.wantSeverity, severity)
		})
	}
}

func TestRuleNames(t *testing.T) {
	names := RuleNames([]Detection{
		{RuleName: "prompt_injection"},
		{RuleName: "exfiltration"},
		{RuleName: "prompt_injection"},
		{},
	})
	assert.Equal(t, []string{"prompt_injection", "exfiltration", "unknown"}, names)
	assert.Nil(t, RuleNames(nil))
}

func TestFilterMinSeverity(t *testing.T) {
	detections := []Detection{
		{RuleName: "a", Severity: SeverityLow},
		{RuleName: "b", Severity: SeverityMedium},
		{RuleName: "c", Severity: SeverityHigh},
		{RuleName: "d"}, // missing severity counts as medium
	}

	kept := FilterMinSeverity(detections, SeverityMedium)
	assert.Len(t, kept, 3)
	assert.Equal(t, "b", kept[0].RuleName)
	assert.Equal(t, "d", kept[2].RuleName)

	assert.Len(t, FilterMinSeverity(detections, SeverityHigh), 1)
	assert.Equal(t, detections, FilterMinSeverity(detections, ""))
}

func eventRec(id int, tool, verdict string) session.Record {
	return session.Record{Type: session.TypeEvent, ID: id, ToolName: tool, NovaVerdict: verdict}
}

func TestCompute_EndToEndScenario(t *testing.T) {
	records := []session.Record{
		{Type: session.TypeInit, Timestamp: "2026-01-10T16:30:00Z"},
		eventRec(1, "Read", Allowed),
		func() session.Record {
			r := eventRec(2, "Bash", Warned)
			r.NovaSeverity = SeverityMedium
			return r
		}(),
		func() session.Record {
			r := eventRec(3, "Write", Blocked)
			r.NovaSeverity = SeverityHigh
			r.TimestampEnd = "2026-01-10T16:31:30Z"
			return r
		}(),
	}

	stats := Compute(records)
	assert.Equal(t, 3, stats.TotalEvents)
	assert.Equal(t, 1, stats.Warnings)
	assert.Equal(t, 1, stats.Blocked)
	assert.Equal(t, map[string]int{"Read": 1, "Bash": 1, "Write": 1}, stats.ToolsUsed)
	assert.Equal(t, int64(90), stats.DurationSeconds)
}

func TestCompute_ScanFailedCountsNeither(t *testing.T) {
	stats := Compute([]session.Record{
		eventRec(1, "Bash", ScanFailed),
	})
	assert.Equal(t, 1, stats.TotalEvents)
	assert.Zero(t, stats.Warnings)
	assert.Zero(t, stats.Blocked)
}

func TestCompute_FilesTouchedGloballyUnique(t *testing.T) {
	a := eventRec(1, "Read", Allowed)
	a.FilesAccessed = []string{"/x/a.go", "/x/b.go"}
	b := eventRec(2, "Edit", Allowed)
	b.FilesAccessed = []string{"/x/b.go", "/x/c.go"}

	stats := Compute([]session.Record{a, b})
	assert.Equal(t, 3, stats.FilesTouched)
}

func TestCompute_MCPAndSkillBreakdowns(t *testing.T) {
	mcpOK := eventRec(1, "mcp__github__list_prs", Allowed)
	mcpOK.IsMCP, mcpOK.MCPServer = true, "github"

	mcpErr := eventRec(2, "mcp__github__get_file", Allowed)
	mcpErr.IsMCP, mcpErr.MCPServer, mcpErr.IsError = true, "github", true

	skill := eventRec(3, "Skill", Allowed)
	skill.IsSkill, skill.SkillName = true, "review"

	stats := Compute([]session.Record{mcpOK, mcpErr, skill})
	assert.Equal(t, 2, stats.MCPCalls)
	assert.Equal(t, map[string]int{"github": 2}, stats.MCPServers)
	assert.Equal(t, 1, stats.MCPErrors)
	assert.Equal(t, 1, stats.SkillCalls)
	assert.Equal(t, map[string]int{"review": 1}, stats.SkillsUsed)
	assert.Zero(t, stats.SkillErrors)
}

func TestCompute_MalformedTimestampsDegradeToZero(t *testing.T) {
	records := []session.Record{
		{Type: session.TypeInit, Timestamp: "not-a-timestamp"},
		func() session.Record {
			r := eventRec(1, "Read", Allowed)
			r.TimestampEnd = "2026-01-10T16:31:30Z"
			return r
		}(),
	}
	assert.NotPanics(t, func() {
		stats := Compute(records)
		assert.Zero(t, stats.DurationSeconds)
		assert.Equal(t, 1, stats.TotalEvents)
	})
}

func TestCompute_NegativeSpanClampedToZero(t *testing.T) {
	records := []session.Record{
		{Type: session.TypeInit, Timestamp: "2026-01-10T17:00:00Z"},
		func() session.Record {
			r := eventRec(1, "Read", Allowed)
			r.TimestampEnd = "2026-01-10T16:00:00Z"
			return r
		}(),
	}
	assert.Zero(t, Compute(records).DurationSeconds)
}

func TestCompute_Prompts(t *testing.T) {
	records := []session.Record{
		{Type: session.TypeUserPrompt, ID: 1, Prompt: "hello", PromptLength: 5},
		{Type: session.TypeUserPrompt, ID: 2, Prompt: "fix it", PromptLength: 6},
	}
	stats := Compute(records)
	assert.Equal(t, 2, stats.UserPrompts)
	assert.Equal(t, 11, stats.TotalPromptChars)
	assert.Zero(t, stats.TotalEvents)
}

func TestCompute_EmptyStream(t *testing.T) {
	stats := Compute(nil)
	assert.Zero(t, stats.TotalEvents)
	assert.NotNil(t, stats.ToolsUsed)
	assert.Zero(t, stats.DurationSeconds)
}

func TestComputeActivity(t *testing.T) {
	rec := eventRec(1, "Bash", Allowed)
	rec.ToolInput = map[string]any{"command": "ls"}
	rec.ToolOutput = "12345678"
	rec.DurationMS = 250

	other := eventRec(2, "Read", Allowed)
	other.ToolOutput = "abcd"
	other.DurationMS = 100

	metrics := ComputeActivity([]session.Record{rec, other})
	// {"command":"ls"} is 16 chars serialized.
	assert.Equal(t, 16, metrics.InputChars)
	assert.Equal(t, 12, metrics.OutputChars)
	assert.Equal(t, 4, metrics.InputTokensEst)
	assert.Equal(t, 3, metrics.OutputTokensEst)
	assert.Equal(t, int64(350), metrics.TotalProcessingMS)
	assert.True(t, metrics.IsEstimate, "heuristic must be labeled an estimate")
}

func TestDedupe(t *testing.T) {
	detections := []Detection{
		{RuleName: "a", Severity: SeverityLow},
		{RuleName: "b", Severity: SeverityHigh},
		{RuleName: "a", Severity: SeverityMedium},
	}
	unique := Dedupe(detections)
	assert.Len(t, unique, 2)
	assert.Equal(t, SeverityLow, unique[0].Severity, "first occurrence wins")
}

func TestBuildSessionObject(t *testing.T) {
	records := []session.Record{
		{
			Type: session.TypeInit, SessionID: "2026-01-10_16-30-00_abc123",
			Timestamp: "2026-01-10T16:30:00Z", Platform: "linux", ProjectDir: "/work",
		},
		{Type: session.TypeUserPrompt, ID: 1, Prompt: "go", PromptLength: 2, Timestamp: "2026-01-10T16:30:05Z"},
		func() session.Record {
			r := eventRec(2, "Read", Allowed)
			r.TimestampEnd = "2026-01-10T16:30:10Z"
			return r
		}(),
	}

	obj := BuildSessionObject("fallback-id", records)
	assert.Equal(t, "2026-01-10_16-30-00_abc123", obj.SessionID)
	assert.Equal(t, "2026-01-10T16:30:00Z", obj.SessionStart)
	assert.Equal(t, "2026-01-10T16:30:10Z", obj.SessionEnd)
	assert.Equal(t, "linux", obj.Platform)
	assert.Equal(t, "/work", obj.ProjectDir)
	assert.Len(t, obj.Events, 2, "init record excluded from events")
	assert.Equal(t, 1, obj.Summary.TotalEvents)
	assert.Equal(t, 1, obj.Summary.UserPrompts)
}
