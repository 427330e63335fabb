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

package summary

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fr0gger/nova-claude-code-protector/internal/session"
	"github.com/fr0gger/nova-claude-code-protector/internal/verdict"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleObject() verdict.SessionObject {
	obj := verdict.SessionObject{
		SessionID:  "2026-01-10_16-30-00_abc123",
		ProjectDir: "/work/demo",
		Events: []session.Record{
			{
				Type: session.TypeEvent, ID: 1, ToolName: "Write",
				ToolInput:   map[string]any{"file_path": "/work/demo/main.go"},
				NovaVerdict: verdict.Allowed,
			},
			{
				Type: session.TypeEvent, ID: 2, ToolName: "Bash",
				ToolInput:   map[string]any{"command": "go test ./..."},
				NovaVerdict: verdict.Warned,
			},
		},
	}
	obj.Summary.Statistics = verdict.Statistics{
		TotalEvents:     2,
		ToolsUsed:       map[string]int{"Write": 1, "Bash": 1},
		FilesTouched:    1,
		Warnings:        1,
		DurationSeconds: 95,
	}
	return obj
}

func TestStatsSummary(t *testing.T) {
	text := StatsSummary(sampleObject())
	assert.Equal(t, "Session completed 2 tool calls over 1m 35s. Modified 1 files. 1 warnings.", text)
}

func TestStatsSummary_EmptySession(t *testing.T) {
	text := StatsSummary(verdict.SessionObject{})
	assert.Equal(t, "Session completed 0 tool calls over 0s.", text)
}

func TestStatsSummary_HoursAndBlocked(t *testing.T) {
	obj := verdict.SessionObject{}
	obj.Summary.Statistics = verdict.Statistics{
		TotalEvents:     40,
		Blocked:         2,
		DurationSeconds: 3720,
	}
	text := StatsSummary(obj)
	assert.Contains(t, text, "1h 2m")
	assert.Contains(t, text, "2 blocked.")
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt(sampleObject())
	assert.Contains(t, prompt, "Project: /work/demo")
	assert.Contains(t, prompt, "Duration: 1 minutes 35 seconds")
	assert.Contains(t, prompt, "- Write: main.go (allowed)")
	assert.Contains(t, prompt, "- Bash: go test ./...... (warned)")
	assert.Contains(t, prompt, "Security: 1 warnings, 0 blocked")
	assert.Contains(t, prompt, "2-3 sentence")
}

func TestBuildPrompt_TruncatesEventList(t *testing.T) {
	obj := verdict.SessionObject{}
	for i := 0; i < 14; i++ {
		obj.Events = append(obj.Events, session.Record{
			Type: session.TypeEvent, ID: i + 1, ToolName: "Read",
		})
	}
	prompt := buildPrompt(obj)
	assert.Contains(t, prompt, "... and 4 more events")
}

func TestGenerate_DisabledUsesStats(t *testing.T) {
	g := NewGenerator(quiet())
	text := g.Generate(sampleObject(), false)
	assert.Contains(t, text, "Session completed 2 tool calls")
}

func TestGenerate_NoAPIKeyUsesStats(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	g := NewGenerator(quiet())
	text := g.Generate(sampleObject(), true)
	assert.Contains(t, text, "Session completed 2 tool calls")
}

func TestGenerate_APISuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, haikuModel, req.Model)
		assert.NotEmpty(t, req.System)

		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{{"type": "text", "text": "  The session wrote main.go and ran tests.  "}},
		})
	}))
	defer srv.Close()

	g := &Generator{
		client: &anthropicClient{apiKey: "test-key", endpoint: srv.URL, client: srv.Client()},
		logger: quiet(),
	}
	text := g.Generate(sampleObject(), true)
	assert.Equal(t, "The session wrote main.go and ran tests.", text)
}

func TestGenerate_APIErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := &Generator{
		client: &anthropicClient{apiKey: "k", endpoint: srv.URL, client: srv.Client()},
		logger: quiet(),
	}
	text := g.Generate(sampleObject(), true)
	assert.Contains(t, text, "Session completed 2 tool calls")
}

func TestGenerate_EmptyResponseFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"content": []any{}})
	}))
	defer srv.Close()

	g := &Generator{
		client: &anthropicClient{apiKey: "k", endpoint: srv.URL, client: srv.Client()},
		logger: quiet(),
	}
	text := g.Generate(sampleObject(), true)
	assert.Contains(t, text, "Session completed 2 tool calls")
}
