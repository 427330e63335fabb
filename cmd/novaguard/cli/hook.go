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

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/fr0gger/nova-claude-code-protector/internal/capture"
	"github.com/fr0gger/nova-claude-code-protector/internal/config"
	"github.com/fr0gger/nova-claude-code-protector/internal/guard"
	"github.com/fr0gger/nova-claude-code-protector/internal/report"
	"github.com/fr0gger/nova-claude-code-protector/internal/session"
	"github.com/fr0gger/nova-claude-code-protector/internal/shiplog"
	"github.com/fr0gger/nova-claude-code-protector/internal/summary"
	"github.com/fr0gger/nova-claude-code-protector/internal/verdict"
)

// hookInput is the JSON sent by the host agent on stdin for hook events.
// One struct covers every hook; each event populates a subset.
type hookInput struct {
	ToolName     string         `json:"tool_name"`
	ToolInput    map[string]any `json:"tool_input"`
	ToolResponse any            `json:"tool_response"`
	ToolResult   any            `json:"tool_result"`

	Prompt         string `json:"prompt"`
	SessionEndTime string `json:"session_end_time"`
}

// decisionOutput is the JSON hook response on stdout. The host treats
// "block" as feedback to the model; absence of output means allow.
type decisionOutput struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

func newHookCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "AI agent lifecycle hooks — read JSON from stdin, respond on stdout",
		Long: `Integrates with the host agent's hook system. Each subcommand handles
one hook event; all of them are fail-open and exit 0 on any internal
error so auditing can never break the agent.

Setup (add to ~/.claude/settings.json):
{
  "hooks": {
    "SessionStart": [{ "hooks": [{ "type": "command", "command": "novaguard hook session-start" }] }],
    "PreToolUse": [{ "hooks": [{ "type": "command", "command": "novaguard hook pre-tool" }] }],
    "PostToolUse": [{ "hooks": [{ "type": "command", "command": "novaguard hook post-tool" }] }],
    "UserPromptSubmit": [{ "hooks": [{ "type": "command", "command": "novaguard hook user-prompt" }] }],
    "SessionEnd": [{ "hooks": [{ "type": "command", "command": "novaguard hook session-end" }] }]
  }
}`,
	}

	cmd.AddCommand(newSessionStartCmd(opts))
	cmd.AddCommand(newPreToolCmd(opts))
	cmd.AddCommand(newPostToolCmd(opts))
	cmd.AddCommand(newUserPromptCmd(opts))
	cmd.AddCommand(newSessionEndCmd(opts))

	return cmd
}

// decodeHookInput parses the stdin JSON. An empty stream decodes to the
// zero input; malformed JSON returns an error the callers fail open on.
func decodeHookInput(r io.Reader) (hookInput, error) {
	var input hookInput
	data, err := io.ReadAll(r)
	if err != nil {
		return input, fmt.Errorf("cli: read hook input: %w", err)
	}
	if len(data) == 0 {
		return input, nil
	}
	if err := json.Unmarshal(data, &input); err != nil {
		return input, fmt.Errorf("cli: parse hook input: %w", err)
	}
	return input, nil
}

// rawResult picks the tool result payload. The host sends "tool_response";
// "tool_result" is accepted as a legacy alias.
func (in hookInput) rawResult() any {
	if in.ToolResponse != nil {
		return in.ToolResponse
	}
	return in.ToolResult
}

func newSessionStartCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "session-start",
		Short: "Initialize session capture (SessionStart hook)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(opts.verbose)
			projectDir := resolveProjectDir(opts)
			store := session.NewStore(projectDir, logger)

			// Stdin content is irrelevant here but must be drained so the
			// host never blocks on a full pipe.
			_, _ = io.Copy(io.Discard, cmd.InOrStdin())

			if active := store.ActiveSession(); active != "" {
				logger.Debug("cli: resuming session", "session_id", active)
				return nil
			}

			sessionID := session.GenerateSessionID()
			if store.Create(sessionID) == "" {
				logger.Warn("cli: session initialization failed", "session_id", sessionID)
			}
			return nil
		},
	}
}

func newPreToolCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pre-tool",
		Short: "Block dangerous tool calls before execution (PreToolUse hook)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(opts.verbose)
			projectDir := resolveProjectDir(opts)

			input, err := decodeHookInput(cmd.InOrStdin())
			if err != nil {
				logger.Warn("cli: pre-tool input unreadable, allowing", "error", err)
				return nil
			}

			reason := guard.Check(input.ToolName, input.ToolInput)
			shipGuardDecision(opts, projectDir, input, reason, logger)

			if reason == "" {
				return nil
			}

			out := decisionOutput{
				Decision: "block",
				Reason:   "[NOVA] Blocked: " + reason,
			}
			if err := json.NewEncoder(cmd.OutOrStdout()).Encode(out); err != nil {
				logger.Warn("cli: write block decision", "error", err)
			}
			// Exit code 2 tells the host the call was denied.
			return exitCodeError{code: 2}
		},
	}
}

// shipGuardDecision forwards the pre-tool allow/block outcome to the
// configured log handlers. Best effort only.
func shipGuardDecision(opts *rootOptions, projectDir string, input hookInput, blockReason string, logger *slog.Logger) {
	cfg := config.Load(projectDir, logger)
	if !cfg.Logging.Enabled {
		return
	}

	store := session.NewStore(projectDir, logger)
	shipper := shiplog.New(cfg, store.ActiveSession(), projectDir, logger)

	entry := map[string]any{
		"tool_name":  input.ToolName,
		"tool_input": input.ToolInput,
	}
	message := "Tool allowed"
	if blockReason != "" {
		entry["execution"] = map[string]any{
			"verdict": "block",
			"reason":  "[NOVA] Blocked: " + blockReason,
		}
		message = "Tool blocked"
	}
	shipper.Ship(entry, message)
}

func newUserPromptCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "user-prompt",
		Short: "Capture a submitted user prompt (UserPromptSubmit hook)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(opts.verbose)
			projectDir := resolveProjectDir(opts)

			input, err := decodeHookInput(cmd.InOrStdin())
			if err != nil || input.Prompt == "" {
				return nil
			}

			store := session.NewStore(projectDir, logger)
			sessionID := store.ActiveSession()
			if sessionID == "" {
				logger.Debug("cli: no active session, prompt not captured")
				return nil
			}

			rec := capture.BuildPrompt(store.NextEventID(sessionID), input.Prompt, time.Now())
			store.Append(sessionID, rec)
			return nil
		},
	}
}

func newSessionEndCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "session-end",
		Short: "Finalize the session and generate the HTML report (SessionEnd hook)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(opts.verbose)
			projectDir := resolveProjectDir(opts)
			cfg := config.Load(projectDir, logger)

			if _, err := decodeHookInput(cmd.InOrStdin()); err != nil {
				logger.Warn("cli: session-end input unreadable", "error", err)
				return nil
			}

			store := session.NewStore(projectDir, logger)
			sessionID := store.ActiveSession()
			if sessionID == "" {
				logger.Warn("cli: no active session, cannot generate report")
				return nil
			}

			obj := verdict.BuildSessionObject(sessionID, store.ReadAll(sessionID))
			obj.Summary.AISummary = summary.NewGenerator(logger).Generate(obj, cfg.AISummaryEnabled)

			if path := report.Save(obj, cfg.ReportDir(projectDir), logger); path != "" {
				logger.Debug("cli: report saved", "path", path)
			}

			store.Finalize(sessionID)
			return nil
		},
	}
}
