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
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/fr0gger/nova-claude-code-protector/internal/session"
	"github.com/fr0gger/nova-claude-code-protector/internal/verdict"
)

var (
	sessionsHeaderStyle = lipgloss.NewStyle().Bold(true)
	sessionsActiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	sessionsWarnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	sessionsBlockStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func newSessionsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List stored sessions with per-session statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(opts.verbose)
			projectDir := resolveProjectDir(opts)
			store := session.NewStore(projectDir, logger)

			ids := store.ListSessions()
			if len(ids) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No stored sessions in %s\n", projectDir)
				return nil
			}

			active := store.ActiveSession()
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, sessionsHeaderStyle.Render(
				fmt.Sprintf("%-30s %7s %7s %8s %8s %9s", "SESSION", "EVENTS", "FILES", "WARNINGS", "BLOCKED", "DURATION")))

			for _, id := range ids {
				stats := verdict.Compute(store.ReadAll(id))

				line := fmt.Sprintf("%-30s %7d %7d %8d %8d %8ds",
					id, stats.TotalEvents, stats.FilesTouched,
					stats.Warnings, stats.Blocked, stats.DurationSeconds)

				switch {
				case stats.Blocked > 0:
					line = sessionsBlockStyle.Render(line)
				case stats.Warnings > 0:
					line = sessionsWarnStyle.Render(line)
				}
				if id == active {
					line += sessionsActiveStyle.Render("  (active)")
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}
