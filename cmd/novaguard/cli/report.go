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

	"github.com/spf13/cobra"

	"github.com/fr0gger/nova-claude-code-protector/internal/config"
	"github.com/fr0gger/nova-claude-code-protector/internal/report"
	"github.com/fr0gger/nova-claude-code-protector/internal/session"
	"github.com/fr0gger/nova-claude-code-protector/internal/summary"
	"github.com/fr0gger/nova-claude-code-protector/internal/verdict"
)

func newReportCmd(opts *rootOptions) *cobra.Command {
	var outDir string
	var aiSummary bool

	cmd := &cobra.Command{
		Use:   "report [session-id]",
		Short: "Generate the HTML report for a stored session",
		Long: `Regenerates the HTML report for a session. With no argument the most
recent session is used. Reports normally appear automatically at session
end; this command covers reruns after a crash or a config change.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(opts.verbose)
			projectDir := resolveProjectDir(opts)
			cfg := config.Load(projectDir, logger)
			store := session.NewStore(projectDir, logger)

			var sessionID string
			if len(args) == 1 {
				sessionID = args[0]
			} else {
				ids := store.ListSessions()
				if len(ids) == 0 {
					return fmt.Errorf("report: no stored sessions in %s", projectDir)
				}
				sessionID = ids[len(ids)-1]
			}

			records := store.ReadAll(sessionID)
			if len(records) == 0 {
				return fmt.Errorf("report: session %s not found or empty", sessionID)
			}

			obj := verdict.BuildSessionObject(sessionID, records)
			obj.Summary.AISummary = summary.NewGenerator(logger).Generate(obj, aiSummary && cfg.AISummaryEnabled)

			dir := outDir
			if dir == "" {
				dir = cfg.ReportDir(projectDir)
			}
			path := report.Save(obj, dir, logger)
			if path == "" {
				return fmt.Errorf("report: failed to write report for session %s", sessionID)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Report saved: %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "", "Report output directory (default: configured report dir)")
	cmd.Flags().BoolVar(&aiSummary, "ai-summary", false, "Request a fresh AI summary (requires ANTHROPIC_API_KEY)")

	return cmd
}
