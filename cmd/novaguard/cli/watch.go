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

	"github.com/fr0gger/nova-claude-code-protector/internal/session"
	"github.com/fr0gger/nova-claude-code-protector/internal/watch"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var sessionID string
	var verdictFilter string
	var toolFilter string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live tail of the session record stream",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(opts.verbose)
			projectDir := resolveProjectDir(opts)
			store := session.NewStore(projectDir, logger)

			target := sessionID
			if target == "" {
				target = store.ActiveSession()
			}
			if target == "" {
				// No active session: fall back to the most recent stream so
				// watch started before the agent still attaches via the
				// tailer's new-file switchover.
				ids := store.ListSessions()
				if len(ids) == 0 {
					return fmt.Errorf("watch: no sessions in %s", projectDir)
				}
				target = ids[len(ids)-1]
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Watching session %s (Ctrl+C to stop)\n", target)
			return watch.Run(cmd.Context(), watch.Config{
				StreamPath: store.StreamPath(target),
				Verdict:    verdictFilter,
				Tool:       toolFilter,
				Out:        cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID to watch (default: active session)")
	cmd.Flags().StringVar(&verdictFilter, "verdict", "", "Only show events with this verdict (allowed|warned|blocked|scan_failed)")
	cmd.Flags().StringVar(&toolFilter, "tool", "", "Only show events from this tool")

	return cmd
}
