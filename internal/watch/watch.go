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
	"context"
	"fmt"
	"io"
)

// Config holds settings for the watch loop.
type Config struct {
	// StreamPath is the session stream file to follow.
	StreamPath string

	// Verdict filters output to records with this verdict only.
	Verdict string

	// Tool filters output to records from this tool only.
	Tool string

	Out io.Writer
}

// Run tails the stream, printing one line per record until ctx is
// cancelled. Tailer errors are printed and the loop continues: a
// transient read failure should not kill a long-running watch.
func Run(ctx context.Context, cfg Config) error {
	if cfg.StreamPath == "" {
		return fmt.Errorf("watch: no session stream to follow")
	}

	tailer := newFileTailer(cfg.StreamPath)
	events := tailer.start(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			if evt.err != nil {
				fmt.Fprintf(cfg.Out, "watch error: %v\n", evt.err)
				continue
			}

			rec := evt.record
			if cfg.Verdict != "" && rec.NovaVerdict != cfg.Verdict {
				continue
			}
			if cfg.Tool != "" && rec.ToolName != cfg.Tool {
				continue
			}
			fmt.Fprintln(cfg.Out, formatLine(rec))
		}
	}
}
