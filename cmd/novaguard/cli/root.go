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

// Package cli contains novaguard command-line subcommands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	projectDir string
	verbose    bool
}

// Execute runs the novaguard CLI command tree.
func Execute() error {
	cmd := NewRootCmd(context.Background(), os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		var ec interface{ ExitCode() int }
		if !errors.As(err, &ec) {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
		return err
	}
	return nil
}

// ExitCode returns the process exit code implied by err.
// Non-nil errors default to exit code 1 unless they expose ExitCode().
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var ec interface{ ExitCode() int }
	if errors.As(err, &ec) {
		code := ec.ExitCode()
		if code > 0 {
			return code
		}
	}

	return 1
}

// NewRootCmd builds the novaguard root command.
func NewRootCmd(ctx context.Context, outWriter, errWriter io.Writer) *cobra.Command {
	opts := &rootOptions{}
	var showVersion bool
	if ctx == nil {
		ctx = context.Background()
	}

	cmd := &cobra.Command{
		Use:           "novaguard",
		Short:         "Tool-call auditing and prompt-injection detection for AI coding agents",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showVersion {
				return writeVersion(cmd.OutOrStdout())
			}
			return cmd.Help()
		},
	}
	cmd.SetContext(ctx)
	cmd.SetOut(outWriter)
	cmd.SetErr(errWriter)

	cmd.PersistentFlags().StringVar(&opts.projectDir, "project-dir", "", "Project directory (default: $CLAUDE_PROJECT_DIR or cwd)")
	cmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&showVersion, "version", false, "Print version information and exit")

	const (
		groupHooks   = "hooks"
		groupReports = "reports"
		groupRuntime = "runtime"
	)
	cmd.AddGroup(
		&cobra.Group{ID: groupHooks, Title: "Hooks"},
		&cobra.Group{ID: groupReports, Title: "Reports"},
		&cobra.Group{ID: groupRuntime, Title: "Runtime"},
	)

	versionCmd := newVersionCmd()
	hookCmd := newHookCmd(opts)
	reportCmd := newReportCmd(opts)
	sessionsCmd := newSessionsCmd(opts)
	watchCmd := newWatchCmd(opts)

	hookCmd.GroupID = groupHooks
	reportCmd.GroupID = groupReports
	sessionsCmd.GroupID = groupReports
	watchCmd.GroupID = groupRuntime

	cmd.AddCommand(versionCmd)
	cmd.AddCommand(hookCmd)
	cmd.AddCommand(reportCmd)
	cmd.AddCommand(sessionsCmd)
	cmd.AddCommand(watchCmd)

	return cmd
}

// resolveProjectDir picks the project directory for this invocation:
// explicit flag, then CLAUDE_PROJECT_DIR (set by the host agent), then cwd.
func resolveProjectDir(opts *rootOptions) string {
	dir := opts.projectDir
	if dir == "" {
		dir = os.Getenv("CLAUDE_PROJECT_DIR")
	}
	if dir == "" {
		if cwd, err := os.Getwd(); err == nil {
			dir = cwd
		} else {
			dir = "."
		}
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return dir
}

// newLogger builds the hook logger. Logs always go to stderr: stdout is
// reserved for hook JSON responses.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

type exitCodeError struct {
	code int
}

func (e exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func (e exitCodeError) ExitCode() int {
	if e.code < 1 {
		return 1
	}
	return e.code
}
