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

package config

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	guardDir := filepath.Join(dir, ".novaguard")
	require.NoError(t, os.MkdirAll(guardDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(guardDir, "config.yaml"), []byte(content), 0o644))
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg := Load(t.TempDir(), discard())
	assert.True(t, cfg.AISummaryEnabled)
	assert.Equal(t, 10, cfg.OutputTruncationKB)
	assert.Equal(t, 10240, cfg.TruncationBytes())
	assert.Equal(t, "low", cfg.MinSeverity)
	assert.Equal(t, 50000, cfg.MaxContentLength)
	assert.Equal(t, "datadoghq.com", cfg.Logging.Datadog.Site)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
ai_summary_enabled: false
output_truncation_kb: 25
min_severity: medium
logging:
  enabled: true
  handlers: [file, datadog]
  datadog:
    api_key: dd-key
    site: datadoghq.eu
`)

	cfg := Load(dir, discard())
	assert.False(t, cfg.AISummaryEnabled)
	assert.Equal(t, 25, cfg.OutputTruncationKB)
	assert.Equal(t, "medium", cfg.MinSeverity)
	assert.True(t, cfg.Logging.Enabled)
	assert.Equal(t, []string{"file", "datadog"}, cfg.Logging.Handlers)
	assert.Equal(t, "datadoghq.eu", cfg.Logging.Datadog.Site)
	// Unset keys keep their defaults.
	assert.Equal(t, 50000, cfg.MaxContentLength)
}

func TestLoad_MalformedFileFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "report_output_dir: [unterminated")

	assert.NotPanics(t, func() {
		cfg := Load(dir, discard())
		assert.Equal(t, Default().OutputTruncationKB, cfg.OutputTruncationKB)
	})
}

func TestLoad_WarnsOnUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "debug: true\nno_such_setting: 1\n")

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	cfg := Load(dir, logger)

	assert.True(t, cfg.Debug)
	assert.Contains(t, buf.String(), "no_such_setting")
}

func TestLoad_NonPositiveTruncationResets(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "output_truncation_kb: -5\n")

	cfg := Load(dir, discard())
	assert.Equal(t, 10, cfg.OutputTruncationKB)
}

func TestReportDir(t *testing.T) {
	cfg := Default()
	assert.Equal(t, filepath.Join("/proj", ".novaguard", "reports"), cfg.ReportDir("/proj"))

	cfg.ReportOutputDir = "out/reports"
	assert.Equal(t, filepath.Join("/proj", "out/reports"), cfg.ReportDir("/proj"))

	cfg.ReportOutputDir = "/var/reports"
	assert.Equal(t, "/var/reports", cfg.ReportDir("/proj"))
}
