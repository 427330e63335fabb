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

// Package config loads guard configuration from YAML with defaults that
// work with no file present. A broken or missing config never disables
// the guard: every load failure degrades to defaults with a warning.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

const configFileName = "config.yaml"

// knownKeys are the accepted top-level configuration keys. Anything else
// is warned about and ignored rather than rejected.
var knownKeys = map[string]bool{
	"report_output_dir":    true,
	"ai_summary_enabled":   true,
	"output_truncation_kb": true,
	"min_severity":         true,
	"max_content_length":   true,
	"debug":                true,
	"logging":              true,
}

// Config holds all guard settings.
type Config struct {
	// ReportOutputDir overrides the default report directory. Relative
	// paths resolve against the project directory.
	ReportOutputDir string `yaml:"report_output_dir"`

	// AISummaryEnabled gates the AI-written session summary.
	AISummaryEnabled bool `yaml:"ai_summary_enabled"`

	// OutputTruncationKB caps stored tool output size in KB.
	OutputTruncationKB int `yaml:"output_truncation_kb"`

	// MinSeverity drops detections below this threshold.
	MinSeverity string `yaml:"min_severity"`

	// MaxContentLength caps the number of bytes handed to the scanner.
	MaxContentLength int `yaml:"max_content_length"`

	Debug bool `yaml:"debug"`

	Logging Logging `yaml:"logging"`
}

// Logging configures the log-shipping handlers.
type Logging struct {
	Enabled  bool     `yaml:"enabled"`
	Handlers []string `yaml:"handlers"`

	File    FileHandler    `yaml:"file"`
	Datadog DatadogHandler `yaml:"datadog"`
	Webhook WebhookHandler `yaml:"webhook"`
}

// FileHandler configures the local JSONL shipping handler.
type FileHandler struct {
	OutputDir string `yaml:"output_dir"`
}

// DatadogHandler configures shipping to the Datadog Logs API.
type DatadogHandler struct {
	APIKey  string   `yaml:"api_key"`
	Site    string   `yaml:"site"`
	Service string   `yaml:"service"`
	Tags    []string `yaml:"tags"`
}

// WebhookHandler configures a generic JSON POST handler.
type WebhookHandler struct {
	URL string `yaml:"url"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		AISummaryEnabled:   true,
		OutputTruncationKB: 10,
		MinSeverity:        "low",
		MaxContentLength:   50000,
		Logging: Logging{
			Datadog: DatadogHandler{Site: "datadoghq.com", Service: "novaguard"},
		},
	}
}

// TruncationBytes returns the output truncation limit in bytes.
func (c Config) TruncationBytes() int {
	return c.OutputTruncationKB * 1024
}

// ReportDir resolves the report output directory for a project.
func (c Config) ReportDir(projectDir string) string {
	if c.ReportOutputDir == "" {
		return filepath.Join(projectDir, ".novaguard", "reports")
	}
	if filepath.IsAbs(c.ReportOutputDir) {
		return c.ReportOutputDir
	}
	return filepath.Join(projectDir, c.ReportOutputDir)
}

// Load reads configuration for a project, checking the project's
// .novaguard directory first and falling back to ~/.novaguard. A missing
// file yields defaults silently; a malformed file yields defaults with a
// warning. Load never fails.
func Load(projectDir string, logger *slog.Logger) Config {
	if logger == nil {
		logger = slog.Default()
	}

	paths := []string{
		filepath.Join(projectDir, ".novaguard", configFileName),
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".novaguard", configFileName))
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		return parse(data, path, logger)
	}
	return Default()
}

// parse decodes config YAML over the defaults. Unknown top-level keys
// are collected from a generic first pass and warned about.
func parse(data []byte, path string, logger *slog.Logger) Config {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		logger.Warn("config: parse failed, using defaults", "path", path, "error", err)
		return Default()
	}

	var unknown []string
	for key := range raw {
		if !knownKeys[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		logger.Warn("config: unknown key ignored", "key", key, "path", path)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logger.Warn("config: decode failed, using defaults", "path", path, "error", err)
		return Default()
	}

	if cfg.OutputTruncationKB < 1 {
		logger.Warn("config: output_truncation_kb must be positive, using default",
			"value", cfg.OutputTruncationKB)
		cfg.OutputTruncationKB = Default().OutputTruncationKB
	}
	return cfg
}
