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

package scanner

import (
	"embed"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

//go:embed rules/*.yaml
var defaultRules embed.FS

// LoadDefault builds a scanner from the embedded rule set plus any
// custom rules found under <project>/.novaguard/rules/. Custom rule
// files that fail to parse are skipped with a warning.
func LoadDefault(projectDir string, logger *slog.Logger) *RuleScanner {
	if logger == nil {
		logger = slog.Default()
	}

	var rules []Rule

	entries, err := defaultRules.ReadDir("rules")
	if err != nil {
		logger.Warn("scanner: read embedded rules", "error", err)
	}
	for _, entry := range entries {
		data, err := defaultRules.ReadFile("rules/" + entry.Name())
		if err != nil {
			logger.Warn("scanner: read embedded rule file", "file", entry.Name(), "error", err)
			continue
		}
		parsed, err := ParseRules(data)
		if err != nil {
			logger.Warn("scanner: parse embedded rule file", "file", entry.Name(), "error", err)
			continue
		}
		rules = append(rules, parsed...)
	}

	rules = append(rules, loadCustomRules(projectDir, logger)...)
	return NewRuleScanner(rules, logger)
}

func loadCustomRules(projectDir string, logger *slog.Logger) []Rule {
	dir := filepath.Join(projectDir, ".novaguard", "rules")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var rules []Rule
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || (!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("scanner: read custom rule file", "path", path, "error", err)
			continue
		}
		parsed, err := ParseRules(data)
		if err != nil {
			logger.Warn("scanner: parse custom rule file", "path", path, "error", err)
			continue
		}
		rules = append(rules, parsed...)
	}
	return rules
}
