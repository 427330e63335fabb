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

// Package scanner detects suspicious content in tool inputs and outputs.
//
// The package defines the pluggable Scanner seam and ships a keyword rule
// engine as the reference implementation: YAML rule files carrying
// case-insensitive keywords and regex patterns, with severity and
// category metadata per rule. Heavier detection tiers plug in behind the
// same interface.
package scanner

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fr0gger/nova-claude-code-protector/internal/verdict"
)

// Scanner evaluates text and returns zero or more detections. An error
// means the scan itself could not run; the caller maps that to the
// scan_failed verdict rather than allowed.
type Scanner interface {
	Scan(text string) ([]verdict.Detection, error)
}

// Rule is one detection rule from a YAML rule file.
type Rule struct {
	Name        string   `yaml:"name"`
	Severity    string   `yaml:"severity"`
	Category    string   `yaml:"category"`
	Description string   `yaml:"description"`
	Keywords    []string `yaml:"keywords"`
	Patterns    []string `yaml:"patterns"`
}

type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// compiledRule pairs a rule with its pre-compiled patterns and lowered
// keywords.
type compiledRule struct {
	rule     Rule
	keywords []string
	patterns []*regexp.Regexp
}

// RuleScanner is the built-in keyword and regex detection engine.
type RuleScanner struct {
	rules  []compiledRule
	logger *slog.Logger
}

// NewRuleScanner compiles a rule set. Individual rules that fail to
// compile are skipped with a warning so one bad custom rule never
// disables the rest.
func NewRuleScanner(rules []Rule, logger *slog.Logger) *RuleScanner {
	if logger == nil {
		logger = slog.Default()
	}

	s := &RuleScanner{logger: logger}
	for _, rule := range rules {
		compiled, err := compile(rule)
		if err != nil {
			logger.Warn("scanner: skip rule", "rule", rule.Name, "error", err)
			continue
		}
		s.rules = append(s.rules, compiled)
	}
	return s
}

func compile(rule Rule) (compiledRule, error) {
	if rule.Name == "" {
		return compiledRule{}, fmt.Errorf("scanner: rule has no name")
	}
	if len(rule.Keywords) == 0 && len(rule.Patterns) == 0 {
		return compiledRule{}, fmt.Errorf("scanner: rule %q has no keywords or patterns", rule.Name)
	}

	c := compiledRule{rule: rule}
	for _, kw := range rule.Keywords {
		c.keywords = append(c.keywords, strings.ToLower(kw))
	}
	for _, pattern := range rule.Patterns {
		re, err := regexp.Compile("(?is)" + pattern)
		if err != nil {
			return compiledRule{}, fmt.Errorf("scanner: rule %q pattern: %w", rule.Name, err)
		}
		c.patterns = append(c.patterns, re)
	}
	return c, nil
}

// RuleCount reports how many rules compiled successfully.
func (s *RuleScanner) RuleCount() int { return len(s.rules) }

// Scan matches text against every loaded rule. A rule matches when any
// of its keywords appears (case-insensitive) or any pattern matches; all
// matching keywords and patterns are reported on the detection.
func (s *RuleScanner) Scan(text string) ([]verdict.Detection, error) {
	if text == "" {
		return nil, nil
	}

	lowered := strings.ToLower(text)

	var detections []verdict.Detection
	for _, c := range s.rules {
		var matchedKeywords []string
		for i, kw := range c.keywords {
			if strings.Contains(lowered, kw) {
				matchedKeywords = append(matchedKeywords, c.rule.Keywords[i])
			}
		}

		var matchedPatterns []string
		for i, re := range c.patterns {
			if re.MatchString(text) {
				matchedPatterns = append(matchedPatterns, c.rule.Patterns[i])
			}
		}

		if len(matchedKeywords) == 0 && len(matchedPatterns) == 0 {
			continue
		}

		detections = append(detections, verdict.Detection{
			RuleName:         c.rule.Name,
			Severity:         c.rule.Severity,
			Description:      c.rule.Description,
			Category:         c.rule.Category,
			MatchedKeywords:  matchedKeywords,
			MatchedSemantics: matchedPatterns,
		})
	}
	return detections, nil
}

// ParseRules decodes one YAML rule file.
func ParseRules(data []byte) ([]Rule, error) {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("scanner: parse rule file: %w", err)
	}
	return file.Rules, nil
}
