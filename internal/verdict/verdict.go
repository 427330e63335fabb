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

// Package verdict reduces raw scanner detections into a per-call verdict
// and folds event streams into session statistics.
package verdict

// Verdict values assigned to each tool call.
const (
	Allowed    = "allowed"
	Warned     = "warned"
	Blocked    = "blocked"
	ScanFailed = "scan_failed"
)

// Severity values carried by detections and verdicts.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Detection is one rule-engine match. Only RuleName and Severity drive
// the verdict; the remaining fields pass through to reports.
type Detection struct {
	RuleName         string   `json:"rule_name"`
	Severity         string   `json:"severity"`
	Description      string   `json:"description,omitempty"`
	Category         string   `json:"category,omitempty"`
	MatchedKeywords  []string `json:"matched_keywords,omitempty"`
	MatchedSemantics []string `json:"matched_semantics,omitempty"`
	LLMMatch         bool     `json:"llm_match,omitempty"`
	Confidence       float64  `json:"confidence,omitempty"`
}

// Assign computes a single verdict and severity from a detection list
// using strict precedence: any high detection blocks; otherwise any
// medium warns at medium; otherwise any remaining detection (low or an
// unrecognized severity) warns at low. No detections means allowed with
// no severity.
func Assign(detections []Detection) (verdict, severity string) {
	if len(detections) == 0 {
		return Allowed, ""
	}

	hasHigh, hasMedium := false, false
	for _, d := range detections {
		switch d.Severity {
		case SeverityHigh:
			hasHigh = true
		case SeverityMedium:
			hasMedium = true
		}
	}

	switch {
	case hasHigh:
		return Blocked, SeverityHigh
	case hasMedium:
		return Warned, SeverityMedium
	default:
		return Warned, SeverityLow
	}
}

// RuleNames lists every detection's rule name, substituting "unknown"
// for missing names and deduplicating while preserving first-seen order.
func RuleNames(detections []Detection) []string {
	if len(detections) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(detections))
	names := make([]string, 0, len(detections))
	for _, d := range detections {
		name := d.RuleName
		if name == "" {
			name = "unknown"
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// Dedupe drops repeated detections of the same rule, keeping the first
// occurrence of each rule name.
func Dedupe(detections []Detection) []Detection {
	if len(detections) == 0 {
		return detections
	}

	seen := make(map[string]bool, len(detections))
	unique := make([]Detection, 0, len(detections))
	for _, d := range detections {
		name := d.RuleName
		if name == "" {
			name = "unknown"
		}
		if !seen[name] {
			seen[name] = true
			unique = append(unique, d)
		}
	}
	return unique
}

// severityRank orders severities for threshold filtering. Missing or
// unrecognized severities rank as medium.
func severityRank(severity string) int {
	switch severity {
	case SeverityLow:
		return 1
	case SeverityHigh:
		return 3
	default:
		return 2
	}
}

// FilterMinSeverity drops detections below the given severity threshold.
// An empty threshold keeps everything.
func FilterMinSeverity(detections []Detection, minSeverity string) []Detection {
	if minSeverity == "" || len(detections) == 0 {
		return detections
	}

	min := severityRank(minSeverity)
	kept := make([]Detection, 0, len(detections))
	for _, d := range detections {
		if severityRank(d.Severity) >= min {
			kept = append(kept, d)
		}
	}
	return kept
}
