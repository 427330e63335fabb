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

// Package guard blocks dangerous tool calls before execution.
//
// This is the fast pre-execution check: a fixed table of command and
// content patterns, matched in microseconds. Full content scanning
// happens after execution in the scanner package.
package guard

import "regexp"

type blockRule struct {
	pattern *regexp.Regexp
	reason  string
}

func rule(pattern, reason string) blockRule {
	return blockRule{pattern: regexp.MustCompile("(?i)" + pattern), reason: reason}
}

// commandRules block destructive or exfiltrating shell commands.
var commandRules = []blockRule{
	// Destructive file operations.
	rule(`\brm\s+(-[rf]+\s+)*(/|~|\$HOME|/\*)`, "Destructive rm command"),
	rule(`\brm\s+-rf\s+/`, "rm -rf on root"),
	rule(`\bsudo\s+rm\s+-rf`, "sudo rm -rf"),

	// Disk operations.
	rule(`\bmkfs\b`, "Filesystem format command"),
	rule(`\bdd\s+if=.+of=/dev/`, "Direct disk write"),
	rule(`\bdiskutil\s+(erase|partition|zero)`, "Disk utility erase"),

	// Fork bombs.
	rule(`:\(\)\s*\{\s*:\|:\s*&\s*\}`, "Fork bomb"),
	rule(`\bfork\s*bomb`, "Fork bomb reference"),

	// Credential exfiltration.
	rule(`curl.+\|\s*sh`, "Pipe curl to shell"),
	rule(`wget.+\|\s*sh`, "Pipe wget to shell"),
	rule(`cat\s+.*(id_rsa|\.pem|\.key|password|credentials)`, "Reading sensitive files"),

	// Dangerous redirects.
	rule(`>\s*/dev/sd[a-z]`, "Redirect to disk device"),
	rule(`>\s*/dev/null\s*2>&1\s*&`, "Background with hidden output"),
}

// contentRules block injection payloads written into files. These target
// actual attack payloads, not legitimate API use: eval and
// document.write alone are fine, only the suspicious combinations match.
var contentRules = []blockRule{
	rule(`eval\s*\(\s*(location|document\.URL|document\.cookie|window\.name)`, "XSS eval injection"),
	rule(`document\.write\s*\([^)]*<script`, "XSS document.write injection"),
	rule(`;\s*DROP\s+TABLE`, "SQL injection attempt"),
	rule(`UNION\s+SELECT.*FROM`, "SQL injection attempt"),
	rule(`'\s*OR\s+'1'\s*=\s*'1`, "SQL injection attempt"),
}

func firstMatch(rules []blockRule, text string) string {
	if text == "" {
		return ""
	}
	for _, r := range rules {
		if r.pattern.MatchString(text) {
			return r.reason
		}
	}
	return ""
}

// CheckCommand reports why a shell command is blocked, or "" if it is
// allowed.
func CheckCommand(command string) string {
	return firstMatch(commandRules, command)
}

// CheckContent reports why file content is blocked, or "" if it is
// allowed.
func CheckContent(content string) string {
	return firstMatch(contentRules, content)
}

// Check inspects one tool call before execution. Bash commands go
// through the command table; Write and Edit payloads go through the
// content table. Everything else is allowed.
func Check(toolName string, toolInput map[string]any) string {
	switch toolName {
	case "Bash":
		if cmd, ok := toolInput["command"].(string); ok {
			return CheckCommand(cmd)
		}
	case "Write":
		if content, ok := toolInput["content"].(string); ok {
			return CheckContent(content)
		}
	case "Edit":
		if newString, ok := toolInput["new_string"].(string); ok {
			return CheckContent(newString)
		}
	}
	return ""
}
