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

package capture

import "strings"

// MCPInfo classifies a tool name under the Model Context Protocol naming
// convention.
type MCPInfo struct {
	IsMCP    bool
	Server   string
	Function string
}

// SkillInfo classifies a Skill tool invocation.
type SkillInfo struct {
	IsSkill bool
	Name    string
	Args    string
}

// ClassifyMCP parses MCP tool names into server and function.
//
// Standard tools use a double-underscore convention
// (mcp__github__list_prs); IDE-style tools use a single underscore
// (mcp_ide_getDiagnostics) and split on the first underscore only.
func ClassifyMCP(toolName string) MCPInfo {
	switch {
	case strings.HasPrefix(toolName, "mcp__"):
		return splitMCP(strings.TrimPrefix(toolName, "mcp__"), "__")
	case strings.HasPrefix(toolName, "mcp_"):
		return splitMCP(strings.TrimPrefix(toolName, "mcp_"), "_")
	default:
		return MCPInfo{}
	}
}

func splitMCP(remainder, sep string) MCPInfo {
	info := MCPInfo{IsMCP: true}
	if remainder == "" {
		return info
	}
	parts := strings.SplitN(remainder, sep, 2)
	info.Server = parts[0]
	if len(parts) == 2 {
		info.Function = parts[1]
	}
	return info
}

// ClassifySkill parses a Skill tool invocation. Skills are invoked via
// the "Skill" tool with a "skill" input field; namespaced names
// (bmad:bmm:workflows:dev-story) are preserved verbatim.
func ClassifySkill(toolName string, toolInput map[string]any) SkillInfo {
	if toolName != "Skill" {
		return SkillInfo{}
	}

	info := SkillInfo{IsSkill: true}
	if name, ok := toolInput["skill"].(string); ok {
		info.Name = name
	}
	if args, ok := toolInput["args"].(string); ok {
		info.Args = args
	}
	return info
}
