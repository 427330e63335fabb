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

package report

import "html/template"

var reportTemplate = template.Must(template.New("report").Parse(htmlTemplate))

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }

        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Helvetica, Arial, sans-serif;
            background-color: #0d1117;
            color: #c9d1d9;
            line-height: 1.5;
            min-height: 100vh;
        }

        .container {
            max-width: 1200px;
            margin: 0 auto;
            padding: 20px;
        }

        .header {
            text-align: center;
            margin-bottom: 30px;
            padding: 20px;
            background-color: #161b22;
            border-radius: 8px;
        }

        .header h1 {
            font-size: 2em;
            margin-bottom: 10px;
        }

        .header .meta {
            color: #7d8590;
            font-size: 0.9em;
        }

        .summary {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(160px, 1fr));
            gap: 20px;
            margin-bottom: 30px;
        }

        .card {
            background-color: #161b22;
            border-radius: 8px;
            padding: 20px;
            text-align: center;
            border-left: 4px solid #21262d;
        }

        .card.total { border-left-color: #58a6ff; }
        .card.files { border-left-color: #3fb950; }
        .card.warned { border-left-color: #d29922; }
        .card.blocked { border-left-color: #f85149; }
        .card.duration { border-left-color: #a371f7; }

        .card-number {
            font-size: 2em;
            font-weight: bold;
            margin-bottom: 5px;
        }

        .card-label {
            color: #7d8590;
            font-size: 0.9em;
        }

        .section {
            background-color: #161b22;
            border-radius: 8px;
            padding: 20px;
            margin-bottom: 30px;
        }

        .section h2 {
            margin-bottom: 20px;
            font-size: 1.3em;
        }

        .ai-summary {
            font-size: 1.05em;
            color: #e6edf3;
        }

        .disclaimer {
            color: #7d8590;
            font-size: 0.8em;
            margin-top: 10px;
        }

        table {
            width: 100%;
            border-collapse: collapse;
        }

        th, td {
            padding: 8px 12px;
            text-align: left;
            border-bottom: 1px solid #21262d;
        }

        th {
            background-color: #21262d;
            font-weight: 600;
        }

        tr:hover {
            background-color: #21262d;
        }

        .command {
            font-family: "SF Mono", Monaco, "Cascadia Code", "Roboto Mono", Consolas, "Courier New", monospace;
            font-size: 0.85em;
        }

        .verdict {
            padding: 2px 6px;
            border-radius: 3px;
            font-size: 0.8em;
            font-weight: 500;
        }

        .verdict-allowed {
            background-color: #238636;
            color: white;
        }

        .verdict-warned {
            background-color: #bf8700;
            color: white;
        }

        .verdict-blocked {
            background-color: #da3633;
            color: white;
        }

        .verdict-failed {
            background-color: #6e7681;
            color: white;
        }

        .verdict-prompt {
            background-color: #1f6feb;
            color: white;
        }

        @media (max-width: 768px) {
            .container {
                padding: 10px;
            }

            .summary {
                grid-template-columns: repeat(2, 1fr);
            }

            table {
                font-size: 0.9em;
            }

            th, td {
                padding: 6px 8px;
            }
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>{{.Title}}</h1>
            <div class="meta">
                Session {{.SessionID}} &middot; {{.Platform}} &middot; {{.ProjectDir}}
                <br>
                {{.StartTime}} &ndash; {{.EndTime}}
                <br>
                Generated: {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}}
            </div>
        </div>

        {{if .AISummary}}
        <div class="section">
            <h2>Summary</h2>
            <p class="ai-summary">{{.AISummary}}</p>
        </div>
        {{end}}

        <div class="summary">
            <div class="card total">
                <div class="card-number">{{.TotalEvents}}</div>
                <div class="card-label">Tool Calls</div>
            </div>
            <div class="card files">
                <div class="card-number">{{.FilesTouched}}</div>
                <div class="card-label">Files Touched</div>
            </div>
            <div class="card warned">
                <div class="card-number">{{.Warnings}}</div>
                <div class="card-label">Warnings</div>
            </div>
            <div class="card blocked">
                <div class="card-number">{{.Blocked}}</div>
                <div class="card-label">Blocked</div>
            </div>
            <div class="card duration">
                <div class="card-number">{{.DurationDisplay}}</div>
                <div class="card-label">Duration</div>
            </div>
        </div>

        {{if .ToolsUsed}}
        <div class="section">
            <h2>Tools Used</h2>
            <table>
                <thead>
                    <tr>
                        <th>Tool</th>
                        <th>Calls</th>
                    </tr>
                </thead>
                <tbody>
                    {{range .ToolsUsed}}
                    <tr>
                        <td>{{.Name}}</td>
                        <td>{{.Count}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>
        {{end}}

        {{if .MCPCalls}}
        <div class="section">
            <h2>MCP Activity</h2>
            <p>{{.MCPCalls}} calls, {{.MCPErrors}} errors</p>
            <table>
                <thead>
                    <tr>
                        <th>Server</th>
                        <th>Calls</th>
                    </tr>
                </thead>
                <tbody>
                    {{range .MCPServers}}
                    <tr>
                        <td>{{.Name}}</td>
                        <td>{{.Count}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>
        {{end}}

        {{if .SkillCalls}}
        <div class="section">
            <h2>Skill Activity</h2>
            <p>{{.SkillCalls}} invocations, {{.SkillErrors}} errors</p>
            <table>
                <thead>
                    <tr>
                        <th>Skill</th>
                        <th>Invocations</th>
                    </tr>
                </thead>
                <tbody>
                    {{range .SkillsUsed}}
                    <tr>
                        <td>{{.Name}}</td>
                        <td>{{.Count}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>
        {{end}}

        <div class="section">
            <h2>Activity Metrics</h2>
            <table>
                <tbody>
                    <tr><td>Input tokens (est.)</td><td>{{.Activity.InputTokensEst}}</td></tr>
                    <tr><td>Output tokens (est.)</td><td>{{.Activity.OutputTokensEst}}</td></tr>
                    <tr><td>Processing time</td><td>{{.Activity.TotalProcessingMS}} ms</td></tr>
                    <tr><td>User prompts</td><td>{{.UserPrompts}}</td></tr>
                </tbody>
            </table>
            <p class="disclaimer">Token counts are estimated from captured text sizes (chars / 4), not API-reported usage.</p>
        </div>

        <div class="section">
            <h2>Event Log</h2>
            <table>
                <thead>
                    <tr>
                        <th>#</th>
                        <th>Time</th>
                        <th>Tool</th>
                        <th>Detail</th>
                        <th>Verdict</th>
                        <th>Rules</th>
                    </tr>
                </thead>
                <tbody>
                    {{range .Events}}
                    <tr>
                        <td>{{.ID}}</td>
                        <td>{{.Time}}</td>
                        <td>{{.Tool}}</td>
                        <td class="command">{{.Detail}}</td>
                        <td><span class="verdict {{.CSSClass}}">{{.Verdict}}{{if .Severity}} ({{.Severity}}){{end}}</span></td>
                        <td>{{.Rules}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>
    </div>
</body>
</html>`
