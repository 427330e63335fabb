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

package verdict

import "github.com/fr0gger/nova-claude-code-protector/internal/session"

// Summary bundles the computed statistics, activity estimate and an
// optional AI-written narrative for one session.
type Summary struct {
	AISummary string `json:"ai_summary,omitempty"`
	Statistics
	Activity ActivityMetrics `json:"activity"`
}

// SessionObject is the read-only structure handed to the report renderer
// and the summarizer: session identity, the full ordered record stream,
// and the derived summary.
type SessionObject struct {
	SessionID    string           `json:"session_id"`
	SessionStart string           `json:"session_start"`
	SessionEnd   string           `json:"session_end"`
	Platform     string           `json:"platform"`
	ProjectDir   string           `json:"project_dir"`
	Events       []session.Record `json:"events"`
	Summary      Summary          `json:"summary"`
}

// BuildSessionObject assembles the consumer contract from a stored
// record stream. Identity fields come from the init record; session_end
// is the last event's end timestamp (or the last prompt's timestamp).
func BuildSessionObject(sessionID string, records []session.Record) SessionObject {
	obj := SessionObject{
		SessionID: sessionID,
		Summary: Summary{
			Statistics: Compute(records),
			Activity:   ComputeActivity(records),
		},
	}

	for _, rec := range records {
		switch rec.Type {
		case session.TypeInit:
			obj.SessionStart = rec.Timestamp
			obj.Platform = rec.Platform
			obj.ProjectDir = rec.ProjectDir
			if rec.SessionID != "" {
				obj.SessionID = rec.SessionID
			}
		case session.TypeEvent:
			obj.Events = append(obj.Events, rec)
			if rec.TimestampEnd != "" {
				obj.SessionEnd = rec.TimestampEnd
			}
		case session.TypeUserPrompt:
			obj.Events = append(obj.Events, rec)
			if rec.Timestamp != "" {
				obj.SessionEnd = rec.Timestamp
			}
		}
	}
	return obj
}
