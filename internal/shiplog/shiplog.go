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

// Package shiplog ships enriched hook events to configured log
// destinations (local JSONL files, Datadog, generic webhooks).
//
// Shipping is strictly best-effort: a handler that fails to build or
// deliver is skipped with a warning and never blocks the hook.
package shiplog

import (
	"crypto/rand"
	"encoding/json"
	"log/slog"
	"os"
	"os/user"
	"runtime"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/fr0gger/nova-claude-code-protector/internal/config"
	"github.com/fr0gger/nova-claude-code-protector/internal/session"
)

const serviceName = "novaguard"

// Handler delivers one enriched entry to a destination.
type Handler interface {
	Name() string
	Ship(entry map[string]any) error
}

// factory builds a handler for one session. Returning a nil Handler with
// a nil error means the handler is not configured (e.g. no API key) and
// is silently skipped.
type factory func(cfg config.Logging, sessionID, projectDir string) (Handler, error)

// handlerFactories is the compile-time registry of shipping handlers.
var handlerFactories = map[string]factory{
	"file":    newFileHandler,
	"datadog": newDatadogHandler,
	"webhook": newWebhookHandler,
}

// HandlerNames lists the registered handler names.
func HandlerNames() []string {
	return []string{"file", "datadog", "webhook"}
}

// Shipper fans one entry out to every configured handler.
type Shipper struct {
	handlers []Handler
	logger   *slog.Logger

	sessionID  string
	projectDir string
}

// New builds a shipper from configuration. Unknown handler names and
// handlers that fail to build are warned about and skipped; a disabled
// logging section yields a shipper with no handlers.
func New(cfg config.Config, sessionID, projectDir string, logger *slog.Logger) *Shipper {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Shipper{logger: logger, sessionID: sessionID, projectDir: projectDir}
	if !cfg.Logging.Enabled {
		return s
	}

	for _, name := range cfg.Logging.Handlers {
		build, ok := handlerFactories[name]
		if !ok {
			logger.Warn("shiplog: unknown handler", "handler", name)
			continue
		}
		h, err := build(cfg.Logging, sessionID, projectDir)
		if err != nil {
			logger.Warn("shiplog: build handler", "handler", name, "error", err)
			continue
		}
		if h != nil {
			s.handlers = append(s.handlers, h)
		}
	}
	return s
}

// HandlerCount reports how many handlers were successfully configured.
func (s *Shipper) HandlerCount() int { return len(s.handlers) }

// Ship enriches and delivers one event to every handler. Delivery
// failures are logged and ignored.
func (s *Shipper) Ship(event map[string]any, message string) {
	if len(s.handlers) == 0 {
		return
	}

	entry := s.enrich(event, message)
	for _, h := range s.handlers {
		if err := h.Ship(entry); err != nil {
			s.logger.Warn("shiplog: ship entry", "handler", h.Name(), "error", err)
		}
	}
}

// enrich stamps an event with identity fields shared by every handler:
// record ID, timestamps, host, service, platform and user.
func (s *Shipper) enrich(event map[string]any, message string) map[string]any {
	entry := make(map[string]any, len(event)+8)
	for k, v := range event {
		entry[k] = v
	}

	entry["record_id"] = NewRecordID()
	entry["timestamp"] = session.FormatTimestamp(time.Now())
	entry["session_id"] = s.sessionID
	if message != "" {
		entry["message"] = message
	}

	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	entry["host"] = host
	entry["service"] = serviceName
	entry["platform"] = runtime.GOOS
	entry["project_dir"] = s.projectDir
	entry["user"] = currentUser()

	return entry
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "unknown"
}

// NewRecordID returns a new ULID record identifier.
func NewRecordID() string {
	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), rand.Reader)
	if err == nil {
		return id.String()
	}
	return ulid.Make().String()
}

func marshalEntry(entry map[string]any) ([]byte, error) {
	return json.Marshal(entry)
}
