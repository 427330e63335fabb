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

package shiplog

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fr0gger/nova-claude-code-protector/internal/config"
)

// datadogEndpoints maps Datadog sites to their Logs API v2 intake URLs.
var datadogEndpoints = map[string]string{
	"datadoghq.com":     "https://http-intake.logs.datadoghq.com/api/v2/logs",
	"datadoghq.eu":      "https://http-intake.logs.datadoghq.eu/api/v2/logs",
	"us3.datadoghq.com": "https://http-intake.logs.us3.datadoghq.com/api/v2/logs",
	"us5.datadoghq.com": "https://http-intake.logs.us5.datadoghq.com/api/v2/logs",
	"ap1.datadoghq.com": "https://http-intake.logs.ap1.datadoghq.com/api/v2/logs",
}

const (
	datadogSource = "claude-code-hooks"

	// Datadog's hard limit is 1MB per log; stay well under it.
	datadogMaxBody = 256 * 1024
)

// datadogHandler ships entries to the Datadog Logs API.
type datadogHandler struct {
	apiKey   string
	endpoint string
	service  string
	tags     string
	client   *http.Client
}

// newDatadogHandler builds the Datadog handler. The DD_API_KEY
// environment variable takes precedence over the config key; with
// neither present the handler is skipped, not an error.
func newDatadogHandler(cfg config.Logging, sessionID, projectDir string) (Handler, error) {
	apiKey := os.Getenv("DD_API_KEY")
	if apiKey == "" {
		apiKey = cfg.Datadog.APIKey
	}
	if apiKey == "" {
		return nil, nil
	}

	endpoint, ok := datadogEndpoints[cfg.Datadog.Site]
	if !ok {
		endpoint = datadogEndpoints["datadoghq.com"]
	}

	service := cfg.Datadog.Service
	if service == "" {
		service = serviceName
	}

	return &datadogHandler{
		apiKey:   apiKey,
		endpoint: endpoint,
		service:  service,
		tags:     strings.Join(cfg.Datadog.Tags, ","),
		client:   &http.Client{Timeout: 5 * time.Second},
	}, nil
}

func (h *datadogHandler) Name() string { return "datadog" }

func (h *datadogHandler) Ship(entry map[string]any) error {
	entry["ddsource"] = datadogSource
	entry["service"] = h.service
	if h.tags != "" {
		entry["ddtags"] = h.tags
	}

	body, err := marshalEntry(entry)
	if err != nil {
		return fmt.Errorf("shiplog: marshal entry: %w", err)
	}
	if len(body) > datadogMaxBody {
		// Re-marshal with the bulky payload fields dropped rather than
		// shipping a syntactically broken truncated body.
		slim := make(map[string]any, len(entry))
		for k, v := range entry {
			switch k {
			case "tool_output", "tool_input", "event":
				continue
			}
			slim[k] = v
		}
		slim["truncated"] = true
		if body, err = marshalEntry(slim); err != nil {
			return fmt.Errorf("shiplog: marshal truncated entry: %w", err)
		}
	}

	req, err := http.NewRequest(http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("shiplog: build datadog request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("DD-API-KEY", h.apiKey)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("shiplog: post to datadog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("shiplog: datadog returned status %d", resp.StatusCode)
	}
	return nil
}
