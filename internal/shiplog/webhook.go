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
	"time"

	"github.com/fr0gger/nova-claude-code-protector/internal/config"
)

// webhookHandler POSTs entries as JSON to any webhook URL.
type webhookHandler struct {
	url    string
	client *http.Client
}

func newWebhookHandler(cfg config.Logging, sessionID, projectDir string) (Handler, error) {
	if cfg.Webhook.URL == "" {
		return nil, nil
	}
	return &webhookHandler{
		url:    cfg.Webhook.URL,
		client: &http.Client{Timeout: 5 * time.Second},
	}, nil
}

func (h *webhookHandler) Name() string { return "webhook" }

func (h *webhookHandler) Ship(entry map[string]any) error {
	body, err := marshalEntry(entry)
	if err != nil {
		return fmt.Errorf("shiplog: marshal entry: %w", err)
	}

	resp, err := h.client.Post(h.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("shiplog: post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("shiplog: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
