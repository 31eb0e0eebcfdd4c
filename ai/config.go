// Copyright 2025 Poiesic Systems
//
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

package ai

import (
	"errors"
	"strings"
	"time"
)

// Defaults for a local OpenAI-compatible embedding server such as Ollama.
const (
	DefaultHost    = "http://localhost:11434/v1"
	DefaultModel   = "embeddinggemma"
	DefaultToken   = "none"
	DefaultTimeout = 60 * time.Second
)

var (
	ErrHostRequired  = errors.New("embedding host is required")
	ErrModelRequired = errors.New("embedding model is required")
)

// Config locates the embedding service.
type Config struct {
	Host    string        // Base URL, e.g. "http://localhost:11434/v1"
	Model   string        // e.g. "embeddinggemma", "text-embedding-3-small"
	Token   string        // Local servers accept any non-empty value
	Timeout time.Duration // Per request; zero selects DefaultTimeout
}

// DefaultConfig returns settings for a local server.
func DefaultConfig() *Config {
	return &Config{
		Host:    DefaultHost,
		Model:   DefaultModel,
		Token:   DefaultToken,
		Timeout: DefaultTimeout,
	}
}

// Normalize appends the /v1 suffix OpenAI-compatible servers expect and
// fills an empty token and timeout.
func (c *Config) Normalize() {
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/") + "/v1"
	}
	if c.Token == "" {
		c.Token = DefaultToken
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// Validate normalizes c and reports missing fields.
func (c *Config) Validate() error {
	c.Normalize()
	switch {
	case c.Host == "":
		return ErrHostRequired
	case c.Model == "":
		return ErrModelRequired
	}
	return nil
}
