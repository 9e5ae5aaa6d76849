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
package filter

import "github.com/poiesic/witness/core"

const (
	// DefaultMaxLength is the longest text accepted, in characters.
	DefaultMaxLength = core.MaxContentLength

	// DefaultStructuralRatio is the highest accepted share of structural characters.
	DefaultStructuralRatio = 0.15

	// structuralChars are the characters counted towards the structural ratio.
	structuralChars = "{}[]();=><"
)

// DefaultNoiseMarkers are case-insensitive substrings identifying text produced
// by this tool itself or by developer tooling chrome.
var DefaultNoiseMarkers = []string{
	"witness collect",
	"witness search",
	"context chunk",
	"embedding host",
	"localhost:",
	"127.0.0.1",
	"go test ./",
	"npm run ",
	"stack trace",
	"traceback (most recent call last)",
}

// Config holds filter settings.
type Config struct {
	// NoiseMarkers are lowercased substrings that mark text as noise.
	NoiseMarkers []string

	// MaxLength is the longest accepted text in characters.
	MaxLength int

	// StructuralRatio is the highest accepted share of structural characters.
	StructuralRatio float64
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithNoiseMarkers replaces the noise marker list.
func WithNoiseMarkers(markers ...string) ConfigOption {
	return func(c *Config) {
		c.NoiseMarkers = markers
	}
}

// WithExtraNoiseMarkers appends to the noise marker list.
func WithExtraNoiseMarkers(markers ...string) ConfigOption {
	return func(c *Config) {
		c.NoiseMarkers = append(c.NoiseMarkers, markers...)
	}
}

// WithMaxLength sets the longest accepted text.
func WithMaxLength(n int) ConfigOption {
	return func(c *Config) {
		c.MaxLength = n
	}
}

// WithStructuralRatio sets the structural character threshold.
func WithStructuralRatio(ratio float64) ConfigOption {
	return func(c *Config) {
		c.StructuralRatio = ratio
	}
}

// DefaultConfig returns the default filter configuration.
func DefaultConfig() *Config {
	return &Config{
		NoiseMarkers:    append([]string(nil), DefaultNoiseMarkers...),
		MaxLength:       DefaultMaxLength,
		StructuralRatio: DefaultStructuralRatio,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
