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
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/witness/core"
	"github.com/poiesic/witness/dedup"
	"github.com/poiesic/witness/extract"
	"github.com/poiesic/witness/filter"
	"github.com/poiesic/witness/topic"
)

const (
	DefaultBatchSize          = 10
	DefaultFlushDelay         = 2 * time.Second
	DefaultMinLength          = 15
	DefaultClipboardMinLength = 10
	DefaultAggregateMinLength = 50
)

// Profile filters the user's identity out of person entities and learns
// contacts from the rest.
type Profile interface {
	IsMe(value string) bool
	LearnFromEntities(ctx context.Context, entities []core.Entity) error
}

// Option configures a Collector.
type Option func(*Collector) error

// WithBatchSize sets how many pending chunks trigger a flush.
// Default is 10.
func WithBatchSize(size int) Option {
	return func(c *Collector) error {
		if size < 1 {
			return fmt.Errorf("batch size must be positive, got %d", size)
		}
		c.batchSize = size
		return nil
	}
}

// WithFlushDelay sets how long the first chunk of a pending window waits
// before the window is flushed. Default is 2 seconds.
func WithFlushDelay(delay time.Duration) Option {
	return func(c *Collector) error {
		if delay <= 0 {
			return fmt.Errorf("flush delay must be positive, got %s", delay)
		}
		c.flushDelay = delay
		return nil
	}
}

// WithMinLength sets the minimum trimmed length for ordinary events.
// Default is 15.
func WithMinLength(n int) Option {
	return func(c *Collector) error {
		c.minLength = n
		return nil
	}
}

// WithClipboardMinLength sets the minimum trimmed length for clipboard events.
// Default is 10.
func WithClipboardMinLength(n int) Option {
	return func(c *Collector) error {
		c.clipboardMinLength = n
		return nil
	}
}

// WithAggregateMinLength sets the minimum trimmed length for aggregate
// captures. Default is 50.
func WithAggregateMinLength(n int) Option {
	return func(c *Collector) error {
		c.aggregateMinLength = n
		return nil
	}
}

// WithPoolSize sets the worker pool size for concurrent flushes.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(c *Collector) error {
		if size < 1 {
			size = 1
		}
		if c.pool != nil {
			c.pool.Release()
		}
		pool, err := newPool(size, c.logger)
		if err != nil {
			return err
		}
		c.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// WithFilter replaces the default noise and security filter.
func WithFilter(f *filter.Filter) Option {
	return func(c *Collector) error {
		if f == nil {
			return errors.New("filter cannot be nil")
		}
		c.filter = f
		return nil
	}
}

// WithDeduplicator replaces the default deduplication caches.
func WithDeduplicator(d *dedup.Deduplicator) Option {
	return func(c *Collector) error {
		if d == nil {
			return errors.New("deduplicator cannot be nil")
		}
		c.dedup = d
		return nil
	}
}

// WithExtractor replaces the default entity extractor.
func WithExtractor(e *extract.Extractor) Option {
	return func(c *Collector) error {
		if e == nil {
			return errors.New("extractor cannot be nil")
		}
		c.extractor = e
		return nil
	}
}

// WithClassifier replaces the default topic classifier.
func WithClassifier(cl *topic.Classifier) Option {
	return func(c *Collector) error {
		if cl == nil {
			return errors.New("classifier cannot be nil")
		}
		c.classifier = cl
		return nil
	}
}

// WithProfile enables the self filter and contact learning on aggregate
// captures.
func WithProfile(p Profile) Option {
	return func(c *Collector) error {
		c.profile = p
		return nil
	}
}

// WithClock overrides the time source used to stamp chunks.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		c.now = now
		return nil
	}
}

func defaultPoolSize() int {
	return max(runtime.NumCPU()/2, 1)
}

// antsLogger adapts slog.Logger to the ants.Logger interface.
type antsLogger struct {
	logger *slog.Logger
}

var _ ants.Logger = (*antsLogger)(nil)

func (l *antsLogger) Printf(format string, args ...any) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func newPool(size int, logger *slog.Logger) (*ants.Pool, error) {
	logger = logger.With("component", "flush-pool")
	return ants.NewPool(size,
		ants.WithLogger(&antsLogger{logger: logger}),
		ants.WithPanicHandler(func(p any) {
			logger.Error("flush worker panicked", "panic", p)
		}),
	)
}
