// Package profile learns who the user interacts with and recognizes the
// user's own identity so it can be kept out of person entities.
package profile

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/witness/core"
	"github.com/poiesic/witness/storage"
)

// ErrContactsRequired is returned when no contact repository is provided.
var ErrContactsRequired = errors.New("contact repository required")

// Learner records contacts and answers whether a value names the user.
type Learner struct {
	contacts storage.ContactRepository
	logger   *slog.Logger
	now      func() time.Time

	mu   sync.RWMutex
	self map[string]struct{}
}

// Option configures a Learner.
type Option func(*Learner)

// WithSelfNames sets the names, handles and addresses that identify the user.
func WithSelfNames(names ...string) Option {
	return func(l *Learner) {
		l.setSelf(names)
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Learner) {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
	}
}

// WithClock overrides the time source used for first/last seen stamps.
func WithClock(now func() time.Time) Option {
	return func(l *Learner) {
		if now != nil {
			l.now = now
		}
	}
}

// New creates a Learner backed by contacts.
func New(contacts storage.ContactRepository, opts ...Option) (*Learner, error) {
	if contacts == nil {
		return nil, ErrContactsRequired
	}
	l := &Learner{
		contacts: contacts,
		logger:   slog.Default(),
		now:      time.Now,
		self:     map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "profile")
	return l, nil
}

// SetSelfNames replaces the user's identity names.
func (l *Learner) SetSelfNames(names ...string) {
	l.setSelf(names)
}

func (l *Learner) setSelf(names []string) {
	self := make(map[string]struct{}, len(names))
	for _, n := range names {
		if key := normalize(n); key != "" {
			self[key] = struct{}{}
		}
	}
	l.mu.Lock()
	l.self = self
	l.mu.Unlock()
}

// IsMe reports whether value names the user, compared case-insensitively.
func (l *Learner) IsMe(value string) bool {
	key := normalize(value)
	if key == "" {
		return false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.self[key]
	return ok
}

// LearnFromEntities records every person entity that is not the user.
func (l *Learner) LearnFromEntities(ctx context.Context, entities []core.Entity) error {
	var names []string
	for _, e := range entities {
		if e.Type != core.EntityPerson || l.IsMe(e.Value) {
			continue
		}
		names = append(names, e.Value)
	}
	if len(names) == 0 {
		return nil
	}
	if err := l.contacts.RecordContacts(ctx, l.now().UTC(), names...); err != nil {
		return err
	}
	l.logger.Debug("learned contacts", "count", len(names))
	return nil
}

// KnownContacts returns the names of up to limit most frequent contacts.
func (l *Learner) KnownContacts(ctx context.Context, limit int) ([]string, error) {
	contacts, err := l.contacts.TopContacts(ctx, limit)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(contacts))
	for i, c := range contacts {
		names[i] = c.Name
	}
	return names, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
