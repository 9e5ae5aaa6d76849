package badger

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/witness/core"
	"github.com/poiesic/witness/storage"
)

// ContactRepository implements storage.ContactRepository for BadgerDB.
type ContactRepository struct {
	backend *Backend
}

var _ storage.ContactRepository = (*ContactRepository)(nil)

func newContactRepository(backend *Backend) *ContactRepository {
	return &ContactRepository{backend: backend}
}

// Close is a no-op; the Store owns the backend.
func (r *ContactRepository) Close() error {
	return nil
}

// RecordContacts upserts contacts and bumps their counts. Retries once when
// a concurrent writer touched the same contact.
func (r *ContactRepository) RecordContacts(ctx context.Context, seenAt time.Time, names ...string) error {
	err := r.recordContacts(seenAt, names)
	if errors.Is(err, badger.ErrConflict) {
		err = r.recordContacts(seenAt, names)
	}
	return err
}

func (r *ContactRepository) recordContacts(seenAt time.Time, names []string) error {
	seenAt = seenAt.UTC()
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, name := range names {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			key := makeContactKey(name)
			contact, err := readContact(tx, key)
			if err != nil {
				return err
			}
			if contact == nil {
				contact = &core.Contact{Name: name, FirstSeen: seenAt}
			}
			contact.Count++
			if seenAt.After(contact.LastSeen) {
				contact.LastSeen = seenAt
			}
			if err := tx.Set(key, storage.MarshalContact(contact)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetContact retrieves a contact by name.
func (r *ContactRepository) GetContact(ctx context.Context, name string) (*core.Contact, error) {
	var contact *core.Contact
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		contact, err = readContact(tx, makeContactKey(name))
		if err != nil {
			return err
		}
		if contact == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return contact, err
}

// TopContacts returns the most frequently seen contacts.
func (r *ContactRepository) TopContacts(ctx context.Context, limit int) ([]*core.Contact, error) {
	var contacts []*core.Contact
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return forEachPrefix(tx, []byte(contactPrefix), func(_, val []byte) error {
			contact, err := storage.UnmarshalContact(val)
			if err != nil {
				return err
			}
			contacts = append(contacts, contact)
			return nil
		})
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(contacts, func(a, b *core.Contact) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Key(), b.Key())
	})
	if limit >= 0 && len(contacts) > limit {
		contacts = contacts[:limit]
	}
	return contacts, nil
}

func readContact(tx *badger.Txn, key []byte) (*core.Contact, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var contact *core.Contact
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		contact, unmarshalErr = storage.UnmarshalContact(val)
		return unmarshalErr
	})
	return contact, err
}
