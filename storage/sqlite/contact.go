package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/poiesic/witness/core"
	"github.com/poiesic/witness/storage"
)

// ContactRepository implements storage.ContactRepository for SQLite.
type ContactRepository struct {
	db *sql.DB
}

var _ storage.ContactRepository = (*ContactRepository)(nil)

// Close is a no-op; the Store owns the database handle.
func (r *ContactRepository) Close() error {
	return nil
}

// RecordContacts upserts contacts and bumps their counts.
func (r *ContactRepository) RecordContacts(ctx context.Context, seenAt time.Time, names ...string) error {
	seen := seenAt.UnixMicro()
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, name := range names {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO contacts (name_key, name, count, first_seen, last_seen)
				VALUES (?, ?, 1, ?, ?)
				ON CONFLICT(name_key) DO UPDATE SET
					count = count + 1,
					first_seen = MIN(first_seen, excluded.first_seen),
					last_seen = MAX(last_seen, excluded.last_seen)`,
				strings.ToLower(name), name, seen, seen)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// GetContact retrieves a contact by name.
func (r *ContactRepository) GetContact(ctx context.Context, name string) (*core.Contact, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT name, count, first_seen, last_seen FROM contacts WHERE name_key = ?`,
		strings.ToLower(strings.TrimSpace(name)))
	contact, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return contact, err
}

// TopContacts returns the most frequently seen contacts.
func (r *ContactRepository) TopContacts(ctx context.Context, limit int) ([]*core.Contact, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, count, first_seen, last_seen FROM contacts ORDER BY count DESC, name_key LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []*core.Contact
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}
	return contacts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContact(row scanner) (*core.Contact, error) {
	var (
		c                   core.Contact
		firstSeen, lastSeen int64
	)
	if err := row.Scan(&c.Name, &c.Count, &firstSeen, &lastSeen); err != nil {
		return nil, err
	}
	c.FirstSeen = time.UnixMicro(firstSeen).UTC()
	c.LastSeen = time.UnixMicro(lastSeen).UTC()
	return &c, nil
}
