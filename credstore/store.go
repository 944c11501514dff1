// Package credstore provides the durable CredentialStore: the persisted
// mirror of {token, principal} kept in an embedded SQLite database, read
// once at startup to rehydrate a session.
package credstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	session "github.com/gigzy/go-session"
)

const (
	keyAccessToken = "access_token"
	keyPrincipal   = "user"
)

// EntryModel is the Bun model for a stored credential entry.
type EntryModel struct {
	bun.BaseModel `bun:"table:credentials"`

	Key       string    `bun:"key,pk"`
	Value     []byte    `bun:"value"`
	UpdatedAt time.Time `bun:"updated_at,default:current_timestamp"`
}

const createCredentialsTable = `CREATE TABLE IF NOT EXISTS credentials (
    key TEXT NOT NULL PRIMARY KEY,
    value BLOB,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`

// SQLStore implements session.CredentialStore on a Bun-managed SQLite
// database. Both entries are written in one transaction so the record is
// never half-present.
type SQLStore struct {
	db *bun.DB
}

var _ session.CredentialStore = &SQLStore{}

// Open opens (creating if needed) a credential database at path. Use
// ":memory:" for an ephemeral store.
func Open(path string) (*SQLStore, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, err
	}
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if _, err := db.Exec(createCredentialsTable); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLStore{db: db}, nil
}

// NewSQLStore wraps an existing Bun database. The credentials table must
// already exist.
func NewSQLStore(db *bun.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Read implements session.CredentialStore.
func (s *SQLStore) Read(ctx context.Context) (session.Credentials, error) {
	var entries []EntryModel
	err := s.db.NewSelect().
		Model(&entries).
		Where("key IN (?, ?)", keyAccessToken, keyPrincipal).
		Scan(ctx)
	if err != nil {
		return session.Credentials{}, err
	}

	creds := session.Credentials{}
	for _, entry := range entries {
		switch entry.Key {
		case keyAccessToken:
			creds.Token = string(entry.Value)
		case keyPrincipal:
			creds.Principal = entry.Value
		}
	}

	if creds.Token == "" && len(creds.Principal) == 0 {
		return session.Credentials{}, session.ErrNoCredentials
	}
	return creds, nil
}

// Write implements session.CredentialStore.
func (s *SQLStore) Write(ctx context.Context, creds session.Credentials) error {
	now := time.Now()
	entries := []EntryModel{
		{Key: keyAccessToken, Value: []byte(creds.Token), UpdatedAt: now},
		{Key: keyPrincipal, Value: creds.Principal, UpdatedAt: now},
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for i := range entries {
			_, err := tx.NewInsert().
				Model(&entries[i]).
				On("CONFLICT (key) DO UPDATE").
				Set("value = EXCLUDED.value").
				Set("updated_at = EXCLUDED.updated_at").
				Exec(ctx)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Wipe implements session.CredentialStore.
func (s *SQLStore) Wipe(ctx context.Context) error {
	_, err := s.db.NewDelete().
		Model((*EntryModel)(nil)).
		Where("key IN (?, ?)", keyAccessToken, keyPrincipal).
		Exec(ctx)
	return err
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
