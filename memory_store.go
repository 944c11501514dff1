package session

import (
	"context"
	"sync"
)

// MemoryStore is an in-process CredentialStore. Sessions held in it do not
// survive a restart; use credstore for a durable record.
type MemoryStore struct {
	mu    sync.Mutex
	creds Credentials
	set   bool
}

var _ CredentialStore = &MemoryStore{}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Read(ctx context.Context) (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return Credentials{}, ErrNoCredentials
	}
	return s.creds, nil
}

func (s *MemoryStore) Write(ctx context.Context, creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	s.set = true
	return nil
}

func (s *MemoryStore) Wipe(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = Credentials{}
	s.set = false
	return nil
}
