package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Load returns the saved collection state of a provider, or nil when there is none.
func (s *Store) Load(provider string) ([]byte, error) {
	var state string
	err := s.db.QueryRow("SELECT state FROM collections WHERE provider = ?", provider).Scan(&state)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s collection: %w", provider, err)
	}
	return []byte(state), nil
}

// Save replaces the collection state of a provider.
func (s *Store) Save(provider string, state []byte) error {
	_, err := s.db.Exec(`
        INSERT INTO collections (provider, state, updated_at) VALUES (?, ?, ?)
        ON CONFLICT(provider) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at
    `, provider, string(state), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save %s collection: %w", provider, err)
	}
	return nil
}

// ClearCollections drops every saved collection. A new session starts empty.
func (s *Store) ClearCollections() error {
	_, err := s.db.Exec("DELETE FROM collections")
	return err
}
