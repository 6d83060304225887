package session

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
)

// Credentials is what survives between runs: the bearer token and the email
// it was issued for.
type Credentials struct {
	Token string `db:"token"`
	Email string `db:"email"`
}

func (c Credentials) Empty() bool {
	return c.Token == "" && c.Email == ""
}

type Store interface {
	Load(ctx context.Context) (Credentials, error)
	Save(ctx context.Context, creds Credentials) error
	Clear(ctx context.Context) error
}

type MemoryStore struct {
	mu    sync.Mutex
	creds Credentials
}

func (s *MemoryStore) Load(context.Context) (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds, nil
}

func (s *MemoryStore) Save(_ context.Context, creds Credentials) error {
	s.mu.Lock()
	s.creds = creds
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	s.creds = Credentials{}
	s.mu.Unlock()
	return nil
}

const sessionTable = `
CREATE TABLE IF NOT EXISTS client_sessions (
  profile TEXT PRIMARY KEY,
  token TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL DEFAULT '',
  updated_at TIMESTAMP NOT NULL
)`

// SQLStore keeps one row per profile in client_sessions.
type SQLStore struct {
	db      *sqlx.DB
	profile string
}

// NewSQLStore creates the client_sessions table when missing. An empty
// profile means "default".
func NewSQLStore(db *sqlx.DB, profile string) (*SQLStore, error) {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		profile = "default"
	}
	if _, err := db.Exec(sessionTable); err != nil {
		return nil, err
	}
	return &SQLStore{db: db, profile: profile}, nil
}

func (s *SQLStore) Load(ctx context.Context) (Credentials, error) {
	var creds Credentials
	err := s.db.GetContext(ctx, &creds, s.db.Rebind(`SELECT token, email FROM client_sessions WHERE profile = ?`), s.profile)
	if errors.Is(err, sql.ErrNoRows) {
		return Credentials{}, nil
	}
	return creds, err
}

func (s *SQLStore) Save(ctx context.Context, creds Credentials) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
INSERT INTO client_sessions (profile, token, email, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT (profile) DO UPDATE SET token = excluded.token, email = excluded.email, updated_at = excluded.updated_at
`), s.profile, creds.Token, creds.Email, time.Now().UTC())
	return err
}

func (s *SQLStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM client_sessions WHERE profile = ?`), s.profile)
	return err
}
