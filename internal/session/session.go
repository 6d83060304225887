// Package session tracks whether the CLI holds a usable bearer token.
//
// A Manager moves between Anonymous and Authenticated. Login and Restore
// enter Authenticated; Logout and any 401, including one from a failed
// Login, return to Anonymous and clear the Store. Observers registered with OnChange are
// called after every transition, outside the manager's lock.
package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"freeradical-go/pkg/freeradical"
)

type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

type Manager struct {
	template freeradical.Config
	store    Store
	anon     *freeradical.Client

	mu        sync.Mutex
	state     State
	token     string
	email     string
	client    *freeradical.Client
	observers []func(State)
}

// NewManager builds an anonymous manager. cfg.Token is ignored; tokens come
// from Login or Restore. cfg.OnUnauthorized still fires after the session
// has been invalidated.
func NewManager(cfg freeradical.Config, store Store) (*Manager, error) {
	if store == nil {
		store = &MemoryStore{}
	}
	cfg.Token = ""
	m := &Manager{template: cfg, store: store}
	anon, err := m.build("")
	if err != nil {
		return nil, err
	}
	m.anon = anon
	m.client = anon
	return m, nil
}

func (m *Manager) build(token string) (*freeradical.Client, error) {
	cfg := m.template
	cfg.Token = token
	next := m.template.OnUnauthorized
	cfg.OnUnauthorized = func(apiErr *freeradical.APIError) {
		if token == "" {
			m.dropCurrent()
		} else {
			m.invalidate(token)
		}
		if next != nil {
			next(apiErr)
		}
	}
	return freeradical.New(cfg)
}

// Client returns the client for the current state. Hold on to it only for
// one operation; a transition swaps it.
func (m *Manager) Client() *freeradical.Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Email is the last email that authenticated, kept after logout.
func (m *Manager) Email() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.email
}

func (m *Manager) OnChange(fn func(State)) {
	m.mu.Lock()
	m.observers = append(m.observers, fn)
	m.mu.Unlock()
}

func (m *Manager) Login(ctx context.Context, email, password string) (*freeradical.User, error) {
	resp, err := m.anon.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(resp.Token) == "" {
		return nil, errors.New("session: login response carried no token")
	}
	if resp.User.Email != "" {
		email = resp.User.Email
	}
	if err := m.authenticate(resp.Token, email); err != nil {
		return nil, err
	}
	if err := m.store.Save(ctx, Credentials{Token: resp.Token, Email: email}); err != nil {
		return nil, err
	}
	user := resp.User
	return &user, nil
}

// Restore loads a stored token, marks the session authenticated, then checks
// the token with Me. A failed check discards the token.
func (m *Manager) Restore(ctx context.Context) (*freeradical.User, error) {
	creds, err := m.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if creds.Email != "" {
		m.mu.Lock()
		m.email = creds.Email
		m.mu.Unlock()
	}
	if creds.Token == "" {
		return nil, nil
	}
	if err := m.authenticate(creds.Token, creds.Email); err != nil {
		return nil, err
	}
	user, err := m.Client().Me(ctx)
	if err != nil {
		m.invalidate(creds.Token)
		return nil, err
	}
	return user, nil
}

// Logout tells the server, ignoring its answer, then drops local state.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	client, token := m.client, m.token
	m.mu.Unlock()
	if token != "" {
		if err := client.Logout(ctx); err != nil {
			log.Printf("session: server logout failed: %v", err)
		}
	}
	m.invalidate(token)
	return m.store.Clear(ctx)
}

func (m *Manager) authenticate(token, email string) error {
	client, err := m.build(token)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.client = client
	m.token = token
	m.email = email
	m.state = Authenticated
	observers := append([]func(State){}, m.observers...)
	m.mu.Unlock()
	notify(observers, Authenticated)
	return nil
}

// invalidate returns to Anonymous if token is still the active one. Clients
// built for an older token cannot knock out a newer session.
func (m *Manager) invalidate(token string) {
	m.mu.Lock()
	if token == "" || token != m.token {
		m.mu.Unlock()
		return
	}
	m.client = m.anon
	m.token = ""
	m.state = Anonymous
	observers := append([]func(State){}, m.observers...)
	m.mu.Unlock()

	if err := m.store.Clear(context.Background()); err != nil {
		log.Printf("session: clear stored credentials: %v", err)
	}
	notify(observers, Anonymous)
}

// dropCurrent handles a 401 on the anonymous client, which Login goes
// through: the active session ends, and stored credentials are cleared even
// when there is none.
func (m *Manager) dropCurrent() {
	m.mu.Lock()
	token := m.token
	m.mu.Unlock()
	if token != "" {
		m.invalidate(token)
		return
	}
	if err := m.store.Clear(context.Background()); err != nil {
		log.Printf("session: clear stored credentials: %v", err)
	}
}

func notify(observers []func(State), state State) {
	for _, fn := range observers {
		fn(state)
	}
}
