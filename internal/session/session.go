// Package session persists the console's login state between invocations.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

const (
	// TokenKey and RoleKey are the storage keys of the credential and role.
	TokenKey = "token"
	RoleKey  = "user_role"
)

// ErrIncomplete is returned by Set when the token or the role is missing.
var ErrIncomplete = errors.New("session requires both token and role")

// Session is the credential and role of the logged-in user.
type Session struct {
	Token string `json:"token" yaml:"token"`
	Role  string `json:"user_role" yaml:"user_role"`
}

// Empty reports whether no credential is present.
func (s Session) Empty() bool { return s.Token == "" }

// Store keeps the session. Token and role are always written and removed together.
type Store interface {
	Get(ctx context.Context) (Session, error)
	Set(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
	Close() error
}

// Options carries backend specific settings for NewStore.
type Options struct {
	Path        string
	RedisAddr   string
	RedisPrefix string
}

const defaultRedisPrefix = "dutydesk:session:"

// NewStore creates the configured session backend.
func NewStore(typ string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))

	switch typ {
	case "", "memory":
		return NewMemoryStore(), nil
	case "bbolt":
		if strings.TrimSpace(opts.Path) == "" {
			return nil, fmt.Errorf("bbolt session store requires a path")
		}
		return openBolt(opts.Path)
	case "redis":
		if strings.TrimSpace(opts.RedisAddr) == "" {
			return nil, fmt.Errorf("redis session store requires an address")
		}
		prefix := opts.RedisPrefix
		if prefix == "" {
			prefix = defaultRedisPrefix
		}
		return openRedis(opts.RedisAddr, prefix), nil
	default:
		return nil, fmt.Errorf("unsupported session store type %q", typ)
	}
}

func validate(s Session) error {
	if strings.TrimSpace(s.Token) == "" || strings.TrimSpace(s.Role) == "" {
		return ErrIncomplete
	}
	return nil
}

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	sess Session
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Get(context.Context) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sess, nil
}

func (m *MemoryStore) Set(_ context.Context, s Session) error {
	if err := validate(s); err != nil {
		return err
	}
	m.mu.Lock()
	m.sess = s
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	m.sess = Session{}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error { return nil }
