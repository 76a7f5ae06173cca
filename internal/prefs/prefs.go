// Package prefs stores per-conversation preferences. Today that is only the
// reply language.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/seenimoa/quotechat/internal/config"
)

// ErrEmptyConversation is returned for an empty conversation id.
var ErrEmptyConversation = errors.New("prefs: empty conversation id")

// Store maps conversation ids to a language tag. Implementations are safe
// for concurrent use; there is no ordering between different keys.
type Store interface {
	// Language returns the stored tag and whether one was set.
	Language(ctx context.Context, conversationID string) (string, bool, error)
	SetLanguage(ctx context.Context, conversationID, lang string) error
	Close() error
}

// New returns the store selected by cfg.Driver.
func New(cfg config.PrefsConfig) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return OpenSQLite(cfg.DSN)
	default:
		return nil, fmt.Errorf("prefs: unknown driver %q", cfg.Driver)
	}
}

// MemoryStore keeps preferences for the life of the process.
type MemoryStore struct {
	mu    sync.RWMutex
	langs map[string]string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{langs: make(map[string]string)}
}

func (m *MemoryStore) Language(_ context.Context, conversationID string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lang, ok := m.langs[conversationID]
	return lang, ok, nil
}

func (m *MemoryStore) SetLanguage(_ context.Context, conversationID, lang string) error {
	if conversationID == "" {
		return ErrEmptyConversation
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.langs[conversationID] = lang
	return nil
}

// Len returns the number of conversations with a stored preference.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.langs)
}

func (m *MemoryStore) Close() error { return nil }
