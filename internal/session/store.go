// Package session implements the per-checkout preference store: the typed,
// enumerated-key scratch space that earlier checkout screens write and the
// orchestrator consumes at submission. Consistency model is last-write-wins;
// callers must not assume cross-session visibility.
package session

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownKey   = errors.New("session: unknown preference key")
	ErrKindMismatch = errors.New("session: value does not match key kind")
)

// Store holds the preference sessions of all active checkouts.
type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[uuid.UUID]*Session)}
}

// Session returns the session for the given checkout id, creating it if
// needed.
func (s *Store) Session(id uuid.UUID) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = &Session{values: make(map[Key]any)}
		s.sessions[id] = sess
	}
	return sess
}

// Drop discards a checkout session and everything stored in it.
func (s *Store) Drop(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Session is the preference store of a single checkout.
type Session struct {
	mu        sync.RWMutex
	values    map[Key]any
	submitted atomic.Bool
}

// Set validates the key against the schema and stores the value.
// String and decimal kinds accept their Go type; decimals additionally
// accept numeric strings (the web client sends totals as strings).
func (s *Session) Set(key Key, value any) error {
	sp, ok := schema[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	norm, err := coerce(sp.kind, value)
	if err != nil {
		return fmt.Errorf("%w: key %q: %v", ErrKindMismatch, key, err)
	}

	s.mu.Lock()
	s.values[key] = norm
	s.mu.Unlock()
	return nil
}

// SetNamed resolves an external key name (including legacy aliases) and
// stores the value under its canonical key.
func (s *Session) SetNamed(name string, value any) error {
	key, v, ok := Resolve(name, value)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, name)
	}
	return s.Set(key, v)
}

// String returns the stored string for key, or the schema default.
func (s *Session) String(key Key) string {
	v, _ := s.get(key).(string)
	return v
}

// Decimal returns the stored decimal for key, or the schema default.
func (s *Session) Decimal(key Key) decimal.Decimal {
	v, ok := s.get(key).(decimal.Decimal)
	if !ok {
		return decimal.Zero
	}
	return v
}

// Strings returns the stored string list for key, or the schema default.
func (s *Session) Strings(key Key) []string {
	v, _ := s.get(key).([]string)
	return v
}

// MarkSubmitted flips the one-shot submission flag. It returns true exactly
// once per session, guarding against duplicate auto-submissions.
func (s *Session) MarkSubmitted() bool {
	return s.submitted.CompareAndSwap(false, true)
}

// ClearSubmitted releases the one-shot submission flag so a failed
// submission can be retried.
func (s *Session) ClearSubmitted() {
	s.submitted.Store(false)
}

// Snapshot returns a copy of all stored values. The orchestrator reads a
// snapshot at submission so a concurrent preference write cannot produce a
// torn order.
func (s *Session) Snapshot() map[Key]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Key]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

func (s *Session) get(key Key) any {
	s.mu.RLock()
	v, ok := s.values[key]
	s.mu.RUnlock()
	if ok {
		return v
	}
	if sp, ok := schema[key]; ok {
		return sp.def
	}
	return nil
}

func coerce(kind Kind, value any) (any, error) {
	switch kind {
	case KindString:
		v, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("want string, got %T", value)
		}
		return v, nil
	case KindDecimal:
		switch t := value.(type) {
		case decimal.Decimal:
			return t, nil
		case string:
			d, err := decimal.NewFromString(t)
			if err != nil {
				return nil, fmt.Errorf("invalid decimal %q", t)
			}
			return d, nil
		case float64:
			return decimal.NewFromFloat(t), nil
		case int:
			return decimal.NewFromInt(int64(t)), nil
		default:
			return nil, fmt.Errorf("want decimal, got %T", value)
		}
	case KindStrings:
		switch t := value.(type) {
		case []string:
			return append([]string(nil), t...), nil
		case []any:
			out := make([]string, 0, len(t))
			for _, e := range t {
				s, ok := e.(string)
				if !ok {
					return nil, fmt.Errorf("want string list, got %T element", e)
				}
				out = append(out, s)
			}
			return out, nil
		default:
			return nil, fmt.Errorf("want string list, got %T", value)
		}
	}
	return nil, fmt.Errorf("unhandled kind %d", kind)
}
