package booking

import (
	"context"
	"sync"
	"time"

	"github.com/Lakshya-akoode/my-cn-bot/pkg/logging"
)

// State identifies where a session is in the booking dialogue.
type State string

const (
	StateIdle            State = "idle"
	StateAskName         State = "ask_name"
	StateAskPhone        State = "ask_phone"
	StateAskEmail        State = "ask_email"
	StateAskService      State = "ask_service"
	StateAskDate         State = "ask_date"
	StateConfirm         State = "confirm"
	StateAskEditField    State = "ask_edit_field"
	StateAskCancelReason State = "ask_cancel_reason"
)

// Field names one piece of booking information.
type Field string

const (
	FieldName    Field = "name"
	FieldPhone   Field = "phone"
	FieldEmail   Field = "email"
	FieldService Field = "service"
	FieldDate    Field = "date"
)

// slotOrder is the canonical collection order. The machine always moves
// forward through it; edits rewind to a single field and resume from there.
var slotOrder = []Field{FieldName, FieldPhone, FieldEmail, FieldService, FieldDate}

// askStateFor maps a field to the state that collects it.
func askStateFor(f Field) State {
	switch f {
	case FieldName:
		return StateAskName
	case FieldPhone:
		return StateAskPhone
	case FieldEmail:
		return StateAskEmail
	case FieldService:
		return StateAskService
	case FieldDate:
		return StateAskDate
	}
	return StateIdle
}

// fieldForAskState is the inverse of askStateFor for the five Ask states.
func fieldForAskState(s State) (Field, bool) {
	switch s {
	case StateAskName:
		return FieldName, true
	case StateAskPhone:
		return FieldPhone, true
	case StateAskEmail:
		return FieldEmail, true
	case StateAskService:
		return FieldService, true
	case StateAskDate:
		return FieldDate, true
	}
	return "", false
}

// nextAskState advances one step along the canonical order.
func nextAskState(s State) State {
	switch s {
	case StateAskName:
		return StateAskPhone
	case StateAskPhone:
		return StateAskEmail
	case StateAskEmail:
		return StateAskService
	case StateAskService:
		return StateAskDate
	case StateAskDate:
		return StateConfirm
	}
	return s
}

// Session is the per-conversation dialogue state. All mutation happens under
// the per-session lock held by the chat service for the duration of a turn;
// the eviction janitor takes the same lock before reading LastSeen or
// deleting the session.
type Session struct {
	ID                  string
	State               State
	Slots               map[Field]string
	History             []string
	LastFallbackOffered bool
	ClientAddr          string
	LastSeen            time.Time
}

func newSession(id string) *Session {
	return &Session{
		ID:    id,
		State: StateIdle,
		Slots: make(map[Field]string),
	}
}

// Reset clears booking progress after a completed or cancelled booking.
// History is kept so follow-up extraction still has conversational context;
// the same conversation id can start a fresh booking at any time.
func (s *Session) Reset() {
	s.State = StateIdle
	s.Slots = make(map[Field]string)
}

// SlotsFilled reports whether every slot in the canonical order is present.
func (s *Session) SlotsFilled() bool {
	for _, f := range slotOrder {
		if s.Slots[f] == "" {
			return false
		}
	}
	return true
}

// RecentHistory returns up to n of the most recent transcript entries.
func (s *Session) RecentHistory(n int) []string {
	if n <= 0 || len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

// AppendHistory records a transcript entry, dropping the oldest entries once
// limit is exceeded. A limit of zero keeps history unbounded.
func (s *Session) AppendHistory(limit int, entries ...string) {
	s.History = append(s.History, entries...)
	if limit > 0 && len(s.History) > limit {
		s.History = append([]string(nil), s.History[len(s.History)-limit:]...)
	}
}

// Store keeps per-conversation sessions.
type Store interface {
	// GetOrCreate returns the session for id, creating an idle one on first
	// access.
	GetOrCreate(id string) *Session
	// Update applies mutate to the stored session under the store lock.
	Update(id string, mutate func(*Session))
	// Lock serializes turns for a session id and returns the unlock
	// function. Callers must hold the lock for the duration of any direct
	// session mutation.
	Lock(id string) func()
}

// MemoryStore is the in-process Store. Sessions are reset rather than
// deleted when a booking finishes; a janitor evicts sessions idle past the
// TTL so abandoned conversations do not accumulate forever.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	locks    KeyedMutex
	logger   *logging.Logger
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore(logger *logging.Logger) *MemoryStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &MemoryStore{
		sessions: make(map[string]*Session),
		logger:   logger,
	}
}

// GetOrCreate returns the session for id, creating it on first access.
func (m *MemoryStore) GetOrCreate(id string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s = newSession(id)
	m.sessions[id] = s
	return s
}

// Update applies mutate to the session for id, creating it if needed.
func (m *MemoryStore) Update(id string, mutate func(*Session)) {
	s := m.GetOrCreate(id)
	m.mu.Lock()
	defer m.mu.Unlock()
	mutate(s)
}

// Lock serializes turns for a session id. The janitor takes the same lock
// before evicting, so a session cannot be deleted while a turn is mutating
// it.
func (m *MemoryStore) Lock(id string) func() {
	return m.locks.Lock(id)
}

// Len reports how many sessions are currently held.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// StartJanitor evicts sessions idle longer than ttl, sweeping every interval
// until ctx is cancelled.
func (m *MemoryStore) StartJanitor(ctx context.Context, ttl, interval time.Duration) {
	if ttl <= 0 || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.evictIdle(ttl)
			}
		}
	}()
}

func (m *MemoryStore) evictIdle(ttl time.Duration) {
	cutoff := time.Now().Add(-ttl)
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		unlock, ok := m.locks.TryLock(id)
		if !ok {
			// A turn is in flight; the next sweep will catch this one.
			continue
		}
		m.mu.Lock()
		if s, held := m.sessions[id]; held && s.LastSeen.Before(cutoff) {
			delete(m.sessions, id)
			m.locks.forget(id)
			m.logger.Info("booking: evicted idle session", "session_id", id)
		}
		m.mu.Unlock()
		unlock()
	}
}

// KeyedMutex serializes work per session id so overlapping requests for the
// same conversation cannot interleave mid-turn.
type KeyedMutex struct {
	locks sync.Map // id -> *sync.Mutex
}

// Lock acquires the mutex for id and returns its unlock function. Entries
// forgotten while a caller was waiting are retried against the fresh entry,
// so two callers can never hold the lock for the same id at once.
func (k *KeyedMutex) Lock(id string) func() {
	for {
		lockAny, _ := k.locks.LoadOrStore(id, &sync.Mutex{})
		mu := lockAny.(*sync.Mutex)
		mu.Lock()
		if cur, ok := k.locks.Load(id); ok && cur == lockAny {
			return mu.Unlock
		}
		mu.Unlock()
	}
}

// TryLock acquires the mutex for id without blocking. It reports false when
// the lock is already held.
func (k *KeyedMutex) TryLock(id string) (func(), bool) {
	lockAny, _ := k.locks.LoadOrStore(id, &sync.Mutex{})
	mu := lockAny.(*sync.Mutex)
	if !mu.TryLock() {
		return nil, false
	}
	if cur, ok := k.locks.Load(id); !ok || cur != lockAny {
		mu.Unlock()
		return nil, false
	}
	return mu.Unlock, true
}

// forget drops the lock entry for id. Only call while holding the lock.
func (k *KeyedMutex) forget(id string) {
	k.locks.Delete(id)
}
