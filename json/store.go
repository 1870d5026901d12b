package json

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"sync"
	"time"

	"github.com/fwojciec/chatkit"
	"github.com/google/uuid"
)

var _ chatkit.SessionStore = (*Store)(nil)

// Store implements chatkit.SessionStore for a single session. When path is
// non-empty mutations are written through with Save, except while a message
// is loading: streaming deltas stay in memory until the run finishes.
type Store struct {
	path string
	now  func() time.Time

	mu      sync.Mutex
	session chatkit.Session
	subs    map[int]func()
	nextSub int
}

// NewStore returns a Store holding s. An empty session ID is replaced
// with a fresh UUID.
func NewStore(path string, s chatkit.Session) *Store {
	st := &Store{path: path, now: time.Now, subs: make(map[int]func())}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = st.now()
		s.UpdatedAt = s.CreatedAt
	}
	s.Messages = slices.Clone(s.Messages)
	st.session = s
	return st
}

// Open loads the session at path, or starts an empty one when the file
// does not exist yet.
func Open(path string) (*Store, error) {
	s, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewStore(path, chatkit.Session{}), nil
	}
	if err != nil {
		return nil, err
	}
	return NewStore(path, s), nil
}

// CurrentSession returns a snapshot of the session.
func (st *Store) CurrentSession() chatkit.Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.session
	s.Messages = slices.Clone(st.session.Messages)
	return s
}

func (st *Store) Message(id string) (chatkit.Message, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if i := st.session.Index(id); i >= 0 {
		return st.session.Messages[i], true
	}
	return chatkit.Message{}, false
}

// AppendMessage adds msg at the end of the session. The message's
// SessionID is set to the store's session.
func (st *Store) AppendMessage(msg chatkit.Message) error {
	if msg.ID == "" {
		return fmt.Errorf("append message: missing id: %w", chatkit.ErrValidation)
	}
	return st.mutate(func(s *chatkit.Session) error {
		if s.Index(msg.ID) >= 0 {
			return fmt.Errorf("append message %s: duplicate id: %w", msg.ID, chatkit.ErrValidation)
		}
		msg.SessionID = s.ID
		if msg.CreatedAt.IsZero() {
			msg.CreatedAt = st.now()
		}
		s.Messages = append(s.Messages, msg)
		return nil
	})
}

// UpdateMessage applies fn to the stored message. ID and SessionID are
// preserved regardless of what fn does.
func (st *Store) UpdateMessage(id string, fn func(*chatkit.Message)) error {
	return st.mutate(func(s *chatkit.Session) error {
		i := s.Index(id)
		if i < 0 {
			return fmt.Errorf("update message %s: %w", id, chatkit.ErrNotFound)
		}
		m := s.Messages[i]
		fn(&m)
		m.ID = id
		m.SessionID = s.ID
		s.Messages[i] = m
		return nil
	})
}

func (st *Store) RemoveMessage(id string) error {
	return st.mutate(func(s *chatkit.Session) error {
		i := s.Index(id)
		if i < 0 {
			return fmt.Errorf("remove message %s: %w", id, chatkit.ErrNotFound)
		}
		s.Messages = slices.Delete(slices.Clone(s.Messages), i, i+1)
		return nil
	})
}

// Subscribe registers fn to run after each successful mutation. fn is
// called outside the store lock.
func (st *Store) Subscribe(fn func()) func() {
	st.mu.Lock()
	defer st.mu.Unlock()
	id := st.nextSub
	st.nextSub++
	st.subs[id] = fn
	var once sync.Once
	return func() {
		once.Do(func() {
			st.mu.Lock()
			defer st.mu.Unlock()
			delete(st.subs, id)
		})
	}
}

// Flush writes the session to disk. It is a no-op for in-memory stores.
func (st *Store) Flush() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.path == "" {
		return nil
	}
	return Save(st.path, st.session)
}

func (st *Store) mutate(fn func(*chatkit.Session) error) error {
	st.mu.Lock()
	next := st.session
	next.Messages = slices.Clone(st.session.Messages)
	if err := fn(&next); err != nil {
		st.mu.Unlock()
		return err
	}
	next.UpdatedAt = st.now()
	if next.Title == "" && len(next.Messages) > 0 {
		next.Title = title(next.Messages[0].RawHuman)
	}
	st.session = next
	var saveErr error
	if st.path != "" && !inFlight(next) {
		saveErr = Save(st.path, next)
	}
	subs := make([]func(), 0, len(st.subs))
	for _, fn := range st.subs {
		subs = append(subs, fn)
	}
	st.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
	if saveErr != nil {
		return fmt.Errorf("persist session: %w", saveErr)
	}
	return nil
}

func inFlight(s chatkit.Session) bool {
	for _, m := range s.Messages {
		if m.Loading {
			return true
		}
	}
	return false
}

const maxTitle = 48

// title derives a session title from the first human input.
func title(human string) string {
	r := []rune(human)
	for i, c := range r {
		if c == '\n' {
			r = r[:i]
			break
		}
	}
	if len(r) > maxTitle {
		return string(r[:maxTitle-1]) + "…"
	}
	return string(r)
}
