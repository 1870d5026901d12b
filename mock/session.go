package mock

import "github.com/fwojciec/chatkit"

var _ chatkit.SessionStore = (*SessionStore)(nil)

// SessionStore is a test double for chatkit.SessionStore.
type SessionStore struct {
	CurrentSessionFn func() chatkit.Session
	MessageFn        func(id string) (chatkit.Message, bool)
	AppendMessageFn  func(msg chatkit.Message) error
	UpdateMessageFn  func(id string, fn func(*chatkit.Message)) error
	RemoveMessageFn  func(id string) error
	SubscribeFn      func(fn func()) func()
}

func (s *SessionStore) CurrentSession() chatkit.Session {
	return s.CurrentSessionFn()
}

func (s *SessionStore) Message(id string) (chatkit.Message, bool) {
	return s.MessageFn(id)
}

func (s *SessionStore) AppendMessage(msg chatkit.Message) error {
	return s.AppendMessageFn(msg)
}

func (s *SessionStore) UpdateMessage(id string, fn func(*chatkit.Message)) error {
	return s.UpdateMessageFn(id, fn)
}

func (s *SessionStore) RemoveMessage(id string) error {
	return s.RemoveMessageFn(id)
}

func (s *SessionStore) Subscribe(fn func()) func() {
	return s.SubscribeFn(fn)
}
