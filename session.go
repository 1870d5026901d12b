package chatkit

import "time"

// Session represents a conversation session.
type Session struct {
	ID        string
	Title     string
	Messages  []Message
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsLast reports whether id is the most recent message in the session.
func (s Session) IsLast(id string) bool {
	return len(s.Messages) > 0 && s.Messages[len(s.Messages)-1].ID == id
}

// Index returns the position of message id, or -1.
func (s Session) Index(id string) int {
	for i, m := range s.Messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// SessionStore owns the current session. Implementations notify subscribers
// after every mutation; subscribers must not call back into the store
// synchronously from the notification.
type SessionStore interface {
	CurrentSession() Session
	Message(id string) (Message, bool)
	AppendMessage(msg Message) error
	UpdateMessage(id string, fn func(*Message)) error
	RemoveMessage(id string) error
	// Subscribe registers fn to be called after each change. The returned
	// function removes the subscription.
	Subscribe(fn func()) (unsubscribe func())
}
