package chatkit

import "time"

// Message is one exchange in a session: the human input and the assistant
// output it produced, plus the lifecycle flags of the generation run.
// Messages are owned by the SessionStore; views hold read-only copies.
type Message struct {
	ID        string
	SessionID string
	RawHuman  string
	RawAI     string

	Loading    bool
	Stop       bool
	StopReason StopReason

	// ToolName is the raw tool identifier reported by the generator. It is
	// resolved against the ToolRegistry with ResolveTool, never cast.
	ToolName    string
	ToolRunning bool

	Input     InputProps
	CreatedAt time.Time
}

// InputProps carries the configuration a message was generated with.
type InputProps struct {
	Assistant Assistant
}

// Status derives the lifecycle state from the message flags.
func (m Message) Status() Status {
	if m.Stop {
		switch m.StopReason {
		case StopError:
			return StatusStoppedError
		case StopCancel:
			return StatusStoppedCancel
		case StopAPIKey:
			return StatusStoppedAPIKey
		case StopRecursion:
			return StatusStoppedRecursion
		}
	}
	switch {
	case m.ToolRunning:
		return StatusToolRunning
	case m.Loading && m.RawAI == "":
		return StatusPending
	case m.Loading:
		return StatusStreaming
	default:
		return StatusStopped
	}
}

// ShowsActions reports whether the copy/regenerate/delete row is available.
func (m Message) ShowsActions() bool {
	return !m.Loading && !m.ToolRunning
}

// ShowsBanner reports whether a stop-reason banner is rendered.
func (m Message) ShowsBanner() bool {
	return m.Stop && m.StopReason != StopNone
}

// Reset returns a copy of m with a fresh lifecycle for regeneration. The ID,
// session and human input are preserved.
func (m Message) Reset(assistant Assistant) Message {
	return Message{
		ID:        m.ID,
		SessionID: m.SessionID,
		RawHuman:  m.RawHuman,
		Loading:   true,
		Input:     InputProps{Assistant: assistant},
		CreatedAt: m.CreatedAt,
	}
}
