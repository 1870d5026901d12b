// Package json persists chat sessions as JSON files.
package json

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/chatkit"
)

const envelopeVersion = 1

// envelope is the v1 wire format for a persisted session.
type envelope struct {
	Version   int          `json:"version"`
	ID        string       `json:"id"`
	Title     string       `json:"title,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Messages  []messageDTO `json:"messages"`
}

type messageDTO struct {
	ID         string       `json:"id"`
	Human      string       `json:"human"`
	AI         string       `json:"ai"`
	Loading    bool         `json:"loading,omitempty"`
	Stop       bool         `json:"stop,omitempty"`
	StopReason string       `json:"stop_reason,omitempty"`
	ToolName   string       `json:"tool_name,omitempty"`
	Assistant  assistantDTO `json:"assistant"`
	CreatedAt  time.Time    `json:"created_at"`
}

type assistantDTO struct {
	Key          string `json:"key"`
	Name         string `json:"name,omitempty"`
	BaseModel    string `json:"base_model"`
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// MarshalSession serializes a Session to JSON in v1 envelope format.
func MarshalSession(s chatkit.Session) ([]byte, error) {
	env := envelope{
		Version:   envelopeVersion,
		ID:        s.ID,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Messages:  make([]messageDTO, len(s.Messages)),
	}
	for i, m := range s.Messages {
		if m.ID == "" {
			return nil, fmt.Errorf("message %d: missing id: %w", i, chatkit.ErrValidation)
		}
		env.Messages[i] = messageDTO{
			ID:         m.ID,
			Human:      m.RawHuman,
			AI:         m.RawAI,
			Loading:    m.Loading,
			Stop:       m.Stop,
			StopReason: string(m.StopReason),
			ToolName:   m.ToolName,
			Assistant: assistantDTO{
				Key:          string(m.Input.Assistant.Key),
				Name:         m.Input.Assistant.Name,
				BaseModel:    string(m.Input.Assistant.BaseModel),
				SystemPrompt: m.Input.Assistant.SystemPrompt,
			},
			CreatedAt: m.CreatedAt,
		}
	}
	return json.MarshalIndent(env, "", "  ")
}

// UnmarshalSession deserializes a Session from JSON in v1 envelope format.
// A message persisted mid-generation is restored as cancelled, since the
// run that owned it no longer exists.
func UnmarshalSession(data []byte) (chatkit.Session, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return chatkit.Session{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != envelopeVersion {
		return chatkit.Session{}, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}
	msgs := make([]chatkit.Message, len(env.Messages))
	for i, dto := range env.Messages {
		reason, err := chatkit.ParseStopReason(dto.StopReason)
		if err != nil {
			return chatkit.Session{}, fmt.Errorf("message %d: %w", i, err)
		}
		m := chatkit.Message{
			ID:         dto.ID,
			SessionID:  env.ID,
			RawHuman:   dto.Human,
			RawAI:      dto.AI,
			Loading:    dto.Loading,
			Stop:       dto.Stop,
			StopReason: reason,
			ToolName:   dto.ToolName,
			Input: chatkit.InputProps{Assistant: chatkit.Assistant{
				Key:          chatkit.AssistantKey(dto.Assistant.Key),
				Name:         dto.Assistant.Name,
				BaseModel:    chatkit.ModelKey(dto.Assistant.BaseModel),
				SystemPrompt: dto.Assistant.SystemPrompt,
			}},
			CreatedAt: dto.CreatedAt,
		}
		if m.Loading {
			m.Loading = false
			m.Stop = true
			m.StopReason = chatkit.StopCancel
		}
		msgs[i] = m
	}
	return chatkit.Session{
		ID:        env.ID,
		Title:     env.Title,
		CreatedAt: env.CreatedAt,
		UpdatedAt: env.UpdatedAt,
		Messages:  msgs,
	}, nil
}

// Save writes a Session to a JSON file, creating parent directories as needed.
func Save(path string, s chatkit.Session) error {
	data, err := MarshalSession(s)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Load reads a Session from a JSON file.
func Load(path string) (chatkit.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return chatkit.Session{}, fmt.Errorf("read file: %w", err)
	}
	return UnmarshalSession(data)
}
