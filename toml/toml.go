// Package toml persists user preferences in a TOML file.
package toml

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"github.com/fwojciec/chatkit"
)

var _ chatkit.PreferencesStore = (*Store)(nil)

// DefaultDebounce coalesces bursts of filesystem events from a single save.
const DefaultDebounce = 100 * time.Millisecond

type file struct {
	Plugins   pluginsSection   `toml:"plugins"`
	Assistant assistantSection `toml:"assistant"`
	Keys      keysSection      `toml:"keys"`
	Search    searchSection    `toml:"search"`
}

type pluginsSection struct {
	Enabled []string `toml:"enabled"`
}

type assistantSection struct {
	Default string `toml:"default,omitempty"`
}

type keysSection struct {
	OpenAI string `toml:"openai,omitempty"`
	Gemini string `toml:"gemini,omitempty"`
}

type searchSection struct {
	Root string `toml:"root,omitempty"`
}

// Store implements chatkit.PreferencesStore over a TOML file. Reads always
// go to disk so external edits are visible.
type Store struct {
	path     string
	defaults chatkit.Preferences
	debounce time.Duration

	mu sync.Mutex // serializes read-modify-write in Set
}

// NewStore returns a Store at path. defaults is returned by Get until the
// file exists.
func NewStore(path string, defaults chatkit.Preferences) *Store {
	return &Store{
		path:     filepath.Clean(path),
		defaults: defaults,
		debounce: DefaultDebounce,
	}
}

// Path returns the preferences file location.
func (s *Store) Path() string { return s.path }

func (s *Store) Get(ctx context.Context) (chatkit.Preferences, error) {
	if err := ctx.Err(); err != nil {
		return chatkit.Preferences{}, err
	}
	return s.load()
}

func (s *Store) Set(ctx context.Context, patch chatkit.PreferencesPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	cur, err := s.load()
	if err != nil {
		return err
	}
	return s.save(patch.Apply(cur))
}

func (s *Store) load() (chatkit.Preferences, error) {
	var f file
	_, err := toml.DecodeFile(s.path, &f)
	if errors.Is(err, fs.ErrNotExist) {
		return s.defaults, nil
	}
	if err != nil {
		return chatkit.Preferences{}, fmt.Errorf("failed to parse preferences file: %w", err)
	}
	p := chatkit.Preferences{
		DefaultPlugins:   make([]chatkit.ToolKey, 0, len(f.Plugins.Enabled)),
		DefaultAssistant: chatkit.AssistantKey(f.Assistant.Default),
		OpenAIAPIKey:     f.Keys.OpenAI,
		GeminiAPIKey:     f.Keys.Gemini,
		SearchRoot:       f.Search.Root,
	}
	for _, name := range f.Plugins.Enabled {
		key, err := chatkit.ParseToolKey(name)
		if err != nil {
			slog.Warn("ignoring plugin in preferences", "path", s.path, "error", err)
			continue
		}
		p.DefaultPlugins = chatkit.EnablePlugin(p.DefaultPlugins, key)
	}
	return p, nil
}

func (s *Store) save(p chatkit.Preferences) error {
	f := file{
		Plugins:   pluginsSection{Enabled: make([]string, 0, len(p.DefaultPlugins))},
		Assistant: assistantSection{Default: string(p.DefaultAssistant)},
		Keys:      keysSection{OpenAI: p.OpenAIAPIKey, Gemini: p.GeminiAPIKey},
		Search:    searchSection{Root: p.SearchRoot},
	}
	for _, k := range p.DefaultPlugins {
		f.Plugins.Enabled = append(f.Plugins.Enabled, string(k))
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(f); err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Watch calls onChange with freshly loaded preferences whenever the file is
// written, replaced or removed. It blocks until ctx is done. Writes made by
// Set are reported too.
func (s *Store) Watch(ctx context.Context, onChange func(chatkit.Preferences)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	// The directory is watched because atomic saves replace the file inode.
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != s.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			fire = time.After(s.debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("preferences watcher error", "error", err)
		case <-fire:
			fire = nil
			p, err := s.load()
			if err != nil {
				slog.Warn("reload preferences", "path", s.path, "error", err)
				continue
			}
			onChange(p)
		}
	}
}
