// Command chatkit is a terminal chat client for OpenAI and Gemini models with
// tool plugins.
//
// Usage:
//
//	OPENAI_API_KEY=sk-... chatkit [flags]
//	GEMINI_API_KEY=AIza... chatkit [flags]
//
// Flags:
//
//	-model string    Assistant to answer new messages (default: preferences, then first model)
//	-session string  Path to session file to resume or create
//	-prefs string    Path to preferences file (default: ~/.chatkit/preferences.toml)
//	-debug string    Write logs to this file (also CHATKIT_DEBUG=1 for ./chatkit.log)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/chatkit"
	"github.com/fwojciec/chatkit/agent"
	bt "github.com/fwojciec/chatkit/bubbletea"
	"github.com/fwojciec/chatkit/builtin"
	"github.com/fwojciec/chatkit/clipboard"
	"github.com/fwojciec/chatkit/goldmark"
	chatjson "github.com/fwojciec/chatkit/json"
	"github.com/fwojciec/chatkit/registry"
	"github.com/fwojciec/chatkit/toml"
)

const defaultDebugLog = "chatkit.log"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "chatkit: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		model       = flag.String("model", "", "Assistant key for new messages")
		sessionPath = flag.String("session", "", "Path to session file to resume or create")
		prefsPath   = flag.String("prefs", "", "Path to preferences file")
		debugPath   = flag.String("debug", "", "Write logs to this file")
	)
	flag.Parse()

	closeLog, err := setupLogging(*debugPath, os.Getenv("CHATKIT_DEBUG"))
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	home := chatkitDir()
	if *prefsPath == "" {
		*prefsPath = filepath.Join(home, "preferences.toml")
	}
	if *sessionPath == "" {
		*sessionPath = filepath.Join(home, "sessions", fmt.Sprintf("%d.json", time.Now().UnixNano()))
	}

	prefs := toml.NewStore(*prefsPath, chatkit.Preferences{
		DefaultPlugins: []chatkit.ToolKey{chatkit.ToolCalculator, chatkit.ToolClock},
	})
	current, err := prefs.Get(ctx)
	if err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}

	sessions, err := chatjson.Open(*sessionPath)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}

	settings := bt.NewSettingsTrigger()
	catalog := registry.New(registry.Options{Preferences: prefs, Settings: settings})

	key := current.DefaultAssistant
	if *model != "" {
		key = chatkit.AssistantKey(*model)
		if _, ok := catalog.AssistantByKey(key); !ok {
			return fmt.Errorf("unknown model %q", *model)
		}
	}
	assistant, ok := catalog.DefaultAssistant(key)
	if !ok {
		return errors.New("no assistants configured")
	}

	loop := agent.New(agent.Config{
		Sessions:   sessions,
		Models:     catalog,
		Tools:      catalog,
		Prefs:      prefs,
		Executor:   builtin.NewExecutor(prefs),
		Generators: generatorFactory(ctx, envKeys{openAI: os.Getenv("OPENAI_API_KEY"), gemini: os.Getenv("GEMINI_API_KEY")}),
	})
	chat := bt.NewController(loop)

	tui := bt.New(bt.Config{
		Sessions:  sessions,
		Models:    catalog,
		Tools:     catalog,
		Prefs:     prefs,
		Chat:      chat,
		Clipboard: clipboard.New(),
		Markdown:  goldmark.NewRenderer(chatkit.DefaultTheme()),
		Settings:  settings,
		Theme:     chatkit.DefaultTheme(),
		Assistant: assistant,
	})
	if !clipboard.Available() {
		slog.Warn("no clipboard utility found; copy is disabled")
	}

	runErr := bt.Run(ctx, tui, prefs.Watch)
	tui.Close()
	chat.Cancel()
	chat.Wait()

	if runErr != nil {
		return fmt.Errorf("TUI: %w", runErr)
	}
	if len(sessions.CurrentSession().Messages) == 0 {
		return nil
	}
	if err := sessions.Flush(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Session saved to %s\n", *sessionPath)
	return nil
}

// setupLogging routes slog to a file when debugging and discards it
// otherwise, since any stderr output would corrupt the alt screen.
func setupLogging(path, env string) (func(), error) {
	if path == "" && env == "1" {
		path = defaultDebugLog
	}
	if path == "" {
		slog.SetDefault(slog.New(slog.DiscardHandler))
		return func() {}, nil
	}
	f, err := tea.LogToFile(path, "chatkit")
	if err != nil {
		return nil, fmt.Errorf("open debug log: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return func() { _ = f.Close() }, nil
}

func chatkitDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".chatkit")
}
