package registry_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/chatkit"
	"github.com/fwojciec/chatkit/mock"
	"github.com/fwojciec/chatkit/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prefsWithRoot(root string, err error) *mock.PreferencesStore {
	return &mock.PreferencesStore{
		GetFn: func(context.Context) (chatkit.Preferences, error) {
			return chatkit.Preferences{SearchRoot: root}, err
		},
	}
}

func TestNew_Catalog(t *testing.T) {
	t.Parallel()

	r := registry.New(registry.Options{})

	models := r.Models()
	require.NotEmpty(t, models)
	assert.Len(t, r.Assistants(), len(models))

	var withoutPlugins int
	for _, m := range models {
		a, ok := r.AssistantByKey(chatkit.AssistantKey(m.Key))
		require.True(t, ok, "assistant for %s", m.Key)
		assert.Equal(t, m.Key, a.BaseModel)
		assert.NotEmpty(t, a.SystemPrompt)
		if len(m.Plugins) == 0 {
			withoutPlugins++
		}
		for _, k := range m.Plugins {
			_, ok := r.ToolByKey(k)
			assert.True(t, ok, "model %s references unregistered tool %s", m.Key, k)
		}
	}
	assert.Equal(t, 1, withoutPlugins)

	for _, k := range chatkit.ToolKeys() {
		d, ok := r.ToolByKey(k)
		require.True(t, ok)
		assert.Equal(t, k, d.Key)
		assert.NotEmpty(t, d.LoadingMessage)
		assert.JSONEq(t, string(d.Parameters), string(d.Schema().Parameters))
	}
}

func TestRegistry_Lookups(t *testing.T) {
	t.Parallel()

	r := registry.New(registry.Options{})

	m, ok := r.ModelByKey("gemini-2.5-flash")
	require.True(t, ok)
	assert.Equal(t, chatkit.ProviderGemini, m.Provider)
	assert.Equal(t, []chatkit.ToolKey{chatkit.ToolSearch, chatkit.ToolCalculator}, m.Plugins)

	_, ok = r.ModelByKey("missing")
	assert.False(t, ok)
	_, ok = r.AssistantByKey("missing")
	assert.False(t, ok)
	_, ok = r.ToolByKey("missing")
	assert.False(t, ok)
}

func TestRegistry_ReturnsCopies(t *testing.T) {
	t.Parallel()

	r := registry.New(registry.Options{})
	models := r.Models()
	models[0].Name = "changed"

	assert.NotEqual(t, "changed", r.Models()[0].Name)
}

func TestRegistry_DefaultAssistant(t *testing.T) {
	t.Parallel()

	r := registry.New(registry.Options{})

	a, ok := r.DefaultAssistant("gpt-4o")
	require.True(t, ok)
	assert.Equal(t, chatkit.AssistantKey("gpt-4o"), a.Key)

	a, ok = r.DefaultAssistant("unknown")
	require.True(t, ok)
	assert.Equal(t, r.Assistants()[0], a)

	_, ok = registry.NewCatalog(nil, nil, nil).DefaultAssistant("x")
	assert.False(t, ok)
}

func TestSearchValidator(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	tests := []struct {
		name    string
		root    string
		err     error
		want    bool
		wantErr bool
	}{
		{"directory", dir, nil, true, false},
		{"empty root", "", nil, false, false},
		{"regular file", file, nil, false, false},
		{"missing", filepath.Join(dir, "nope"), nil, false, false},
		{"store error", dir, errors.New("disk"), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := registry.New(registry.Options{Preferences: prefsWithRoot(tt.root, tt.err)})
			d, ok := r.ToolByKey(chatkit.ToolSearch)
			require.True(t, ok)
			require.NotNil(t, d.Validate)

			got, err := d.Validate(context.Background())

			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSearchValidationFailureOpensSettings(t *testing.T) {
	t.Parallel()

	var opened int
	r := registry.New(registry.Options{Settings: &mock.Settings{OpenFn: func() { opened++ }}})
	d, ok := r.ToolByKey(chatkit.ToolSearch)
	require.True(t, ok)
	require.NotNil(t, d.OnValidationFailed)

	d.OnValidationFailed()

	assert.Equal(t, 1, opened)
}

func TestToolsWithoutValidator(t *testing.T) {
	t.Parallel()

	r := registry.New(registry.Options{})

	for _, k := range []chatkit.ToolKey{chatkit.ToolCalculator, chatkit.ToolClock} {
		d, ok := r.ToolByKey(k)
		require.True(t, ok)
		assert.Nil(t, d.Validate)
		assert.Nil(t, d.OnValidationFailed)
	}
}
