package mock

import (
	"context"

	"github.com/fwojciec/chatkit"
)

var _ chatkit.PreferencesStore = (*PreferencesStore)(nil)

// PreferencesStore is a test double for chatkit.PreferencesStore.
type PreferencesStore struct {
	GetFn func(ctx context.Context) (chatkit.Preferences, error)
	SetFn func(ctx context.Context, patch chatkit.PreferencesPatch) error
}

func (s *PreferencesStore) Get(ctx context.Context) (chatkit.Preferences, error) {
	return s.GetFn(ctx)
}

func (s *PreferencesStore) Set(ctx context.Context, patch chatkit.PreferencesPatch) error {
	return s.SetFn(ctx, patch)
}
