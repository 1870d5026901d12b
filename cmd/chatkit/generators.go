package main

import (
	"context"
	"fmt"

	"github.com/fwojciec/chatkit"
	"github.com/fwojciec/chatkit/gemini"
	"github.com/fwojciec/chatkit/openai"
)

// envKeys holds API keys read from the environment in main.
type envKeys struct {
	openAI string
	gemini string
}

// generatorFactory builds a client for the model's provider on every run, so
// keys saved from the settings overlay apply without a restart. A key in the
// preferences wins over the environment.
func generatorFactory(ctx context.Context, env envKeys) chatkit.GeneratorFactory {
	return func(model chatkit.ModelDescriptor, prefs chatkit.Preferences) (chatkit.Generator, error) {
		switch model.Provider {
		case chatkit.ProviderOpenAI:
			c, err := openai.New(firstSet(prefs.OpenAIAPIKey, env.openAI), openai.WithModel(model.ModelID))
			if err != nil {
				return nil, err
			}
			return c, nil
		case chatkit.ProviderGemini:
			c, err := gemini.New(ctx, firstSet(prefs.GeminiAPIKey, env.gemini), gemini.WithModel(model.ModelID))
			if err != nil {
				return nil, err
			}
			return c, nil
		default:
			return nil, fmt.Errorf("model %s: unknown provider %q", model.Key, model.Provider)
		}
	}
}

func firstSet(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
