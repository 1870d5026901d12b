// Package gemini implements [chatkit.Generator] for the Google Gemini API.
//
// It wraps the google.golang.org/genai SDK, translating between chatkit's
// turn history and the Gemini content types. Streaming consumes the SDK's
// iter.Seq2 iterator directly.
package gemini

const (
	defaultModel     = "gemini-2.5-flash"
	defaultMaxTokens = 8192
)
