// Package openai implements [chatkit.Generator] for the OpenAI Chat
// Completions API using the official openai-go SDK.
package openai

const (
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 4096
)
