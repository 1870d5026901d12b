// Package builtin provides the built-in plugins: calculator, file search
// and clock.
package builtin

import "github.com/fwojciec/chatkit"

func domainError(msg string) *chatkit.ToolResult {
	return &chatkit.ToolResult{Content: msg, IsError: true}
}

func textResult(text string) *chatkit.ToolResult {
	return &chatkit.ToolResult{Content: text}
}
