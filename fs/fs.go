// Package fs implements the file search plugin over a sandboxed root.
package fs

import "github.com/fwojciec/chatkit"

func domainError(msg string) *chatkit.ToolResult {
	return &chatkit.ToolResult{Content: msg, IsError: true}
}

func textResult(text string) *chatkit.ToolResult {
	return &chatkit.ToolResult{Content: text}
}
