package chatkit

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a request or message failed validation.
	ErrValidation = errors.New("validation error")

	// ErrNotFound indicates the requested message, model or assistant does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnknownTool indicates a tool name outside the closed ToolKey set.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrInvalidAPIKey indicates the provider rejected or lacks credentials.
	ErrInvalidAPIKey = errors.New("invalid api key")

	// ErrRecursion indicates the tool loop exceeded its round limit.
	ErrRecursion = errors.New("recursion limit reached")
)
