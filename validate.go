package chatkit

import "fmt"

// Validate checks universal constraints on GenerateRequest.
// Generator implementations may apply additional provider-specific validation.
func (r GenerateRequest) Validate() error {
	if r.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative, got %d: %w", r.MaxTokens, ErrValidation)
	}
	if len(r.Turns) == 0 {
		return fmt.Errorf("at least one turn is required: %w", ErrValidation)
	}
	for i, t := range r.Turns {
		if err := ValidateTurn(t); err != nil {
			return fmt.Errorf("turn %d: %w", i, err)
		}
	}
	return nil
}

// ValidateTurn checks that a turn's fields are valid for its role.
func ValidateTurn(t Turn) error {
	switch t.Role {
	case RoleUser:
		if len(t.ToolCalls) > 0 {
			return fmt.Errorf("tool calls not allowed in %s turn: %w", t.Role, ErrValidation)
		}
		if t.ToolCallID != "" {
			return fmt.Errorf("tool call id not allowed in %s turn: %w", t.Role, ErrValidation)
		}
	case RoleAssistant:
		if t.ToolCallID != "" {
			return fmt.Errorf("tool call id not allowed in %s turn: %w", t.Role, ErrValidation)
		}
	case RoleTool:
		if t.ToolCallID == "" {
			return fmt.Errorf("tool call id required in %s turn: %w", t.Role, ErrValidation)
		}
		if len(t.ToolCalls) > 0 {
			return fmt.Errorf("tool calls not allowed in %s turn: %w", t.Role, ErrValidation)
		}
	default:
		return fmt.Errorf("unknown role %q: %w", t.Role, ErrValidation)
	}
	return nil
}
