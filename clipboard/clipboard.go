// Package clipboard writes to the system clipboard via atotto/clipboard.
package clipboard

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/fwojciec/chatkit"
)

var _ chatkit.Clipboard = (*Clipboard)(nil)

// Clipboard implements chatkit.Clipboard.
type Clipboard struct {
	write func(string) error
}

// New returns a Clipboard backed by the system clipboard.
func New() *Clipboard {
	return &Clipboard{write: clipboard.WriteAll}
}

// Available reports whether a clipboard utility was found on this system.
func Available() bool {
	return !clipboard.Unsupported
}

func (c *Clipboard) Copy(text string) error {
	if err := c.write(text); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}
