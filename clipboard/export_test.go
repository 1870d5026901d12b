package clipboard

func NewWithWriter(write func(string) error) *Clipboard {
	return &Clipboard{write: write}
}
