package toml

import "time"

func (s *Store) SetDebounce(d time.Duration) { s.debounce = d }
