package json

import "time"

func (st *Store) SetNow(now func() time.Time) { st.now = now }

func Title(human string) string { return title(human) }
