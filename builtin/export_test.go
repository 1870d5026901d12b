package builtin

import "time"

func (e *Executor) SetNow(now func() time.Time) { e.now = now }
