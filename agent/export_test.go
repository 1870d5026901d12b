package agent

func (l *Loop) SetNewID(fn func() string) { l.newID = fn }
