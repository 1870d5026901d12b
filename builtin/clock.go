package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fwojciec/chatkit"
)

type clockArgs struct {
	Timezone string `json:"timezone"`
}

// ExecuteClock reports now in the requested IANA zone, or local time.
func ExecuteClock(_ context.Context, args json.RawMessage, now time.Time) (*chatkit.ToolResult, error) {
	var a clockArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return domainError(fmt.Sprintf("invalid arguments: %s", err)), nil
	}
	loc := time.Local
	if a.Timezone != "" {
		l, err := time.LoadLocation(a.Timezone)
		if err != nil {
			return domainError(fmt.Sprintf("unknown time zone: %s", a.Timezone)), nil
		}
		loc = l
	}
	t := now.In(loc)
	return textResult(fmt.Sprintf("%s\n%s (%s)", t.Format(time.RFC3339), t.Format("Monday, 2 January 2006 15:04 MST"), loc)), nil
}
