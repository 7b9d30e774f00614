package internal

import "time"

// Clock returns the current time. A nil Clock reads the wall clock.
type Clock func() time.Time

// Now returns the current time truncated to whole seconds, which is the
// resolution every session timestamp is stored with.
func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now().Truncate(time.Second)
	}
	return c().Truncate(time.Second)
}

// Unix returns Now as unix seconds.
func (c Clock) Unix() int64 {
	return c.Now().Unix()
}
