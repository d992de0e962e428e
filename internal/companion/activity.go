package companion

import (
	"strings"
	"time"
)

// RecordUserActivity timestamps the owner's last message addressed to
// name, consumed by the scheduler's active-user debounce (spec.md §4.8).
func (c *Client) RecordUserActivity(name string) {
	c.activityMu.Lock()
	defer c.activityMu.Unlock()
	c.activity[strings.ToLower(name)] = time.Now()
}

// IsUserActive reports whether the owner addressed name within window.
func (c *Client) IsUserActive(name string, window time.Duration) bool {
	c.activityMu.Lock()
	defer c.activityMu.Unlock()
	last, ok := c.activity[strings.ToLower(name)]
	if !ok {
		return false
	}
	return time.Since(last) < window
}
