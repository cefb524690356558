package policy

import "time"

// EditWindow is the fixed period after creation during which non-transition
// field edits and deletes are accepted. The window runs from created_at only;
// editing a record never refreshes it.
const EditWindow = 15 * time.Minute

// IsEditable reports whether a record created at createdAt may still be
// edited at now. Exclusive at the boundary: exactly EditWindow after creation
// the record is frozen.
func IsEditable(createdAt, now time.Time) bool {
	return now.Sub(createdAt) < EditWindow
}
