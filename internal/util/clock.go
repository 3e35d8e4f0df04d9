package util

import "time"

// Now returns the current instant in UTC at second precision, so stored
// RFC3339 timestamps sort lexically.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
