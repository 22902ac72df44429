package common

import "time"

// Cache TTLs for upstream data components
const (
	FreshnessEvents  = 60 * time.Second // primary event list
	FreshnessArchive = 10 * time.Minute // historical pool changes slowly
	FreshnessStatus  = 30 * time.Second // engine status probe interval
)

// IsFresh returns true if the given timestamp is within the TTL
func IsFresh(updated time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return time.Since(updated) < ttl
}
