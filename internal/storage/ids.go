package storage

import "fmt"

// GenerateUniqueID returns baseID if it is free, otherwise the first of
// baseID-2, baseID-3, ... that taken reports as free.
func GenerateUniqueID(baseID string, taken func(string) bool) string {
	if !taken(baseID) {
		return baseID
	}

	// Start at 2: baseID is taken, so the first duplicate becomes baseID-2
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", baseID, i)
		if !taken(candidate) {
			return candidate
		}
	}
}
