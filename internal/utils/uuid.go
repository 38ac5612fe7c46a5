package utils

import "github.com/google/uuid"

// IsUUID reports whether s parses as a UUID. Handlers use it to reject
// malformed path ids before touching the store.
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
