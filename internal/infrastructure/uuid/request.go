package uuid

import guuid "github.com/google/uuid"

// RequestID returns a random UUIDv4 used to correlate a request across logs
func RequestID() string {
	return guuid.New().String()
}
