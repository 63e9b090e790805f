// Package instance identifies the running worker replica in logs.
package instance

import "os"

const fallbackID = "worker-0"

// GetID returns RUIZ_WORKER_ID, or a stable default when the replica
// has no assigned identity.
func GetID() string {
	id := os.Getenv("RUIZ_WORKER_ID")
	if id == "" {
		return fallbackID
	}
	return id
}
