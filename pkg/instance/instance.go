package instance

import "os"

// GetID names this process for lock ownership and logs. CHO_WORKER_ID wins,
// then the hostname.
func GetID() string {
	if id := os.Getenv("CHO_WORKER_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
