package instance

import "os"

// GetID names the running process in logs: the platform dyno, then the
// host name, then "local".
func GetID() string {
	for _, key := range []string{"DYNO", "HOSTNAME"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	return "local"
}
