package instance

import (
	"os"

	"github.com/angelmondragon/vps-storefront/pkg/env"
)

const fallbackID = "vps-api-0"

// GetID returns the process instance identifier used in log context.
// VPS_INSTANCE_ID wins, then the platform dyno name, then the hostname.
func GetID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = fallbackID
	}
	return env.First(host, "VPS_INSTANCE_ID", "DYNO")
}
