// Package lifecycle holds shared constants for service start/stop handling.
package lifecycle

import "time"

// DefaultTimeout bounds graceful shutdown of delivery servers.
const DefaultTimeout = 10 * time.Second
