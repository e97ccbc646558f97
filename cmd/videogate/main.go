// videogate accepts video uploads over HTTP, serves them back as static
// files and deletes videos older than the retention window.
//
// Usage:
//
//	# Start the gateway with defaults and VIDEOGATE_* environment overrides
//	videogate run
//
//	# Start with a configuration file
//	videogate run --config /etc/videogate/config.yaml
//
//	# Check a configuration file
//	videogate validate --config /etc/videogate/config.yaml
//
//	# Show the most recent retention sweeps
//	videogate history --limit 10
//
//	# Show version information
//	videogate version
package main

import (
	"os"

	// Embedded IANA database so retention.timezone resolves on minimal images.
	_ "time/tzdata"
)

func main() {
	os.Exit(Execute())
}
