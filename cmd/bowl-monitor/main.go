// Command bowl-monitor watches a water bowl sensor and sends an alert when the
// bowl stays empty across several wakes, with periodic reminders until it is
// refilled.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
