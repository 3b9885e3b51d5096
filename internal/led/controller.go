// Package led drives the host's status and torch LEDs through sysfs.
package led

// LED types understood by every controller.
const (
	TypeStatus = "status"
	TypeTorch  = "torch"
)

// Patterns accepted by Controller.Set.
const (
	PatternSolid     = "solid"
	PatternBlink     = "blink"
	PatternHeartbeat = "heartbeat"
)

// Controller abstracts LED hardware control across boards.
type Controller interface {
	// Set switches an LED on or off. pattern is one of the Pattern
	// constants or a raw trigger name; empty leaves the trigger unchanged.
	Set(ledType string, enabled bool, pattern string) error

	// Available returns the LED types this controller drives.
	Available() []string

	// Patterns returns the supported patterns.
	Patterns() []string
}
