// Package led drives a board LED as a frame-activity indicator.
package led

// Pattern names understood by every Controller.
const (
	PatternSolid = "solid"
	PatternBlink = "blink"
	PatternOff   = "off"
)

// Controller abstracts LED hardware control.
type Controller interface {
	// Set switches ledType on or off with an optional pattern. An empty
	// pattern leaves the current pattern unchanged.
	Set(ledType string, enabled bool, pattern string) error

	// Available returns the LED types this controller can drive.
	Available() []string

	// Patterns returns the patterns this controller supports.
	Patterns() []string
}
