package led

import "github.com/smazurov/scalerwatch/internal/logging"

// noop implements Controller for systems without a usable LED.
type noop struct {
	logger logging.Logger
}

func newNoop(logger logging.Logger) *noop {
	return &noop{logger: logger}
}

// Set logs the request and does nothing else.
func (n *noop) Set(ledType string, enabled bool, pattern string) error {
	if n.logger != nil {
		n.logger.Debug("LED control not available (no-op)",
			"led_type", ledType,
			"enabled", enabled,
			"pattern", pattern)
	}
	return nil
}

func (n *noop) Available() []string {
	return []string{}
}

func (n *noop) Patterns() []string {
	return []string{}
}
