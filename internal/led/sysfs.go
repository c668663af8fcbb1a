package led

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

const sysfsLEDPath = "/sys/class/leds"

// sysfs implements Controller with the Linux LED class interface.
type sysfs struct {
	root string
	leds map[string]string // LED type -> sysfs directory name
}

func newSysfs(root string, leds map[string]string) *sysfs {
	return &sysfs{root: root, leds: leds}
}

// triggers maps patterns to kernel LED triggers.
var triggers = map[string]string{
	PatternSolid: "none",
	PatternBlink: "timer",
	PatternOff:   "none",
}

// Set writes the trigger first, then brightness, since changing the trigger
// resets brightness on most drivers.
func (s *sysfs) Set(ledType string, enabled bool, pattern string) error {
	name, ok := s.leds[ledType]
	if !ok {
		return fmt.Errorf("LED type %q not supported on this board", ledType)
	}

	ledPath := filepath.Join(s.root, name)
	if _, err := os.Stat(ledPath); err != nil {
		return fmt.Errorf("LED %q not found at %s: %w", ledType, ledPath, err)
	}

	if pattern != "" {
		trigger, known := triggers[pattern]
		if !known {
			trigger = pattern
		}
		if err := os.WriteFile(filepath.Join(ledPath, "trigger"), []byte(trigger), 0o644); err != nil {
			return fmt.Errorf("failed to set LED trigger: %w", err)
		}
		if pattern == PatternOff {
			enabled = false
		}
	}

	brightness := "0"
	if enabled {
		brightness = "1"
	}
	if err := os.WriteFile(filepath.Join(ledPath, "brightness"), []byte(brightness), 0o644); err != nil {
		return fmt.Errorf("failed to set LED brightness: %w", err)
	}
	return nil
}

// Available returns the configured LED types in sorted order.
func (s *sysfs) Available() []string {
	types := make([]string, 0, len(s.leds))
	for ledType := range s.leds {
		types = append(types, ledType)
	}
	slices.Sort(types)
	return types
}

func (s *sysfs) Patterns() []string {
	return []string{PatternSolid, PatternBlink, PatternOff}
}
