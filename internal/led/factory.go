package led

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/smazurov/scalerwatch/internal/logging"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// StatusLED is the LED type the Manager drives.
const StatusLED = "status"

// New returns a controller for the sysfs LED called name. An empty name
// selects the board default. Without a usable LED it falls back to a
// no-op controller.
func New(name string, logger logging.Logger) Controller {
	return newController(sysfsLEDPath, deviceTreeModelPath, name, logger)
}

func newController(root, modelPath, name string, logger logging.Logger) Controller {
	if name == "" {
		model := detectBoard(modelPath)
		name = boardLED(model)
		if logger != nil {
			logger.Info("Detected board for LED control", "board_model", model, "led", name)
		}
	}

	if name != "" {
		if _, err := os.Stat(filepath.Join(root, name)); err == nil {
			return newSysfs(root, map[string]string{StatusLED: name})
		}
		if logger != nil {
			logger.Info("LED not present, using no-op controller", "led", name)
		}
	}
	return newNoop(logger)
}

// boardLED names the user LED of boards the scaler runs on.
func boardLED(model string) string {
	switch {
	case strings.Contains(model, "DE10-Nano"), strings.Contains(model, "Cyclone V"):
		return "hps_led0"
	case strings.Contains(model, "Raspberry Pi"):
		return "ACT"
	default:
		return ""
	}
}

// detectBoard reads the device tree model to identify the board.
func detectBoard(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "unknown"
	}
	return strings.TrimRight(string(data), "\x00")
}
