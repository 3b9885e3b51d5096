package led

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// boardStatusLEDs maps a device tree model fragment to its status LED.
var boardStatusLEDs = []struct {
	model string
	led   string
}{
	{"NanoPC-T6", "sys_led"},
	{"Orange Pi", "green_led"},
	{"Raspberry Pi", "ACT"},
}

// New creates an LED controller for this board. The status LED comes from
// board detection; a torch is any LED whose name mentions flash or torch.
// Without either it returns a no-op controller.
func New(logger *slog.Logger) Controller {
	return newFor(detectBoard(), sysfsLEDPath, logger)
}

func newFor(boardModel, root string, logger *slog.Logger) Controller {
	leds := make(map[string]string)
	for _, b := range boardStatusLEDs {
		if strings.Contains(boardModel, b.model) {
			leds[TypeStatus] = b.led
			break
		}
	}
	if torch := findTorchLED(root); torch != "" {
		leds[TypeTorch] = torch
	}

	if len(leds) == 0 {
		logger.Info("No LED support detected, using no-op controller", "board_model", boardModel)
		return newNoop(logger)
	}
	logger.Info("Using sysfs LED controller", "board_model", boardModel, "status", leds[TypeStatus], "torch", leds[TypeTorch])
	s := newSysfs(leds)
	s.root = root
	return s
}

// findTorchLED returns the first LED under root named like a camera flash.
func findTorchLED(root string) string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		name := strings.ToLower(e.Name())
		if strings.Contains(name, "flash") || strings.Contains(name, "torch") {
			if _, err := os.Stat(filepath.Join(root, e.Name(), "brightness")); err == nil {
				return e.Name()
			}
		}
	}
	return ""
}

// detectBoard reads the device tree model to identify the board.
func detectBoard() string {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return "unknown"
	}
	// The model is NUL terminated.
	return strings.TrimRight(string(data), "\x00")
}
