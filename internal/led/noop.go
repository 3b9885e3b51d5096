package led

import "log/slog"

// noop is the Controller of boards without usable LEDs. It drives nothing
// and advertises nothing, so Torch reports ErrNoTorch.
type noop struct {
	logger *slog.Logger
}

func newNoop(logger *slog.Logger) *noop {
	return &noop{logger: logger}
}

func (n *noop) Set(ledType string, enabled bool, pattern string) error {
	n.logger.Debug("Ignoring LED change, no LEDs on this board", "led_type", ledType, "enabled", enabled, "pattern", pattern)
	return nil
}

func (n *noop) Available() []string { return nil }

func (n *noop) Patterns() []string { return nil }
