package led

import (
	"log/slog"
	"sync"

	"github.com/smazurov/livecast/internal/events"
)

// Manager mirrors the session state on the status LED:
// off when idle, solid while previewing, heartbeat while streaming or
// recording, and blinking after an error.
type Manager struct {
	controller  Controller
	eventBus    *events.Bus
	unsubscribe func()
	logger      *slog.Logger

	mu    sync.Mutex
	state string
}

// NewManager creates a manager reacting to session state changes on eventBus.
func NewManager(controller Controller, eventBus *events.Bus, logger *slog.Logger) *Manager {
	return &Manager{
		controller: controller,
		eventBus:   eventBus,
		logger:     logger,
	}
}

// Start subscribes to session state changes.
func (m *Manager) Start() {
	m.unsubscribe = m.eventBus.Subscribe(m.handleEvent)
	m.logger.Info("LED manager started")
}

// Stop unsubscribes and turns the status LED off.
func (m *Manager) Stop() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	if err := m.controller.Set(TypeStatus, false, ""); err != nil {
		m.logger.Debug("Failed to turn status LED off", "error", err)
	}
	m.logger.Info("LED manager stopped")
}

func (m *Manager) handleEvent(event events.SessionStateChangedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if event.State == m.state {
		return
	}
	m.state = event.State

	enabled, pattern := statusPattern(event.State)
	if err := m.controller.Set(TypeStatus, enabled, pattern); err != nil {
		m.logger.Warn("Failed to set status LED", "state", event.State, "error", err)
		return
	}
	m.logger.Debug("Status LED updated", "state", event.State, "pattern", pattern)
}

func statusPattern(state string) (enabled bool, pattern string) {
	switch state {
	case "idle", "":
		return false, ""
	case "preview":
		return true, PatternSolid
	case "error":
		return true, PatternBlink
	default:
		return true, PatternHeartbeat
	}
}

// Controller returns the underlying LED controller.
func (m *Manager) Controller() Controller {
	return m.controller
}
