package led

import (
	"sync"

	"github.com/smazurov/scalerwatch/internal/events"
	"github.com/smazurov/scalerwatch/internal/logging"
)

// Manager shows monitor health on the status LED: solid while frames keep
// changing, blinking once the frame is stale, off after a failed cycle until
// the next good one.
type Manager struct {
	controller Controller
	eventBus   *events.Bus
	logger     logging.Logger

	mu      sync.Mutex
	unsubs  []func()
	pattern string
	stale   bool
}

// NewManager creates a manager that drives controller from bus events.
func NewManager(controller Controller, eventBus *events.Bus, logger logging.Logger) *Manager {
	return &Manager{
		controller: controller,
		eventBus:   eventBus,
		logger:     logger,
	}
}

// Start subscribes to monitor events.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unsubs = append(m.unsubs,
		events.Subscribe(m.eventBus, func(events.MonitorStartedEvent) {
			m.apply(func() { m.stale = false })
		}),
		events.Subscribe(m.eventBus, func(e events.StaleChangedEvent) {
			m.apply(func() { m.stale = e.Stale })
		}),
		events.Subscribe(m.eventBus, func(events.FrameSampledEvent) {
			m.apply(nil)
		}),
		events.Subscribe(m.eventBus, func(events.CycleErrorEvent) {
			m.set(PatternOff)
		}),
	)
	m.logger.Info("LED manager started")
}

// Stop unsubscribes and switches the LED off.
func (m *Manager) Stop() {
	m.mu.Lock()
	for _, unsub := range m.unsubs {
		unsub()
	}
	m.unsubs = nil
	m.mu.Unlock()

	m.set(PatternOff)
	m.logger.Info("LED manager stopped")
}

// Pattern returns the last pattern written to the LED.
func (m *Manager) Pattern() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pattern
}

func (m *Manager) apply(update func()) {
	m.mu.Lock()
	if update != nil {
		update()
	}
	pattern := PatternSolid
	if m.stale {
		pattern = PatternBlink
	}
	m.mu.Unlock()
	m.set(pattern)
}

// set writes pattern unless it is already showing.
func (m *Manager) set(pattern string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pattern == pattern {
		return
	}
	if err := m.controller.Set(StatusLED, pattern != PatternOff, pattern); err != nil {
		m.logger.Warn("Failed to set status LED", "pattern", pattern, "error", err)
		return
	}
	m.logger.Debug("Status LED updated", "pattern", pattern)
	m.pattern = pattern
}
