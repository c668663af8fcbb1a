// Package systemd reports service state to the systemd manager.
package systemd

import (
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/smazurov/scalerwatch/internal/events"
	"github.com/smazurov/scalerwatch/internal/logging"
)

// notifyFunc matches daemon.SdNotify.
type notifyFunc func(unsetEnvironment bool, state string) (bool, error)

// Notifier sends sd_notify messages. Outside a Type=notify unit every call
// is a cheap no-op.
//
// The watchdog is petted from monitor events rather than a timer, so a
// wedged poll loop stops the pets and lets systemd restart the service.
type Notifier struct {
	notify   notifyFunc
	interval time.Duration
	logger   logging.Logger
	now      func() time.Time

	mu       sync.Mutex
	lastPet  time.Time
	geometry string
	unsubs   []func()
}

// NewNotifier reads the watchdog settings from the environment.
func NewNotifier(logger logging.Logger) *Notifier {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		logger.Warn("Invalid systemd watchdog settings", "error", err)
		interval = 0
	}
	return newNotifier(daemon.SdNotify, interval, logger)
}

func newNotifier(notify notifyFunc, interval time.Duration, logger logging.Logger) *Notifier {
	return &Notifier{
		notify:   notify,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// WatchdogInterval returns the configured watchdog timeout, or 0 if none.
func (n *Notifier) WatchdogInterval() time.Duration {
	return n.interval
}

// Ready tells systemd startup finished.
func (n *Notifier) Ready() {
	n.send(daemon.SdNotifyReady)
}

// Stopping tells systemd shutdown began.
func (n *Notifier) Stopping() {
	n.send(daemon.SdNotifyStopping)
}

// Status sets the free-form status line shown by systemctl status.
func (n *Notifier) Status(status string) {
	n.send("STATUS=" + status)
}

// Watchdog pets the watchdog at most twice per interval.
func (n *Notifier) Watchdog() {
	if n.interval <= 0 {
		return
	}
	n.mu.Lock()
	now := n.now()
	due := n.lastPet.IsZero() || now.Sub(n.lastPet) >= n.interval/2
	if due {
		n.lastPet = now
	}
	n.mu.Unlock()

	if due {
		n.send(daemon.SdNotifyWatchdog)
	}
}

// Attach pets the watchdog on every completed cycle and publishes the
// current geometry, or the stale state, as the unit status.
func (n *Notifier) Attach(bus *events.Bus) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.unsubs = append(n.unsubs,
		events.Subscribe(bus, func(events.FrameSampledEvent) { n.Watchdog() }),
		events.Subscribe(bus, func(events.CycleErrorEvent) { n.Watchdog() }),
		events.Subscribe(bus, func(e events.MonitorStartedEvent) {
			n.watching(e.Resolution + " " + e.Format)
		}),
		events.Subscribe(bus, func(e events.GeometryChangedEvent) {
			n.watching(e.To)
		}),
		events.Subscribe(bus, func(e events.StaleChangedEvent) {
			n.mu.Lock()
			label := n.geometry
			n.mu.Unlock()
			if e.Stale {
				n.Status("stale " + label + ", unchanged for " + e.Unchanged.Round(time.Second).String())
				return
			}
			n.Status("watching " + label)
		}),
	)
}

func (n *Notifier) watching(geometry string) {
	n.mu.Lock()
	n.geometry = geometry
	n.mu.Unlock()
	n.Status("watching " + geometry)
}

// Detach removes the subscriptions made by Attach.
func (n *Notifier) Detach() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, unsub := range n.unsubs {
		unsub()
	}
	n.unsubs = nil
}

func (n *Notifier) send(state string) {
	sent, err := n.notify(false, state)
	if err != nil {
		n.logger.Warn("sd_notify failed", "state", state, "error", err)
		return
	}
	if sent {
		n.logger.Debug("sd_notify sent", "state", state)
	}
}
