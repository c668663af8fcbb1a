// Package monitor runs the frame change-detection loop over a mapped scaler
// window.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/smazurov/scalerwatch/internal/capture"
	"github.com/smazurov/scalerwatch/internal/events"
	"github.com/smazurov/scalerwatch/internal/logging"
	"github.com/smazurov/scalerwatch/pkg/ascal"
)

// Config describes what to watch and how.
type Config struct {
	Base   uint64
	Size   int
	Layout string // layout name, or "auto"
	Header ascal.HeaderConfig

	Step   int
	Jitter bool

	Wait         string
	PollInterval time.Duration
	SpinInterval time.Duration

	// StaleAfter flags the frame as stale once unchanged this long. Zero disables it.
	StaleAfter time.Duration

	Report ReportMode
	Inline bool

	// MaxCycles ends Run after that many cycles. Zero runs until cancelled.
	MaxCycles uint64
}

// DefaultConfig returns the settings of the stock MiSTer monitor: the whole
// scaler window, every fourth pixel, a 50ms poll.
func DefaultConfig() Config {
	return Config{
		Base:         ascal.DefaultBaseAddress,
		Size:         ascal.DefaultWindowSize,
		Layout:       ascal.LayoutAuto,
		Header:       ascal.DefaultHeaderConfig(),
		Step:         4,
		Wait:         WaitInterval,
		PollInterval: 50 * time.Millisecond,
		SpinInterval: 2 * time.Millisecond,
		StaleAfter:   10 * time.Second,
		Report:       ReportChange,
	}
}

// Runtime is the part of Config that can change while Run is active.
type Runtime struct {
	Step   int
	Jitter bool
	Report ReportMode
	Inline bool
}

// Options carries the collaborators of a Monitor.
type Options struct {
	// Out receives status lines. Defaults to io.Discard.
	Out io.Writer
	// Bus receives monitor events. May be nil.
	Bus    *events.Bus
	Logger logging.Logger
	// Open maps the window. Defaults to ascal.OpenWindow with read-only access.
	Open func(base uint64, size int) (*ascal.Window, error)
	// Now defaults to time.Now.
	Now func() time.Time
}

// Monitor owns the mapped window and the poll loop. Run and Close must be
// called from the same goroutine; Status, Reconfigure and Capture are safe
// from any.
type Monitor struct {
	cfg    Config
	out    io.Writer
	bus    *events.Bus
	logger logging.Logger
	now    func() time.Time

	windowMu sync.RWMutex // held for writing only by Close
	window   *ascal.Window
	layout   ascal.Layout
	waiter   Waiter
	sampler  *ascal.Sampler
	tracker  *Tracker
	reporter *Reporter

	state    State
	stale    bool
	prev     ascal.FrameHeader
	hasPrev  bool
	lastSoft string

	mu      sync.Mutex
	pending *Runtime

	status statusBox
}

// New maps the window and validates the header. Any failure here is fatal:
// the window is unmapped again and the error wraps ascal.ErrDeviceUnavailable
// or ascal.ErrBadHeader.
func New(cfg Config, opts Options) (*Monitor, error) {
	if cfg.Step < 1 {
		return nil, fmt.Errorf("sampling step must be at least 1, got %d", cfg.Step)
	}
	if cfg.Report == "" {
		cfg.Report = ReportChange
	}

	m := &Monitor{
		cfg:     cfg,
		out:     opts.Out,
		bus:     opts.Bus,
		logger:  opts.Logger,
		now:     opts.Now,
		sampler: ascal.NewSampler(),
		tracker: NewTracker(),
	}
	if m.out == nil {
		m.out = io.Discard
	}
	if m.logger == nil {
		m.logger = logging.GetLogger("monitor")
	}
	if m.now == nil {
		m.now = time.Now
	}
	open := opts.Open
	if open == nil {
		open = func(base uint64, size int) (*ascal.Window, error) {
			return ascal.OpenWindow(base, size, ascal.AccessReadOnly)
		}
	}
	m.reporter = NewReporter(m.out, cfg.Report, cfg.Inline)
	m.setState(StateUninitialized)

	w, err := open(cfg.Base, cfg.Size)
	if err != nil {
		return nil, err
	}
	m.window = w
	m.setState(StateMapped)
	m.logger.Debug("Scaler window mapped", "base", fmt.Sprintf("%#x", cfg.Base), "size", w.Len())

	layout, hdr, err := ascal.ResolveLayout(w, cfg.Layout, cfg.Header)
	if err != nil {
		m.Close()
		if !errors.Is(err, ascal.ErrBadHeader) {
			err = fmt.Errorf("%w: %w", ascal.ErrBadHeader, err)
		}
		return nil, err
	}
	m.layout = layout

	m.waiter, err = NewWaiter(cfg.Wait, cfg.PollInterval, cfg.SpinInterval, func() (uint8, error) {
		return layout.Counter(w)
	})
	if err != nil {
		m.Close()
		return nil, err
	}

	m.status.update(func(s *Status) {
		s.Layout = layout.Name()
		s.Base = cfg.Base
	})
	m.setHeaderStatus(hdr)
	m.setState(StateValidated)
	m.logger.Info("Scaler header validated",
		"layout", layout.Name(),
		"resolution", hdr.Resolution(),
		"output", fmt.Sprintf("%dx%d", hdr.OutputWidth, hdr.OutputHeight),
		"stride", hdr.Stride,
		"header_length", hdr.HeaderLength,
		"format", hdr.Format.String(),
		"triple_buffered", hdr.TripleBuffered)
	return m, nil
}

// Layout returns the header layout in use.
func (m *Monitor) Layout() ascal.Layout {
	return m.layout
}

// Status returns a snapshot of the latest cycle.
func (m *Monitor) Status() Status {
	return m.status.get()
}

// Reconfigure queues new runtime settings. They take effect at the start
// of the next cycle, never in the middle of one.
func (m *Monitor) Reconfigure(rt Runtime) error {
	if rt.Step < 1 {
		return fmt.Errorf("sampling step must be at least 1, got %d", rt.Step)
	}
	if rt.Report == "" {
		rt.Report = ReportChange
	}
	m.mu.Lock()
	m.pending = &rt
	m.mu.Unlock()
	return nil
}

// Run polls until ctx is cancelled or MaxCycles is reached. Cancellation is
// a normal stop and returns nil. A header failure on the first cycle is
// returned; later failures are reported and the loop keeps going.
func (m *Monitor) Run(ctx context.Context) error {
	if m.state != StateValidated {
		return fmt.Errorf("monitor cannot run in state %s", m.state)
	}
	m.setState(StateRunning)
	defer m.setState(StateStopped)
	defer m.reporter.Finish()

	first := m.status.get()
	m.bus.Publish(events.MonitorStartedEvent{
		Layout:     first.Layout,
		Base:       m.cfg.Base,
		Resolution: first.Resolution,
		Format:     first.Format,
		Timestamp:  m.now(),
	})

	for cycle := uint64(1); ; cycle++ {
		if ctx.Err() != nil {
			return nil
		}
		m.applyPending()

		if cycle > 1 {
			if err := m.waiter.Wait(ctx); err != nil {
				return nil
			}
		}

		if err := m.cycle(cycle); err != nil {
			return err
		}

		if m.cfg.MaxCycles > 0 && cycle >= m.cfg.MaxCycles {
			return nil
		}
	}
}

// Close unmaps the window. Safe to call more than once.
func (m *Monitor) Close() error {
	m.windowMu.Lock()
	defer m.windowMu.Unlock()
	if m.window == nil {
		return nil
	}
	err := m.window.Close()
	m.window = nil
	m.setState(StateStopped)
	return err
}

// Capture decodes the current frame from the monitored window and writes it
// to sink. It reads alongside the poll loop and fails with ascal.ErrClosed
// once the monitor is closed.
func (m *Monitor) Capture(sink capture.Sink, name string, maxPixels int) (capture.Result, error) {
	m.windowMu.RLock()
	defer m.windowMu.RUnlock()
	if m.window == nil {
		return capture.Result{}, ascal.ErrClosed
	}
	return capture.Capture(m.window, m.layout, sink, capture.Options{
		Name:      name,
		MaxPixels: maxPixels,
		Bus:       m.bus,
		Logger:    logging.GetLogger("capture"),
	})
}

func (m *Monitor) applyPending() {
	m.mu.Lock()
	rt := m.pending
	m.pending = nil
	m.mu.Unlock()
	if rt == nil {
		return
	}

	m.cfg.Step = rt.Step
	m.cfg.Jitter = rt.Jitter
	m.cfg.Report = rt.Report
	m.cfg.Inline = rt.Inline
	m.reporter.Configure(rt.Report, rt.Inline)
	m.logger.Info("Runtime settings applied",
		"step", rt.Step, "jitter", rt.Jitter, "report", string(rt.Report), "inline", rt.Inline)
}

// cycle runs one header parse, sample, compare and report. Only a header
// failure on the first cycle is returned; every other failure is reported
// here and the loop carries on.
func (m *Monitor) cycle(n uint64) error {
	start := m.now()

	hdr, err := m.layout.Parse(m.window)
	if err != nil {
		if n == 1 {
			return err
		}
		m.softError(start, "header", err)
		return nil
	}

	m.setHeaderStatus(hdr)

	grid := ascal.GridFor(m.cfg.Step, n, m.cfg.Jitter)
	sample, err := m.sampler.Sample(m.window, hdr, grid)
	var formatErr error
	if err != nil {
		if !errors.Is(err, ascal.ErrUnsupportedFormat) {
			m.softError(start, "sample", err)
			return nil
		}
		// An unknown format still has geometry to track and report; only
		// the color analysis is skipped.
		formatErr = err
	}

	now := m.now()
	rep := m.tracker.Update(hdr, sample, now)
	lastError := ""
	switch {
	case formatErr != nil:
		m.recordError(now, "format", formatErr)
		lastError = "format: " + formatErr.Error()
	case m.lastSoft != "":
		m.logger.Info("Scaler frame readable again", "cycle", n)
		m.lastSoft = ""
	}

	if rep.GeometryChanged && m.hasPrev {
		m.logger.Info("Frame geometry changed", "from", geometryLabel(m.prev), "to", geometryLabel(hdr))
		m.bus.Publish(events.GeometryChangedEvent{
			From:      geometryLabel(m.prev),
			To:        geometryLabel(hdr),
			Timestamp: now,
		})
	}
	if sample.Clamped && (rep.First || rep.GeometryChanged) {
		m.logger.Warn("Frame extends past the mapped window; sampling clamped",
			"resolution", hdr.Resolution(), "stride", hdr.Stride, "window", m.window.Len())
	}
	m.prev, m.hasPrev = hdr, true

	stale := m.cfg.StaleAfter > 0 && rep.Unchanged >= m.cfg.StaleAfter
	if stale != m.stale {
		m.stale = stale
		m.logger.Info("Frame stale state changed", "stale", stale, "unchanged", rep.Unchanged.Round(time.Millisecond))
		m.bus.Publish(events.StaleChangedEvent{Stale: stale, Unchanged: rep.Unchanged, Timestamp: now})
	}

	if err := m.reporter.Report(now, hdr, sample, rep); err != nil {
		m.logger.Warn("Failed to write status line", "error", err)
	}

	dominant := ""
	if sample.Colored && sample.Samples > 0 {
		dominant = sample.Dominant.Hex()
	}
	m.bus.Publish(events.FrameSampledEvent{
		Cycle:       n,
		Layout:      hdr.Layout,
		Resolution:  hdr.Resolution(),
		Format:      hdr.Format.String(),
		Fingerprint: sample.Fingerprint,
		Samples:     sample.Samples,
		Dominant:    dominant,
		Changed:     rep.Changed,
		Unchanged:   rep.Unchanged,
		Duration:    now.Sub(start),
		Timestamp:   now,
	})

	m.status.update(func(s *Status) {
		s.Cycle = n
		s.Fingerprint = sample.Fingerprint
		s.Samples = sample.Samples
		s.Dominant = dominant
		s.DominantName = ""
		if dominant != "" {
			s.DominantName = ColorName(sample.Dominant)
		}
		s.Changed = rep.Changed
		s.LastChange = rep.LastChange
		s.Unchanged = rep.Unchanged.Seconds()
		s.Stale = stale
		s.LastError = lastError
		s.UpdatedAt = now
	})
	return nil
}

// softError reports a failed cycle. Repeats of the same failure are logged
// at debug level so a core without scaler output does not flood the log.
func (m *Monitor) softError(now time.Time, stage string, err error) {
	if repErr := m.reporter.ReportError(now, stage, err); repErr != nil {
		m.logger.Warn("Failed to write status line", "error", repErr)
	}
	m.recordError(now, stage, err)
}

// recordError logs a failed stage once per distinct message, publishes it
// and counts it in the status.
func (m *Monitor) recordError(now time.Time, stage string, err error) {
	msg := err.Error()
	if msg != m.lastSoft {
		m.logger.Warn("Poll cycle failed", "stage", stage, "error", err)
		m.lastSoft = msg
	} else {
		m.logger.Debug("Poll cycle failed", "stage", stage, "error", err)
	}

	m.bus.Publish(events.CycleErrorEvent{Stage: stage, Error: msg, Timestamp: now})
	m.status.update(func(s *Status) {
		s.Errors++
		s.LastError = stage + ": " + msg
		s.UpdatedAt = now
	})
}

func (m *Monitor) setState(st State) {
	m.state = st
	m.status.update(func(s *Status) { s.State = st.String() })
}

func (m *Monitor) setHeaderStatus(h ascal.FrameHeader) {
	m.status.update(func(s *Status) {
		s.Resolution = h.Resolution()
		s.Output = fmt.Sprintf("%dx%d", h.OutputWidth, h.OutputHeight)
		s.Format = h.Format.String()
		s.BitDepth = h.BitDepth()
		s.Stride = h.Stride
		s.Triple = h.TripleBuffered
		s.BufferIndex = h.BufferIndex
	})
}

func geometryLabel(h ascal.FrameHeader) string {
	return fmt.Sprintf("%s %s", h.Resolution(), h.Format)
}
