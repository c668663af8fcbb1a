// Package metrics provides Prometheus metrics for the frame monitor.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/smazurov/scalerwatch/internal/events"
)

const namespace = "scalerwatch"

var (
	cyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "monitor",
		Name:      "cycles_total",
		Help:      "Poll cycles that sampled a frame",
	})

	changesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "monitor",
		Name:      "frame_changes_total",
		Help:      "Cycles that observed a changed frame",
	})

	geometryChangesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "monitor",
		Name:      "geometry_changes_total",
		Help:      "Resolution, stride or pixel format changes",
	})

	cycleErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "monitor",
		Name:      "cycle_errors_total",
		Help:      "Cycles that failed softly, by stage",
	}, []string{"stage"})

	unchangedSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "monitor",
		Name:      "unchanged_seconds",
		Help:      "Time since the frame last changed",
	})

	staleGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "monitor",
		Name:      "stale",
		Help:      "1 while the frame is considered stale",
	})

	samplesGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "monitor",
		Name:      "samples",
		Help:      "Pixels sampled in the last cycle",
	})

	frameInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "frame",
		Name:      "info",
		Help:      "Current frame geometry and pixel format",
	}, []string{"layout", "resolution", "format"})

	cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "monitor",
		Name:      "cycle_duration_seconds",
		Help:      "Time spent parsing the header and sampling one frame",
		Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 12),
	})

	capturesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "capture",
		Name:      "frames_total",
		Help:      "Frames written by the capture command",
	})
)

// Recorder turns monitor events into metric updates.
type Recorder struct {
	mu     sync.Mutex
	info   [3]string // labels of the live frame_info series
	unsubs []func()
}

// NewRecorder creates a recorder. Call Attach to start receiving events.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Attach subscribes the recorder to bus.
func (r *Recorder) Attach(bus *events.Bus) {
	r.unsubs = append(r.unsubs,
		events.Subscribe(bus, r.started),
		events.Subscribe(bus, r.sampled),
		events.Subscribe(bus, func(events.GeometryChangedEvent) { geometryChangesTotal.Inc() }),
		events.Subscribe(bus, r.stale),
		events.Subscribe(bus, r.cycleError),
		events.Subscribe(bus, func(events.CaptureCompletedEvent) { capturesTotal.Inc() }),
	)
}

// Detach removes every subscription made by Attach.
func (r *Recorder) Detach() {
	for _, unsub := range r.unsubs {
		unsub()
	}
	r.unsubs = nil
}

func (r *Recorder) started(e events.MonitorStartedEvent) {
	r.setInfo(e.Layout, e.Resolution, e.Format)
}

func (r *Recorder) sampled(e events.FrameSampledEvent) {
	cyclesTotal.Inc()
	if e.Changed {
		changesTotal.Inc()
	}
	unchangedSeconds.Set(e.Unchanged.Seconds())
	samplesGauge.Set(float64(e.Samples))
	cycleDuration.Observe(e.Duration.Seconds())
	r.setInfo(e.Layout, e.Resolution, e.Format)
}

// setInfo keeps exactly one frame_info series alive.
func (r *Recorder) setInfo(labels ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := [3]string{labels[0], labels[1], labels[2]}
	if next == r.info {
		return
	}
	frameInfo.Reset()
	frameInfo.WithLabelValues(labels...).Set(1)
	r.info = next
}

func (r *Recorder) stale(e events.StaleChangedEvent) {
	if e.Stale {
		staleGauge.Set(1)
	} else {
		staleGauge.Set(0)
	}
}

func (r *Recorder) cycleError(e events.CycleErrorEvent) {
	cycleErrorsTotal.WithLabelValues(e.Stage).Inc()
}
