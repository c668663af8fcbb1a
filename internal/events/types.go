package events

import "time"

// Event type constants for kelindar/event.
const (
	TypeMonitorStarted uint32 = iota + 1
	TypeFrameSampled
	TypeGeometryChanged
	TypeStaleChanged
	TypeCycleError
	TypeCaptureCompleted
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// MonitorStartedEvent is published once the header validated and the poll
// loop is about to run.
type MonitorStartedEvent struct {
	Layout     string    `json:"layout" example:"ascal" doc:"Header layout in use"`
	Base       uint64    `json:"base" example:"536870912" doc:"Physical base address of the window"`
	Resolution string    `json:"resolution" example:"640x480" doc:"Initial frame geometry"`
	Format     string    `json:"format" example:"RGB24" doc:"Initial pixel format"`
	Timestamp  time.Time `json:"timestamp" doc:"Event timestamp"`
}

// Type returns the event type identifier for MonitorStartedEvent.
func (e MonitorStartedEvent) Type() uint32 { return TypeMonitorStarted }

// FrameSampledEvent is published after every successful poll cycle.
type FrameSampledEvent struct {
	Cycle       uint64        `json:"cycle" doc:"Poll cycle number, starting at 1"`
	Layout      string        `json:"layout" example:"ascal" doc:"Header layout in use"`
	Resolution  string        `json:"resolution" example:"640x480" doc:"Frame geometry"`
	Format      string        `json:"format" example:"RGB24" doc:"Pixel format"`
	Fingerprint uint64        `json:"fingerprint" doc:"Sample fingerprint"`
	Samples     int           `json:"samples" doc:"Number of pixels sampled"`
	Dominant    string        `json:"dominant" example:"#0A141E" doc:"Dominant color"`
	Changed     bool          `json:"changed" doc:"Whether the frame changed since the last comparable sample"`
	Unchanged   time.Duration `json:"unchanged" doc:"Time since the last change"`
	Duration    time.Duration `json:"duration" doc:"Time spent parsing and sampling"`
	Timestamp   time.Time     `json:"timestamp" doc:"Event timestamp"`
}

// Type returns the event type identifier for FrameSampledEvent.
func (e FrameSampledEvent) Type() uint32 { return TypeFrameSampled }

// GeometryChangedEvent is published when resolution, stride or format change.
type GeometryChangedEvent struct {
	From      string    `json:"from" example:"320x240 RGB565LE" doc:"Previous geometry"`
	To        string    `json:"to" example:"640x480 RGB24" doc:"New geometry"`
	Timestamp time.Time `json:"timestamp" doc:"Event timestamp"`
}

// Type returns the event type identifier for GeometryChangedEvent.
func (e GeometryChangedEvent) Type() uint32 { return TypeGeometryChanged }

// StaleChangedEvent is published when the frame crosses the stale threshold
// in either direction.
type StaleChangedEvent struct {
	Stale     bool          `json:"stale" doc:"Whether the frame is now considered stale"`
	Unchanged time.Duration `json:"unchanged" doc:"Time since the last change"`
	Timestamp time.Time     `json:"timestamp" doc:"Event timestamp"`
}

// Type returns the event type identifier for StaleChangedEvent.
func (e StaleChangedEvent) Type() uint32 { return TypeStaleChanged }

// CycleErrorEvent is published when a cycle after the first fails softly.
type CycleErrorEvent struct {
	Stage     string    `json:"stage" example:"header" doc:"Failed stage: header or sample"`
	Error     string    `json:"error" doc:"Error description"`
	Timestamp time.Time `json:"timestamp" doc:"Event timestamp"`
}

// Type returns the event type identifier for CycleErrorEvent.
func (e CycleErrorEvent) Type() uint32 { return TypeCycleError }

// CaptureCompletedEvent is published after a frame was written by a sink.
type CaptureCompletedEvent struct {
	Path       string    `json:"path" example:"/tmp/screenshots/MiSTer_small.png" doc:"Written file"`
	Resolution string    `json:"resolution" example:"640x480" doc:"Captured geometry"`
	Timestamp  time.Time `json:"timestamp" doc:"Event timestamp"`
}

// Type returns the event type identifier for CaptureCompletedEvent.
func (e CaptureCompletedEvent) Type() uint32 { return TypeCaptureCompleted }
