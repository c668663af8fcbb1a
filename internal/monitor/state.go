package monitor

import (
	"sync"
	"time"
)

// State is the lifecycle stage of a Monitor.
type State int

// Monitor states, in the order they are entered.
const (
	StateUninitialized State = iota
	StateMapped
	StateValidated
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateMapped:
		return "mapped"
	case StateValidated:
		return "validated"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Status is a point-in-time snapshot of the monitor, safe to hand to other
// goroutines.
type Status struct {
	State        string    `json:"state" example:"running" doc:"Lifecycle state"`
	Layout       string    `json:"layout" example:"ascal" doc:"Header layout in use"`
	Base         uint64    `json:"base" doc:"Physical base address"`
	Cycle        uint64    `json:"cycle" doc:"Completed poll cycles"`
	Resolution   string    `json:"resolution" example:"640x480" doc:"Frame geometry"`
	Output       string    `json:"output" example:"1920x1080" doc:"Scaled output geometry"`
	Format       string    `json:"format" example:"RGB24" doc:"Pixel format"`
	BitDepth     int       `json:"bit_depth" example:"24" doc:"Bits per pixel"`
	Stride       int       `json:"stride" doc:"Bytes per line"`
	Triple       bool      `json:"triple_buffered" doc:"Triple buffering active"`
	BufferIndex  int       `json:"buffer_index" doc:"Active buffer"`
	Fingerprint  uint64    `json:"fingerprint" doc:"Last sample fingerprint"`
	Samples      int       `json:"samples" doc:"Pixels in the last sample"`
	Dominant     string    `json:"dominant" example:"#0A141E" doc:"Dominant color"`
	DominantName string    `json:"dominant_name" example:"black" doc:"Nearest named color"`
	Changed      bool      `json:"changed" doc:"Last cycle saw a change"`
	LastChange   time.Time `json:"last_change" doc:"Time of the last change"`
	Unchanged    float64   `json:"unchanged_seconds" doc:"Seconds since the last change"`
	Stale        bool      `json:"stale" doc:"Frame unchanged past the stale threshold"`
	Errors       uint64    `json:"errors" doc:"Soft cycle failures so far"`
	LastError    string    `json:"last_error,omitempty" doc:"Most recent soft failure"`
	UpdatedAt    time.Time `json:"updated_at" doc:"Snapshot time"`
}

// statusBox is the only state shared between the poll loop and readers.
type statusBox struct {
	mu sync.RWMutex
	s  Status
}

func (b *statusBox) get() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.s
}

func (b *statusBox) update(fn func(*Status)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(&b.s)
}
