package monitor

import (
	"time"

	"github.com/smazurov/scalerwatch/pkg/ascal"
)

// ChangeReport is the tracker's verdict on one cycle.
type ChangeReport struct {
	// First is set on the very first update only; it is always Changed.
	First bool
	// Changed is set when the fingerprint differs from the last sample taken
	// with the same grid, or when the geometry changed.
	Changed         bool
	GeometryChanged bool
	LastChange      time.Time
	Unchanged       time.Duration
}

type gridKey struct {
	step int
	slot int
}

// Tracker remembers the last fingerprint per sampling grid and reports when
// the frame changes. A jittered grid samples different pixels each cycle,
// so fingerprints are only compared between cycles that used the same grid.
type Tracker struct {
	seeded     bool
	geometry   ascal.FrameHeader
	baselines  map[gridKey]uint64
	lastChange time.Time
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{baselines: make(map[gridKey]uint64)}
}

// Update folds one cycle into the tracker.
func (t *Tracker) Update(h ascal.FrameHeader, s ascal.Sample, now time.Time) ChangeReport {
	key := gridKey{step: s.Grid.Step, slot: s.Grid.Slot()}

	var rep ChangeReport
	switch {
	case !t.seeded:
		rep.First = true
		rep.Changed = true
	case !t.geometry.SameGeometry(h):
		rep.Changed = true
		rep.GeometryChanged = true
		clear(t.baselines)
	default:
		if prev, ok := t.baselines[key]; ok && prev != s.Fingerprint {
			rep.Changed = true
		}
	}

	t.seeded = true
	t.geometry = h
	t.baselines[key] = s.Fingerprint
	if rep.Changed {
		t.lastChange = now
	}

	rep.LastChange = t.lastChange
	rep.Unchanged = now.Sub(t.lastChange)
	return rep
}

// Reset forgets every baseline; the next update counts as the first.
func (t *Tracker) Reset() {
	t.seeded = false
	t.geometry = ascal.FrameHeader{}
	clear(t.baselines)
	t.lastChange = time.Time{}
}

// LastChange returns the time of the last reported change.
func (t *Tracker) LastChange() time.Time {
	return t.lastChange
}
