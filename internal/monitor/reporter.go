package monitor

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/smazurov/scalerwatch/pkg/ascal"
)

// ReportMode selects which cycles produce a status line.
type ReportMode string

// Report modes.
const (
	ReportChange ReportMode = "change" // only cycles that changed
	ReportCycle  ReportMode = "cycle"  // every cycle
)

// ParseReportMode validates a configured report mode. Empty selects ReportChange.
func ParseReportMode(s string) (ReportMode, error) {
	switch m := ReportMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ReportChange, nil
	case ReportChange, ReportCycle:
		return m, nil
	default:
		return "", fmt.Errorf("unknown report mode %q (want change or cycle)", s)
	}
}

// TimeLayout is the timestamp format of status lines.
const TimeLayout = "2006-01-02T15:04:05.000"

// inlineWidth pads inline lines so a shorter line fully overwrites a longer one.
const inlineWidth = 96

// Reporter writes one human-readable status line per reported cycle.
//
// In inline mode every line starts with a carriage return and rewrites the
// previous one, which suits an interactive terminal; otherwise lines are
// newline terminated.
type Reporter struct {
	mu       sync.Mutex
	w        io.Writer
	mode     ReportMode
	inline   bool
	pending  bool // an inline line is on screen without a newline
	lastLine string
}

// NewReporter creates a reporter writing to w.
func NewReporter(w io.Writer, mode ReportMode, inline bool) *Reporter {
	return &Reporter{w: w, mode: mode, inline: inline}
}

// Configure switches mode and inline rendering. Safe to call between reports.
func (r *Reporter) Configure(mode ReportMode, inline bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inline && !inline && r.pending {
		fmt.Fprintln(r.w)
		r.pending = false
	}
	r.mode = mode
	r.inline = inline
}

// Mode returns the active report mode.
func (r *Reporter) Mode() ReportMode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// Report writes the line for a sampled cycle if the mode asks for it.
// Inline mode refreshes the line on every cycle regardless of mode, since
// the elapsed time is part of it.
func (r *Reporter) Report(now time.Time, h ascal.FrameHeader, s ascal.Sample, rep ChangeReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !rep.Changed && r.mode == ReportChange && !r.inline {
		return nil
	}
	return r.write(FormatLine(now, h, s, rep))
}

// ReportError writes a line for a cycle that failed softly.
func (r *Reporter) ReportError(now time.Time, stage string, err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.write(fmt.Sprintf("%s %s error: %v", now.Format(TimeLayout), stage, err))
}

// LastLine returns the most recent line without terminator or padding.
func (r *Reporter) LastLine() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastLine
}

// Finish terminates a pending inline line.
func (r *Reporter) Finish() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.pending {
		return nil
	}
	r.pending = false
	_, err := fmt.Fprintln(r.w)
	return err
}

func (r *Reporter) write(line string) error {
	r.lastLine = line
	var err error
	if r.inline {
		_, err = fmt.Fprintf(r.w, "\r%-*s", inlineWidth, line)
		r.pending = true
	} else {
		_, err = fmt.Fprintln(r.w, line)
	}
	return err
}

// FormatLine renders a status line:
//
//	2026-10-14T09:30:00.125 640x480 24-bit RGB24 #0A141E black changed
//	2026-10-14T09:30:03.375 640x480 24-bit RGB24 #0A141E black unchanged 3.25s
//	2026-10-14T09:30:04.000 640x480 unsupported format 0x20 #------ - changed (geometry)
func FormatLine(now time.Time, h ascal.FrameHeader, s ascal.Sample, rep ChangeReport) string {
	var b strings.Builder
	b.WriteString(now.Format(TimeLayout))
	if h.Format != nil {
		fmt.Fprintf(&b, " %s %d-bit %s", h.Resolution(), h.BitDepth(), h.Format)
	} else {
		fmt.Fprintf(&b, " %s unsupported format 0x%02x", h.Resolution(), h.FormatCode)
	}

	if s.Colored && s.Samples > 0 {
		fmt.Fprintf(&b, " %s %s", s.Dominant.Hex(), ColorName(s.Dominant))
	} else {
		b.WriteString(" #------ -")
	}

	if rep.Changed {
		b.WriteString(" changed")
		if rep.GeometryChanged {
			b.WriteString(" (geometry)")
		}
	} else {
		fmt.Fprintf(&b, " unchanged %.2fs", rep.Unchanged.Seconds())
	}
	return b.String()
}
