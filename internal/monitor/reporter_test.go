package monitor

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/smazurov/scalerwatch/pkg/ascal"
)

var reportTime = time.Date(2026, 10, 14, 9, 30, 0, 125_000_000, time.UTC)

func reportHeader() ascal.FrameHeader {
	return ascal.FrameHeader{Width: 640, Height: 480, Stride: 1920, Format: ascal.RGB24}
}

func reportSample() ascal.Sample {
	return ascal.Sample{Samples: 16, Colored: true, Dominant: ascal.RGB{R: 10, G: 20, B: 30}}
}

func TestFormatLine(t *testing.T) {
	tests := []struct {
		name   string
		header ascal.FrameHeader
		sample ascal.Sample
		rep    ChangeReport
		want   string
	}{
		{
			name:   "changed",
			header: reportHeader(),
			sample: reportSample(),
			rep:    ChangeReport{Changed: true},
			want:   "2026-10-14T09:30:00.125 640x480 24-bit RGB24 #0A141E black changed",
		},
		{
			name:   "unchanged",
			header: reportHeader(),
			sample: reportSample(),
			rep:    ChangeReport{Unchanged: 3250 * time.Millisecond},
			want:   "2026-10-14T09:30:00.125 640x480 24-bit RGB24 #0A141E black unchanged 3.25s",
		},
		{
			name:   "geometry",
			header: reportHeader(),
			sample: reportSample(),
			rep:    ChangeReport{Changed: true, GeometryChanged: true},
			want:   "2026-10-14T09:30:00.125 640x480 24-bit RGB24 #0A141E black changed (geometry)",
		},
		{
			name:   "no samples",
			header: ascal.FrameHeader{Format: ascal.RGB565LE},
			sample: ascal.Sample{Colored: true},
			rep:    ChangeReport{Changed: true, First: true},
			want:   "2026-10-14T09:30:00.125 0x0 16-bit RGB565LE #------ - changed",
		},
		{
			name:   "unsupported format",
			header: ascal.FrameHeader{Width: 640, Height: 480, Stride: 1920, FormatCode: 0x20},
			sample: ascal.Sample{Fingerprint: ascal.EmptyFingerprint},
			rep:    ChangeReport{Unchanged: 500 * time.Millisecond},
			want:   "2026-10-14T09:30:00.125 640x480 unsupported format 0x20 #------ - unchanged 0.50s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatLine(reportTime, tt.header, tt.sample, tt.rep); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestReporterChangeMode(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, ReportChange, false)

	if err := r.Report(reportTime, reportHeader(), reportSample(), ChangeReport{Changed: true}); err != nil {
		t.Fatal(err)
	}
	if err := r.Report(reportTime, reportHeader(), reportSample(), ChangeReport{Unchanged: time.Second}); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line in change mode, got %d: %q", len(lines), buf.String())
	}
	if !strings.HasSuffix(lines[0], "changed") {
		t.Errorf("Expected changed line, got %q", lines[0])
	}
}

func TestReporterCycleMode(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, ReportCycle, false)

	for range 3 {
		if err := r.Report(reportTime, reportHeader(), reportSample(), ChangeReport{}); err != nil {
			t.Fatal(err)
		}
	}
	if n := strings.Count(buf.String(), "\n"); n != 3 {
		t.Errorf("Expected 3 lines, got %d", n)
	}
}

func TestReporterInline(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, ReportChange, true)

	if err := r.Report(reportTime, reportHeader(), reportSample(), ChangeReport{Changed: true}); err != nil {
		t.Fatal(err)
	}
	if err := r.Report(reportTime, reportHeader(), reportSample(), ChangeReport{Unchanged: time.Second}); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if strings.Count(out, "\r") != 2 || strings.Contains(out, "\n") {
		t.Errorf("Expected two carriage-return lines and no newline, got %q", out)
	}
	if !strings.Contains(r.LastLine(), "unchanged 1.00s") {
		t.Errorf("Unexpected last line %q", r.LastLine())
	}

	if err := r.Finish(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Error("Expected Finish to terminate the inline line")
	}
	if err := r.Finish(); err != nil || strings.Count(buf.String(), "\n") != 1 {
		t.Error("Expected second Finish to be a no-op")
	}
}

func TestReporterConfigure(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, ReportChange, true)
	_ = r.Report(reportTime, reportHeader(), reportSample(), ChangeReport{Changed: true})

	r.Configure(ReportCycle, false)
	if r.Mode() != ReportCycle {
		t.Errorf("Expected cycle mode, got %s", r.Mode())
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Error("Expected pending inline line to be terminated when leaving inline mode")
	}
}

func TestReporterError(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, ReportChange, false)
	if err := r.ReportError(reportTime, "header", errors.New("bad header magic")); err != nil {
		t.Fatal(err)
	}
	want := "2026-10-14T09:30:00.125 header error: bad header magic\n"
	if buf.String() != want {
		t.Errorf("Expected %q, got %q", want, buf.String())
	}
}

func TestParseReportMode(t *testing.T) {
	tests := []struct {
		in      string
		want    ReportMode
		wantErr bool
	}{
		{"", ReportChange, false},
		{"change", ReportChange, false},
		{" Cycle ", ReportCycle, false},
		{"always", "", true},
	}
	for _, tt := range tests {
		got, err := ParseReportMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseReportMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseReportMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
