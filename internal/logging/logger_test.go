package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func resetState() {
	mutex.Lock()
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	isInitialized = false
	globalConfig = Config{}
	mutex.Unlock()
}

func TestModuleLevelOverride(t *testing.T) {
	resetState()

	Initialize(Config{
		Level:  "info",
		Format: "text",
		Output: &bytes.Buffer{},
		Modules: map[string]string{
			"monitor": "debug",
			"api":     "warn",
		},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"monitor", true, true, true},
		{"api", false, false, true},
		{"other", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			handler := GetLogger(tt.module).Handler()
			ctx := context.Background()

			if got := handler.Enabled(ctx, slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("module %q: Debug enabled = %v, want %v", tt.module, got, tt.wantDebug)
			}
			if got := handler.Enabled(ctx, slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("module %q: Info enabled = %v, want %v", tt.module, got, tt.wantInfo)
			}
			if got := handler.Enabled(ctx, slog.LevelWarn); got != tt.wantWarn {
				t.Errorf("module %q: Warn enabled = %v, want %v", tt.module, got, tt.wantWarn)
			}
		})
	}
}

func TestOutputCarriesModule(t *testing.T) {
	resetState()

	var buf bytes.Buffer
	Initialize(Config{Level: "debug", Format: "text", Output: &buf})

	GetLogger("capture").Debug("frame decoded", "width", 320)

	output := buf.String()
	if !strings.Contains(output, "frame decoded") {
		t.Errorf("Message not written. Output: %s", output)
	}
	if !strings.Contains(output, "module=capture") || !strings.Contains(output, "width=320") {
		t.Errorf("Attributes missing. Output: %s", output)
	}
}

func TestJSONFormat(t *testing.T) {
	resetState()

	var buf bytes.Buffer
	Initialize(Config{Level: "info", Format: "json", Output: &buf})
	GetLogger("api").Info("listening")

	if !strings.Contains(buf.String(), `"module":"api"`) {
		t.Errorf("Expected JSON output, got %s", buf.String())
	}
}

func TestMultiHandlerDebugOutput(t *testing.T) {
	var buf bytes.Buffer

	debugHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	infoHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := slog.New(NewMultiHandler(debugHandler, infoHandler)).With("module", "test")
	logger.Debug("debug only message")

	output := buf.String()
	if count := strings.Count(output, "debug only message"); count != 1 {
		t.Errorf("Expected 1 debug message, got %d. Output: %s", count, output)
	}
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	resetState()

	before := GetLogger("monitor")
	if before.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Logger created before Initialize should NOT have debug enabled")
	}

	Initialize(Config{
		Level:   "info",
		Output:  &bytes.Buffer{},
		Modules: map[string]string{"monitor": "debug"},
	})

	after := GetLogger("monitor")
	if !after.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Logger after Initialize should have debug enabled")
	}
}

func TestSetModuleLevel(t *testing.T) {
	resetState()
	Initialize(Config{Level: "info", Output: &bytes.Buffer{}})

	if SetModuleLevel("monitor", "bogus") {
		t.Error("Expected invalid level to be rejected")
	}
	if !SetModuleLevel("monitor", "debug") {
		t.Fatal("Expected debug level to be accepted")
	}
	if !GetLogger("monitor").Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Expected debug enabled after SetModuleLevel")
	}
}

func TestJournalField(t *testing.T) {
	fields := make(map[string]string)
	journalField(fields, slog.Group("frame", slog.Int("width", 640), slog.Bool("triple", true)), nil)
	journalField(fields, slog.String("module", "monitor"), nil)

	if fields["FRAME_WIDTH"] != "640" || fields["FRAME_TRIPLE"] != "true" {
		t.Errorf("Unexpected group flattening: %v", fields)
	}
	if fields["MODULE"] != "monitor" {
		t.Errorf("Expected MODULE=monitor, got %v", fields)
	}
}
