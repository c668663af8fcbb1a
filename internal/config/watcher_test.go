package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type testConfig struct {
	Name  string `toml:"name"`
	Value int    `toml:"value"`
}

func loadTestConfig(path string) (testConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return testConfig{}, err
	}
	var cfg testConfig
	err = toml.Unmarshal(data, &cfg)
	return cfg, err
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func startWatcher(t *testing.T, path string, opts ...WatcherOption[testConfig]) *Watcher[testConfig] {
	t.Helper()
	opts = append([]WatcherOption[testConfig]{WithDebounce[testConfig](50 * time.Millisecond)}, opts...)
	w := NewWatcher(path, loadTestConfig, newTestLogger(), opts...)
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := w.Stop(); err != nil {
			t.Errorf("watcher.Stop failed: %v", err)
		}
	})
	return w
}

func TestWatcherReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("name = \"initial\"\nvalue = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	received := make(chan testConfig, 4)
	w := startWatcher(t, path)
	w.OnReload(func(cfg testConfig) { received <- cfg })

	if err := os.WriteFile(path, []byte("name = \"updated\"\nvalue = 42\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-received:
		if cfg.Name != "updated" || cfg.Value != 42 {
			t.Errorf("got %+v, want name=updated, value=42", cfg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for config reload")
	}
}

func TestWatcherFollowsRenameReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("value = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	received := make(chan testConfig, 4)
	w := startWatcher(t, path)
	w.OnReload(func(cfg testConfig) { received <- cfg })

	for _, v := range []string{"value = 2\n", "value = 3\n"} {
		tmp := filepath.Join(dir, "config.toml.tmp")
		if err := os.WriteFile(tmp, []byte(v), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.Rename(tmp, path); err != nil {
			t.Fatal(err)
		}

		select {
		case cfg := <-received:
			want := int(v[len("value = ")] - '0')
			if cfg.Value != want {
				t.Errorf("expected value=%d, got %d", want, cfg.Value)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for reload after rename")
		}
	}
}

func TestWatcherIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("value = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	w := startWatcher(t, path)
	w.OnReload(func(testConfig) { calls.Add(1) })

	if err := os.WriteFile(filepath.Join(dir, "other.toml"), []byte("value = 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	if got := calls.Load(); got != 0 {
		t.Errorf("expected no reloads for sibling file, got %d", got)
	}
}

func TestWatcherDebounce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("value = 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	var last atomic.Int32
	w := startWatcher(t, path, WithDebounce[testConfig](150*time.Millisecond))
	w.OnReload(func(cfg testConfig) {
		calls.Add(1)
		last.Store(int32(cfg.Value))
	})

	for i := 1; i <= 5; i++ {
		if err := os.WriteFile(path, []byte("value = "+string(rune('0'+i))+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	time.Sleep(500 * time.Millisecond)

	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 debounced reload, got %d", got)
	}
	if got := last.Load(); got != 5 {
		t.Errorf("expected last value 5, got %d", got)
	}
}

func TestWatcherUnsubscribe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("value = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var kept, removed atomic.Int32
	w := startWatcher(t, path)
	w.OnReload(func(testConfig) { kept.Add(1) })
	unsubscribe := w.OnReload(func(testConfig) { removed.Add(1) })
	unsubscribe()

	if err := os.WriteFile(path, []byte("value = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)

	if kept.Load() != 1 {
		t.Errorf("expected kept handler called once, got %d", kept.Load())
	}
	if removed.Load() != 0 {
		t.Errorf("expected removed handler not called, got %d", removed.Load())
	}
}

func TestWatcherErrorHandler(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("value = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	errs := make(chan error, 4)
	var reloads atomic.Int32
	w := startWatcher(t, path, WithErrorHandler[testConfig](func(err error) { errs <- err }))
	w.OnReload(func(testConfig) { reloads.Add(1) })

	if err := os.WriteFile(path, []byte("value = [broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-errs:
		if err == nil {
			t.Error("expected non-nil error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for error handler")
	}
	if reloads.Load() != 0 {
		t.Errorf("handlers must not see a failed load, got %d calls", reloads.Load())
	}
}

func TestWatcherStopWithoutStart(t *testing.T) {
	w := NewWatcher("/nonexistent/config.toml", loadTestConfig, newTestLogger())
	if err := w.Stop(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
	if err := w.Start(); err == nil {
		t.Error("expected error watching a missing directory")
	}
}
