package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Logger is a duck-typed interface satisfied by *slog.Logger.
// Use this interface instead of *slog.Logger to decouple from the concrete type.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

var (
	moduleLoggers   = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	globalConfig    Config
	globalLevelVar  = &slog.LevelVar{} // default level
	isInitialized   bool
	mutex           sync.RWMutex
)

// Config represents logging configuration.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
	// Journal enables the systemd journal handler when journald is reachable.
	Journal bool `toml:"journal"`
	// Output receives text/json records. Defaults to stderr so diagnostics
	// never mix with status lines on stdout.
	Output io.Writer `toml:"-"`
}

// Initialize sets up the logging system.
func Initialize(config Config) {
	mutex.Lock()
	defer mutex.Unlock()

	globalConfig = config
	isInitialized = true

	globalLevel := parseLevel(config.Level)
	if globalLevel == nil {
		defaultLevel := slog.LevelInfo
		globalLevel = &defaultLevel
	}
	globalLevelVar.Set(*globalLevel)

	// Loggers handed out before Initialize share their LevelVar with the
	// rebuilt logger, so they pick up the configured level too.
	for module, levelVar := range moduleLevelVars {
		levelVar.Set(moduleLevel(module, *globalLevel))
		moduleLoggers[module] = slog.New(createHandler(config, levelVar)).With("module", module)
	}

	slog.SetDefault(slog.New(createHandler(config, globalLevelVar)))
}

// GetLogger returns a logger for the specified module, creating it if needed.
func GetLogger(module string) *slog.Logger {
	mutex.RLock()
	if logger, exists := moduleLoggers[module]; exists {
		mutex.RUnlock()
		return logger
	}
	mutex.RUnlock()

	mutex.Lock()
	defer mutex.Unlock()

	// Double-check in case another goroutine created it
	if logger, exists := moduleLoggers[module]; exists {
		return logger
	}

	levelVar := &slog.LevelVar{}
	cfg := Config{Format: "text"}
	if isInitialized {
		cfg = globalConfig
		global := slog.LevelInfo
		if parsed := parseLevel(globalConfig.Level); parsed != nil {
			global = *parsed
		}
		levelVar.Set(moduleLevel(module, global))
	} else {
		levelVar.Set(slog.LevelInfo)
	}

	logger := slog.New(createHandler(cfg, levelVar)).With("module", module)
	moduleLoggers[module] = logger
	moduleLevelVars[module] = levelVar
	return logger
}

// SetModuleLevel changes the level of one module at runtime.
func SetModuleLevel(module, level string) bool {
	parsed := parseLevel(level)
	if parsed == nil {
		return false
	}
	GetLogger(module)

	mutex.Lock()
	defer mutex.Unlock()
	moduleLevelVars[module].Set(*parsed)
	if globalConfig.Modules == nil {
		globalConfig.Modules = make(map[string]string)
	}
	globalConfig.Modules[module] = level
	return true
}

// moduleLevel resolves the configured level of module. Callers hold mutex.
func moduleLevel(module string, global slog.Level) slog.Level {
	if levelStr, exists := globalConfig.Modules[module]; exists {
		if parsed := parseLevel(levelStr); parsed != nil {
			return *parsed
		}
	}
	return global
}

// createHandler builds the handler chain: text or json on the configured
// output, plus the journal when enabled and available.
func createHandler(config Config, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	out := config.Output
	if out == nil {
		out = os.Stderr
	}

	var streamHandler slog.Handler
	if config.Format == "json" {
		streamHandler = slog.NewJSONHandler(out, opts)
	} else {
		streamHandler = slog.NewTextHandler(out, opts)
	}

	if config.Journal && IsJournalAvailable() {
		return NewMultiHandler(streamHandler, NewJournalHandler(level))
	}
	return streamHandler
}

// parseLevel converts string level to slog.Level.
func parseLevel(level string) *slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		l := slog.LevelDebug
		return &l
	case "info":
		l := slog.LevelInfo
		return &l
	case "warn", "warning":
		l := slog.LevelWarn
		return &l
	case "error":
		l := slog.LevelError
		return &l
	default:
		return nil
	}
}
