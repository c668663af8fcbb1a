// Package logging provides structured logging with per-module log levels.
//
// Records are written as text or JSON to stderr; stdout is reserved for the
// monitor's status lines. When enabled and journald is reachable, records are
// also sent to the systemd journal as structured fields.
//
// Initialize once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:   "info",
//		Format:  "text",
//		Journal: true,
//		Modules: map[string]string{"monitor": "debug"},
//	})
//
// Then fetch a logger per module:
//
//	logger := logging.GetLogger("monitor")
//	logger.Info("Scaler mapped", "base", "0x20000000")
//
// Loggers obtained before Initialize are updated in place. Journal entries
// carry SYSLOG_IDENTIFIER=scalerwatch and MODULE=<module>:
//
//	journalctl -t scalerwatch MODULE=monitor -f
package logging
