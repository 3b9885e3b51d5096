// Package logging provides structured logging with per-module log levels.
//
// Every package asks for its own logger once and keeps it:
//
//	logger := logging.GetLogger("session")
//	logger.Info("Stream started", "protocol", kind, "url", url)
//
// Output goes to stdout (text or JSON) when stdout is attached and to the
// systemd journal when journald is reachable; both at once when both are.
// Journal entries carry SYSLOG_IDENTIFIER=livecast and every attribute as an
// upper-cased field:
//
//	journalctl -t livecast MODULE=encoder -f
//
// Levels are configured globally and per module:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	encoder = "debug"
//	api = "warn"
//
// Module levels are backed by slog.LevelVar, so SetModuleLevel takes effect
// on loggers that were handed out earlier.
package logging
