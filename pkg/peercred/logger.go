package peercred

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with attribute helpers used across credd
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new logger with the specified configuration
func NewLogger(cfg LoggingConfig) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Level),
	}

	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// WithComponent returns a logger with a component name attached
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{Logger: l.Logger.With("component", name)}
}

// WithPeer returns a logger with the peer's identity attached. The pid
// attribute is omitted when the platform could not report one.
func (l *Logger) WithPeer(creds PeerCredentials) *Logger {
	attrs := []any{"peer_uid", creds.UID, "peer_gid", creds.GID}
	if creds.HasPID() {
		attrs = append(attrs, "peer_pid", creds.PID)
	}
	return &Logger{Logger: l.Logger.With(attrs...)}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
