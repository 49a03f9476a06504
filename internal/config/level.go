// v0
// internal/config/level.go
package config

import (
	"fmt"
	"log/slog"
	"strings"
)

// ParseLevel maps DEBUG, INFO, WARN or ERROR (any case) to a slog level.
func ParseLevel(v string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "", "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", v)
	}
}
