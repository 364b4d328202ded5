package detection

import (
	"log/slog"

	"github.com/tphakala/oldbird-go/internal/logging"
)

var serviceLogger *slog.Logger

// getLogger returns the package logger, falling back to the default
// slog logger when logging has not been initialized (tests).
func getLogger() *slog.Logger {
	if serviceLogger == nil {
		if l := logging.ForService("detection"); l != nil {
			serviceLogger = l
		} else {
			return slog.Default()
		}
	}
	return serviceLogger
}
