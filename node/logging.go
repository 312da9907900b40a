package node

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// NewLogger builds the process logger for one of the config log levels.
func NewLogger(level string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level: %w", err)
	}
	if _, ok := allowedLogLevels[lvl.String()]; !ok {
		return zerolog.Nop(), fmt.Errorf("log level %q not supported", level)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}
