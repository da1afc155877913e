package logging

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/lmittmann/tint"
)

const (
	JSON = "json"
	Text = "text"
	Tint = "tint"
)

// NewHandler builds a slog handler of the given type writing to w.
func NewHandler(w io.Writer, loggingType string, logLevelName string) (slog.Handler, error) {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(logLevelName)); err != nil {
		return nil, fmt.Errorf("could not parse log level: %v", err)
	}

	opts := slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	}

	switch loggingType {
	case JSON:
		return slog.NewJSONHandler(w, &opts), nil
	case Text:
		return slog.NewTextHandler(w, &opts), nil
	case Tint:
		return tint.NewHandler(w, &tint.Options{
			AddSource: opts.AddSource,
			Level:     opts.Level,
		}), nil
	default:
		return nil, fmt.Errorf("unknown logging type: %s", loggingType)
	}
}

// Initialize installs a handler of the given type on w as the slog default.
func Initialize(w io.Writer, loggingType string, logLevelName string) error {
	h, err := NewHandler(w, loggingType, logLevelName)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(h))
	slog.Info("logging initialized", "type", loggingType, "logLevel", logLevelName)
	return nil
}
