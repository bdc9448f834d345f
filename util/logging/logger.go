package logging

import (
	"go.uber.org/zap"
)

// Options select the level and encoding of the application logger.
type Options struct {
	// Level is a zap level name. Unknown levels fall back to info.
	Level string

	// Format is either "production" (json) or "development" (console).
	Format string

	// App is attached to every entry as the "app" field.
	App string
}

func NewLogger(opts Options) (*zap.Logger, error) {
	var config zap.Config
	if opts.Format == "development" {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}

	if opts.App != "" {
		config.InitialFields = map[string]any{
			"app": opts.App,
		}
	}

	config.Level = parseLevel(opts.Level)

	return config.Build()
}

func parseLevel(lvl string) zap.AtomicLevel {
	if atom, err := zap.ParseAtomicLevel(lvl); err == nil && lvl != "" {
		return atom
	}

	return zap.NewAtomicLevelAt(zap.InfoLevel)
}
