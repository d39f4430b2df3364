package session

import (
	"io"
	"log/slog"
)

type options struct {
	refreshPath string
	logger      *slog.Logger
}

type Option func(*options)

func WithRefreshPath(path string) Option {
	return func(o *options) {
		o.refreshPath = path
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
