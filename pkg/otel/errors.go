package otel

import "github.com/cockroachdb/errors"

var (
	ErrInvalidConfig       = errors.New("otel: invalid config")
	ErrUnsupportedExporter = errors.New("otel: unsupported exporter type")
	ErrExporterFailed      = errors.New("otel: failed to create exporter")
	ErrProviderClosed      = errors.New("otel: provider is closed")
)
