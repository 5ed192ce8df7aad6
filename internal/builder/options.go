package builder

import "log/slog"

// Option configures a build.
type Option func(*builder)

// WithLogger routes build logging to log instead of slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(b *builder) { b.log = log }
}

// WithTracer records every processed traversal step with t.
func WithTracer(t Tracer) Option {
	return func(b *builder) { b.tracer = t }
}

// WithIDGenerator overrides how build identifiers are generated. Tests use
// a FixedGenerator to keep output stable.
func WithIDGenerator(g IDGenerator) Option {
	return func(b *builder) { b.ids = g }
}
