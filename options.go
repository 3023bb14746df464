package spdy3

import "go.uber.org/zap"

// Option configures a Connection at construction time.
type Option func(*Connection)

// WithLogger attaches a structured logger. The default is a no-op
// logger; production callers typically pass zap.NewProduction() (or
// a test-scoped zap.NewDevelopment()).
func WithLogger(logger *zap.Logger) Option {
	return func(c *Connection) { c.log = logger }
}

// WithMetrics attaches a Recorder collecting operational counters.
// The default Recorder discards everything it's given.
func WithMetrics(rec Recorder) Option {
	return func(c *Connection) { c.metrics = rec }
}

// WithReadBufferSize sets the initial capacity of the accumulating
// read buffer used by Poll. Frames larger than this trigger a grow,
// never a truncation.
func WithReadBufferSize(n int) Option {
	return func(c *Connection) { c.readBufCap = n }
}
