// Package logging provides a minimal logging interface and adapters for stepchain.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the gateway, agents and pipeline use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - StructuredLogger with a component label and model-call records
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	chain := stepchain.New(gw, func(o *stepchain.Options) { o.Logger = logger })
package logging
