// Package log provides the logging abstraction used by every recut component.
//
// Components accept a [Logger] and never import a logging library directly.
// A zerolog-backed implementation and a no-op implementation are provided:
//
//	logger := log.NewZerologAdapter(zerolog.InfoLevel)
//	tl, err := timeline.New(reg, srcID, timeline.WithLogger(logger))
//
// Libraries default to [NoopLogger] so embedding recut produces no output
// unless a logger is supplied.
package log
