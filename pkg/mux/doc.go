// Package mux merges per-track packet streams into one stream ordered by
// presentation time.
//
// The Multiplexer keeps at most one pending packet per track and pulls the
// next packet of a track only when the previous one has been emitted, so a
// render never runs ahead of its writer. Before every pull it passes a gate
// that Pause, Resume and Cancel drive from another goroutine.
package mux
