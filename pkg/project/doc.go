// Package project persists timelines: sources, tracks and every zone's
// boundary and parameters, as TOML.
//
// Loading a saved project and building it reproduces the same index maps
// and timestamps the timelines had when they were saved.
package project
