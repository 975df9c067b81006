//go:build !unix

package main

import (
	"os"

	"github.com/bft-labs/recut/pkg/log"
	"github.com/bft-labs/recut/pkg/recut"
)

// notifyControl is a no-op: pause and resume signals are unix only.
func notifyControl(chan<- os.Signal) {}

func handleControl(*recut.Recut, os.Signal, log.Logger) {}
