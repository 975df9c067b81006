//go:build unix

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/bft-labs/recut/pkg/log"
	"github.com/bft-labs/recut/pkg/recut"
)

// notifyControl routes SIGUSR1 (pause) and SIGUSR2 (resume) to ch.
func notifyControl(ch chan<- os.Signal) {
	signal.Notify(ch, syscall.SIGUSR1, syscall.SIGUSR2)
}

func handleControl(r *recut.Recut, sig os.Signal, logger log.Logger) {
	var err error
	switch sig {
	case syscall.SIGUSR1:
		err = r.Pause()
	case syscall.SIGUSR2:
		err = r.Resume()
	}
	if err != nil {
		logger.Warn("control signal ignored", log.String("signal", sig.String()), log.Err(err))
		return
	}
	logger.Info("control signal", log.String("signal", sig.String()), log.String("state", r.Status().String()))
}
