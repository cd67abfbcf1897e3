package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/desertthunder/spx/internal/batch"
	"github.com/desertthunder/spx/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := NewRunner(RunnerOpts{Logger: logger})
	err := runner.app().Run(ctx, os.Args)
	if cerr := runner.Close(); cerr != nil {
		logger.Warn("failed to close credential cache", "err", cerr)
	}
	if err == nil {
		return
	}

	var bwe *batch.BatchWriteError
	switch {
	case errors.As(err, &bwe):
		logger.Errorf("copy stopped after %d tracks", bwe.Transferred)
	case errors.Is(err, shared.ErrNotImplemented):
		logger.Warn("not implemented")
		os.Exit(0)
	}
	logger.Fatalf("application error: %v", err)
}
