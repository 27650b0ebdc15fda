package main

import (
	"os"

	"enrollment_notifier/internal/infra/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Log.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}
