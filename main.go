package main

import (
	"os"

	"github.com/patient-tracker/adherence-api/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logging.New().Errorw("adherence-api exited with error", "error", err)
		os.Exit(1)
	}
}
