package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess         = 0 // Pipeline completed for every unit
	ExitPipelineFailure = 1 // One or more personas/instances failed
	ExitError           = 2 // Configuration or runtime error
)

// PipelineFailureError indicates the run itself completed, but one or more
// independent units (personas or instances) failed along the way.
type PipelineFailureError struct {
	Message string
}

func (e *PipelineFailureError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var pipelineErr *PipelineFailureError
		if errors.As(err, &pipelineErr) {
			os.Exit(ExitPipelineFailure)
		}
		os.Exit(ExitError)
	}
}
