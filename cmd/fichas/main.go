package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess    = 0 // All rows DONE
	ExitIncomplete = 1 // Batch finished with ERROR or SKIPPED rows
	ExitError      = 2 // Configuration or runtime error
)

// IncompleteBatchError indicates that the batch ran, but not every row
// reached DONE.
type IncompleteBatchError struct {
	Message string
}

func (e *IncompleteBatchError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var incomplete *IncompleteBatchError
		if errors.As(err, &incomplete) {
			os.Exit(ExitIncomplete)
		}

		// All other errors are configuration/runtime errors
		os.Exit(ExitError)
	}
}
