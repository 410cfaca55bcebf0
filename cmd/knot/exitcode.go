package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/knotvcs/knot/internal/vcserr"
)

// reportAndExitCode prints err to stderr prefixed with the program name
// and returns the exit code callers should propagate: 128 for a corrupt
// or unreadable repository (mirroring git's convention for "not a git
// repository" and similar fatal states), 1 otherwise.
func reportAndExitCode(err error) int {
	fmt.Fprintf(os.Stderr, "knot: %v\n", err)
	if errors.Is(err, vcserr.ErrCorruption) || errors.Is(err, vcserr.ErrIO) {
		return 128
	}
	return 1
}
