package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/knotvcs/knot/internal/repo"
	"github.com/knotvcs/knot/internal/termcolor"
)

// runCommit scans the working directory and records a new commit with
// author "author" and the current time (spec §6: "commit -m <msg> |
// Commit with author "author" and current time").
func runCommit(r *repo.Repository, args []string, cw *termcolor.Writer) int {
	fs := flag.NewFlagSet("commit", flag.ContinueOnError)
	message := fs.String("m", "", "commit message")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *message == "" {
		fmt.Fprintln(os.Stderr, "knot: commit requires -m <message>")
		return 2
	}

	id, err := r.Commit(*message, "author", time.Now())
	if err != nil {
		return reportAndExitCode(err)
	}

	fmt.Printf("%s %s\n", cw.Green("committed"), id.Short())
	return 0
}
