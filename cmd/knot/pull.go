package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pterm/pterm"

	"github.com/knotvcs/knot/internal/repo"
	"github.com/knotvcs/knot/internal/syncproto"
	"github.com/knotvcs/knot/internal/termcolor"
	"github.com/knotvcs/knot/internal/vcserr"
)

// runPull fetches branch from remote and imports it as a remote-tracking
// branch named "<remote>/<branch>" (spec §4.9's Pull).
func runPull(r *repo.Repository, args []string, cw *termcolor.Writer) int {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "knot: pull requires <remote> <branch>")
		return 2
	}
	remoteName, branch := args[0], args[1]

	url, ok := r.Remotes.Remotes[remoteName]
	if !ok {
		return reportAndExitCode(fmt.Errorf("%w: remote %q", vcserr.ErrUnknownRef, remoteName))
	}

	sp, _ := pterm.DefaultSpinner.Start(fmt.Sprintf("pulling %s/%s", remoteName, branch))
	pr, err := syncproto.Pull(context.Background(), url, branch)
	if err != nil {
		sp.Fail(err.Error())
		return reportAndExitCode(err)
	}

	syncproto.RawImport(r.Store, r.Refs, pr.Bundle, remoteName+"/"+branch, pr.BranchInfo)

	sp.Success(fmt.Sprintf("pulled %s/%s", remoteName, branch))
	return 0
}
