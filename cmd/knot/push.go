package main

import (
	"context"
	"fmt"
	"os"

	"github.com/knotvcs/knot/internal/canon"
	"github.com/knotvcs/knot/internal/repo"
	"github.com/knotvcs/knot/internal/syncproto"
	"github.com/knotvcs/knot/internal/termcolor"
	"github.com/knotvcs/knot/internal/vcserr"
)

// runPush ships branchName's full reachable commit set to remote (spec
// §4.9's Push). LatestRemoteBranchPosition is filled from the local
// remote-tracking branch left by a prior pull, if any; the server never
// uses it to compute a delta (spec §9's Open Question, left unresolved
// on purpose since incremental transfer is an explicit Non-goal).
func runPush(r *repo.Repository, args []string, cw *termcolor.Writer) int {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "knot: push requires <remote> <branch>")
		return 2
	}
	remoteName, branchName := args[0], args[1]

	url, ok := r.Remotes.Remotes[remoteName]
	if !ok {
		return reportAndExitCode(fmt.Errorf("%w: remote %q", vcserr.ErrUnknownRef, remoteName))
	}

	b, ok := r.Refs.Branches[branchName]
	if !ok {
		return reportAndExitCode(fmt.Errorf("%w: branch %q", vcserr.ErrUnknownRef, branchName))
	}

	var bundle syncproto.ObjectBundle
	if b.Tip != nil {
		refs, err := r.Reachable(*b.Tip, nil)
		if err != nil {
			return reportAndExitCode(err)
		}
		bundle, err = syncproto.CollectBundle(r.Store, refs)
		if err != nil {
			return reportAndExitCode(err)
		}
	}

	var latest *canon.Id
	if tracking, ok := r.Refs.Branches[remoteName+"/"+branchName]; ok {
		latest = tracking.Tip
	}

	req := &syncproto.PushRequest{
		Branch:                     branchName,
		BranchInfo:                 *b,
		LatestRemoteBranchPosition: latest,
		Bundle:                     bundle,
	}

	if err := syncproto.Push(context.Background(), url, req); err != nil {
		return reportAndExitCode(err)
	}

	fmt.Printf("%s %s to %s\n", cw.Green("pushed"), branchName, remoteName)
	return 0
}
