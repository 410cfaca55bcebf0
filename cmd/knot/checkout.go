package main

import (
	"fmt"
	"os"

	"github.com/knotvcs/knot/internal/canon"
	"github.com/knotvcs/knot/internal/repo"
	"github.com/knotvcs/knot/internal/termcolor"
)

// runCheckout implements spec §6's three checkout forms: creating a
// branch at HEAD, creating a branch at a given commit, and switching
// HEAD to an existing branch or commit.
func runCheckout(r *repo.Repository, args []string, cw *termcolor.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "knot: checkout requires an argument")
		return 2
	}

	if args[0] == "-b" {
		return runCheckoutNewBranch(r, args[1:], cw)
	}

	if err := r.Checkout(args[0]); err != nil {
		return reportAndExitCode(err)
	}
	fmt.Printf("switched to %s\n", cw.Green(args[0]))
	return 0
}

func runCheckoutNewBranch(r *repo.Repository, args []string, cw *termcolor.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "knot: checkout -b requires a branch name")
		return 2
	}
	name := args[0]

	var at *canon.Id
	if len(args) > 1 {
		id, err := canon.NewId(args[1])
		if err != nil {
			return reportAndExitCode(err)
		}
		at = &id
	}

	if err := r.CreateBranch(name, at); err != nil {
		return reportAndExitCode(err)
	}
	if err := r.Checkout(name); err != nil {
		return reportAndExitCode(err)
	}

	fmt.Printf("switched to a new branch %s\n", cw.Green(name))
	return 0
}
