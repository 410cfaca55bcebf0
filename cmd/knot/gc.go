package main

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/knotvcs/knot/internal/repo"
	"github.com/knotvcs/knot/internal/termcolor"
)

// runGC sweeps every commit (and, per this project's resolution of
// spec §9's open question, every tree and blob) unreachable from a
// branch tip or a detached HEAD.
func runGC(r *repo.Repository, args []string, cw *termcolor.Writer) int {
	sp, _ := pterm.DefaultSpinner.Start("collecting garbage")
	removed, err := r.GC()
	if err != nil {
		sp.Fail(err.Error())
		return reportAndExitCode(err)
	}

	if len(removed) == 0 {
		sp.Success("nothing to collect")
		return 0
	}

	sp.Success(fmt.Sprintf("removed %d unreachable commit(s)", len(removed)))
	for _, id := range removed {
		fmt.Printf("  %s\n", cw.Yellow(id.Short()))
	}
	return 0
}
