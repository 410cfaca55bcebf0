package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/knotvcs/knot/internal/repo"
	"github.com/knotvcs/knot/internal/termcolor"
)

// runLog prints, per branch, a header and every commit reachable from
// that branch's tip, newest first, in the one-line format spec §6
// defines: "* <id> - <message truncated to 40 chars> (yyyy/MM/dd
// hh:mm:ss) <author>".
func runLog(r *repo.Repository, args []string, cw *termcolor.Writer) int {
	if len(args) != 0 {
		fmt.Fprintln(os.Stderr, "knot: log takes no arguments")
		return 2
	}

	detached, isDetached := r.Refs.Head.Id()

	branches := r.ListBranches()
	for i, b := range branches {
		if i > 0 {
			fmt.Println()
		}
		fmt.Println(cw.Bold(fmt.Sprintf("Log for %s", b.Name)))

		if b.Tip == nil {
			continue
		}

		refs, err := r.Reachable(*b.Tip, nil)
		if err != nil {
			return reportAndExitCode(err)
		}
		sort.Slice(refs, func(i, j int) bool {
			return refs[i].Commit.Time.After(refs[j].Commit.Time)
		})

		for _, cr := range refs {
			id := cw.Yellow(string(cr.Id))
			if isDetached && cr.Id == detached {
				id = cw.Magenta(string(cr.Id) + " (HEAD)")
			}
			fmt.Printf("* %s - %s (%s) %s\n",
				id,
				truncateMessage(cr.Commit.Message, 40),
				logDateFormat(cr.Commit.Time),
				cr.Commit.Author)
		}
	}

	return 0
}
