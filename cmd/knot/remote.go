package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/knotvcs/knot/internal/repo"
	"github.com/knotvcs/knot/internal/termcolor"
)

// runRemote implements the three "remote" forms spec §6 lists: listing,
// adding, and removing a named remote URL.
func runRemote(r *repo.Repository, args []string, cw *termcolor.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "knot: remote requires an argument (-v, add, or rm)")
		return 2
	}

	switch args[0] {
	case "-v":
		return runRemoteList(r, cw)
	case "add":
		if len(args) != 3 {
			fmt.Fprintln(os.Stderr, "knot: remote add requires <name> <url>")
			return 2
		}
		if err := r.Remotes.Add(args[1], args[2]); err != nil {
			return reportAndExitCode(err)
		}
		return 0
	case "rm":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "knot: remote rm requires <name>")
			return 2
		}
		if err := r.Remotes.Remove(args[1]); err != nil {
			return reportAndExitCode(err)
		}
		return 0
	default:
		fmt.Fprintf(os.Stderr, "knot: unknown remote subcommand %q\n", args[0])
		return 2
	}
}

func runRemoteList(r *repo.Repository, cw *termcolor.Writer) int {
	names := make([]string, 0, len(r.Remotes.Remotes))
	for name := range r.Remotes.Remotes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Printf("%s\t%s\n", cw.Green(name), r.Remotes.Remotes[name])
	}
	return 0
}
