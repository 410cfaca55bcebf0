package main

import (
	"flag"
	"fmt"

	"github.com/pterm/pterm"

	"github.com/knotvcs/knot/internal/repo"
	"github.com/knotvcs/knot/internal/termcolor"
)

// runBranch lists branches, marking the current one, or deletes a branch
// with -D. A detached HEAD is reported separately, the way git does with
// "(HEAD detached at <id>)".
func runBranch(r *repo.Repository, args []string, cw *termcolor.Writer) int {
	fs := flag.NewFlagSet("branch", flag.ContinueOnError)
	del := fs.String("D", "", "delete the named branch")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *del != "" {
		if err := r.DeleteBranch(*del); err != nil {
			return reportAndExitCode(err)
		}
		return 0
	}

	var items []pterm.BulletListItem
	if id, ok := r.Refs.Head.Id(); ok {
		items = append(items, pterm.BulletListItem{
			Level:     0,
			Text:      fmt.Sprintf("(HEAD detached at %s)", id.Short()),
			TextStyle: pterm.NewStyle(pterm.FgYellow),
			Bullet:    "*",
		})
	}

	for _, b := range r.ListBranches() {
		bullet := " "
		style := pterm.NewStyle(pterm.FgDefault)
		if b.Current {
			bullet = "*"
			style = pterm.NewStyle(pterm.FgGreen, pterm.Bold)
		}
		items = append(items, pterm.BulletListItem{Level: 0, Text: b.Name, TextStyle: style, Bullet: bullet})
	}

	if len(items) == 0 {
		return 0
	}
	if err := pterm.DefaultBulletList.WithItems(items).Render(); err != nil {
		fmt.Fprintf(cw, "knot: %v\n", err)
		return 1
	}

	return 0
}
