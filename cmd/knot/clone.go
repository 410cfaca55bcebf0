package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pterm/pterm"

	"github.com/knotvcs/knot/internal/repo"
	"github.com/knotvcs/knot/internal/syncproto"
	"github.com/knotvcs/knot/internal/termcolor"
)

// runClone initializes a fresh repository at the working directory,
// adds "origin" pointing at url, pulls branch, and checks master out
// (spec §4.9's Clone sequence). Unlike every other command, it does not
// load an existing repository first — it creates the one it then saves.
func runClone(args []string, cw *termcolor.Writer) int {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "knot: clone requires <url> <branch>")
		return 2
	}
	url, branch := args[0], args[1]

	wd := workDir()
	path := gitFilePath(wd)
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(os.Stderr, "knot: %s already exists\n", path)
		return 1
	}
	if err := os.MkdirAll(wd, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "knot: %v\n", err)
		return 128
	}

	sp, _ := pterm.DefaultSpinner.Start(fmt.Sprintf("cloning %s", url))
	r, err := syncproto.Clone(context.Background(), url, branch, wd)
	if err != nil {
		sp.Fail(err.Error())
		return reportAndExitCode(err)
	}

	if err := repo.Save(path, r); err != nil {
		sp.Fail(err.Error())
		return 128
	}

	sp.Success(fmt.Sprintf("cloned %s", url))
	return 0
}
