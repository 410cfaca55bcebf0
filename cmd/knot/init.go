package main

import (
	"fmt"
	"os"

	"github.com/knotvcs/knot/internal/repo"
)

// runInit creates an empty repository rooted at the current working
// directory (or GIT_DIR, if set): one branch "master" with no tip, HEAD
// attached to it, and a persisted .git file (spec §3, §6).
func runInit(args []string) int {
	if len(args) != 0 {
		fmt.Fprintln(os.Stderr, "knot: init takes no arguments")
		return 2
	}

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

	r := repo.New(wd)
	if err := repo.Save(path, r); err != nil {
		fmt.Fprintf(os.Stderr, "knot: %v\n", err)
		return 128
	}

	fmt.Printf("initialized empty repository in %s\n", path)
	return 0
}
