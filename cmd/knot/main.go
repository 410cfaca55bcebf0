package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/knotvcs/knot/internal/cli"
	"github.com/knotvcs/knot/internal/repo"
	"github.com/knotvcs/knot/internal/termcolor"
	"github.com/knotvcs/knot/internal/vcserr"
)

// Build-time variables set via -ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	gf, args := parseGlobalFlags(os.Args[1:])

	// --version is handled before app.Run because "--" prefixed args
	// would be treated as unknown commands by the dispatcher.
	for _, a := range args {
		if a == "--version" {
			printVersion()
			os.Exit(0)
		}
	}

	cw := termcolor.NewWriter(os.Stdout, gf.colorMode)

	app := cli.NewApp("knot", version)
	app.Stderr = os.Stderr

	// repo is populated after dispatch determines the matched command
	// needs one (NeedsRepo); command closures capture the pointer
	// variable, which is loaded before they run and saved after, per
	// spec §5's load-on-entry, store-on-exit command lifecycle.
	var r *repo.Repository

	app.Register(&cli.Command{
		Name:    "init",
		Summary: "Create an empty repository",
		Usage:   "knot init",
		Run:     func(args []string) int { return runInit(args) },
	})

	app.Register(&cli.Command{
		Name:      "commit",
		Summary:   "Snapshot the working directory",
		Usage:     "knot commit -m <message>",
		Examples:  []string{`knot commit -m "fix the thing"`},
		NeedsRepo: true,
		Run:       func(args []string) int { return runCommit(r, args, cw) },
	})

	app.Register(&cli.Command{
		Name:      "log",
		Summary:   "Show each branch's commit history",
		Usage:     "knot log",
		NeedsRepo: true,
		Run:       func(args []string) int { return runLog(r, args, cw) },
	})

	app.Register(&cli.Command{
		Name:    "checkout",
		Summary: "Switch HEAD to a branch or commit",
		Usage:   "knot checkout (-b <name> [<id>] | <id>|<name>)",
		Examples: []string{
			"knot checkout -b feature",
			"knot checkout -b feature abc1234...",
			"knot checkout master",
		},
		NeedsRepo: true,
		Run:       func(args []string) int { return runCheckout(r, args, cw) },
	})

	app.Register(&cli.Command{
		Name:      "branch",
		Summary:   "List or delete branches",
		Usage:     "knot branch [-D <name>]",
		NeedsRepo: true,
		Run:       func(args []string) int { return runBranch(r, args, cw) },
	})

	app.Register(&cli.Command{
		Name:      "gc",
		Summary:   "Garbage-collect unreachable objects",
		Usage:     "knot gc",
		NeedsRepo: true,
		Run:       func(args []string) int { return runGC(r, args, cw) },
	})

	app.Register(&cli.Command{
		Name:      "daemon",
		Summary:   "Serve this repository over HTTP",
		Usage:     "knot daemon <port>",
		Examples:  []string{"knot daemon 9418"},
		NeedsRepo: true,
		Run:       func(args []string) int { return runDaemon(r, args, cw) },
	})

	app.Register(&cli.Command{
		Name:      "pull",
		Summary:   "Fetch a branch from a remote",
		Usage:     "knot pull <remote> <branch>",
		NeedsRepo: true,
		Run:       func(args []string) int { return runPull(r, args, cw) },
	})

	app.Register(&cli.Command{
		Name:      "push",
		Summary:   "Send a branch to a remote",
		Usage:     "knot push <remote> <branch>",
		NeedsRepo: true,
		Run:       func(args []string) int { return runPush(r, args, cw) },
	})

	app.Register(&cli.Command{
		Name:    "clone",
		Summary: "Initialize a repository from a remote",
		Usage:   "knot clone <url> <branch>",
		Run:     func(args []string) int { return runClone(args, cw) },
	})

	app.Register(&cli.Command{
		Name:      "remote",
		Summary:   "List and manage remotes",
		Usage:     "knot remote (-v | add <name> <url> | rm <name>)",
		NeedsRepo: true,
		Run:       func(args []string) int { return runRemote(r, args, cw) },
	})

	app.Register(&cli.Command{
		Name:    "version",
		Summary: "Show version information",
		Usage:   "knot version",
		Run:     func([]string) int { printVersion(); return 0 },
	})

	if !app.NeedsRepo(args) {
		os.Exit(app.Run(args, cw))
	}

	wd := workDir()
	var err error
	r, err = repo.Load(gitFilePath(wd), wd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "knot: %v\n", err)
		if errIsFatal(err) {
			os.Exit(128)
		}
		os.Exit(1)
	}

	code := app.Run(args, cw)
	if code == 0 {
		if err := repo.Save(gitFilePath(wd), r); err != nil {
			fmt.Fprintf(os.Stderr, "knot: %v\n", err)
			os.Exit(128)
		}
	}
	os.Exit(code)
}

// workDir returns the working directory knot operates against: KNOT_DIR
// if set, else GIT_DIR (kept for familiarity with the teacher's own
// convention), else the current directory.
func workDir() string {
	if d := os.Getenv("KNOT_DIR"); d != "" {
		return d
	}
	if d := os.Getenv("GIT_DIR"); d != "" {
		return d
	}
	return "."
}

// gitFilePath returns the path to the single persistence file under wd
// (spec §6: "One file `.git` at the working-directory root").
func gitFilePath(wd string) string {
	return filepath.Join(wd, ".git")
}

func errIsFatal(err error) bool {
	return errors.Is(err, vcserr.ErrIO) || errors.Is(err, vcserr.ErrCorruption)
}

func printVersion() {
	fmt.Printf("knot %s\n", version)
	fmt.Printf("  commit:     %s\n", commit)
	fmt.Printf("  built:      %s\n", buildDate)
	fmt.Printf("  go version: %s\n", runtime.Version())
	fmt.Printf("  platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
