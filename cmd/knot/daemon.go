package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/knotvcs/knot/internal/daemon"
	"github.com/knotvcs/knot/internal/repo"
	"github.com/knotvcs/knot/internal/termcolor"
)

// runDaemon serves this repository over HTTP until interrupted (spec
// §4.9, §6). It persists the repository after every push it accepts, so
// the on-disk state reflects every accepted push even if the daemon is
// later killed mid-request.
func runDaemon(r *repo.Repository, args []string, cw *termcolor.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "knot: daemon requires <port>")
		return 2
	}
	port, err := strconv.Atoi(args[0])
	if err != nil || port <= 0 || port > 65535 {
		fmt.Fprintf(os.Stderr, "knot: invalid port %q\n", args[0])
		return 2
	}

	d := daemon.New(r, gitFilePath(workDir()), slog.Default())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Fprintln(os.Stderr, "\nknot: shutting down")
		_ = d.Abort()
	}()

	addr := fmt.Sprintf("localhost:%d", port)
	fmt.Printf("%s %s\n", cw.Green("serving on"), addr)

	if err := d.Serve(addr); err != nil {
		return reportAndExitCode(err)
	}
	return 0
}
