// Package daemon implements knot's peer server (spec §4.9, §5): a
// single-threaded accept loop that answers pull GETs and push POSTs
// against one repository.
//
// The loop is deliberately not net/http.Server.Serve, which hands each
// connection to its own goroutine. Spec §5 requires the opposite: "The
// daemon is also single-threaded: it accepts one request, handles it to
// completion, and accepts the next." So Daemon listens on a raw
// net.Listener and drives http.ReadRequest/a response recorder by hand.
package daemon

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/knotvcs/knot/internal/canon"
	"github.com/knotvcs/knot/internal/repo"
	"github.com/knotvcs/knot/internal/syncproto"
)

const wireContentType = "application/octet-stream"

// Daemon serves one repository over HTTP. SavePath, when non-empty, is
// written after every request that mutates the repository (a push),
// mirroring spec §6's "persisted on every state-changing command
// completion" for the daemon side of the sync protocol.
type Daemon struct {
	Repo     *repo.Repository
	SavePath string
	Logger   *slog.Logger

	mu sync.Mutex // guards Repo during a request
	rl *rateLimiter

	listener net.Listener
	closing  chan struct{}
	closeOne sync.Once
}

// New returns a Daemon ready to Serve r. If savePath is non-empty, it is
// rewritten after every push this daemon accepts.
func New(r *repo.Repository, savePath string, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	return &Daemon{
		Repo:     r,
		SavePath: savePath,
		Logger:   logger,
		rl:       newRateLimiter(readDaemonRate(), 100, time.Second),
		closing:  make(chan struct{}),
	}
}

const defaultDaemonRate = 50

// readDaemonRate reads the per-client requests-per-second rate from the
// KNOT_DAEMON_RATE env var, the way gitvista's server.go reads its cache
// size from GITVISTA_CACHE_SIZE.
func readDaemonRate() int {
	rate := defaultDaemonRate
	if raw := os.Getenv("KNOT_DAEMON_RATE"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			rate = n
		}
	}
	return rate
}

// Serve listens on addr and handles connections one at a time until
// Abort is called, at which point it returns nil.
func (d *Daemon) Serve(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("daemon: listening on %s: %w", addr, err)
	}
	d.listener = ln
	d.Logger.Info("knot daemon listening", "addr", addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-d.closing:
				return nil
			default:
				return fmt.Errorf("daemon: accept: %w", err)
			}
		}
		d.handleConn(conn)
	}
}

// Abort closes the listener, causing Serve to return. An in-flight
// request's outcome on the client side is undefined, per spec §5.
func (d *Daemon) Abort() error {
	var err error
	d.closeOne.Do(func() {
		close(d.closing)
		if d.listener != nil {
			err = d.listener.Close()
		}
	})
	return err
}

// handleConn reads exactly one HTTP request off conn, dispatches it, and
// writes the response before returning — "accepts one request, handles
// it to completion, and accepts the next" (spec §5). A panic anywhere in
// dispatch is caught and reported as a 500, matching spec §7's "Daemon
// handlers catch all errors and return HTTP 500... the daemon continues."
func (d *Daemon) handleConn(conn net.Conn) {
	defer conn.Close()

	br := bufio.NewReader(conn)
	req, err := http.ReadRequest(br)
	if err != nil {
		if err != io.EOF {
			d.Logger.Warn("daemon: malformed request", "err", err)
		}
		return
	}
	defer req.Body.Close()

	ip := clientIP(req)
	if !d.rl.allow(ip) {
		rec := newResponseRecorder()
		rec.WriteHeader(http.StatusTooManyRequests)
		_ = rec.writeTo(conn)
		return
	}

	start := time.Now()
	rec := newResponseRecorder()
	func() {
		defer func() {
			if rv := recover(); rv != nil {
				d.Logger.Error("daemon: handler panic", "recover", rv)
				rec.status = http.StatusInternalServerError
				rec.body.Reset()
			}
		}()
		d.dispatch(rec, req)
	}()
	d.Logger.Info("request",
		"method", req.Method, "path", req.URL.Path, "remote", ip,
		"status", rec.status, "duration", time.Since(start))

	if err := rec.writeTo(conn); err != nil {
		d.Logger.Warn("daemon: writing response", "err", err)
	}
}

// dispatch routes a request by HTTP method, exactly the two endpoints
// spec §4.9 defines: GET for pull, POST for push.
func (d *Daemon) dispatch(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		d.handlePull(w, req)
	case http.MethodPost:
		d.handlePush(w, req)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handlePull answers `GET ?branch=<name>` with a PullResponse carrying
// the branch's tip and its full reachable object set.
func (d *Daemon) handlePull(w http.ResponseWriter, req *http.Request) {
	branch := req.URL.Query().Get("branch")
	if branch == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	b, ok := d.Repo.Refs.Branches[branch]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var bundle syncproto.ObjectBundle
	if b.Tip != nil {
		refs, err := d.Repo.Reachable(*b.Tip, nil)
		if err != nil {
			d.Logger.Error("daemon: computing reachable set", "branch", branch, "err", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		bundle, err = syncproto.CollectBundle(d.Repo.Store, refs)
		if err != nil {
			d.Logger.Error("daemon: collecting bundle", "branch", branch, "err", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}

	resp := syncproto.PullResponse{BranchInfo: *b, Bundle: bundle}
	data := canon.Encode(resp)

	w.Header().Set("Content-Type", wireContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handlePush answers `POST` with body a PushRequest, importing it into
// the repository and persisting the result to SavePath.
func (d *Daemon) handlePush(w http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	pr, err := syncproto.DecodePushRequest(body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	latest := ""
	if pr.LatestRemoteBranchPosition != nil {
		latest = string(*pr.LatestRemoteBranchPosition)
	}
	d.Logger.Info("push", "branch", pr.Branch, "commits", len(pr.Bundle.Commits), "latest_remote_position", latest)

	d.mu.Lock()
	defer d.mu.Unlock()

	syncproto.RawImport(d.Repo.Store, d.Repo.Refs, pr.Bundle, pr.Branch, pr.BranchInfo)

	if d.SavePath != "" {
		if err := repo.Save(d.SavePath, d.Repo); err != nil {
			d.Logger.Error("daemon: persisting after push", "err", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
}

// Shutdown calls Abort, for callers that hold a context in a
// cancellation flow (e.g. a CLI command handling SIGINT). It does not
// wait on ctx; Abort runs at once.
func (d *Daemon) Shutdown(ctx context.Context) error {
	select {
	case <-ctx.Done():
	default:
	}
	return d.Abort()
}
