// Package vcserr defines the sentinel error kinds shared across knot's
// engine, sync protocol, and CLI frontend (spec §7). Call sites wrap one
// of these with fmt.Errorf("...: %w", ...) so callers can still match
// with errors.Is while getting a specific message.
package vcserr

import "errors"

var (
	// ErrInvalidId means a string is not a well-formed 64-hex-character id.
	ErrInvalidId = errors.New("invalid id")
	// ErrUnknownRef means a checkout/revision argument names neither a
	// known commit id nor a known branch.
	ErrUnknownRef = errors.New("unknown ref")
	// ErrBranchExists means CreateBranch was called with a name already
	// present in the branch set.
	ErrBranchExists = errors.New("branch already exists")
	// ErrBranchCheckedOut means DeleteBranch was called on the branch
	// HEAD is currently attached to.
	ErrBranchCheckedOut = errors.New("branch is checked out")
	// ErrNoParent means HeadRef(n) walked off the end of a parent chain.
	ErrNoParent = errors.New("no such parent")
	// ErrIO wraps a filesystem error encountered scanning or
	// materializing the working directory.
	ErrIO = errors.New("io error")
	// ErrNetwork wraps a transport-level failure talking to a peer daemon.
	ErrNetwork = errors.New("network error")
	// ErrProtocol means a peer daemon responded outside the expected
	// sync protocol shape (bad status code, malformed body).
	ErrProtocol = errors.New("protocol error")
	// ErrCorruption means a loaded repository violates the referential
	// closure invariant (spec §3).
	ErrCorruption = errors.New("corrupted repository")
)
