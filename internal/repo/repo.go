// Package repo implements the repository engine: the single-threaded,
// cooperative API that turns commits, branches, checkouts, and garbage
// collection into operations over an objstore.Store and a refset.RefSet.
// Nothing in this package is safe for concurrent use from multiple
// goroutines without external locking, mirroring spec §5's single-
// threaded engine model.
package repo

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/knotvcs/knot/internal/canon"
	"github.com/knotvcs/knot/internal/objstore"
	"github.com/knotvcs/knot/internal/refset"
	"github.com/knotvcs/knot/internal/vcserr"
	"github.com/knotvcs/knot/internal/worktree"
)

// Repository is the in-memory engine over a working directory. WorkDir is
// the root the scanner/materializer operate on; it is never the .git file
// itself (the persistence file lives directly inside WorkDir, and the
// scanner and materializer skip it).
type Repository struct {
	WorkDir string
	Store   *objstore.Store
	Refs    *refset.RefSet
	Remotes *refset.RemoteSet
}

// New returns a freshly initialized Repository rooted at workDir, with
// an empty object store and one branch, "master", with no tip and HEAD
// attached to it.
func New(workDir string) *Repository {
	return &Repository{
		WorkDir: workDir,
		Store:   objstore.NewStore(),
		Refs:    refset.NewRefSet(),
		Remotes: refset.NewRemoteSet(),
	}
}

// CommitRef pairs a commit id with its object, the shape most operations
// that enumerate history return.
type CommitRef struct {
	Id     canon.Id
	Commit objstore.Commit
}

// currentBranch returns the branch HEAD is attached to, or ("", false)
// when HEAD is detached.
func (r *Repository) currentBranch() (*refset.Branch, string, bool) {
	name, ok := r.Refs.Head.Branch()
	if !ok {
		return nil, "", false
	}
	b := r.Refs.Branches[name]
	return b, name, true
}

// headCommit resolves HEAD to a concrete commit id, or ("", false) if
// HEAD points at a branch with no commits yet.
func (r *Repository) headCommit() (canon.Id, bool) {
	if id, ok := r.Refs.Head.Id(); ok {
		return id, true
	}
	if b, _, ok := r.currentBranch(); ok && b != nil && b.Tip != nil {
		return *b.Tip, true
	}
	return "", false
}

// Commit snapshots the working directory, recording message and author
// with the timestamp at, and advances HEAD. If HEAD is attached to a
// branch, the branch's tip moves; if HEAD is detached, the new commit's
// id becomes the detached position (spec §4.6's detached-commit rule).
func (r *Repository) Commit(message, author string, at time.Time) (canon.Id, error) {
	treeId, err := r.scan()
	if err != nil {
		return "", err
	}

	var parents []canon.Id
	if parent, ok := r.headCommit(); ok {
		parents = []canon.Id{parent}
	}

	c := objstore.Commit{
		Time:    at,
		Author:  author,
		Message: message,
		TreeId:  treeId,
		Parents: parents,
	}
	id := r.Store.PutCommit(c)

	if b, name, ok := r.currentBranch(); ok {
		if b == nil {
			b = &refset.Branch{Created: at}
			r.Refs.Branches[name] = b
		}
		b.Tip = &id
	} else {
		r.Refs.Head = refset.Detached(id)
	}

	return id, nil
}

// CreateBranch records a new branch named name at the given commit id
// (or at HEAD's current position if at is nil). It does not move HEAD.
func (r *Repository) CreateBranch(name string, at *canon.Id) error {
	if _, exists := r.Refs.Branches[name]; exists {
		return fmt.Errorf("%w: %q", vcserr.ErrBranchExists, name)
	}

	tip := at
	if tip == nil {
		if id, ok := r.headCommit(); ok {
			tip = &id
		}
	}

	r.Refs.Branches[name] = &refset.Branch{Created: time.Now(), Tip: tip}
	return nil
}

// DeleteBranch removes a branch. It refuses to delete the branch HEAD is
// currently attached to (spec §4.2).
func (r *Repository) DeleteBranch(name string) error {
	if _, exists := r.Refs.Branches[name]; !exists {
		return fmt.Errorf("%w: branch %q", vcserr.ErrUnknownRef, name)
	}
	if cur, ok := r.Refs.Head.Branch(); ok && cur == name {
		return fmt.Errorf("%w: %q", vcserr.ErrBranchCheckedOut, name)
	}
	delete(r.Refs.Branches, name)
	return nil
}

// BranchListing is one row of ListBranches' output.
type BranchListing struct {
	Name    string
	Tip     *canon.Id
	Current bool
}

// ListBranches returns every branch sorted by name, each flagged with
// whether HEAD is currently attached to it.
func (r *Repository) ListBranches() []BranchListing {
	cur, _ := r.Refs.Head.Branch()

	names := make([]string, 0, len(r.Refs.Branches))
	for name := range r.Refs.Branches {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]BranchListing, 0, len(names))
	for _, name := range names {
		out = append(out, BranchListing{
			Name:    name,
			Tip:     r.Refs.Branches[name].Tip,
			Current: name == cur,
		})
	}
	return out
}

// Checkout resolves ref (full id, short id prefix, branch name, or the
// literal "HEAD") and moves HEAD and the working directory to it. A
// branch name, an id equal to some branch's tip, or "HEAD" while attached
// attaches HEAD to that branch; any other id detaches it.
// Checking out a branch that has no tip yet (just created against an
// empty repository, spec §4.2) attaches HEAD without touching the
// working directory, since there is no commit to materialize.
func (r *Repository) Checkout(ref string) error {
	if b, ok := r.Refs.Branches[ref]; ok && b.Tip == nil {
		r.Refs.Head = refset.Attached(ref)
		return nil
	}

	id, attach, err := r.resolveCheckoutTarget(ref)
	if err != nil {
		return err
	}

	if err := r.reset(id); err != nil {
		return err
	}

	if attach != "" {
		r.Refs.Head = refset.Attached(attach)
	} else {
		r.Refs.Head = refset.Detached(id)
	}
	return nil
}

// resolveCheckoutTarget resolves ref to a commit id, returning the
// branch name to attach HEAD to if ref named a branch ("" otherwise).
func (r *Repository) resolveCheckoutTarget(ref string) (canon.Id, string, error) {
	if ref == "HEAD" {
		id, ok := r.headCommit()
		if !ok {
			return "", "", fmt.Errorf("%w: HEAD has no commits", vcserr.ErrUnknownRef)
		}
		if name, ok := r.Refs.Head.Branch(); ok {
			return id, name, nil
		}
		return id, "", nil
	}

	if b, ok := r.Refs.Branches[ref]; ok {
		if b.Tip == nil {
			return "", "", fmt.Errorf("%w: branch %q has no commits", vcserr.ErrUnknownRef, ref)
		}
		return *b.Tip, ref, nil
	}

	if id, ok := r.resolveIdPrefix(ref); ok {
		if name, ok := r.branchAtTip(id); ok {
			return id, name, nil
		}
		return id, "", nil
	}

	return "", "", fmt.Errorf("%w: %q", vcserr.ErrUnknownRef, ref)
}

// branchAtTip returns the name of a branch whose tip equals id, if any
// (spec §4.5: "if argument is an Id equal to some branch's tip, attach
// to that branch" rather than leaving HEAD detached).
func (r *Repository) branchAtTip(id canon.Id) (string, bool) {
	for name, b := range r.Refs.Branches {
		if b.Tip != nil && *b.Tip == id {
			return name, true
		}
	}
	return "", false
}

// resolveIdPrefix finds the unique commit whose id equals or is prefixed
// by rev (git's abbreviated-hash convention).
func (r *Repository) resolveIdPrefix(rev string) (canon.Id, bool) {
	if id, err := canon.NewId(rev); err == nil {
		if _, ok := r.Store.Commit(id); ok {
			return id, true
		}
		return "", false
	}

	var match canon.Id
	count := 0
	for id := range r.Store.Commits {
		if strings.HasPrefix(string(id), rev) {
			match = id
			count++
		}
	}
	if count == 1 {
		return match, true
	}
	return "", false
}

// HeadRef walks n steps back from HEAD along first-parent links (n=0 is
// HEAD itself). It returns ErrNoParent if the chain is shorter than n.
func (r *Repository) HeadRef(n int) (canon.Id, error) {
	id, ok := r.headCommit()
	if !ok {
		return "", fmt.Errorf("%w: HEAD has no commits", vcserr.ErrNoParent)
	}
	for i := 0; i < n; i++ {
		c, ok := r.Store.Commit(id)
		if !ok || len(c.Parents) == 0 {
			return "", fmt.Errorf("%w: %d steps back from HEAD", vcserr.ErrNoParent, n)
		}
		id = c.Parents[0]
	}
	return id, nil
}

func (r *Repository) scan() (canon.Id, error) {
	return worktree.Scan(r.WorkDir, r.Store)
}

func (r *Repository) reset(id canon.Id) error {
	c, ok := r.Store.Commit(id)
	if !ok {
		return fmt.Errorf("%w: missing commit %s", vcserr.ErrCorruption, id.Short())
	}
	return worktree.Reset(r.WorkDir, r.Store, c.TreeId)
}
