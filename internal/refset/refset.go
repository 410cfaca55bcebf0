// Package refset holds knot's reference machinery: branches, HEAD, and
// remote bookmarks. Unlike the object graph in objstore, refs are mutable
// and carry no content hash of their own.
package refset

import (
	"fmt"
	"sort"
	"time"

	"github.com/knotvcs/knot/internal/canon"
	"github.com/knotvcs/knot/internal/vcserr"
)

// Branch names one tip commit. Tip is nil for a branch created before any
// commit has been made on it (spec §4.2: CreateBranch may run against an
// empty repository).
type Branch struct {
	Created time.Time
	Tip     *canon.Id
}

// EncodeCanonical implements canon.Encodable.
func (b Branch) EncodeCanonical(e *canon.Encoder) {
	e.Int64(b.Created.UTC().UnixNano())
	if b.Tip == nil {
		e.Byte(0)
	} else {
		e.Byte(1)
		b.Tip.EncodeCanonical(e)
	}
}

// headKind discriminates Head's two variants.
type headKind byte

const (
	headAttached headKind = iota
	headDetached
)

// Head is a tagged union: attached to a named branch, or detached at a
// specific commit id. Exactly one of the two is populated, enforced by
// the constructors below rather than by the caller.
type Head struct {
	kind   headKind
	branch string
	id     canon.Id
}

// Attached returns a Head pointing at the named branch.
func Attached(branch string) Head {
	return Head{kind: headAttached, branch: branch}
}

// Detached returns a Head pinned directly to a commit id.
func Detached(id canon.Id) Head {
	return Head{kind: headDetached, id: id}
}

// IsDetached reports whether h is pinned to a commit id rather than a branch.
func (h Head) IsDetached() bool {
	return h.kind == headDetached
}

// Branch returns the attached branch name and true, or ("", false) if h is detached.
func (h Head) Branch() (string, bool) {
	if h.kind == headAttached {
		return h.branch, true
	}
	return "", false
}

// Id returns the detached commit id and true, or ("", false) if h is attached.
func (h Head) Id() (canon.Id, bool) {
	if h.kind == headDetached {
		return h.id, true
	}
	return "", false
}

// EncodeCanonical implements canon.Encodable.
func (h Head) EncodeCanonical(e *canon.Encoder) {
	e.Byte(byte(h.kind))
	switch h.kind {
	case headAttached:
		e.String(h.branch)
	case headDetached:
		h.id.EncodeCanonical(e)
	}
}

// RefSet is the full set of branches plus the current HEAD.
type RefSet struct {
	Branches map[string]*Branch
	Head     Head
}

// NewRefSet returns a RefSet holding one branch, "master", with no tip,
// and HEAD attached to it.
func NewRefSet() *RefSet {
	return &RefSet{
		Branches: map[string]*Branch{"master": {}},
		Head:     Attached("master"),
	}
}

// AddOrSetBranch inserts name with info if it is not yet a known branch,
// or moves its tip to info.Tip if it already exists (spec §4.9's
// rawImport: "if the branch exists, set its tip; otherwise insert it").
// Created is never overwritten once a branch exists. It records the time
// the branch was created; the commit the branch was forked at is not
// recorded.
func (rs *RefSet) AddOrSetBranch(name string, info Branch) {
	if b, exists := rs.Branches[name]; exists {
		b.Tip = info.Tip
		return
	}
	cp := info
	rs.Branches[name] = &cp
}

// EncodeCanonical implements canon.Encodable.
func (rs RefSet) EncodeCanonical(e *canon.Encoder) {
	names := make([]string, 0, len(rs.Branches))
	for name := range rs.Branches {
		names = append(names, name)
	}
	sort.Strings(names)
	e.Uint64(uint64(len(names)))
	for _, name := range names {
		e.String(name)
		e.Sub(*rs.Branches[name])
	}
	e.Sub(rs.Head)
}

// RemoteSet maps a short remote name to its validated URL.
type RemoteSet struct {
	Remotes map[string]string
}

// NewRemoteSet returns an empty RemoteSet.
func NewRemoteSet() *RemoteSet {
	return &RemoteSet{Remotes: make(map[string]string)}
}

// Add validates rawURL and records it under name, overwriting any prior
// URL for that name (spec §4.3's "remote add" is idempotent-overwrite).
func (rs *RemoteSet) Add(name, rawURL string) error {
	norm, err := ValidateRemoteURL(rawURL)
	if err != nil {
		return err
	}
	rs.Remotes[name] = norm
	return nil
}

// Remove deletes a remote by name.
func (rs *RemoteSet) Remove(name string) error {
	if _, ok := rs.Remotes[name]; !ok {
		return fmt.Errorf("%w: remote %q", vcserr.ErrUnknownRef, name)
	}
	delete(rs.Remotes, name)
	return nil
}
