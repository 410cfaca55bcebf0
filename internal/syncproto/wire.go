// Package syncproto implements knot's push/pull/clone wire protocol (spec
// §4.9): the client and server records shipped over HTTP, and the
// idempotent import that applies a received object bundle to a local
// store. Everything here speaks the same internal/canon encoding used to
// hash objects and persist the repository file, so a received byte
// stream needs no separate schema to interpret.
package syncproto

import (
	"time"

	"github.com/knotvcs/knot/internal/canon"
	"github.com/knotvcs/knot/internal/objstore"
	"github.com/knotvcs/knot/internal/refset"
	"github.com/knotvcs/knot/internal/repo"
)

func unixNanoToTime(nanos int64) time.Time {
	return time.Unix(0, nanos).UTC()
}

// CommitEntry pairs a commit id with its object, the unit a PullResponse
// or PushRequest carries one of per commit in the transferred set.
type CommitEntry struct {
	Id     canon.Id
	Commit objstore.Commit
}

// EncodeCanonical implements canon.Encodable.
func (e CommitEntry) EncodeCanonical(enc *canon.Encoder) {
	e.Id.EncodeCanonical(enc)
	enc.Sub(e.Commit)
}

func decodeCommitEntry(d *canon.Decoder) (CommitEntry, error) {
	idStr, err := d.String()
	if err != nil {
		return CommitEntry{}, err
	}
	id, err := canon.NewId(idStr)
	if err != nil {
		return CommitEntry{}, err
	}
	c, err := objstore.DecodeCommit(d)
	if err != nil {
		return CommitEntry{}, err
	}
	return CommitEntry{Id: id, Commit: c}, nil
}

// TreeEntry pairs a tree id with its object.
type TreeEntry struct {
	Id   canon.Id
	Tree objstore.Tree
}

// EncodeCanonical implements canon.Encodable.
func (e TreeEntry) EncodeCanonical(enc *canon.Encoder) {
	e.Id.EncodeCanonical(enc)
	enc.Sub(e.Tree)
}

func decodeTreeEntry(d *canon.Decoder) (TreeEntry, error) {
	idStr, err := d.String()
	if err != nil {
		return TreeEntry{}, err
	}
	id, err := canon.NewId(idStr)
	if err != nil {
		return TreeEntry{}, err
	}
	t, err := objstore.DecodeTree(d)
	if err != nil {
		return TreeEntry{}, err
	}
	return TreeEntry{Id: id, Tree: t}, nil
}

// BlobEntry pairs a blob id with its object.
type BlobEntry struct {
	Id   canon.Id
	Blob objstore.Blob
}

// EncodeCanonical implements canon.Encodable.
func (e BlobEntry) EncodeCanonical(enc *canon.Encoder) {
	e.Id.EncodeCanonical(enc)
	enc.Sub(e.Blob)
}

func decodeBlobEntry(d *canon.Decoder) (BlobEntry, error) {
	idStr, err := d.String()
	if err != nil {
		return BlobEntry{}, err
	}
	id, err := canon.NewId(idStr)
	if err != nil {
		return BlobEntry{}, err
	}
	b, err := objstore.DecodeBlob(d)
	if err != nil {
		return BlobEntry{}, err
	}
	return BlobEntry{Id: id, Blob: b}, nil
}

// ObjectBundle is the full reachable-commit set that the spec's pull and
// push both ship, plus every tree and blob those commits' root trees
// name (spec §4.9: "commits is the full reachable-commit set"; §4.9's
// rawImport additionally requires "its root tree, and all tree/blob
// lines" to land in the store, which only works if the wire payload
// actually carries those objects alongside the commits).
type ObjectBundle struct {
	Commits []CommitEntry
	Trees   []TreeEntry
	Blobs   []BlobEntry
}

// EncodeCanonical implements canon.Encodable.
func (b ObjectBundle) EncodeCanonical(e *canon.Encoder) {
	e.Uint64(uint64(len(b.Commits)))
	for _, c := range b.Commits {
		e.Sub(c)
	}
	e.Uint64(uint64(len(b.Trees)))
	for _, t := range b.Trees {
		e.Sub(t)
	}
	e.Uint64(uint64(len(b.Blobs)))
	for _, bl := range b.Blobs {
		e.Sub(bl)
	}
}

func decodeObjectBundle(d *canon.Decoder) (ObjectBundle, error) {
	var bundle ObjectBundle

	nCommits, err := d.Uint64()
	if err != nil {
		return ObjectBundle{}, err
	}
	for i := uint64(0); i < nCommits; i++ {
		c, err := decodeCommitEntry(d)
		if err != nil {
			return ObjectBundle{}, err
		}
		bundle.Commits = append(bundle.Commits, c)
	}

	nTrees, err := d.Uint64()
	if err != nil {
		return ObjectBundle{}, err
	}
	for i := uint64(0); i < nTrees; i++ {
		t, err := decodeTreeEntry(d)
		if err != nil {
			return ObjectBundle{}, err
		}
		bundle.Trees = append(bundle.Trees, t)
	}

	nBlobs, err := d.Uint64()
	if err != nil {
		return ObjectBundle{}, err
	}
	for i := uint64(0); i < nBlobs; i++ {
		b, err := decodeBlobEntry(d)
		if err != nil {
			return ObjectBundle{}, err
		}
		bundle.Blobs = append(bundle.Blobs, b)
	}

	return bundle, nil
}

func encodeOptionalId(e *canon.Encoder, id *canon.Id) {
	if id == nil {
		e.Byte(0)
		return
	}
	e.Byte(1)
	id.EncodeCanonical(e)
}

func decodeOptionalId(d *canon.Decoder) (*canon.Id, error) {
	has, err := d.Byte()
	if err != nil {
		return nil, err
	}
	if has == 0 {
		return nil, nil
	}
	idStr, err := d.String()
	if err != nil {
		return nil, err
	}
	id, err := canon.NewId(idStr)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// PullResponse is the body a server sends back for `GET ?branch=<name>`.
type PullResponse struct {
	BranchInfo refset.Branch
	Bundle     ObjectBundle
}

// EncodeCanonical implements canon.Encodable.
func (r PullResponse) EncodeCanonical(e *canon.Encoder) {
	e.Sub(r.BranchInfo)
	e.Sub(r.Bundle)
}

// DecodePullResponse parses a byte stream written by PullResponse.EncodeCanonical.
func DecodePullResponse(data []byte) (PullResponse, error) {
	d := canon.NewDecoder(data)
	branchInfo, err := decodeBranch(d)
	if err != nil {
		return PullResponse{}, err
	}
	bundle, err := decodeObjectBundle(d)
	if err != nil {
		return PullResponse{}, err
	}
	return PullResponse{BranchInfo: branchInfo, Bundle: bundle}, nil
}

// PushRequest is the body a client POSTs to ship a branch's history.
type PushRequest struct {
	Branch                     string
	BranchInfo                 refset.Branch
	LatestRemoteBranchPosition *canon.Id
	Bundle                     ObjectBundle
}

// EncodeCanonical implements canon.Encodable.
func (r PushRequest) EncodeCanonical(e *canon.Encoder) {
	e.String(r.Branch)
	e.Sub(r.BranchInfo)
	encodeOptionalId(e, r.LatestRemoteBranchPosition)
	e.Sub(r.Bundle)
}

// DecodePushRequest parses a byte stream written by PushRequest.EncodeCanonical.
func DecodePushRequest(data []byte) (PushRequest, error) {
	d := canon.NewDecoder(data)
	branch, err := d.String()
	if err != nil {
		return PushRequest{}, err
	}
	branchInfo, err := decodeBranch(d)
	if err != nil {
		return PushRequest{}, err
	}
	latest, err := decodeOptionalId(d)
	if err != nil {
		return PushRequest{}, err
	}
	bundle, err := decodeObjectBundle(d)
	if err != nil {
		return PushRequest{}, err
	}
	return PushRequest{Branch: branch, BranchInfo: branchInfo, LatestRemoteBranchPosition: latest, Bundle: bundle}, nil
}

func decodeBranch(d *canon.Decoder) (refset.Branch, error) {
	nanos, err := d.Int64()
	if err != nil {
		return refset.Branch{}, err
	}
	hasTip, err := d.Byte()
	if err != nil {
		return refset.Branch{}, err
	}
	var tip *canon.Id
	if hasTip == 1 {
		idStr, err := d.String()
		if err != nil {
			return refset.Branch{}, err
		}
		id, err := canon.NewId(idStr)
		if err != nil {
			return refset.Branch{}, err
		}
		tip = &id
	}
	return refset.Branch{Created: unixNanoToTime(nanos), Tip: tip}, nil
}

// CollectBundle gathers every tree and blob referenced by refs (a set of
// CommitRef as returned by repo.Repository.Reachable) into an
// ObjectBundle alongside the commits themselves, deduplicating trees and
// blobs shared across commits.
func CollectBundle(store *objstore.Store, refs []repo.CommitRef) (ObjectBundle, error) {
	var bundle ObjectBundle
	seenTrees := make(map[canon.Id]bool)
	seenBlobs := make(map[canon.Id]bool)

	for _, cr := range refs {
		bundle.Commits = append(bundle.Commits, CommitEntry{Id: cr.Id, Commit: cr.Commit})

		err := store.WalkTree(cr.Commit.TreeId, func(treeId canon.Id, t objstore.Tree) error {
			if !seenTrees[treeId] {
				seenTrees[treeId] = true
				bundle.Trees = append(bundle.Trees, TreeEntry{Id: treeId, Tree: t})
			}
			for _, line := range t.Lines {
				line.Visit(
					func(blobId canon.Id, path string) {
						if seenBlobs[blobId] {
							return
						}
						seenBlobs[blobId] = true
						blob, _ := store.Blob(blobId)
						bundle.Blobs = append(bundle.Blobs, BlobEntry{Id: blobId, Blob: blob})
					},
					func(canon.Id, string) {},
				)
			}
			return nil
		})
		if err != nil {
			return ObjectBundle{}, err
		}
	}

	return bundle, nil
}
