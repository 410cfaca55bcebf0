package syncproto

import (
	"github.com/knotvcs/knot/internal/objstore"
	"github.com/knotvcs/knot/internal/refset"
)

// RawImport idempotently inserts every blob, tree, and commit in bundle
// into store, then records or moves branchName's tip to info (spec
// §4.9). It does not validate referential closure of what it is given:
// callers must ship a closed set, exactly as the spec's rawImport does
// ("This operation does not validate referential closure against what
// was sent; callers must ship a closed set").
//
// Put* recomputes each object's id from its own content rather than
// trusting the id carried on the wire, so a tampered or mismatched
// bundle can never corrupt the local store's id=hash(value) invariant;
// it can at worst import content under a different id than the sender
// intended, which then fails to satisfy closure and is caught the next
// time the repository is loaded.
func RawImport(store *objstore.Store, refs *refset.RefSet, bundle ObjectBundle, branchName string, info refset.Branch) {
	for _, be := range bundle.Blobs {
		store.PutBlob(be.Blob)
	}
	for _, te := range bundle.Trees {
		store.PutTree(te.Tree)
	}
	for _, ce := range bundle.Commits {
		store.PutCommit(ce.Commit)
	}
	refs.AddOrSetBranch(branchName, info)
}
