package syncproto

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/knotvcs/knot/internal/canon"
	"github.com/knotvcs/knot/internal/refset"
	"github.com/knotvcs/knot/internal/repo"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

// buildRepo creates a two-commit repository and returns it along with the
// reachable set from its master tip, for use as wire-protocol fixtures.
func buildRepo(t *testing.T) (*repo.Repository, []repo.CommitRef) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "v1")
	r := repo.New(dir)
	if _, err := r.Commit("c1", "author", time.Unix(1000, 0)); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	writeFile(t, dir, "b.txt", "v2")
	id2, err := r.Commit("c2", "author", time.Unix(2000, 0))
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	refs, err := r.Reachable(id2, nil)
	if err != nil {
		t.Fatalf("Reachable: %v", err)
	}
	return r, refs
}

func TestCollectBundleGathersFullObjectSet(t *testing.T) {
	r, refs := buildRepo(t)
	if len(refs) != 2 {
		t.Fatalf("expected 2 reachable commits, got %d", len(refs))
	}

	bundle, err := CollectBundle(r.Store, refs)
	if err != nil {
		t.Fatalf("CollectBundle: %v", err)
	}
	if len(bundle.Commits) != 2 {
		t.Fatalf("expected 2 commits in bundle, got %d", len(bundle.Commits))
	}
	if len(bundle.Trees) == 0 {
		t.Fatalf("expected at least one tree in bundle")
	}
	if len(bundle.Blobs) != 2 {
		t.Fatalf("expected 2 blobs in bundle (a.txt, b.txt), got %d", len(bundle.Blobs))
	}
}

func TestPullResponseRoundTrip(t *testing.T) {
	r, refs := buildRepo(t)
	bundle, err := CollectBundle(r.Store, refs)
	if err != nil {
		t.Fatalf("CollectBundle: %v", err)
	}

	b, _ := r.Refs.Branches["master"]
	resp := PullResponse{BranchInfo: *b, Bundle: bundle}
	data := canon.Encode(resp)

	decoded, err := DecodePullResponse(data)
	if err != nil {
		t.Fatalf("DecodePullResponse: %v", err)
	}
	if len(decoded.Bundle.Commits) != len(bundle.Commits) {
		t.Fatalf("commit count mismatch: got %d, want %d", len(decoded.Bundle.Commits), len(bundle.Commits))
	}
	if decoded.BranchInfo.Tip == nil || *decoded.BranchInfo.Tip != *b.Tip {
		t.Fatalf("branch tip mismatch after round trip")
	}
}

func TestPushRequestRoundTrip(t *testing.T) {
	r, refs := buildRepo(t)
	bundle, err := CollectBundle(r.Store, refs)
	if err != nil {
		t.Fatalf("CollectBundle: %v", err)
	}
	b := r.Refs.Branches["master"]

	req := PushRequest{
		Branch:                     "master",
		BranchInfo:                 *b,
		LatestRemoteBranchPosition: nil,
		Bundle:                     bundle,
	}
	data := canon.Encode(req)

	decoded, err := DecodePushRequest(data)
	if err != nil {
		t.Fatalf("DecodePushRequest: %v", err)
	}
	if decoded.Branch != "master" {
		t.Fatalf("branch name mismatch: got %q", decoded.Branch)
	}
	if decoded.LatestRemoteBranchPosition != nil {
		t.Fatalf("expected nil LatestRemoteBranchPosition, got %v", decoded.LatestRemoteBranchPosition)
	}
	if len(decoded.Bundle.Trees) != len(bundle.Trees) {
		t.Fatalf("tree count mismatch: got %d, want %d", len(decoded.Bundle.Trees), len(bundle.Trees))
	}
}

func TestPushRequestRoundTripWithLatestPosition(t *testing.T) {
	r, refs := buildRepo(t)
	bundle, err := CollectBundle(r.Store, refs)
	if err != nil {
		t.Fatalf("CollectBundle: %v", err)
	}
	b := r.Refs.Branches["master"]
	latest := *b.Tip

	req := PushRequest{Branch: "master", BranchInfo: *b, LatestRemoteBranchPosition: &latest, Bundle: bundle}
	decoded, err := DecodePushRequest(canon.Encode(req))
	if err != nil {
		t.Fatalf("DecodePushRequest: %v", err)
	}
	if decoded.LatestRemoteBranchPosition == nil || *decoded.LatestRemoteBranchPosition != latest {
		t.Fatalf("LatestRemoteBranchPosition did not round-trip")
	}
}

func TestRawImportInsertsObjectsAndMovesTip(t *testing.T) {
	src, refs := buildRepo(t)
	bundle, err := CollectBundle(src.Store, refs)
	if err != nil {
		t.Fatalf("CollectBundle: %v", err)
	}
	srcBranch := *src.Refs.Branches["master"]

	dstDir := t.TempDir()
	dst := repo.New(dstDir)

	RawImport(dst.Store, dst.Refs, bundle, "origin/master", srcBranch)

	b, ok := dst.Refs.Branches["origin/master"]
	if !ok {
		t.Fatalf("RawImport did not create origin/master")
	}
	if b.Tip == nil || *b.Tip != *srcBranch.Tip {
		t.Fatalf("RawImport did not move tip to the source branch's tip")
	}

	for _, ce := range bundle.Commits {
		if _, ok := dst.Store.Commit(ce.Id); !ok {
			t.Fatalf("commit %s missing from destination store after RawImport", ce.Id)
		}
	}
	for _, be := range bundle.Blobs {
		if _, ok := dst.Store.Blob(be.Id); !ok {
			t.Fatalf("blob %s missing from destination store after RawImport", be.Id)
		}
	}
}

func TestRawImportMovesExistingBranchTip(t *testing.T) {
	src, refs := buildRepo(t)
	bundle, err := CollectBundle(src.Store, refs)
	if err != nil {
		t.Fatalf("CollectBundle: %v", err)
	}
	srcBranch := *src.Refs.Branches["master"]

	dst := repo.New(t.TempDir())
	// Existing tracking branch with an older (nonexistent) created time,
	// which AddOrSetBranch must preserve while moving the tip.
	created := time.Unix(1, 0)
	dst.Refs.Branches["origin/master"] = &refset.Branch{Created: created}

	RawImport(dst.Store, dst.Refs, bundle, "origin/master", srcBranch)

	b := dst.Refs.Branches["origin/master"]
	if !b.Created.Equal(created) {
		t.Fatalf("Created should be preserved on an existing branch, got %v", b.Created)
	}
	if b.Tip == nil || *b.Tip != *srcBranch.Tip {
		t.Fatalf("RawImport did not move the existing branch's tip")
	}
}
