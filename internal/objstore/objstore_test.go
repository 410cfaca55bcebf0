package objstore

import (
	"testing"
	"time"

	"github.com/knotvcs/knot/internal/canon"
)

func TestPutBlobIdempotent(t *testing.T) {
	s := NewStore()
	b := Blob{Content: "hello"}
	id1 := s.PutBlob(b)
	id2 := s.PutBlob(b)
	if id1 != id2 {
		t.Fatalf("PutBlob gave different ids for the same content: %v vs %v", id1, id2)
	}
	if len(s.Blobs) != 1 {
		t.Fatalf("expected 1 stored blob, got %d", len(s.Blobs))
	}
}

func TestPutTreeAndWalk(t *testing.T) {
	s := NewStore()
	blobId := s.PutBlob(Blob{Content: "x"})
	leaf := Tree{Lines: []TreeLine{{Kind: BlobLine, Id: blobId, Path: "file.txt"}}}
	leafId := s.PutTree(leaf)
	root := Tree{Lines: []TreeLine{{Kind: SubtreeLine, Id: leafId, Path: "sub/"}}}
	rootId := s.PutTree(root)

	var visited []canon.Id
	err := s.WalkTree(rootId, func(id canon.Id, tr Tree) error {
		visited = append(visited, id)
		return nil
	})
	if err != nil {
		t.Fatalf("WalkTree: %v", err)
	}
	if len(visited) != 2 || visited[0] != rootId || visited[1] != leafId {
		t.Fatalf("unexpected walk order: %v", visited)
	}
}

func TestTreeLineVisit(t *testing.T) {
	var gotBlob, gotTree bool
	BlobLineVal := TreeLine{Kind: BlobLine, Id: canon.Id("b"), Path: "a"}
	BlobLineVal.Visit(
		func(id canon.Id, path string) { gotBlob = true },
		func(id canon.Id, path string) { gotTree = true },
	)
	if !gotBlob || gotTree {
		t.Fatalf("BlobLine.Visit dispatched wrong branch")
	}

	gotBlob, gotTree = false, false
	TreeLineVal := TreeLine{Kind: SubtreeLine, Id: canon.Id("t"), Path: "b/"}
	TreeLineVal.Visit(
		func(id canon.Id, path string) { gotBlob = true },
		func(id canon.Id, path string) { gotTree = true },
	)
	if gotBlob || !gotTree {
		t.Fatalf("SubtreeLine.Visit dispatched wrong branch")
	}
}

func TestValidateClosure(t *testing.T) {
	s := NewStore()
	blobId := s.PutBlob(Blob{Content: "x"})
	treeId := s.PutTree(Tree{Lines: []TreeLine{{Kind: BlobLine, Id: blobId, Path: "f"}}})
	commitId := s.PutCommit(Commit{
		Time:    time.Unix(0, 0),
		Author:  "author",
		Message: "initial",
		TreeId:  treeId,
	})

	if err := s.ValidateClosure(commitId); err != nil {
		t.Fatalf("ValidateClosure on a complete store: %v", err)
	}

	broken := NewStore()
	broken.PutCommit(Commit{Time: time.Unix(0, 0), TreeId: canon.Id("missing")})
	for id, c := range s.Commits {
		_ = id
		broken.Commits[canon.Hash(c)] = c
	}
	brokenCommitId := canon.Hash(Commit{Time: time.Unix(0, 0), Author: "author", Message: "initial", TreeId: canon.Id("deadbeef")})
	broken.Commits[brokenCommitId] = Commit{Time: time.Unix(0, 0), Author: "author", Message: "initial", TreeId: canon.Id("deadbeef")}
	if err := broken.ValidateClosure(brokenCommitId); err == nil {
		t.Fatalf("expected ValidateClosure to fail on a missing tree")
	}
}

func TestCommitEncodingIncludesParents(t *testing.T) {
	c1 := Commit{Time: time.Unix(100, 0), Author: "a", Message: "m1", TreeId: canon.Id("t1")}
	id1 := canon.Hash(c1)
	c2 := Commit{Time: time.Unix(200, 0), Author: "a", Message: "m2", TreeId: canon.Id("t2"), Parents: []canon.Id{id1}}
	c3 := c2
	c3.Parents = nil
	if canon.Hash(c2) == canon.Hash(c3) {
		t.Fatalf("commits with different parent lists hashed equal")
	}
}
