package objstore

import (
	"fmt"

	"github.com/knotvcs/knot/internal/canon"
)

// Store holds the full object graph of a repository, keyed by content id.
// Every Put method is idempotent: inserting an id that is already present
// is a silent no-op, since two encodings of the same content always hash
// to the same id and there is nothing to reconcile.
type Store struct {
	Blobs   map[canon.Id]Blob
	Trees   map[canon.Id]Tree
	Commits map[canon.Id]Commit
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		Blobs:   make(map[canon.Id]Blob),
		Trees:   make(map[canon.Id]Tree),
		Commits: make(map[canon.Id]Commit),
	}
}

// PutBlob inserts b if its id is not already present and returns the id.
func (s *Store) PutBlob(b Blob) canon.Id {
	id := canon.Hash(b)
	if _, ok := s.Blobs[id]; !ok {
		s.Blobs[id] = b
	}
	return id
}

// PutTree inserts t if its id is not already present and returns the id.
func (s *Store) PutTree(t Tree) canon.Id {
	id := canon.Hash(t)
	if _, ok := s.Trees[id]; !ok {
		s.Trees[id] = t
	}
	return id
}

// PutCommit inserts c if its id is not already present and returns the id.
func (s *Store) PutCommit(c Commit) canon.Id {
	id := canon.Hash(c)
	if _, ok := s.Commits[id]; !ok {
		s.Commits[id] = c
	}
	return id
}

// Blob looks up a blob by id.
func (s *Store) Blob(id canon.Id) (Blob, bool) {
	b, ok := s.Blobs[id]
	return b, ok
}

// Tree looks up a tree by id.
func (s *Store) Tree(id canon.Id) (Tree, bool) {
	t, ok := s.Trees[id]
	return t, ok
}

// Commit looks up a commit by id.
func (s *Store) Commit(id canon.Id) (Commit, bool) {
	c, ok := s.Commits[id]
	return c, ok
}

// WalkTree calls fn for the tree at id and, recursively, every subtree it
// names, depth-first. It does not visit blobs; callers that need blob
// bodies should use TreeLine.Visit from within fn.
func (s *Store) WalkTree(id canon.Id, fn func(id canon.Id, t Tree) error) error {
	t, ok := s.Tree(id)
	if !ok {
		return fmt.Errorf("objstore: missing tree %s", id.Short())
	}
	if err := fn(id, t); err != nil {
		return err
	}
	for _, l := range t.Lines {
		if l.Kind == SubtreeLine {
			if err := s.WalkTree(l.Id, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// ValidateClosure checks that every object reachable from root (a commit
// id) is present in the store: the commit, its tree, every subtree, and
// every blob. It does not check parent commits; callers walking history
// call it once per commit they load.
func (s *Store) ValidateClosure(root canon.Id) error {
	c, ok := s.Commit(root)
	if !ok {
		return fmt.Errorf("objstore: missing commit %s", root.Short())
	}
	return s.WalkTree(c.TreeId, func(id canon.Id, t Tree) error {
		for _, l := range t.Lines {
			if l.Kind == BlobLine {
				if _, ok := s.Blob(l.Id); !ok {
					return fmt.Errorf("objstore: missing blob %s at %q", l.Id.Short(), l.Path)
				}
			}
		}
		return nil
	})
}
