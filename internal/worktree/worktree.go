// Package worktree scans a working directory into a tree object and
// materializes a tree object back out onto disk. It never touches the
// object store's history, only the filesystem and the in-memory graph
// passed to it.
package worktree

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/knotvcs/knot/internal/canon"
	"github.com/knotvcs/knot/internal/objstore"
	"github.com/knotvcs/knot/internal/vcserr"
)

// dotDir is the name of the repository's persistence file at the
// working-directory root; it is never scanned into a tree.
const dotDir = ".git"

// Scan walks root depth-first in lexicographic order, writing a Blob for
// every regular file and a Tree for every directory (including root)
// into store, and returns the id of the root tree. The dotDir entry is
// skipped only when it appears directly under root, mirroring spec
// §4.4's "skip .git exactly at root" rule.
func Scan(root string, store *objstore.Store) (canon.Id, error) {
	return scanDir(root, store, true)
}

func scanDir(dir string, store *objstore.Store, isRoot bool) (canon.Id, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: reading %s: %v", vcserr.ErrIO, dir, err)
	}

	names := make([]string, 0, len(entries))
	byName := make(map[string]os.DirEntry, len(entries))
	for _, e := range entries {
		if isRoot && e.Name() == dotDir {
			continue
		}
		names = append(names, e.Name())
		byName[e.Name()] = e
	}
	sort.Strings(names)

	var lines []objstore.TreeLine
	for _, name := range names {
		e := byName[name]
		full := filepath.Join(dir, name)
		if e.IsDir() {
			subId, err := scanDir(full, store, false)
			if err != nil {
				return "", err
			}
			lines = append(lines, objstore.TreeLine{Kind: objstore.SubtreeLine, Id: subId, Path: name + "/"})
			continue
		}

		content, err := os.ReadFile(full)
		if err != nil {
			return "", fmt.Errorf("%w: reading %s: %v", vcserr.ErrIO, full, err)
		}
		blobId := store.PutBlob(objstore.Blob{Content: string(content)})
		lines = append(lines, objstore.TreeLine{Kind: objstore.BlobLine, Id: blobId, Path: name})
	}

	return store.PutTree(objstore.Tree{Lines: lines}), nil
}
