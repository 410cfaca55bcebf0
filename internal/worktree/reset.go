package worktree

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"

	"github.com/knotvcs/knot/internal/canon"
	"github.com/knotvcs/knot/internal/objstore"
	"github.com/knotvcs/knot/internal/vcserr"
)

// Reset clears root (except dotDir) and materializes the tree at treeId
// onto disk, recursively, per spec §4.6: checkout always rebuilds the
// full working directory rather than diffing against what's already
// there. Multiple filesystem failures during the sweep are aggregated
// with multierr rather than aborting at the first one, so a caller sees
// every path that failed.
func Reset(root string, store *objstore.Store, treeId canon.Id) error {
	if err := clearDir(root); err != nil {
		return err
	}
	return materialize(root, store, treeId)
}

// clearDir removes every entry under dir except dotDir.
func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
				return fmt.Errorf("%w: creating %s: %v", vcserr.ErrIO, dir, mkErr)
			}
			return nil
		}
		return fmt.Errorf("%w: reading %s: %v", vcserr.ErrIO, dir, err)
	}

	var errs error
	for _, e := range entries {
		if e.Name() == dotDir {
			continue
		}
		full := filepath.Join(dir, e.Name())
		if err := os.RemoveAll(full); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%w: removing %s: %v", vcserr.ErrIO, full, err))
		}
	}
	return errs
}

func materialize(dir string, store *objstore.Store, treeId canon.Id) error {
	tree, ok := store.Tree(treeId)
	if !ok {
		return fmt.Errorf("%w: missing tree %s", vcserr.ErrCorruption, treeId.Short())
	}

	var errs error
	for _, line := range tree.Lines {
		line.Visit(
			func(id canon.Id, path string) {
				blob, ok := store.Blob(id)
				if !ok {
					errs = multierr.Append(errs, fmt.Errorf("%w: missing blob %s at %q", vcserr.ErrCorruption, id.Short(), path))
					return
				}
				if err := os.WriteFile(filepath.Join(dir, path), []byte(blob.Content), 0o644); err != nil {
					errs = multierr.Append(errs, fmt.Errorf("%w: writing %s: %v", vcserr.ErrIO, filepath.Join(dir, path), err))
				}
			},
			func(id canon.Id, path string) {
				sub := filepath.Join(dir, path)
				if err := os.MkdirAll(sub, 0o755); err != nil {
					errs = multierr.Append(errs, fmt.Errorf("%w: creating %s: %v", vcserr.ErrIO, sub, err))
					return
				}
				if err := materialize(sub, store, id); err != nil {
					errs = multierr.Append(errs, err)
				}
			},
		)
	}
	return errs
}
