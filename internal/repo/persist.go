package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/knotvcs/knot/internal/canon"
	"github.com/knotvcs/knot/internal/objstore"
	"github.com/knotvcs/knot/internal/refset"
	"github.com/knotvcs/knot/internal/vcserr"
)

// snapshot is the single canon.Encodable that persist.go reads and writes
// as the contents of the .git file (spec §4.7: single-file persistence,
// no loose-object directory).
type snapshot struct {
	Blobs   []objstore.Blob
	BlobIds []canon.Id
	Trees   []objstore.Tree
	TreeIds []canon.Id
	Commits []objstore.Commit
	Refs    refset.RefSet
	Remotes refset.RemoteSet
}

func (s snapshot) EncodeCanonical(e *canon.Encoder) {
	e.Uint64(uint64(len(s.Blobs)))
	for i, b := range s.Blobs {
		s.BlobIds[i].EncodeCanonical(e)
		e.Sub(b)
	}
	e.Uint64(uint64(len(s.Trees)))
	for i, t := range s.Trees {
		s.TreeIds[i].EncodeCanonical(e)
		e.Sub(t)
	}
	e.Uint64(uint64(len(s.Commits)))
	for _, c := range s.Commits {
		e.Sub(c)
	}
	e.Sub(s.Refs)

	names := make([]string, 0, len(s.Remotes.Remotes))
	for name := range s.Remotes.Remotes {
		names = append(names, name)
	}
	sort.Strings(names)
	e.Uint64(uint64(len(names)))
	for _, name := range names {
		e.String(name)
		e.String(s.Remotes.Remotes[name])
	}
}

// Save writes r to path atomically: the snapshot is encoded to a temp
// file in the same directory and renamed over path, so a crash mid-write
// never leaves a truncated .git file behind.
func Save(path string, r *Repository) error {
	s := snapshot{Remotes: *r.Remotes}

	blobIds := make([]canon.Id, 0, len(r.Store.Blobs))
	for id := range r.Store.Blobs {
		blobIds = append(blobIds, id)
	}
	sort.Slice(blobIds, func(i, j int) bool { return blobIds[i] < blobIds[j] })
	for _, id := range blobIds {
		s.Blobs = append(s.Blobs, r.Store.Blobs[id])
		s.BlobIds = append(s.BlobIds, id)
	}

	treeIds := make([]canon.Id, 0, len(r.Store.Trees))
	for id := range r.Store.Trees {
		treeIds = append(treeIds, id)
	}
	sort.Slice(treeIds, func(i, j int) bool { return treeIds[i] < treeIds[j] })
	for _, id := range treeIds {
		s.Trees = append(s.Trees, r.Store.Trees[id])
		s.TreeIds = append(s.TreeIds, id)
	}

	commitIds := make([]canon.Id, 0, len(r.Store.Commits))
	for id := range r.Store.Commits {
		commitIds = append(commitIds, id)
	}
	sort.Slice(commitIds, func(i, j int) bool { return commitIds[i] < commitIds[j] })
	for _, id := range commitIds {
		s.Commits = append(s.Commits, r.Store.Commits[id])
	}

	s.Refs = *r.Refs

	data := canon.Encode(s)

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".knot-tmp-*")
	if err != nil {
		return fmt.Errorf("%w: creating temp file in %s: %v", vcserr.ErrIO, dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: writing %s: %v", vcserr.ErrIO, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %v", vcserr.ErrIO, tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: renaming %s to %s: %v", vcserr.ErrIO, tmpName, path, err)
	}
	return nil
}

// Load reads a Repository from path, validating that every tree and blob
// referenced by the object graph is present. workDir is the working
// directory the loaded Repository will scan and materialize against.
func Load(path, workDir string) (*Repository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", vcserr.ErrIO, path, err)
	}

	d := canon.NewDecoder(data)
	store := objstore.NewStore()

	nBlobs, err := d.Uint64()
	if err != nil {
		return nil, corrupt(err)
	}
	for i := uint64(0); i < nBlobs; i++ {
		idStr, err := d.String()
		if err != nil {
			return nil, corrupt(err)
		}
		id, err := canon.NewId(idStr)
		if err != nil {
			return nil, corrupt(err)
		}
		blob, err := objstore.DecodeBlob(d)
		if err != nil {
			return nil, corrupt(err)
		}
		store.Blobs[id] = blob
	}

	nTrees, err := d.Uint64()
	if err != nil {
		return nil, corrupt(err)
	}
	for i := uint64(0); i < nTrees; i++ {
		idStr, err := d.String()
		if err != nil {
			return nil, corrupt(err)
		}
		id, err := canon.NewId(idStr)
		if err != nil {
			return nil, corrupt(err)
		}
		tree, err := objstore.DecodeTree(d)
		if err != nil {
			return nil, corrupt(err)
		}
		store.Trees[id] = tree
	}

	nCommits, err := d.Uint64()
	if err != nil {
		return nil, corrupt(err)
	}
	for i := uint64(0); i < nCommits; i++ {
		c, err := objstore.DecodeCommit(d)
		if err != nil {
			return nil, corrupt(err)
		}
		store.Commits[canon.Hash(c)] = c
	}

	refs, err := decodeRefSet(d)
	if err != nil {
		return nil, corrupt(err)
	}

	nRemotes, err := d.Uint64()
	if err != nil {
		return nil, corrupt(err)
	}
	remotes := refset.NewRemoteSet()
	for i := uint64(0); i < nRemotes; i++ {
		name, err := d.String()
		if err != nil {
			return nil, corrupt(err)
		}
		url, err := d.String()
		if err != nil {
			return nil, corrupt(err)
		}
		remotes.Remotes[name] = url
	}

	r := &Repository{WorkDir: workDir, Store: store, Refs: refs, Remotes: remotes}

	for id := range store.Commits {
		if err := store.ValidateClosure(id); err != nil {
			return nil, fmt.Errorf("%w: %v", vcserr.ErrCorruption, err)
		}
	}

	return r, nil
}

func corrupt(err error) error {
	return fmt.Errorf("%w: %v", vcserr.ErrCorruption, err)
}

func decodeRefSet(d *canon.Decoder) (*refset.RefSet, error) {
	n, err := d.Uint64()
	if err != nil {
		return nil, err
	}
	branches := make(map[string]*refset.Branch, n)
	for i := uint64(0); i < n; i++ {
		name, err := d.String()
		if err != nil {
			return nil, err
		}
		nanos, err := d.Int64()
		if err != nil {
			return nil, err
		}
		hasTip, err := d.Byte()
		if err != nil {
			return nil, err
		}
		var tip *canon.Id
		if hasTip == 1 {
			idStr, err := d.String()
			if err != nil {
				return nil, err
			}
			id, err := canon.NewId(idStr)
			if err != nil {
				return nil, err
			}
			tip = &id
		}
		branches[name] = &refset.Branch{Created: time.Unix(0, nanos).UTC(), Tip: tip}
	}

	kind, err := d.Byte()
	if err != nil {
		return nil, err
	}
	var head refset.Head
	switch kind {
	case 0:
		name, err := d.String()
		if err != nil {
			return nil, err
		}
		head = refset.Attached(name)
	case 1:
		idStr, err := d.String()
		if err != nil {
			return nil, err
		}
		id, err := canon.NewId(idStr)
		if err != nil {
			return nil, err
		}
		head = refset.Detached(id)
	default:
		return nil, fmt.Errorf("unknown head kind %d", kind)
	}

	return &refset.RefSet{Branches: branches, Head: head}, nil
}
