package repo

import (
	"fmt"

	"github.com/knotvcs/knot/internal/canon"
	"github.com/knotvcs/knot/internal/vcserr"
)

func errMissingCommit(id canon.Id) error {
	return fmt.Errorf("%w: missing commit %s", vcserr.ErrCorruption, id.Short())
}

// Reachable walks first-parent... no, full parent history from `from`
// back to the roots, stopping before downTo if it is non-nil, and
// returns every commit visited in newest-first order. downTo itself is
// excluded from the result (an Open Question spec left unresolved;
// exclusion matches git's own `from..downTo` range semantics).
func (r *Repository) Reachable(from canon.Id, downTo *canon.Id) ([]CommitRef, error) {
	var out []CommitRef
	seen := make(map[canon.Id]bool)

	var walk func(id canon.Id) error
	walk = func(id canon.Id) error {
		if seen[id] {
			return nil
		}
		if downTo != nil && id == *downTo {
			return nil
		}
		seen[id] = true

		c, ok := r.Store.Commit(id)
		if !ok {
			return errMissingCommit(id)
		}
		out = append(out, CommitRef{Id: id, Commit: c})
		for _, p := range c.Parents {
			if err := walk(p); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(from); err != nil {
		return nil, err
	}
	return out, nil
}

// allReachableFromRefs returns the set of commit ids reachable from every
// branch tip and from a detached HEAD, the GC root set.
func (r *Repository) allReachableFromRefs() (map[canon.Id]bool, error) {
	roots := make(map[canon.Id]bool)
	for _, b := range r.Refs.Branches {
		if b.Tip != nil {
			roots[*b.Tip] = true
		}
	}
	if id, ok := r.Refs.Head.Id(); ok {
		roots[id] = true
	}

	live := make(map[canon.Id]bool)
	for root := range roots {
		refs, err := r.Reachable(root, nil)
		if err != nil {
			return nil, err
		}
		for _, cr := range refs {
			live[cr.Id] = true
		}
	}
	return live, nil
}
