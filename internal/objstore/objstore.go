// Package objstore holds knot's content-addressed object graph: blobs,
// trees, and commits, keyed by their canon.Id, plus the tagged TreeLine
// sum type spec §9 calls for instead of an inheritance hierarchy.
package objstore

import (
	"time"

	"github.com/knotvcs/knot/internal/canon"
)

// Blob is an immutable text payload. Its Id is the digest of Content.
type Blob struct {
	Content string
}

// EncodeCanonical implements canon.Encodable.
func (b Blob) EncodeCanonical(e *canon.Encoder) {
	e.Byte(tagBlob)
	e.String(b.Content)
}

// LineKind discriminates the two TreeLine variants.
type LineKind byte

const (
	// BlobLine names a blob at a path.
	BlobLine LineKind = iota
	// SubtreeLine names a subtree at a path ending in the separator.
	SubtreeLine
)

// TreeLine is one entry in a Tree: either a blob line or a tree line,
// per spec §3. Kind discriminates which; Id is the digest of whichever
// object the line names.
type TreeLine struct {
	Kind LineKind
	Id   canon.Id
	Path string
}

// EncodeCanonical implements canon.Encodable.
func (l TreeLine) EncodeCanonical(e *canon.Encoder) {
	e.Byte(byte(l.Kind))
	l.Id.EncodeCanonical(e)
	e.String(l.Path)
}

// Visit dispatches to onBlob or onTree depending on l.Kind, the "tagged
// variant with a visitor" pattern spec §9 asks for.
func (l TreeLine) Visit(onBlob func(id canon.Id, path string), onTree func(id canon.Id, path string)) {
	switch l.Kind {
	case BlobLine:
		onBlob(l.Id, l.Path)
	case SubtreeLine:
		onTree(l.Id, l.Path)
	}
}

// Tree is an ordered sequence of TreeLines representing one directory
// level. Its Id is the digest of the sequence; line order is significant
// and must be produced deterministically by the scanner.
type Tree struct {
	Lines []TreeLine
}

// EncodeCanonical implements canon.Encodable.
func (t Tree) EncodeCanonical(e *canon.Encoder) {
	e.Byte(tagTree)
	e.Uint64(uint64(len(t.Lines)))
	for _, l := range t.Lines {
		e.Sub(l)
	}
}

// Commit is a snapshot of the working tree with parent links. The first
// commit on a branch has zero parents; every later one has exactly one
// (knot never records merges, spec §3).
type Commit struct {
	Time    time.Time
	Author  string
	Message string
	TreeId  canon.Id
	Parents []canon.Id
}

// EncodeCanonical implements canon.Encodable.
func (c Commit) EncodeCanonical(e *canon.Encoder) {
	e.Byte(tagCommit)
	e.Int64(c.Time.UTC().UnixNano())
	e.String(c.Author)
	e.String(c.Message)
	c.TreeId.EncodeCanonical(e)
	e.Uint64(uint64(len(c.Parents)))
	for _, p := range c.Parents {
		p.EncodeCanonical(e)
	}
}

const (
	tagBlob byte = iota
	tagTree
	tagCommit
)
