package objstore

import (
	"time"

	"github.com/knotvcs/knot/internal/canon"
)

// timeFromUnixNano is the inverse of the c.Time.UTC().UnixNano() call in
// Commit.EncodeCanonical.
func timeFromUnixNano(nanos int64) time.Time {
	return time.Unix(0, nanos).UTC()
}

// DecodeBlob reads a Blob written by Blob.EncodeCanonical: a tag byte
// followed by the content string. The tag is consumed but not checked
// against tagBlob; callers that demultiplex a stream of mixed object
// kinds should inspect the byte themselves before calling this.
func DecodeBlob(d *canon.Decoder) (Blob, error) {
	if _, err := d.Byte(); err != nil {
		return Blob{}, err
	}
	content, err := d.String()
	if err != nil {
		return Blob{}, err
	}
	return Blob{Content: content}, nil
}

// DecodeTreeLine reads one TreeLine written by TreeLine.EncodeCanonical.
func DecodeTreeLine(d *canon.Decoder) (TreeLine, error) {
	kind, err := d.Byte()
	if err != nil {
		return TreeLine{}, err
	}
	idStr, err := d.String()
	if err != nil {
		return TreeLine{}, err
	}
	path, err := d.String()
	if err != nil {
		return TreeLine{}, err
	}
	id, err := canon.NewId(idStr)
	if err != nil {
		return TreeLine{}, err
	}
	return TreeLine{Kind: LineKind(kind), Id: id, Path: path}, nil
}

// DecodeTree reads a Tree written by Tree.EncodeCanonical: a tag byte, a
// count, then that many TreeLines.
func DecodeTree(d *canon.Decoder) (Tree, error) {
	if _, err := d.Byte(); err != nil {
		return Tree{}, err
	}
	n, err := d.Uint64()
	if err != nil {
		return Tree{}, err
	}
	lines := make([]TreeLine, 0, n)
	for i := uint64(0); i < n; i++ {
		l, err := DecodeTreeLine(d)
		if err != nil {
			return Tree{}, err
		}
		lines = append(lines, l)
	}
	return Tree{Lines: lines}, nil
}

// DecodeCommit reads a Commit written by Commit.EncodeCanonical.
func DecodeCommit(d *canon.Decoder) (Commit, error) {
	if _, err := d.Byte(); err != nil {
		return Commit{}, err
	}
	nanos, err := d.Int64()
	if err != nil {
		return Commit{}, err
	}
	author, err := d.String()
	if err != nil {
		return Commit{}, err
	}
	message, err := d.String()
	if err != nil {
		return Commit{}, err
	}
	treeIdStr, err := d.String()
	if err != nil {
		return Commit{}, err
	}
	treeId, err := canon.NewId(treeIdStr)
	if err != nil {
		return Commit{}, err
	}
	nParents, err := d.Uint64()
	if err != nil {
		return Commit{}, err
	}
	parents := make([]canon.Id, 0, nParents)
	for i := uint64(0); i < nParents; i++ {
		pStr, err := d.String()
		if err != nil {
			return Commit{}, err
		}
		p, err := canon.NewId(pStr)
		if err != nil {
			return Commit{}, err
		}
		parents = append(parents, p)
	}
	return Commit{
		Time:    timeFromUnixNano(nanos),
		Author:  author,
		Message: message,
		TreeId:  treeId,
		Parents: parents,
	}, nil
}
