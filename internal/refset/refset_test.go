package refset

import (
	"testing"
	"time"

	"github.com/knotvcs/knot/internal/canon"
)

func TestHeadAttachedDetached(t *testing.T) {
	h := Attached("master")
	if h.IsDetached() {
		t.Fatalf("Attached head reported as detached")
	}
	if name, ok := h.Branch(); !ok || name != "master" {
		t.Fatalf("Branch() = (%q, %v), want (\"master\", true)", name, ok)
	}
	if _, ok := h.Id(); ok {
		t.Fatalf("Id() reported ok on an attached head")
	}

	id := canon.Id("abc")
	d := Detached(id)
	if !d.IsDetached() {
		t.Fatalf("Detached head not reported as detached")
	}
	if got, ok := d.Id(); !ok || got != id {
		t.Fatalf("Id() = (%v, %v), want (%v, true)", got, ok, id)
	}
	if _, ok := d.Branch(); ok {
		t.Fatalf("Branch() reported ok on a detached head")
	}
}

func TestNewRefSetDefaultsToMaster(t *testing.T) {
	rs := NewRefSet()
	name, ok := rs.Head.Branch()
	if !ok || name != "master" {
		t.Fatalf("new RefSet HEAD = (%q, %v), want (\"master\", true)", name, ok)
	}
	if len(rs.Branches) != 1 {
		t.Fatalf("new RefSet has %d branches, want 1 (master)", len(rs.Branches))
	}
}

func TestRefSetEncodeDeterministic(t *testing.T) {
	id := canon.Id("deadbeef")
	rs := &RefSet{
		Branches: map[string]*Branch{
			"master":  {Created: time.Unix(1, 0), Tip: &id},
			"feature": {Created: time.Unix(2, 0)},
		},
		Head: Attached("master"),
	}
	a := canon.Encode(*rs)
	b := canon.Encode(*rs)
	if string(a) != string(b) {
		t.Fatalf("RefSet encoding is not deterministic across calls")
	}
}

func TestRemoteSetAddAndRemove(t *testing.T) {
	rs := NewRemoteSet()
	if err := rs.Add("origin", "https://example.com/repo"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got := rs.Remotes["origin"]; got != "https://example.com/repo" {
		t.Fatalf("stored url = %q", got)
	}
	if err := rs.Remove("origin"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := rs.Remove("origin"); err == nil {
		t.Fatalf("expected error removing an already-removed remote")
	}
}

func TestValidateRemoteURLRejectsUnsafe(t *testing.T) {
	cases := []string{
		"",
		"file:///etc/passwd",
		"git://example.com/repo",
		"ftp://example.com/repo",
	}
	for _, c := range cases {
		if _, err := ValidateRemoteURL(c); err == nil {
			t.Errorf("ValidateRemoteURL(%q) accepted, want rejection", c)
		}
	}
}

func TestValidateRemoteURLAcceptsLocalDaemon(t *testing.T) {
	// Pull/push/clone against a local knot daemon (spec §4.9's own
	// worked examples) must not be rejected by remote-add validation.
	cases := []string{
		"http://localhost:8080/",
		"http://127.0.0.1:8080/",
	}
	for _, c := range cases {
		if _, err := ValidateRemoteURL(c); err != nil {
			t.Errorf("ValidateRemoteURL(%q) = %v, want acceptance", c, err)
		}
	}
}

func TestValidateRemoteURLNormalizes(t *testing.T) {
	got, err := ValidateRemoteURL("HTTPS://Example.com/repo/")
	if err != nil {
		t.Fatalf("ValidateRemoteURL: %v", err)
	}
	if got != "https://example.com/repo" {
		t.Fatalf("got %q", got)
	}
}
