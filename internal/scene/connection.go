package scene

import (
	"cmp"
	"slices"
)

// PairKey identifies an unordered pair of person ids. A is always the
// smaller id, so {x,y} and {y,x} produce the same key.
type PairKey struct {
	A string
	B string
}

// MakePair returns the canonical key for ids x and y.
func MakePair(x, y string) PairKey {
	if y < x {
		x, y = y, x
	}
	return PairKey{A: x, B: y}
}

// String renders the key as "A-B", the form used in saved documents.
func (k PairKey) String() string {
	return k.A + "-" + k.B
}

// Has reports whether id is one of the pair.
func (k PairKey) Has(id string) bool {
	return k.A == id || k.B == id
}

func comparePairs(x, y PairKey) int {
	if c := cmp.Compare(x.A, y.A); c != 0 {
		return c
	}
	return cmp.Compare(x.B, y.B)
}

// SortPairs sorts keys in place into a stable, deterministic order.
func SortPairs(keys []PairKey) {
	slices.SortFunc(keys, comparePairs)
}

type Kind string

const (
	KindParent   Kind = "parent"
	KindSpouse   Kind = "spouse"
	KindLineOnly Kind = "line-only"
)

// Connection is a derived edge between two persons. Parent connections run
// child to parent; spouse and line-only connections run low id to high id.
type Connection struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind Kind   `json:"type"`
}

// Key returns the canonical pair of the connection's endpoints.
func (c Connection) Key() PairKey {
	return MakePair(c.From, c.To)
}

// Involves reports whether id is an endpoint.
func (c Connection) Involves(id string) bool {
	return c.From == id || c.To == id
}
