package document

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/kinfolk/kinfolk/internal/scene"
)

// PairRef is a saved unordered id pair. It is written as "a-b" and read from
// either that string form or a two-element array.
type PairRef struct {
	raw  string
	pair []string
}

// NewPairRef wraps a canonical key for writing.
func NewPairRef(k scene.PairKey) PairRef {
	return PairRef{pair: []string{k.A, k.B}}
}

func (r PairRef) MarshalJSON() ([]byte, error) {
	if r.pair != nil {
		return json.Marshal(r.pair[0] + "-" + r.pair[1])
	}
	return json.Marshal(r.raw)
}

func (r *PairRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			return err
		}
		if len(ids) != 2 {
			return fmt.Errorf("pair needs 2 ids, got %d", len(ids))
		}
		r.pair = ids
		return nil
	}
	return json.Unmarshal(data, &r.raw)
}

// Resolve turns the reference into a canonical key. Since ids may contain '-'
// the string form is split at the first position where both halves are known
// ids, falling back to the first '-'. ok is false for a reference that has no
// separator at all.
func (r PairRef) Resolve(known func(string) bool) (scene.PairKey, bool) {
	if r.pair != nil {
		if r.pair[0] == "" || r.pair[1] == "" {
			return scene.PairKey{}, false
		}
		return scene.MakePair(r.pair[0], r.pair[1]), true
	}

	first := -1
	for i := 0; i < len(r.raw); i++ {
		if r.raw[i] != '-' || i == 0 || i == len(r.raw)-1 {
			continue
		}
		if first < 0 {
			first = i
		}
		if known(r.raw[:i]) && known(r.raw[i+1:]) {
			return scene.MakePair(r.raw[:i], r.raw[i+1:]), true
		}
	}
	if first < 0 {
		return scene.PairKey{}, false
	}
	return scene.MakePair(r.raw[:first], r.raw[first+1:]), true
}
