package scene

import (
	"fmt"
)

type Role string

const (
	RoleMother Role = "mother"
	RoleFather Role = "father"
	RoleSpouse Role = "spouse"
	// RoleChild makes the target a child of the subject; mother or father is
	// picked from the subject's gender.
	RoleChild Role = "child"
)

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleMother, RoleFather, RoleSpouse, RoleChild:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// ClearPolicy controls what a new explicit relationship between a pair wipes.
type ClearPolicy struct {
	// ClearHidden makes a fresh relationship visible again.
	ClearHidden bool
	// ClearLineOnly lets a semantic relationship supersede a decorative line.
	ClearLineOnly bool
}

// DefaultClearPolicy clears both suppression and decorative entries.
func DefaultClearPolicy() ClearPolicy {
	return ClearPolicy{ClearHidden: true, ClearLineOnly: true}
}

// Relations keeps the line-only and hidden pair sets alongside the
// relationship links stored on each Person, and derives connections from both.
type Relations struct {
	store    *Store
	lineOnly map[PairKey]struct{}
	hidden   map[PairKey]struct{}
	policy   ClearPolicy
}

// NewRelations creates a relationship engine over store.
func NewRelations(store *Store, policy ClearPolicy) *Relations {
	return &Relations{
		store:    store,
		lineOnly: make(map[PairKey]struct{}),
		hidden:   make(map[PairKey]struct{}),
		policy:   policy,
	}
}

// Policy returns the clearing policy in effect.
func (r *Relations) Policy() ClearPolicy {
	return r.policy
}

// SetPolicy replaces the clearing policy.
func (r *Relations) SetPolicy(p ClearPolicy) {
	r.policy = p
}

func (r *Relations) pair(subjectID, targetID string) (*Person, *Person, error) {
	if subjectID == targetID {
		return nil, nil, ErrSelfRelationship
	}
	subject, ok := r.store.persons[subjectID]
	if !ok {
		return nil, nil, fmt.Errorf("subject %s: %w", subjectID, ErrPersonNotFound)
	}
	target, ok := r.store.persons[targetID]
	if !ok {
		return nil, nil, fmt.Errorf("target %s: %w", targetID, ErrPersonNotFound)
	}
	return subject, target, nil
}

// SetRelationship records that target is the subject's mother, father or
// spouse, or (RoleChild) that target is the subject's child. Any earlier
// relationship between the two is cleared first, so a pair carries one
// relationship at a time.
func (r *Relations) SetRelationship(subjectID string, role Role, targetID string) error {
	subject, target, err := r.pair(subjectID, targetID)
	if err != nil {
		return err
	}
	if role == RoleChild && subject.Gender != GenderFemale && subject.Gender != GenderMale {
		return ErrParentGenderUnset
	}
	switch role {
	case RoleMother, RoleFather, RoleSpouse, RoleChild:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}

	clearPair(subject, target)
	switch role {
	case RoleMother:
		subject.MotherID = target.ID
	case RoleFather:
		subject.FatherID = target.ID
	case RoleSpouse:
		r.marry(subject, target)
	case RoleChild:
		if subject.Gender == GenderFemale {
			target.MotherID = subject.ID
		} else {
			target.FatherID = subject.ID
		}
	}

	r.applyPolicy(MakePair(subjectID, targetID))
	return nil
}

// clearPair removes every parent and spouse link between a and b in both
// directions. Links to other persons are left alone.
func clearPair(a, b *Person) {
	for _, p := range [][2]*Person{{a, b}, {b, a}} {
		from, to := p[0], p[1]
		if from.MotherID == to.ID {
			from.MotherID = ""
		}
		if from.FatherID == to.ID {
			from.FatherID = ""
		}
		if from.SpouseID == to.ID {
			from.SpouseID = ""
		}
	}
}

// marry links a and b symmetrically, first detaching any previous partner
// that still points back at either of them.
func (r *Relations) marry(a, b *Person) {
	r.detachSpouse(a, b.ID)
	r.detachSpouse(b, a.ID)
	a.SpouseID = b.ID
	b.SpouseID = a.ID
}

func (r *Relations) detachSpouse(p *Person, keep string) {
	old := p.SpouseID
	if old == "" || old == keep {
		return
	}
	if prev, ok := r.store.persons[old]; ok && prev.SpouseID == p.ID {
		prev.SpouseID = ""
	}
	p.SpouseID = ""
}

// Unlink clears one of the subject's relationship links. Clearing a spouse
// also clears the partner's reciprocal link.
func (r *Relations) Unlink(subjectID string, role Role) error {
	subject, ok := r.store.persons[subjectID]
	if !ok {
		return fmt.Errorf("subject %s: %w", subjectID, ErrPersonNotFound)
	}
	switch role {
	case RoleMother:
		subject.MotherID = ""
	case RoleFather:
		subject.FatherID = ""
	case RoleSpouse:
		r.detachSpouse(subject, "")
	default:
		return fmt.Errorf("unlink: %w: %q", ErrUnknownRole, role)
	}
	return nil
}

func (r *Relations) applyPolicy(key PairKey) {
	if r.policy.ClearHidden {
		delete(r.hidden, key)
	}
	if r.policy.ClearLineOnly {
		delete(r.lineOnly, key)
	}
}

// SetLineOnly adds a purely visual link between a and b. Relationship links
// are not touched.
func (r *Relations) SetLineOnly(a, b string) error {
	if _, _, err := r.pair(a, b); err != nil {
		return err
	}
	key := MakePair(a, b)
	r.lineOnly[key] = struct{}{}
	if r.policy.ClearHidden {
		delete(r.hidden, key)
	}
	return nil
}

// RemoveLineOnly deletes a visual link. It reports whether one existed.
func (r *Relations) RemoveLineOnly(a, b string) bool {
	key := MakePair(a, b)
	if _, ok := r.lineOnly[key]; !ok {
		return false
	}
	delete(r.lineOnly, key)
	return true
}

// Hide suppresses the edge between a and b without touching the
// relationship data behind it.
func (r *Relations) Hide(a, b string) {
	r.hidden[MakePair(a, b)] = struct{}{}
}

// Unhide lifts a suppression.
func (r *Relations) Unhide(a, b string) {
	delete(r.hidden, MakePair(a, b))
}

// IsHidden reports whether the pair's edge is suppressed.
func (r *Relations) IsHidden(a, b string) bool {
	_, ok := r.hidden[MakePair(a, b)]
	return ok
}

// IsLineOnly reports whether the pair has a visual link.
func (r *Relations) IsLineOnly(a, b string) bool {
	_, ok := r.lineOnly[MakePair(a, b)]
	return ok
}

// LineOnly returns the visual-link set, sorted.
func (r *Relations) LineOnly() []PairKey {
	return sortedKeys(r.lineOnly)
}

// Hidden returns the suppression set, sorted.
func (r *Relations) Hidden() []PairKey {
	return sortedKeys(r.hidden)
}

func sortedKeys(set map[PairKey]struct{}) []PairKey {
	out := make([]PairKey, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	SortPairs(out)
	return out
}

// Replace swaps both sets wholesale.
func (r *Relations) Replace(lineOnly, hidden []PairKey) {
	r.lineOnly = make(map[PairKey]struct{}, len(lineOnly))
	for _, k := range lineOnly {
		r.lineOnly[MakePair(k.A, k.B)] = struct{}{}
	}
	r.hidden = make(map[PairKey]struct{}, len(hidden))
	for _, k := range hidden {
		r.hidden[MakePair(k.A, k.B)] = struct{}{}
	}
}

// Forget drops every line-only and hidden entry that mentions id.
func (r *Relations) Forget(id string) {
	for k := range r.lineOnly {
		if k.Has(id) {
			delete(r.lineOnly, k)
		}
	}
	for k := range r.hidden {
		if k.Has(id) {
			delete(r.hidden, k)
		}
	}
}

// Reset empties both sets.
func (r *Relations) Reset() {
	r.Replace(nil, nil)
}

// Regenerate derives the visible connections: parent links, then spouses,
// then line-only links. Each kind is derived on its own, so a pair may carry
// a line-only edge beside a relationship edge. Links to missing persons and
// hidden pairs are skipped.
//
// A person gets at most one spouse edge. Mutual links come first; a one-sided
// link is drawn only while neither end already has a spouse edge, in creation
// order.
func (r *Relations) Regenerate() []Connection {
	var conns []Connection
	emit := func(c Connection) {
		if _, hid := r.hidden[c.Key()]; hid {
			return
		}
		conns = append(conns, c)
	}

	persons := r.store.All()

	for _, p := range persons {
		if p.MotherID != p.ID && r.store.Has(p.MotherID) {
			emit(Connection{From: p.ID, To: p.MotherID, Kind: KindParent})
		}
		// Mother and father naming the same person yield one edge.
		if p.FatherID != p.ID && p.FatherID != p.MotherID && r.store.Has(p.FatherID) {
			emit(Connection{From: p.ID, To: p.FatherID, Kind: KindParent})
		}
	}

	partnered := make(map[string]bool)
	spouse := func(p Person) (*Person, bool) {
		s, ok := r.store.persons[p.SpouseID]
		if !ok || s.ID == p.ID {
			return nil, false
		}
		return s, true
	}
	for _, p := range persons {
		s, ok := spouse(p)
		if !ok || s.SpouseID != p.ID || MakePair(p.ID, s.ID).A != p.ID {
			continue
		}
		partnered[p.ID], partnered[s.ID] = true, true
		emit(Connection{From: p.ID, To: s.ID, Kind: KindSpouse})
	}
	for _, p := range persons {
		s, ok := spouse(p)
		if !ok || partnered[p.ID] || partnered[s.ID] {
			continue
		}
		partnered[p.ID], partnered[s.ID] = true, true
		key := MakePair(p.ID, s.ID)
		emit(Connection{From: key.A, To: key.B, Kind: KindSpouse})
	}

	for _, key := range r.LineOnly() {
		if !r.store.Has(key.A) || !r.store.Has(key.B) {
			continue
		}
		emit(Connection{From: key.A, To: key.B, Kind: KindLineOnly})
	}

	return conns
}
