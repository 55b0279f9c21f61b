package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFamily(t *testing.T) (*Store, *Relations, string, string) {
	t.Helper()
	s := NewStore()
	alice := s.Create(Person{Name: "Alice", Gender: GenderFemale, X: 100, Y: 100, Radius: 50})
	bob := s.Create(Person{Name: "Bob", Gender: GenderMale, X: 300, Y: 100, Radius: 50})
	return s, NewRelations(s, DefaultClearPolicy()), alice, bob
}

func countKind(conns []Connection, k Kind) int {
	n := 0
	for _, c := range conns {
		if c.Kind == k {
			n++
		}
	}
	return n
}

func TestSpouseScenario(t *testing.T) {
	s, r, alice, bob := newFamily(t)

	require.NoError(t, r.SetRelationship(bob, RoleSpouse, alice))
	conns := r.Regenerate()
	require.Len(t, conns, 1)
	assert.Equal(t, Connection{From: alice, To: bob, Kind: KindSpouse}, conns[0])

	r.Hide(bob, alice)
	assert.Empty(t, r.Regenerate())

	p, _ := s.Get(bob)
	assert.Equal(t, alice, p.SpouseID)
	p, _ = s.Get(alice)
	assert.Equal(t, bob, p.SpouseID)
}

func TestSpouseDedupWhenSymmetric(t *testing.T) {
	s, r, alice, bob := newFamily(t)
	require.NoError(t, s.Update(alice, PersonPatch{SpouseID: Ptr(bob)}))
	require.NoError(t, s.Update(bob, PersonPatch{SpouseID: Ptr(alice)}))

	assert.Equal(t, 1, countKind(r.Regenerate(), KindSpouse))
}

func TestRemarryClearsStaleSpouse(t *testing.T) {
	s, r, alice, bob := newFamily(t)
	carol := s.Create(Person{Name: "Carol", Gender: GenderFemale})
	require.NoError(t, r.SetRelationship(alice, RoleSpouse, bob))

	require.NoError(t, r.SetRelationship(bob, RoleSpouse, carol))

	a, _ := s.Get(alice)
	b, _ := s.Get(bob)
	c, _ := s.Get(carol)
	assert.Empty(t, a.SpouseID)
	assert.Equal(t, carol, b.SpouseID)
	assert.Equal(t, bob, c.SpouseID)

	conns := r.Regenerate()
	require.Len(t, conns, 1)
	assert.Equal(t, MakePair(bob, carol), conns[0].Key())
}

func TestParentIsDirectional(t *testing.T) {
	s, r, alice, bob := newFamily(t)
	kid := s.Create(Person{Name: "Kid"})

	require.NoError(t, r.SetRelationship(kid, RoleMother, alice))
	require.NoError(t, r.SetRelationship(kid, RoleFather, bob))

	conns := r.Regenerate()
	assert.Equal(t, []Connection{
		{From: kid, To: alice, Kind: KindParent},
		{From: kid, To: bob, Kind: KindParent},
	}, conns)
	a, _ := s.Get(alice)
	assert.Empty(t, a.SpouseID)
}

func TestChildRoleUsesParentGender(t *testing.T) {
	s, r, alice, bob := newFamily(t)
	kid := s.Create(Person{Name: "Kid"})
	other := s.Create(Person{Name: "Pat"})

	require.NoError(t, r.SetRelationship(alice, RoleChild, kid))
	require.NoError(t, r.SetRelationship(bob, RoleChild, kid))
	k, _ := s.Get(kid)
	assert.Equal(t, alice, k.MotherID)
	assert.Equal(t, bob, k.FatherID)

	err := r.SetRelationship(other, RoleChild, kid)
	assert.ErrorIs(t, err, ErrParentGenderUnset)
}

func TestSetRelationshipErrors(t *testing.T) {
	_, r, alice, _ := newFamily(t)

	assert.ErrorIs(t, r.SetRelationship(alice, RoleSpouse, alice), ErrSelfRelationship)
	assert.ErrorIs(t, r.SetRelationship(alice, RoleSpouse, "person_404"), ErrPersonNotFound)
	assert.ErrorIs(t, r.SetRelationship(alice, Role("cousin"), "person_2"), ErrUnknownRole)

	_, err := ParseRole("uncle")
	assert.ErrorIs(t, err, ErrUnknownRole)
	role, err := ParseRole("father")
	require.NoError(t, err)
	assert.Equal(t, RoleFather, role)
}

func TestHiddenButPreserved(t *testing.T) {
	s, r, alice, _ := newFamily(t)
	kid := s.Create(Person{Name: "Kid"})
	require.NoError(t, r.SetRelationship(kid, RoleMother, alice))

	r.Hide(alice, kid)
	assert.Empty(t, r.Regenerate())
	k, _ := s.Get(kid)
	assert.Equal(t, alice, k.MotherID)
	assert.True(t, r.IsHidden(kid, alice))

	r.Unhide(kid, alice)
	assert.Len(t, r.Regenerate(), 1)
}

func TestNewRelationshipClearsHiddenAndLineOnly(t *testing.T) {
	_, r, alice, bob := newFamily(t)
	require.NoError(t, r.SetLineOnly(alice, bob))
	r.Hide(alice, bob)

	require.NoError(t, r.SetRelationship(alice, RoleSpouse, bob))

	assert.False(t, r.IsHidden(alice, bob))
	assert.False(t, r.IsLineOnly(alice, bob))
	conns := r.Regenerate()
	require.Len(t, conns, 1)
	assert.Equal(t, KindSpouse, conns[0].Kind)
}

func TestClearPolicyOff(t *testing.T) {
	_, r, alice, bob := newFamily(t)
	r.SetPolicy(ClearPolicy{})
	require.NoError(t, r.SetLineOnly(alice, bob))
	r.Hide(alice, bob)

	require.NoError(t, r.SetRelationship(alice, RoleSpouse, bob))

	assert.True(t, r.IsHidden(alice, bob))
	assert.True(t, r.IsLineOnly(alice, bob))
	assert.Empty(t, r.Regenerate())
}

func TestLineOnlyLeavesRelationshipFields(t *testing.T) {
	s, r, alice, bob := newFamily(t)
	require.NoError(t, r.SetLineOnly(bob, alice))

	for _, id := range []string{alice, bob} {
		p, _ := s.Get(id)
		assert.Empty(t, p.MotherID)
		assert.Empty(t, p.FatherID)
		assert.Empty(t, p.SpouseID)
	}
	assert.Equal(t, []Connection{{From: alice, To: bob, Kind: KindLineOnly}}, r.Regenerate())

	assert.True(t, r.RemoveLineOnly(alice, bob))
	assert.False(t, r.RemoveLineOnly(alice, bob))
	assert.Empty(t, r.Regenerate())
}

func TestLineOnlyKeptBesideParentWhenPolicyOff(t *testing.T) {
	s, r, alice, _ := newFamily(t)
	r.SetPolicy(ClearPolicy{})
	kid := s.Create(Person{Name: "Kid"})
	require.NoError(t, r.SetLineOnly(kid, alice))
	require.NoError(t, r.SetRelationship(kid, RoleMother, alice))

	conns := r.Regenerate()
	require.Len(t, conns, 2)
	assert.Equal(t, Connection{From: kid, To: alice, Kind: KindParent}, conns[0])
	assert.Equal(t, KindLineOnly, conns[1].Kind)
	assert.Equal(t, MakePair(kid, alice), conns[1].Key())
}

func TestSpouseThenMotherReplacesSpouse(t *testing.T) {
	s, r, alice, bob := newFamily(t)
	require.NoError(t, r.SetRelationship(bob, RoleSpouse, alice))

	require.NoError(t, r.SetRelationship(bob, RoleMother, alice))

	a, _ := s.Get(alice)
	b, _ := s.Get(bob)
	assert.Empty(t, a.SpouseID)
	assert.Empty(t, b.SpouseID)
	assert.Equal(t, alice, b.MotherID)
	assert.Equal(t, []Connection{{From: bob, To: alice, Kind: KindParent}}, r.Regenerate())
}

func TestMotherThenSpouseReplacesParent(t *testing.T) {
	s, r, alice, bob := newFamily(t)
	require.NoError(t, r.SetRelationship(bob, RoleMother, alice))

	require.NoError(t, r.SetRelationship(bob, RoleSpouse, alice))

	b, _ := s.Get(bob)
	assert.Empty(t, b.MotherID)
	assert.Equal(t, alice, b.SpouseID)
	assert.Equal(t, []Connection{{From: alice, To: bob, Kind: KindSpouse}}, r.Regenerate())
}

func TestReversedParentIsCleared(t *testing.T) {
	s, r, alice, bob := newFamily(t)
	kid := s.Create(Person{Name: "Kid"})
	require.NoError(t, r.SetRelationship(alice, RoleMother, bob))
	require.NoError(t, r.SetRelationship(kid, RoleMother, alice))

	require.NoError(t, r.SetRelationship(alice, RoleChild, bob))

	a, _ := s.Get(alice)
	b, _ := s.Get(bob)
	assert.Empty(t, a.MotherID)
	assert.Equal(t, alice, b.MotherID)
	k, _ := s.Get(kid)
	assert.Equal(t, alice, k.MotherID, "links to other persons survive")
}

func TestAsymmetricSpouseChainDrawsOneEdgePerPerson(t *testing.T) {
	s, r, alice, bob := newFamily(t)
	carol := s.Create(Person{Name: "Carol", Gender: GenderFemale})
	require.NoError(t, s.Update(alice, PersonPatch{SpouseID: Ptr(bob)}))
	require.NoError(t, s.Update(bob, PersonPatch{SpouseID: Ptr(carol)}))
	require.NoError(t, s.Update(carol, PersonPatch{SpouseID: Ptr(bob)}))

	conns := r.Regenerate()
	require.Len(t, conns, 1)
	assert.Equal(t, Connection{From: bob, To: carol, Kind: KindSpouse}, conns[0])

	// Without the mutual pair, a one-sided chain is drawn first come first served.
	require.NoError(t, s.Update(carol, PersonPatch{SpouseID: Ptr("")}))
	conns = r.Regenerate()
	require.Len(t, conns, 1)
	assert.Equal(t, MakePair(alice, bob), conns[0].Key())

	edges := make(map[string]int)
	for _, c := range conns {
		edges[c.From]++
		edges[c.To]++
	}
	for id, n := range edges {
		assert.Equal(t, 1, n, id)
	}
}

func TestDeletedPersonIsFiltered(t *testing.T) {
	s, r, alice, bob := newFamily(t)
	kid := s.Create(Person{Name: "Kid"})
	require.NoError(t, r.SetRelationship(kid, RoleMother, alice))
	require.NoError(t, r.SetRelationship(alice, RoleSpouse, bob))
	require.NoError(t, r.SetLineOnly(alice, bob))
	r.Hide(alice, kid)

	require.NoError(t, s.Delete(alice))
	r.Forget(alice)

	assert.Empty(t, r.Regenerate())
	k, _ := s.Get(kid)
	assert.Equal(t, alice, k.MotherID, "field kept in storage")
	b, _ := s.Get(bob)
	assert.Equal(t, alice, b.SpouseID)
	assert.Empty(t, r.LineOnly())
	assert.Empty(t, r.Hidden())
}

func TestUnlink(t *testing.T) {
	s, r, alice, bob := newFamily(t)
	kid := s.Create(Person{Name: "Kid"})
	require.NoError(t, r.SetRelationship(kid, RoleMother, alice))
	require.NoError(t, r.SetRelationship(alice, RoleSpouse, bob))

	require.NoError(t, r.Unlink(kid, RoleMother))
	require.NoError(t, r.Unlink(bob, RoleSpouse))

	k, _ := s.Get(kid)
	a, _ := s.Get(alice)
	assert.Empty(t, k.MotherID)
	assert.Empty(t, a.SpouseID)
	assert.Empty(t, r.Regenerate())

	assert.ErrorIs(t, r.Unlink("person_404", RoleMother), ErrPersonNotFound)
	assert.ErrorIs(t, r.Unlink(kid, RoleChild), ErrUnknownRole)
}

func TestReplaceCanonicalizes(t *testing.T) {
	_, r, alice, bob := newFamily(t)
	r.Replace([]PairKey{{A: bob, B: alice}}, []PairKey{{A: bob, B: alice}})

	assert.Equal(t, []PairKey{MakePair(alice, bob)}, r.LineOnly())
	assert.True(t, r.IsHidden(alice, bob))

	r.Reset()
	assert.Empty(t, r.LineOnly())
	assert.Empty(t, r.Hidden())
}
