package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinfolk/kinfolk/internal/geometry"
)

func TestStoreCreateAssignsSequentialIDs(t *testing.T) {
	s := NewStore()
	a := s.Create(Person{Name: "Alice", ID: "ignored"})
	b := s.Create(Person{Name: "Bob"})

	assert.Equal(t, "person_1", a)
	assert.Equal(t, "person_2", b)
	assert.Equal(t, 3, s.NextID())
	assert.Equal(t, []string{a, b}, s.IDs())
}

func TestStoreInsertBumpsCounter(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Insert(Person{ID: "person_7", Name: "Gran"}))
	assert.Equal(t, 8, s.NextID())
	assert.Equal(t, "person_8", s.Create(Person{Name: "Kid"}))

	err := s.Insert(Person{ID: "person_7"})
	assert.ErrorIs(t, err, ErrDuplicatePerson)
	assert.Error(t, s.Insert(Person{}))
}

func TestStoreUpdateMergesPartial(t *testing.T) {
	s := NewStore()
	id := s.Create(Person{Name: "Alice", Surname: "Lee", DOB: "1970", Color: "#fff", Radius: 50})

	require.NoError(t, s.Update(id, PersonPatch{Surname: Ptr("Smith")}))

	p, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, "Alice", p.Name)
	assert.Equal(t, "Smith", p.Surname)
	assert.Equal(t, "1970", p.DOB)
	assert.Equal(t, 50.0, p.Radius)
}

func TestStoreUpdateUnknown(t *testing.T) {
	s := NewStore()
	err := s.Update("person_9", PersonPatch{Name: Ptr("x")})
	assert.ErrorIs(t, err, ErrPersonNotFound)
	assert.ErrorIs(t, s.Move("person_9", 1, 1), ErrPersonNotFound)
	assert.ErrorIs(t, s.Delete("person_9"), ErrPersonNotFound)
}

func TestStoreGetReturnsCopy(t *testing.T) {
	s := NewStore()
	id := s.Create(Person{Name: "Alice"})
	p, _ := s.Get(id)
	p.Name = "Mallory"

	again, _ := s.Get(id)
	assert.Equal(t, "Alice", again.Name)
}

func TestStoreDeleteKeepsOrder(t *testing.T) {
	s := NewStore()
	a := s.Create(Person{Name: "A"})
	b := s.Create(Person{Name: "B"})
	c := s.Create(Person{Name: "C"})

	require.NoError(t, s.Delete(b))
	assert.Equal(t, []string{a, c}, s.IDs())
	assert.False(t, s.Has(b))
	assert.False(t, s.Has(""))
	assert.Equal(t, 2, s.Len())
}

func TestStoreReplace(t *testing.T) {
	s := NewStore()
	s.Create(Person{Name: "old"})

	err := s.Replace([]Person{{ID: "person_3", Name: "C"}, {ID: "person_1", Name: "A"}}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"person_3", "person_1"}, s.IDs())
	assert.Equal(t, 4, s.NextID())

	require.NoError(t, s.Replace(nil, 10))
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 10, s.NextID())
}

func TestStoreReplaceDuplicateLeavesStore(t *testing.T) {
	s := NewStore()
	id := s.Create(Person{Name: "keep"})

	err := s.Replace([]Person{{ID: "person_1"}, {ID: "person_1"}}, 0)
	assert.ErrorIs(t, err, ErrDuplicatePerson)
	p, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, "keep", p.Name)
}

func TestNumericSuffix(t *testing.T) {
	tests := []struct {
		id   string
		want int
		ok   bool
	}{
		{"person_12", 12, true},
		{"person_", 0, false},
		{"x9", 9, true},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			n, ok := NumericSuffix(tt.id)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestDisplayName(t *testing.T) {
	s := NewStore()
	id := s.Create(Person{Name: "Ana", FatherName: "Ivo", Surname: "Kos"})
	blank := s.Create(Person{})
	assert.Equal(t, "Ana Ivo Kos", s.DisplayName(id))
	assert.Equal(t, blank, s.DisplayName(blank))
	assert.Equal(t, "person_99", s.DisplayName("person_99"))
}

func TestNodeAtTieBreak(t *testing.T) {
	s := NewStore()
	a := s.Create(Person{X: 0, Y: 0, Radius: 50})
	b := s.Create(Person{X: 10, Y: 0, Radius: 50})

	id, ok := s.NodeAt(geometry.Point{X: 5, Y: 0})
	require.True(t, ok)
	assert.Equal(t, b, id, "most recently created wins on equal z")

	require.NoError(t, s.Update(a, PersonPatch{ZIndex: Ptr(3)}))
	id, _ = s.NodeAt(geometry.Point{X: 5, Y: 0})
	assert.Equal(t, a, id, "higher z wins")

	_, ok = s.NodeAt(geometry.Point{X: 500, Y: 500})
	assert.False(t, ok)
}

func TestNodeAtEdgeIsInside(t *testing.T) {
	s := NewStore()
	id := s.Create(Person{X: 100, Y: 100, Radius: 50})
	got, ok := s.NodeAt(geometry.Point{X: 150, Y: 100})
	require.True(t, ok)
	assert.Equal(t, id, got)
}

func TestConnectionAt(t *testing.T) {
	s := NewStore()
	a := s.Create(Person{X: 0, Y: 0, Radius: 10})
	b := s.Create(Person{X: 100, Y: 0, Radius: 10})
	conns := []Connection{
		{From: a, To: "person_404", Kind: KindParent},
		{From: a, To: b, Kind: KindSpouse},
	}

	c, ok := s.ConnectionAt(conns, geometry.Point{X: 50, Y: 6}, DefaultConnectionThreshold)
	require.True(t, ok)
	assert.Equal(t, KindSpouse, c.Kind)

	_, ok = s.ConnectionAt(conns, geometry.Point{X: 50, Y: 20}, DefaultConnectionThreshold)
	assert.False(t, ok)

	_, ok = s.ConnectionAt(conns, geometry.Point{X: 120, Y: 0}, DefaultConnectionThreshold)
	assert.False(t, ok, "distance is measured to the finite segment")
}
