package scene

import (
	"fmt"
	"strconv"
	"strings"
)

// Store owns the authoritative set of persons. Iteration order is creation
// order, which is also the hit-testing tie-break.
type Store struct {
	persons map[string]*Person
	order   []string
	nextID  int
}

// NewStore creates an empty store whose first id is person_1.
func NewStore() *Store {
	return &Store{
		persons: make(map[string]*Person),
		nextID:  1,
	}
}

// Create adds a person with a freshly assigned id and returns the id.
// Any id already set on p is ignored.
func (s *Store) Create(p Person) string {
	id := s.generateID()
	p.ID = id
	s.persons[id] = &p
	s.order = append(s.order, id)
	return id
}

func (s *Store) generateID() string {
	for {
		id := IDPrefix + strconv.Itoa(s.nextID)
		s.nextID++
		if _, taken := s.persons[id]; !taken {
			return id
		}
	}
}

// Insert adds a person under its own id, used by bulk load and restore.
// The id counter is bumped past any numeric suffix so later Create calls
// never collide.
func (s *Store) Insert(p Person) error {
	if p.ID == "" {
		return fmt.Errorf("insert person: empty id")
	}
	if _, ok := s.persons[p.ID]; ok {
		return fmt.Errorf("insert %s: %w", p.ID, ErrDuplicatePerson)
	}
	s.persons[p.ID] = &p
	s.order = append(s.order, p.ID)
	if n, ok := NumericSuffix(p.ID); ok && n >= s.nextID {
		s.nextID = n + 1
	}
	return nil
}

// NumericSuffix extracts the trailing decimal number of an id.
func NumericSuffix(id string) (int, bool) {
	i := len(id)
	for i > 0 && id[i-1] >= '0' && id[i-1] <= '9' {
		i--
	}
	if i == len(id) {
		return 0, false
	}
	n, err := strconv.Atoi(id[i:])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Update merges patch onto the person. Fields absent from the patch keep
// their value.
func (s *Store) Update(id string, patch PersonPatch) error {
	p, ok := s.persons[id]
	if !ok {
		return fmt.Errorf("update %s: %w", id, ErrPersonNotFound)
	}
	patch.applyTo(p)
	return nil
}

// Move sets the position of a person.
func (s *Store) Move(id string, x, y float64) error {
	p, ok := s.persons[id]
	if !ok {
		return fmt.Errorf("move %s: %w", id, ErrPersonNotFound)
	}
	p.X, p.Y = x, y
	return nil
}

// Delete removes a person. Links on other persons pointing at it are left
// alone.
func (s *Store) Delete(id string) error {
	if _, ok := s.persons[id]; !ok {
		return fmt.Errorf("delete %s: %w", id, ErrPersonNotFound)
	}
	delete(s.persons, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns a copy of the person.
func (s *Store) Get(id string) (Person, bool) {
	p, ok := s.persons[id]
	if !ok {
		return Person{}, false
	}
	return *p, true
}

// Has reports whether id names an existing person.
func (s *Store) Has(id string) bool {
	if id == "" {
		return false
	}
	_, ok := s.persons[id]
	return ok
}

// All returns copies of every person in creation order.
func (s *Store) All() []Person {
	out := make([]Person, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.persons[id])
	}
	return out
}

// IDs returns every person id in creation order.
func (s *Store) IDs() []string {
	return append([]string(nil), s.order...)
}

// Len returns the number of persons.
func (s *Store) Len() int {
	return len(s.order)
}

// NextID returns the numeric part of the id the next Create will try.
func (s *Store) NextID() int {
	return s.nextID
}

// SetNextID raises the id counter. It never lowers it.
func (s *Store) SetNextID(n int) {
	if n > s.nextID {
		s.nextID = n
	}
}

// MaxZIndex returns the highest z-order in use (0 when empty).
func (s *Store) MaxZIndex() int {
	maxZ := 0
	for _, p := range s.persons {
		maxZ = max(maxZ, p.ZIndex)
	}
	return maxZ
}

// Reset empties the store and restarts the id counter at 1.
func (s *Store) Reset() {
	s.persons = make(map[string]*Person)
	s.order = nil
	s.nextID = 1
}

// Replace swaps the whole contents for persons, keeping their order.
// The counter becomes max(nextID, highest suffix + 1).
func (s *Store) Replace(persons []Person, nextID int) error {
	fresh := NewStore()
	for _, p := range persons {
		if err := fresh.Insert(p); err != nil {
			return err
		}
	}
	fresh.SetNextID(nextID)
	*s = *fresh
	return nil
}

// DisplayName returns a person's full name, or the id when unknown.
func (s *Store) DisplayName(id string) string {
	p, ok := s.persons[id]
	if !ok {
		return id
	}
	if name := strings.TrimSpace(p.FullName()); name != "" {
		return name
	}
	return id
}
