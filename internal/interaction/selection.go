package interaction

// Selection is an insertion-ordered set of person ids.
type Selection struct {
	ids []string
	set map[string]struct{}
}

func NewSelection() *Selection {
	return &Selection{set: make(map[string]struct{})}
}

func (s *Selection) Has(id string) bool {
	_, ok := s.set[id]
	return ok
}

// Toggle flips membership and reports whether id is now selected.
func (s *Selection) Toggle(id string) bool {
	if s.Remove(id) {
		return false
	}
	s.Add(id)
	return true
}

func (s *Selection) Add(id string) {
	if s.Has(id) {
		return
	}
	s.set[id] = struct{}{}
	s.ids = append(s.ids, id)
}

// Remove reports whether id was selected.
func (s *Selection) Remove(id string) bool {
	if !s.Has(id) {
		return false
	}
	delete(s.set, id)
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	return true
}

// Clear empties the selection and reports whether anything was selected.
func (s *Selection) Clear() bool {
	had := len(s.ids) > 0
	s.ids = nil
	s.set = make(map[string]struct{})
	return had
}

// Set replaces the selection, dropping duplicates.
func (s *Selection) Set(ids []string) {
	s.Clear()
	for _, id := range ids {
		s.Add(id)
	}
}

func (s *Selection) IDs() []string {
	return append([]string(nil), s.ids...)
}

func (s *Selection) Len() int {
	return len(s.ids)
}
