package scene

import (
	"errors"
	"strings"
)

var (
	ErrPersonNotFound    = errors.New("person not found")
	ErrDuplicatePerson   = errors.New("person id already exists")
	ErrSelfRelationship  = errors.New("a person cannot be related to themselves")
	ErrUnknownRole       = errors.New("unknown relationship role")
	ErrParentGenderUnset = errors.New("parent gender must be set to infer mother or father")
)

// IDPrefix is the type prefix of every person id ("person_<n>").
const IDPrefix = "person_"

type Gender string

const (
	GenderUnset  Gender = ""
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// ParseGender maps free text onto a Gender. Anything unrecognised is unset.
func ParseGender(s string) Gender {
	switch Gender(strings.ToLower(strings.TrimSpace(s))) {
	case GenderMale:
		return GenderMale
	case GenderFemale:
		return GenderFemale
	default:
		return GenderUnset
	}
}

// Person is a node of the family tree. Relationship links hold another
// person's id or are empty; a link to a missing person is kept as-is and
// skipped wherever it would be dereferenced.
type Person struct {
	ID         string
	Name       string
	FatherName string
	Surname    string
	BirthName  string
	DOB        string
	Gender     Gender

	X      float64
	Y      float64
	Color  string
	Radius float64
	ZIndex int

	MotherID string
	FatherID string
	SpouseID string
}

// FullName joins given name, father's name and surname.
func (p Person) FullName() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.Name, p.FatherName, p.Surname} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// PersonPatch is a partial update. Nil fields keep their previous value.
type PersonPatch struct {
	Name       *string
	FatherName *string
	Surname    *string
	BirthName  *string
	DOB        *string
	Gender     *Gender

	X      *float64
	Y      *float64
	Color  *string
	Radius *float64
	ZIndex *int

	MotherID *string
	FatherID *string
	SpouseID *string
}

// Ptr returns a pointer to v, for building patches.
func Ptr[T any](v T) *T {
	return &v
}

func (patch PersonPatch) applyTo(p *Person) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.FatherName != nil {
		p.FatherName = *patch.FatherName
	}
	if patch.Surname != nil {
		p.Surname = *patch.Surname
	}
	if patch.BirthName != nil {
		p.BirthName = *patch.BirthName
	}
	if patch.DOB != nil {
		p.DOB = *patch.DOB
	}
	if patch.Gender != nil {
		p.Gender = *patch.Gender
	}
	if patch.X != nil {
		p.X = *patch.X
	}
	if patch.Y != nil {
		p.Y = *patch.Y
	}
	if patch.Color != nil {
		p.Color = *patch.Color
	}
	if patch.Radius != nil {
		p.Radius = *patch.Radius
	}
	if patch.ZIndex != nil {
		p.ZIndex = *patch.ZIndex
	}
	if patch.MotherID != nil {
		p.MotherID = *patch.MotherID
	}
	if patch.FatherID != nil {
		p.FatherID = *patch.FatherID
	}
	if patch.SpouseID != nil {
		p.SpouseID = *patch.SpouseID
	}
}
