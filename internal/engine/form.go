package engine

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kinfolk/kinfolk/internal/geometry"
	"github.com/kinfolk/kinfolk/internal/scene"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationError rejects user input. The operation that returned it changed
// nothing.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// validateStruct returns the first failing field of s as a ValidationError.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	return &ValidationError{Field: fe.Field(), Message: formatFieldError(fe)}
}

func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be at least " + e.Param()
	case "lte":
		return "must be at most " + e.Param()
	default:
		return "is invalid"
	}
}

// PersonForm is the add/edit person dialog as submitted by the host.
// EditingID is empty when a new person is being added. Empty relationship
// ids clear the link.
type PersonForm struct {
	EditingID  string `json:"editingId"`
	Name       string `json:"name" validate:"required"`
	FatherName string `json:"fatherName"`
	Surname    string `json:"surname"`
	BirthName  string `json:"birthName"`
	DOB        string `json:"dob"`
	Gender     string `json:"gender" validate:"required,oneof=male female"`
	MotherID   string `json:"motherId"`
	FatherID   string `json:"fatherId"`
	SpouseID   string `json:"spouseId"`
}

func (f PersonForm) trimmed() PersonForm {
	for _, s := range []*string{
		&f.EditingID, &f.Name, &f.FatherName, &f.Surname, &f.BirthName,
		&f.DOB, &f.Gender, &f.MotherID, &f.FatherID, &f.SpouseID,
	} {
		*s = strings.TrimSpace(*s)
	}
	f.Gender = strings.ToLower(f.Gender)
	return f
}

func (e *Engine) checkForm(f PersonForm) error {
	if err := validateStruct(f); err != nil {
		return err
	}
	if f.EditingID != "" && !e.store.Has(f.EditingID) {
		return fmt.Errorf("save person %s: %w", f.EditingID, scene.ErrPersonNotFound)
	}
	refs := []struct {
		field, id string
	}{
		{"motherId", f.MotherID},
		{"fatherId", f.FatherID},
		{"spouseId", f.SpouseID},
	}
	for _, r := range refs {
		if r.id == "" {
			continue
		}
		if r.id == f.EditingID {
			return &ValidationError{Field: r.field, Message: "cannot refer to the person being edited"}
		}
		if !e.store.Has(r.id) {
			return &ValidationError{Field: r.field, Message: "refers to an unknown person"}
		}
	}
	if f.MotherID != "" && f.MotherID == f.FatherID {
		return &ValidationError{Field: "fatherId", Message: "mother and father must differ"}
	}
	if f.SpouseID != "" && (f.SpouseID == f.MotherID || f.SpouseID == f.FatherID) {
		return &ValidationError{Field: "spouseId", Message: "a parent cannot also be the spouse"}
	}
	return nil
}

// SavePerson applies the person dialog: it creates a person (EditingID
// empty) or updates one, then reconciles the three relationship links with
// the form. The whole save is one undo step. A new person is selected and
// the camera is animated onto it.
func (e *Engine) SavePerson(form PersonForm) (string, error) {
	f := form.trimmed()
	if err := e.checkForm(f); err != nil {
		return "", err
	}

	id := f.EditingID
	current := scene.Person{}
	if id == "" {
		at := e.newNodePosition()
		id = e.store.Create(scene.Person{
			Name:       f.Name,
			FatherName: f.FatherName,
			Surname:    f.Surname,
			BirthName:  f.BirthName,
			DOB:        f.DOB,
			Gender:     scene.ParseGender(f.Gender),
			X:          at.X,
			Y:          at.Y,
			Color:      e.settings.DefaultColor,
			Radius:     e.settings.NodeRadius,
		})
	} else {
		current, _ = e.store.Get(id)
		err := e.store.Update(id, scene.PersonPatch{
			Name:       &f.Name,
			FatherName: &f.FatherName,
			Surname:    &f.Surname,
			BirthName:  &f.BirthName,
			DOB:        &f.DOB,
			Gender:     scene.Ptr(scene.ParseGender(f.Gender)),
		})
		if err != nil {
			return "", err
		}
	}

	links := []struct {
		role      scene.Role
		cur, want string
	}{
		{scene.RoleMother, current.MotherID, f.MotherID},
		{scene.RoleFather, current.FatherID, f.FatherID},
		{scene.RoleSpouse, current.SpouseID, f.SpouseID},
	}
	for _, l := range links {
		if l.cur == l.want {
			continue
		}
		var err error
		if l.want == "" {
			err = e.rel.Unlink(id, l.role)
		} else {
			err = e.rel.SetRelationship(id, l.role, l.want)
		}
		if err != nil {
			e.log.Error("save person relationship", "person", id, "role", l.role, "error", err)
		}
	}

	if f.EditingID == "" {
		e.setSelection([]string{id})
		e.log.Debug("person created", "person", id)
	}
	e.commit("save person")
	if f.EditingID == "" {
		e.CenterOn(id)
	}
	return id, nil
}

// newNodePosition puts the first person at the configured origin and every
// later one below the lowest existing person, at the mean x.
func (e *Engine) newNodePosition() geometry.Point {
	persons := e.store.All()
	if len(persons) == 0 {
		return e.opts.FirstNodeAt
	}
	sumX, maxY := 0.0, persons[0].Y
	for _, p := range persons {
		sumX += p.X
		maxY = max(maxY, p.Y)
	}
	return geometry.Point{X: sumX / float64(len(persons)), Y: maxY + e.opts.NewNodeGap}
}
