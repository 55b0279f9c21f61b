package document

import (
	"strconv"

	"github.com/kinfolk/kinfolk/internal/geometry"
	"github.com/kinfolk/kinfolk/internal/render"
	"github.com/kinfolk/kinfolk/internal/scene"
)

// SampleTree returns a three-generation family used for demos and as a
// fixture: two grandparents, their daughter and her husband, two children,
// and a decorative line to a family friend.
func SampleTree() Tree {
	s := render.DefaultSettings()
	person := func(n int, name, surname string, g scene.Gender, x, y float64) scene.Person {
		return scene.Person{
			ID:      scene.IDPrefix + strconv.Itoa(n),
			Name:    name,
			Surname: surname,
			Gender:  g,
			X:       x,
			Y:       y,
			Color:   s.DefaultColor,
			Radius:  s.NodeRadius,
		}
	}

	grandpa := person(1, "Josip", "Horvat", scene.GenderMale, 300, 100)
	grandma := person(2, "Marija", "Horvat", scene.GenderFemale, 500, 100)
	grandpa.SpouseID, grandma.SpouseID = grandma.ID, grandpa.ID
	grandpa.DOB, grandma.DOB = "1931", "1934"

	mother := person(3, "Ana", "Kovač", scene.GenderFemale, 400, 300)
	mother.BirthName = "Horvat"
	mother.MotherID, mother.FatherID = grandma.ID, grandpa.ID
	father := person(4, "Ivan", "Kovač", scene.GenderMale, 600, 300)
	mother.SpouseID, father.SpouseID = father.ID, mother.ID

	son := person(5, "Luka", "Kovač", scene.GenderMale, 400, 500)
	daughter := person(6, "Petra", "Kovač", scene.GenderFemale, 600, 500)
	for _, kid := range []*scene.Person{&son, &daughter} {
		kid.MotherID, kid.FatherID = mother.ID, father.ID
	}
	friend := person(7, "Nika", "Babić", scene.GenderFemale, 800, 300)

	return Tree{
		Persons:  []scene.Person{grandpa, grandma, mother, father, son, daughter, friend},
		LineOnly: []scene.PairKey{scene.MakePair(father.ID, friend.ID)},
		Camera:   geometry.DefaultCamera(),
		Settings: s,
		NextID:   8,
	}
}
