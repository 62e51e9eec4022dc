package pkm

import "fmt"

// Persona partitions an owner's data into independent views.
type Persona string

const (
	PersonaStudent      Persona = "student"
	PersonaCreator      Persona = "creator"
	PersonaProfessional Persona = "professional"
	PersonaEntrepreneur Persona = "entrepreneur"
	PersonaResearcher   Persona = "researcher"
)

var personas = []Persona{
	PersonaStudent,
	PersonaCreator,
	PersonaProfessional,
	PersonaEntrepreneur,
	PersonaResearcher,
}

// Personas returns every known persona in display order.
func Personas() []Persona {
	out := make([]Persona, len(personas))
	copy(out, personas)
	return out
}

// Valid reports whether p is one of the known personas.
func (p Persona) Valid() bool {
	for _, known := range personas {
		if p == known {
			return true
		}
	}
	return false
}

// ParsePersona converts raw input (CLI flag, header, config) into a Persona.
func ParsePersona(raw string) (Persona, error) {
	p := Persona(raw)
	if !p.Valid() {
		return "", &ValidationError{Violations: []Violation{
			{Field: "persona", Message: fmt.Sprintf("unknown persona %q", raw)},
		}}
	}
	return p, nil
}
