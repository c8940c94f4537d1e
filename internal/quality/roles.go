package quality

import "strings"

// Role is the inferred semantic category of a column, driving which
// validation rules apply to its values.
type Role int

const (
	// RoleNone means generic textual/numeric handling applies
	RoleNone Role = iota
	// RoleDate marks date or period columns
	RoleDate
	// RoleIdentifier marks code/document/id columns
	RoleIdentifier
	// RolePhone marks phone or mobile number columns
	RolePhone
	// RoleGender marks gender columns
	RoleGender
	// RoleEmail marks email address columns
	RoleEmail
	// RoleInstitution marks institution/site/campus columns
	RoleInstitution
)

// String returns the string representation of the role
func (r Role) String() string {
	switch r {
	case RoleDate:
		return "fecha"
	case RoleIdentifier:
		return "identificador"
	case RolePhone:
		return "telefono"
	case RoleGender:
		return "genero"
	case RoleEmail:
		return "email"
	case RoleInstitution:
		return "institucion"
	default:
		return "ninguno"
	}
}

// roleRule maps a column-name substring to a role. Rules are evaluated in
// order; the first match wins, which encodes the precedence
// date > identifier > phone > gender > email > institution.
type roleRule struct {
	substrings []string
	role       Role
}

var roleRules = []roleRule{
	{[]string{"fecha", "date", "periodo"}, RoleDate},
	{[]string{"codigo", "código", "code", "documento", "identificacion", "identificación", "cedula", "cédula"}, RoleIdentifier},
	{[]string{"telefono", "teléfono", "celular", "movil", "móvil", "phone"}, RolePhone},
	{[]string{"genero", "género", "sexo", "gender"}, RoleGender},
	{[]string{"email", "correo", "mail"}, RoleEmail},
	{[]string{"institucion", "institución", "sede", "colegio", "universidad", "campus"}, RoleInstitution},
}

// RoleFor infers the role of a column from its name. Pure, total,
// deterministic, case-insensitive. Every role-aware computation in this
// package goes through RoleFor so that metric scoring and problem detection
// can never disagree about what a column is.
func RoleFor(name string) Role {
	lower := strings.ToLower(name)
	for _, rule := range roleRules {
		for _, sub := range rule.substrings {
			if strings.Contains(lower, sub) {
				return rule.role
			}
		}
	}
	return RoleNone
}

// FindColumn returns the index of the first column whose lowercase name
// contains any of the given substrings, or -1. This is the shared
// column-lookup convention for key fields, mandatory fields and the
// role-specific detector rules.
func FindColumn(cols []Column, substrings ...string) int {
	for i, col := range cols {
		lower := strings.ToLower(col.Name)
		for _, sub := range substrings {
			if strings.Contains(lower, sub) {
				return i
			}
		}
	}
	return -1
}
