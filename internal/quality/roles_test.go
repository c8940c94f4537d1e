package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleFor(t *testing.T) {
	tests := []struct {
		name   string
		column string
		want   Role
	}{
		{"fecha column", "Fecha de Registro", RoleDate},
		{"date column", "enrollment_date", RoleDate},
		{"periodo column", "Periodo Académico", RoleDate},
		{"codigo column", "Código Programa", RoleIdentifier},
		{"documento column", "Documento de Identidad", RoleIdentifier},
		{"phone column", "Teléfono Celular", RolePhone},
		{"movil column", "Movil", RolePhone},
		{"gender column", "Género", RoleGender},
		{"sexo column", "SEXO", RoleGender},
		{"email column", "Email Personal", RoleEmail},
		{"correo column", "Correo Institucional", RoleEmail},
		{"sede column", "Sede", RoleInstitution},
		{"universidad column", "Universidad de Origen", RoleInstitution},
		{"generic column", "Nombres", RoleNone},
		{"empty name", "", RoleNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RoleFor(tt.column))
		})
	}
}

// Date outranks every other role, so a birth-date column is a date column
// even though it could plausibly match other rules.
func TestRoleForPrecedence(t *testing.T) {
	assert.Equal(t, RoleDate, RoleFor("fecha_documento"))
	assert.Equal(t, RoleIdentifier, RoleFor("codigo_sede"))
}

func TestFindColumn(t *testing.T) {
	cols := []Column{
		{Name: "Nombres"},
		{Name: "Documento"},
		{Name: "Correo Personal"},
		{Name: "Correo Institucional"},
	}

	assert.Equal(t, 1, FindColumn(cols, "documento"))
	assert.Equal(t, 2, FindColumn(cols, "email", "correo"), "first matching column wins")
	assert.Equal(t, -1, FindColumn(cols, "telefono"))
	assert.Equal(t, -1, FindColumn(nil, "documento"))
}
