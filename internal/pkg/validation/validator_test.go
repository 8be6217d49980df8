package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siteadmin/internal/domain"
	apperror "siteadmin/internal/errors"
	"siteadmin/internal/pkg/validation"
)

func TestStruct_FieldMessages(t *testing.T) {
	v := validation.New()

	err := v.Struct(domain.UserInput{Email: "nao-e-email", Password: "123", Role: "root"})
	require.Error(t, err)

	var vErr *apperror.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "name")
	assert.Contains(t, vErr.Fields, "email")
	assert.Contains(t, vErr.Fields, "password")
	assert.Contains(t, vErr.Fields, "rol")
	assert.Equal(t, []string{"El campo name es obligatorio."}, vErr.Fields["name"])
}

func TestStruct_PartialPatch(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Struct(domain.BannerPatch{}))

	empty := ""
	negative := -1
	err := v.Struct(domain.BannerPatch{Titulo: &empty, Orden: &negative})
	require.Error(t, err)
	fields := apperror.FieldsOf(err)
	assert.Contains(t, fields, "titulo")
	assert.Contains(t, fields, "orden")
}

func TestStruct_Valid(t *testing.T) {
	v := validation.New()
	err := v.Struct(domain.UserRegistration{Name: "Jacky", Email: "jacky@testcorreo.com", Password: "12345678"})
	assert.NoError(t, err)
}
