// Package validation adapta o go-playground/validator para o ValidationError da API,
// com mensagens por campo usando os nomes do payload JSON.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperror "siteadmin/internal/errors"
)

// Validator valida DTOs de entrada.
type Validator struct {
	validate *validator.Validate
}

// New cria um Validator que reporta os campos pelo nome da tag json.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Struct valida s e devolve *apperror.ValidationError com os detalhes por campo.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperror.NewInternalError("falha ao validar payload", err)
	}

	vErr := apperror.NewValidationError("Error de validación")
	for _, fe := range fieldErrs {
		vErr.Add(fieldPath(fe), message(fe))
	}
	return vErr
}

// fieldPath remove o nome da struct raiz: "UserInput.email" -> "email".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("El campo %s es obligatorio.", field)
	case "email":
		return fmt.Sprintf("El campo %s debe ser una dirección de correo válida.", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("El campo %s debe tener al menos %s caracteres.", field, fe.Param())
		}
		return fmt.Sprintf("El campo %s debe ser al menos %s.", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("El campo %s no debe ser mayor que %s caracteres.", field, fe.Param())
		}
		return fmt.Sprintf("El campo %s no debe ser mayor que %s.", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("El campo %s seleccionado es inválido.", field)
	case "eqfield":
		return fmt.Sprintf("El campo %s no coincide con %s.", field, strings.ToLower(fe.Param()))
	default:
		return fmt.Sprintf("El campo %s no es válido (%s).", field, fe.Tag())
	}
}
