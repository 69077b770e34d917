package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ValidationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var tagMessages = map[string]string{
	"required": "Ce champ est requis",
	"email":    "Adresse email invalide",
	"url":      "URL invalide",
	"uri":      "URI invalide",
	"hexcolor": "Couleur hexadécimale attendue, par exemple #1F2937",
	"uuid":     "Identifiant invalide",
	"uuid4":    "Identifiant invalide",
	"datetime": "Date RFC 3339 attendue",
	"numeric":  "Valeur numérique attendue",
	"alphanum": "Lettres et chiffres uniquement",
}

// paramMessages format tags whose message depends on the tag parameter.
var paramMessages = map[string]func(param string) string{
	"min":   func(p string) string { return fmt.Sprintf("Au moins %s caractères", p) },
	"max":   func(p string) string { return fmt.Sprintf("Au plus %s caractères", p) },
	"len":   func(p string) string { return fmt.Sprintf("Exactement %s caractères", p) },
	"gt":    func(p string) string { return "Doit être supérieur à " + p },
	"gte":   func(p string) string { return "Doit être supérieur ou égal à " + p },
	"lt":    func(p string) string { return "Doit être inférieur à " + p },
	"lte":   func(p string) string { return "Doit être inférieur ou égal à " + p },
	"oneof": func(p string) string { return "Valeurs acceptées : " + strings.ReplaceAll(p, " ", ", ") },
}

func messageFor(fe validator.FieldError) string {
	if format, ok := paramMessages[fe.Tag()]; ok && fe.Param() != "" {
		return format(fe.Param())
	}
	if msg, ok := tagMessages[fe.Tag()]; ok {
		return msg
	}
	return "Valeur invalide"
}

// jsonFieldName resolves a struct field to the name clients see on the wire.
func jsonFieldName(structType reflect.Type, fieldName string) string {
	if structType == nil {
		return fieldName
	}

	field, found := structType.FieldByName(fieldName)
	if !found {
		return fieldName
	}

	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return fieldName
	}
	return name
}

// FormatValidationErrors turns binding and validation failures into per-field
// messages keyed by JSON name. model is the request struct or a pointer to it.
func FormatValidationErrors(err error, model any) []ValidationErrorResponse {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []ValidationErrorResponse{{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("Type %s attendu, %s reçu", typeErr.Type, typeErr.Value),
		}}
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	var structType reflect.Type
	if model != nil {
		structType = reflect.TypeOf(model)
		if structType.Kind() == reflect.Pointer {
			structType = structType.Elem()
		}
	}

	out := make([]ValidationErrorResponse, 0, len(validationErrors))
	for _, fe := range validationErrors {
		out = append(out, ValidationErrorResponse{
			Field:   jsonFieldName(structType, fe.StructField()),
			Message: messageFor(fe),
		})
	}
	return out
}
