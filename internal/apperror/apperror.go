// Package apperror turns request binding failures into field-level
// messages for API responses.
package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	errRequired   = errors.New("is required")
	errWrongType  = errors.New("has the wrong type")
	errInvalidDay = errors.New("must be a date in YYYY-MM-DD format")
)

// ErrMalformedBody is reported under the "body" key when the request is not
// valid JSON, including a truncated or empty body.
var ErrMalformedBody = errors.New("must be a valid JSON object")

// UseJSONFieldNames makes v report fields by their json tag, so messages
// name the keys clients actually send.
func UseJSONFieldNames(v *validator.Validate) {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
}

// FieldErrors converts validator and JSON decoding errors into a map of
// field name to message. It returns nil for any other error.
func FieldErrors(err error) map[string]string {
	var (
		validationErr validator.ValidationErrors
		typeErr       *json.UnmarshalTypeError
		syntaxErr     *json.SyntaxError
	)

	switch {
	case errors.As(err, &validationErr):
		out := make(map[string]string, len(validationErr))
		for _, e := range validationErr {
			out[e.Field()] = message(e)
		}
		return out
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return map[string]string{field: errWrongType.Error()}
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF),
		errors.Is(err, ErrMalformedBody):
		return map[string]string{"body": ErrMalformedBody.Error()}
	}
	return nil
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return errRequired.Error()
	case "gte":
		if e.Param() == "0" {
			return "must not be negative"
		}
		return fmt.Sprintf("must be at least %s", e.Param())
	case "gt":
		if e.Param() == "0" {
			return "must be a positive number"
		}
		return fmt.Sprintf("must be greater than %s", e.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", e.Param())
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(e.Param(), " ", ", ")
	case "datetime":
		return errInvalidDay.Error()
	case "max":
		return fmt.Sprintf("must be at most %s characters long", e.Param())
	}
	return fmt.Sprintf("%s is invalid", e.Field())
}
