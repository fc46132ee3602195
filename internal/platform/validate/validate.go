// Package validate adapts go-playground/validator to echo. Failures become
// *apierror.ValidationError keyed by JSON field name.
//
// A field can override the message for a tag with the `messages` struct
// tag, e.g. `messages:"uuid=patientId must be a valid UUID"`; multiple
// overrides are separated by ';'.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/virtualclinic/api/internal/platform/apierror"
)

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	// The built-in uuid rule only matches lowercase hex. Ids are accepted in
	// either case, in the hyphenated 36-character form.
	_ = v.RegisterValidation("uuid", isUUID)
	return &Validator{v: v}
}

func isUUID(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// Validate implements echo.Validator.
func (cv *Validator) Validate(i interface{}) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	t := reflect.TypeOf(i)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	out := &apierror.ValidationError{}
	for _, fe := range verrs {
		out.Add(fe.Field(), message(t, fe))
	}
	return out
}

func message(t reflect.Type, fe validator.FieldError) string {
	if t.Kind() == reflect.Struct {
		if sf, ok := t.FieldByName(fe.StructField()); ok {
			if msg, ok := override(sf.Tag.Get("messages"), fe.Tag()); ok {
				return msg
			}
		}
	}

	switch fe.Tag() {
	case "required":
		return "Required"
	case "uuid", "uuid4":
		return "Invalid uuid"
	case "oneof":
		opts := strings.Fields(fe.Param())
		for i, o := range opts {
			opts[i] = "'" + o + "'"
		}
		return fmt.Sprintf("Invalid enum value. Expected %s, received '%v'", strings.Join(opts, " | "), fe.Value())
	case "min":
		return fmt.Sprintf("String must contain at least %s character(s)", fe.Param())
	case "max":
		return fmt.Sprintf("String must contain at most %s character(s)", fe.Param())
	default:
		return fmt.Sprintf("Failed %s validation", fe.Tag())
	}
}

func override(tag, rule string) (string, bool) {
	if tag == "" {
		return "", false
	}
	for _, part := range strings.Split(tag, ";") {
		k, v, ok := strings.Cut(part, "=")
		if ok && strings.TrimSpace(k) == rule {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}
