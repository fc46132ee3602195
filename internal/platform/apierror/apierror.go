// Package apierror renders every failure as a JSON {error} envelope, adding
// field details for validation failures.
package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const msgInternal = "Internal server error"

// Body is the wire shape of an error response.
type Body struct {
	Error   string              `json:"error"`
	Details map[string][]string `json:"details,omitempty"`
}

// ValidationError carries per-field messages keyed by JSON field name.
type ValidationError struct {
	Details map[string][]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Details))
	for f := range e.Details {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fmt.Sprintf("validation failed: %s", strings.Join(fields, ", "))
}

// Add records one message for field.
func (e *ValidationError) Add(field, msg string) {
	if e.Details == nil {
		e.Details = make(map[string][]string)
	}
	e.Details[field] = append(e.Details[field], msg)
}

// Validation returns a ValidationError for a single field.
func Validation(field, msg string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}

// BindError maps a failed c.Bind to a 400, keeping 413s from the body limit.
// echo wraps decode failures in its own 400, so the whole chain is searched.
// A JSON value of the wrong type for a known field becomes a field-level
// validation error.
func BindError(err error) error {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if he, ok := e.(*echo.HTTPError); ok && he.Code == http.StatusRequestEntityTooLarge {
			return he
		}
	}
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) && ute.Field != "" {
		return Validation(ute.Field, fmt.Sprintf("Expected %s, received %s", jsonKind(ute.Type), ute.Value))
	}
	return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON body").SetInternal(err)
}

func jsonKind(t reflect.Type) string {
	if t == nil {
		return "value"
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	default:
		return "object"
	}
}

// Handler is the echo HTTPErrorHandler. Server-side failures are logged
// here, once, with the request id; clients only see a generic message.
func Handler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := render(err)
		if code >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().
				Err(err).
				Str("request_id", rid).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", code).
				Msg("request failed")
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, body)
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("write error response")
		}
	}
}

func render(err error) (int, Body) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, Body{Error: "Validation error", Details: ve.Details}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok || msg == "" {
			msg = http.StatusText(he.Code)
		}
		if he.Code == http.StatusInternalServerError && he.Internal == nil && msg == http.StatusText(he.Code) {
			msg = msgInternal
		}
		return he.Code, Body{Error: msg}
	}

	return http.StatusInternalServerError, Body{Error: msgInternal}
}
