package actions

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// UnsupportedVariantError is returned for an action_type with no registered variant.
type UnsupportedVariantError struct {
	Type string
}

func (e *UnsupportedVariantError) Error() string {
	return fmt.Sprintf("Action '%s' has not been implemented", e.Type)
}

// FieldError locates one invalid field. Loc starts with "body" followed by
// the field name and, for list elements, the element index.
type FieldError struct {
	Loc  []interface{} `json:"loc"`
	Msg  string        `json:"msg"`
	Type string        `json:"type"`
}

// ValidationError carries every field error together with the envelope the
// client submitted, so a form can be redisplayed as entered.
type ValidationError struct {
	Errors []FieldError
	Body   Envelope
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fmt.Sprintf("%v: %s", fe.Loc[1:], fe.Msg))
	}
	return "invalid action: " + strings.Join(parts, "; ")
}

func missingField(name string) FieldError {
	return FieldError{Loc: []interface{}{"body", name}, Msg: "field required", Type: "value_error.missing"}
}

func fromValidationErrors(errs validator.ValidationErrors) []FieldError {
	out := make([]FieldError, 0, len(errs))
	for _, fe := range errs {
		out = append(out, FieldError{
			Loc:  fieldLoc(fe.Field()),
			Msg:  fieldMessage(fe),
			Type: fieldErrorType(fe),
		})
	}
	return out
}

// fieldLoc splits "receiver_emails[1]" into "receiver_emails", 1.
func fieldLoc(field string) []interface{} {
	name, rest, ok := strings.Cut(field, "[")
	if !ok {
		return []interface{}{"body", name}
	}
	if i, err := strconv.Atoi(strings.TrimSuffix(rest, "]")); err == nil {
		return []interface{}{"body", name, i}
	}
	return []interface{}{"body", name}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "email":
		return "value is not a valid email address"
	case "http_url":
		return "invalid or missing URL scheme"
	case "min":
		return fmt.Sprintf("ensure this value has at least %s items", fe.Param())
	case "oneof":
		allowed := strings.Fields(fe.Param())
		for i, a := range allowed {
			allowed[i] = "'" + a + "'"
		}
		return "unexpected value; permitted: " + strings.Join(allowed, ", ")
	}
	return fmt.Sprintf("failed on the '%s' validation", fe.Tag())
}

func fieldErrorType(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "value_error.missing"
	case "oneof":
		return "value_error.const"
	case "http_url":
		return "value_error.url.scheme"
	case "min":
		return "value_error.list.min_items"
	}
	return "value_error." + fe.Tag()
}

// fromDecodeError turns mapstructure's "'field' expected type ..." messages
// into field errors.
func fromDecodeError(err error) []FieldError {
	msgs := []string{err.Error()}
	if merr, ok := err.(*mapstructure.Error); ok {
		msgs = merr.Errors
	}

	out := make([]FieldError, 0, len(msgs))
	for _, msg := range msgs {
		loc := []interface{}{"body"}
		if strings.HasPrefix(msg, "'") {
			if field, _, ok := strings.Cut(msg[1:], "'"); ok && field != "" {
				loc = fieldLoc(field)
			}
		}
		out = append(out, FieldError{Loc: loc, Msg: msg, Type: "type_error"})
	}
	return out
}
