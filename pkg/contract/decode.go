package contract

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goliatone/go-predictform/pkg/formdata"
)

// ErrInvalidField is wrapped by FieldErrors.
var ErrInvalidField = errors.New("contract: invalid field")

// Features holds decoded request values keyed by field name. Fields left
// blank in the form are absent.
type Features map[string]any

// FieldError describes one field that failed to decode. The shape follows
// the detail entries of a 422 response.
type FieldError struct {
	Field   string   `json:"-"`
	Loc     []string `json:"loc"`
	Message string   `json:"msg"`
	Type    string   `json:"type"`
}

// FieldErrors aggregates every field that failed to decode.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "contract: invalid fields: " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is match ErrInvalidField.
func (e FieldErrors) Unwrap() error {
	return ErrInvalidField
}

// DecodeOption tunes Decode.
type DecodeOption func(*decodeOptions)

type decodeOptions struct {
	strictEnums bool
}

// StrictEnums rejects values outside a field's enumeration. By default the
// enumeration only drives the choices offered to the user and any string is
// accepted.
func StrictEnums() DecodeOption {
	return func(o *decodeOptions) {
		o.strictEnums = true
	}
}

// Decode converts submitted form values into typed features. Values are
// trimmed and blank ones dropped; numbers and booleans are checked against
// the contract. Names the contract does not describe are ignored.
func (c *Contract) Decode(values formdata.Values, opts ...DecodeOption) (Features, error) {
	var o decodeOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	out := make(Features, len(c.Fields))
	var errs FieldErrors

	for _, field := range c.Fields {
		raw, _ := values.Get(field.Name)
		raw = strings.TrimSpace(raw)
		if raw == "" {
			if field.Required {
				errs = append(errs, fieldError(field, "Field required", "missing"))
			}
			continue
		}

		value, problem := decodeValue(field, raw, o.strictEnums)
		if problem != "" {
			errs = append(errs, fieldError(field, problem, errorType(field)))
			continue
		}
		out[field.Name] = value
	}

	if len(errs) > 0 {
		return out, errs
	}
	return out, nil
}

// Check validates one raw value the way a default Decode would.
func (f Field) Check(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if f.Required {
			return fmt.Errorf("%s: Field required", f.Name)
		}
		return nil
	}
	if _, problem := decodeValue(f, raw, false); problem != "" {
		return fmt.Errorf("%s: %s", f.Name, problem)
	}
	return nil
}

// decodeValue parses raw for field, returning a message when it does not fit.
func decodeValue(field Field, raw string, strictEnums bool) (any, string) {
	switch field.Type {
	case FieldTypeInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Sprintf("Input should be a valid integer, got %q", raw)
		}
		return n, ""
	case FieldTypeNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Sprintf("Input should be a valid number, got %q", raw)
		}
		return f, ""
	case FieldTypeBoolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Sprintf("Input should be a valid boolean, got %q", raw)
		}
		return b, ""
	}

	if strictEnums && len(field.Enum) > 0 {
		for _, option := range field.Enum {
			if option == raw {
				return raw, ""
			}
		}
		return nil, "Input should be " + quoteOptions(field.Enum)
	}
	return raw, ""
}

func fieldError(field Field, msg, typ string) FieldError {
	return FieldError{
		Field:   field.Name,
		Loc:     []string{"body", field.Name},
		Message: msg,
		Type:    typ,
	}
}

func errorType(field Field) string {
	switch field.Type {
	case FieldTypeInteger:
		return "int_parsing"
	case FieldTypeNumber:
		return "float_parsing"
	case FieldTypeBoolean:
		return "bool_parsing"
	}
	if len(field.Enum) > 0 {
		return "enum"
	}
	return "value_error"
}

func quoteOptions(options []string) string {
	quoted := make([]string, len(options))
	for i, o := range options {
		quoted[i] = "'" + o + "'"
	}
	if len(quoted) == 1 {
		return quoted[0]
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + " or " + quoted[len(quoted)-1]
}
