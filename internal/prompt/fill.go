// Package prompt fills the prediction form from a terminal. Each contract
// field is asked in order: enumerations and booleans as a choice list, the
// rest as free text validated against the field type.
package prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-predictform/pkg/contract"
	"github.com/goliatone/go-predictform/pkg/formdata"
)

// SkipOption is the first choice of every select prompt and leaves the
// control blank.
const SkipOption = "(leave blank)"

// SetFunc writes one answer into the form.
type SetFunc func(name, value string) error

// FillForm asks driver for every field of c and passes each answer to set.
// It returns the answers in field order. Invalid answers are reported with
// Info and asked again.
func FillForm(ctx context.Context, driver Driver, c *contract.Contract, set SetFunc) (formdata.Values, error) {
	var answers formdata.Values
	for _, field := range c.Fields {
		value, err := askField(ctx, driver, field)
		if err != nil {
			return answers, err
		}
		if set != nil {
			if err := set(field.Name, value); err != nil {
				return answers, fmt.Errorf("prompt: set %s: %w", field.Name, err)
			}
		}
		answers.Add(field.Name, value)
	}
	return answers, nil
}

func askField(ctx context.Context, driver Driver, field contract.Field) (string, error) {
	if options := choices(field); len(options) > 0 {
		return askChoice(ctx, driver, field, options)
	}

	for {
		input, err := driver.Input(ctx, InputConfig{
			Message: label(field),
			Help:    field.Description,
		})
		if err != nil {
			return "", err
		}
		input = strings.TrimSpace(input)
		if err := field.Check(input); err != nil {
			_ = driver.Info(ctx, fmt.Sprintf("Invalid %v", err))
			continue
		}
		return input, nil
	}
}

func askChoice(ctx context.Context, driver Driver, field contract.Field, options []string) (string, error) {
	list := append([]string{SkipOption}, options...)
	for {
		idx, err := driver.Select(ctx, SelectConfig{
			Message:      label(field),
			Options:      list,
			DefaultIndex: 0,
			Help:         field.Description,
		})
		if err != nil {
			return "", err
		}
		if idx < 0 || idx >= len(list) {
			_ = driver.Info(ctx, fmt.Sprintf("Invalid %s selection", field.Name))
			continue
		}
		if idx == 0 {
			if field.Required {
				_ = driver.Info(ctx, fmt.Sprintf("Invalid %s: required", field.Name))
				continue
			}
			return "", nil
		}
		return list[idx], nil
	}
}

func choices(field contract.Field) []string {
	if field.Type == contract.FieldTypeBoolean {
		return []string{"true", "false"}
	}
	return field.Enum
}

func label(field contract.Field) string {
	if field.Required {
		return field.Label() + " *"
	}
	return field.Label()
}
