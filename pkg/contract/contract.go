package contract

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed predict.yaml
var defaultDocument []byte

const (
	// OperationPath is the endpoint the contract describes.
	OperationPath = "/predict"

	fieldOrderExtension = "x-field-order"
)

// Request media types, in preference order.
var requestMediaTypes = []string{
	"multipart/form-data",
	"application/x-www-form-urlencoded",
}

// FieldType is the JSON Schema primitive a form field decodes to.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeInteger FieldType = "integer"
	FieldTypeNumber  FieldType = "number"
	FieldTypeBoolean FieldType = "boolean"
)

// Field describes one form control of the prediction request.
type Field struct {
	Name        string
	Title       string
	Description string
	Type        FieldType
	Enum        []string
	Required    bool
}

// Label returns the title, falling back to the field name.
func (f Field) Label() string {
	if f.Title != "" {
		return f.Title
	}
	return f.Name
}

// Contract is the parsed description of POST /predict.
type Contract struct {
	OperationID   string
	Summary       string
	Path          string
	MediaType     string
	Fields        []Field
	ResponseField string
}

// Field looks up a field by name.
func (c *Contract) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Names returns the field names in declaration order.
func (c *Contract) Names() []string {
	out := make([]string, 0, len(c.Fields))
	for _, f := range c.Fields {
		out = append(out, f.Name)
	}
	return out
}

var (
	defaultOnce     sync.Once
	defaultContract *Contract
	defaultErr      error
)

// Default returns the contract embedded in the binary.
func Default() (*Contract, error) {
	defaultOnce.Do(func() {
		defaultContract, defaultErr = Load(context.Background(), defaultDocument)
	})
	return defaultContract, defaultErr
}

// Document returns a copy of the embedded OpenAPI document.
func Document() []byte {
	return append([]byte(nil), defaultDocument...)
}

// Load parses an OpenAPI document and extracts the POST /predict operation.
func Load(ctx context.Context, raw []byte) (*Contract, error) {
	if len(raw) == 0 {
		return nil, errors.New("contract: document is empty")
	}
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("contract: load document: %w", err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("contract: validate: %w", err)
	}
	if doc.Paths == nil {
		return nil, errors.New("contract: document does not contain any paths")
	}
	item := doc.Paths.Find(OperationPath)
	if item == nil || item.Post == nil {
		return nil, fmt.Errorf("contract: POST %s not described", OperationPath)
	}
	op := item.Post

	mediaType, schema, err := requestSchema(op)
	if err != nil {
		return nil, err
	}

	c := &Contract{
		OperationID:   op.OperationID,
		Summary:       op.Summary,
		Path:          OperationPath,
		MediaType:     mediaType,
		Fields:        convertFields(schema),
		ResponseField: responseField(op),
	}
	if len(c.Fields) == 0 {
		return nil, errors.New("contract: request schema has no properties")
	}
	return c, nil
}

func requestSchema(op *openapi3.Operation) (string, *openapi3.Schema, error) {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return "", nil, errors.New("contract: operation has no request body")
	}
	content := op.RequestBody.Value.Content
	for _, mt := range requestMediaTypes {
		media, ok := content[mt]
		if !ok || media.Schema == nil || media.Schema.Value == nil {
			continue
		}
		return mt, media.Schema.Value, nil
	}
	return "", nil, errors.New("contract: request body is not form encoded")
}

func convertFields(schema *openapi3.Schema) []Field {
	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	fields := make([]Field, 0, len(schema.Properties))
	for _, name := range fieldOrder(schema) {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		prop := ref.Value
		field := Field{
			Name:        name,
			Title:       strings.TrimSpace(prop.Title),
			Description: strings.TrimSpace(prop.Description),
			Type:        schemaType(prop.Type),
			Required:    required[name],
		}
		for _, v := range prop.Enum {
			field.Enum = append(field.Enum, fmt.Sprint(v))
		}
		fields = append(fields, field)
	}
	return fields
}

// fieldOrder honours the x-field-order extension; properties it does not
// list follow in name order.
func fieldOrder(schema *openapi3.Schema) []string {
	var ordered []string
	seen := make(map[string]bool, len(schema.Properties))
	if list, ok := schema.Extensions[fieldOrderExtension].([]any); ok {
		for _, item := range list {
			name, ok := item.(string)
			if !ok || seen[name] {
				continue
			}
			if _, exists := schema.Properties[name]; !exists {
				continue
			}
			seen[name] = true
			ordered = append(ordered, name)
		}
	}

	var rest []string
	for name := range schema.Properties {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(ordered, rest...)
}

func schemaType(types *openapi3.Types) FieldType {
	if types == nil {
		return FieldTypeString
	}
	for _, t := range types.Slice() {
		switch FieldType(t) {
		case FieldTypeInteger, FieldTypeNumber, FieldTypeBoolean, FieldTypeString:
			return FieldType(t)
		}
	}
	return FieldTypeString
}

func responseField(op *openapi3.Operation) string {
	if op.Responses == nil {
		return ""
	}
	ref := op.Responses.Status(200)
	if ref == nil || ref.Value == nil {
		return ""
	}
	media, ok := ref.Value.Content["application/json"]
	if !ok || media.Schema == nil || media.Schema.Value == nil {
		return ""
	}
	if len(media.Schema.Value.Required) > 0 {
		return media.Schema.Value.Required[0]
	}
	return ""
}
