// Package formdata models an ordered form payload and its multipart wire form.
package formdata

import (
	"net/url"
	"strings"
)

// Field is a single name/value pair captured from a form control.
type Field struct {
	Name  string
	Value string
}

// Values is an ordered multi-map of form fields. Order follows the document
// order of the controls the values were read from, and repeated names are
// kept as separate entries.
type Values struct {
	fields []Field
}

// New returns Values seeded with the provided fields.
func New(fields ...Field) Values {
	var v Values
	for _, f := range fields {
		v.Add(f.Name, f.Value)
	}
	return v
}

// Add appends a field. Empty names are ignored.
func (v *Values) Add(name, value string) {
	if name == "" {
		return
	}
	v.fields = append(v.fields, Field{Name: name, Value: value})
}

// Set replaces every field named name with a single entry holding value. The
// entry keeps the position of the first existing occurrence.
func (v *Values) Set(name, value string) {
	if name == "" {
		return
	}
	out := v.fields[:0:0]
	placed := false
	for _, f := range v.fields {
		if f.Name != name {
			out = append(out, f)
			continue
		}
		if !placed {
			out = append(out, Field{Name: name, Value: value})
			placed = true
		}
	}
	if !placed {
		out = append(out, Field{Name: name, Value: value})
	}
	v.fields = out
}

// Get returns the first value recorded for name.
func (v Values) Get(name string) (string, bool) {
	for _, f := range v.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// All returns a copy of the ordered fields.
func (v Values) All() []Field {
	if len(v.fields) == 0 {
		return nil
	}
	return append([]Field(nil), v.fields...)
}

// Len reports the number of recorded fields.
func (v Values) Len() int {
	return len(v.fields)
}

// Clone returns an independent copy.
func (v Values) Clone() Values {
	return Values{fields: v.All()}
}

// String renders the fields as an urlencoded query, mostly for logs.
func (v Values) String() string {
	parts := make([]string, 0, len(v.fields))
	for _, f := range v.fields {
		parts = append(parts, url.QueryEscape(f.Name)+"="+url.QueryEscape(f.Value))
	}
	return strings.Join(parts, "&")
}
