// Package contract describes the POST /predict request with an embedded
// OpenAPI document. The document is parsed with kin-openapi so the form
// markup, the terminal prompts and the development server all read the same
// field list, enum sets and response shape.
package contract
