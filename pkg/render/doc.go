// Package render produces the prediction page. The page carries the form,
// result container and price element the submit handler binds to, with one
// control per field of the request contract.
//
// Templates are rendered with pongo2. An embedded default is used unless a
// template directory overrides it. Field descriptions pass through a
// bluemonday policy that only keeps inline formatting.
package render
