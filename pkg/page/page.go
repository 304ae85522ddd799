// Package page defines the slice of the DOM the prediction form relies on:
// three elements looked up by ID, a submit event, and the document readiness
// signal. Implementations live in page/htmldoc (in-memory, parsed HTML) and
// page/jsdom (the browser, wasm builds only).
package page

import (
	"errors"

	"github.com/goliatone/go-predictform/pkg/formdata"
)

// Element IDs the page markup must provide.
const (
	FormID   = "predict-form"
	ResultID = "result"
	PriceID  = "price"
)

// ReadyState values mirror document.readyState.
const (
	StateLoading     = "loading"
	StateInteractive = "interactive"
	StateComplete    = "complete"
)

// ErrMissingElement reports that a required element is not in the document.
var ErrMissingElement = errors.New("page: element not found")

// Element is a node addressable by ID.
type Element interface {
	ID() string
	TextContent() string
	SetTextContent(text string)
	Style(property string) string
	SetStyle(property, value string)
}

// Event is the subset of a DOM event a submit listener needs.
type Event interface {
	PreventDefault()
	DefaultPrevented() bool
}

// Form is a form element whose controls can be snapshotted.
type Form interface {
	Element
	// Values returns the current name/value pairs of the form's controls in
	// document order. Every call returns a fresh copy.
	Values() formdata.Values
	// OnSubmit registers a listener for the submit event.
	OnSubmit(listener func(Event))
}

// Document is the page hosting the form.
type Document interface {
	ElementByID(id string) (Element, bool)
	FormByID(id string) (Form, bool)
	ReadyState() string
	// OnReady registers fn for the readiness event (DOMContentLoaded).
	OnReady(fn func())
	// Update runs fn with exclusive access to the page. Mutations from
	// background work must go through Update.
	Update(fn func())
	// BaseURL is the URL relative request paths resolve against.
	BaseURL() string
}

// Ready runs fn once the document's structure has loaded: immediately when
// the document is already past loading, otherwise on the readiness event.
func Ready(doc Document, fn func()) {
	if doc.ReadyState() != StateLoading {
		fn()
		return
	}
	doc.OnReady(fn)
}
