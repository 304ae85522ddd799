//go:build js && wasm

// Package jsdom binds page.Document to the browser DOM.
package jsdom

import (
	"sync"
	"syscall/js"

	"honnef.co/go/js/dom/v2"

	"github.com/goliatone/go-predictform/pkg/formdata"
	"github.com/goliatone/go-predictform/pkg/page"
)

// Document wraps window.document.
type Document struct {
	doc dom.HTMLDocument
	ui  sync.Mutex

	mu    sync.Mutex
	funcs []js.Func
}

var _ page.Document = (*Document)(nil)

// New returns the live page document.
func New() *Document {
	return &Document{doc: dom.GetWindow().Document().(dom.HTMLDocument)}
}

func (d *Document) ElementByID(id string) (page.Element, bool) {
	el, ok := d.doc.GetElementByID(id).(dom.HTMLElement)
	if !ok || el == nil {
		return nil, false
	}
	return &element{el: el}, true
}

func (d *Document) FormByID(id string) (page.Form, bool) {
	f, ok := d.doc.GetElementByID(id).(*dom.HTMLFormElement)
	if !ok || f == nil {
		return nil, false
	}
	return &form{element: element{el: f}, f: f, doc: d}, true
}

func (d *Document) ReadyState() string {
	return d.doc.ReadyState()
}

func (d *Document) OnReady(fn func()) {
	if fn == nil {
		return
	}
	d.keep(d.doc.AddEventListener("DOMContentLoaded", false, func(dom.Event) { fn() }))
}

// Update runs fn while holding the page lock. Goroutines woken by fetch
// completions take turns here before touching the DOM.
func (d *Document) Update(fn func()) {
	d.ui.Lock()
	defer d.ui.Unlock()
	fn()
}

func (d *Document) BaseURL() string {
	return d.doc.BaseURI()
}

// Release frees every callback registered through this document.
func (d *Document) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, f := range d.funcs {
		f.Release()
	}
	d.funcs = nil
}

func (d *Document) keep(f js.Func) {
	d.mu.Lock()
	d.funcs = append(d.funcs, f)
	d.mu.Unlock()
}

type element struct {
	el dom.HTMLElement
}

func (e *element) ID() string {
	return e.el.ID()
}

func (e *element) TextContent() string {
	return e.el.TextContent()
}

func (e *element) SetTextContent(text string) {
	e.el.SetTextContent(text)
}

func (e *element) Style(property string) string {
	return e.el.Style().GetPropertyValue(property)
}

func (e *element) SetStyle(property, value string) {
	e.el.Style().SetProperty(property, value, "")
}

type form struct {
	element
	f   *dom.HTMLFormElement
	doc *Document
}

// Values snapshots the form through the FormData constructor so the browser
// applies its own control rules. File entries are reported by file name.
func (f *form) Values() formdata.Values {
	var out formdata.Values
	fd := js.Global().Get("FormData").New(f.f.Underlying())
	iter := fd.Call("entries")
	for {
		next := iter.Call("next")
		if next.Get("done").Bool() {
			break
		}
		pair := next.Get("value")
		name := pair.Index(0).String()
		value := pair.Index(1)
		if value.Type() == js.TypeString {
			out.Add(name, value.String())
			continue
		}
		out.Add(name, value.Get("name").String())
	}
	return out
}

func (f *form) OnSubmit(listener func(page.Event)) {
	if listener == nil {
		return
	}
	f.doc.keep(f.f.AddEventListener("submit", false, func(ev dom.Event) {
		listener(ev)
	}))
}
