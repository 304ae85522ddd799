// Package htmldoc is an in-memory page.Document built from parsed HTML. It
// backs the terminal client and the tests: forms collect values with the
// browser's FormData rules and Submit dispatches a cancelable submit event.
package htmldoc

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/goliatone/go-predictform/pkg/page"
)

// Option configures a Document at parse time.
type Option func(*Document)

// WithBaseURL sets the URL relative request paths resolve against.
func WithBaseURL(base string) Option {
	return func(d *Document) {
		d.baseURL = strings.TrimSpace(base)
	}
}

// Document is an in-memory page built from parsed HTML. It satisfies
// page.Document and is safe for concurrent use: tree access is guarded
// internally and Update serialises page mutations the way a browser's UI
// thread would.
type Document struct {
	ui   sync.Mutex
	tree sync.RWMutex

	root    *html.Node
	baseURL string
	state   string

	readyMu     sync.Mutex
	onReady     []func()
	submitMu    sync.Mutex
	onSubmit    map[*html.Node][]func(page.Event)
	navigations int
}

var _ page.Document = (*Document)(nil)

// Parse reads an HTML document. The result starts in the loading state;
// call Load to fire readiness listeners.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("htmldoc: parse: %w", err)
	}
	doc := &Document{
		root:     root,
		state:    page.StateLoading,
		onSubmit: make(map[*html.Node][]func(page.Event)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(doc)
		}
	}
	return doc, nil
}

// ParseString is Parse over a string.
func ParseString(markup string, opts ...Option) (*Document, error) {
	return Parse(strings.NewReader(markup), opts...)
}

// Load dispatches the readiness event to every registered listener and
// marks the document complete. Calling it again dispatches again, which is
// how tests exercise listeners that must tolerate repeated readiness events.
func (d *Document) Load() {
	d.readyMu.Lock()
	d.state = page.StateInteractive
	listeners := append([]func(){}, d.onReady...)
	d.readyMu.Unlock()

	for _, fn := range listeners {
		fn()
	}

	d.readyMu.Lock()
	d.state = page.StateComplete
	d.readyMu.Unlock()
}

// ReadyState reports loading, interactive or complete.
func (d *Document) ReadyState() string {
	d.readyMu.Lock()
	defer d.readyMu.Unlock()
	return d.state
}

// OnReady registers fn for the readiness event.
func (d *Document) OnReady(fn func()) {
	if fn == nil {
		return
	}
	d.readyMu.Lock()
	d.onReady = append(d.onReady, fn)
	d.readyMu.Unlock()
}

// Update runs fn with exclusive access to the page.
func (d *Document) Update(fn func()) {
	d.ui.Lock()
	defer d.ui.Unlock()
	fn()
}

// BaseURL returns the configured base URL, empty when unset.
func (d *Document) BaseURL() string {
	return d.baseURL
}

// ElementByID looks up an element by its id attribute.
func (d *Document) ElementByID(id string) (page.Element, bool) {
	n := d.findByID(id)
	if n == nil {
		return nil, false
	}
	return &element{doc: d, node: n}, true
}

// FormByID looks up a form element by its id attribute.
func (d *Document) FormByID(id string) (page.Form, bool) {
	n := d.findByID(id)
	if n == nil || n.DataAtom != atom.Form {
		return nil, false
	}
	return &form{element: element{doc: d, node: n}}, true
}

// Submit dispatches a submit event on the form with the given id. When no
// listener prevents the default action the document records a navigation,
// which is what a browser would do next.
func (d *Document) Submit(formID string) (prevented bool, err error) {
	n := d.findByID(formID)
	if n == nil || n.DataAtom != atom.Form {
		return false, fmt.Errorf("%w: form #%s", page.ErrMissingElement, formID)
	}

	d.submitMu.Lock()
	listeners := append([]func(page.Event){}, d.onSubmit[n]...)
	d.submitMu.Unlock()

	ev := &event{}
	for _, fn := range listeners {
		fn(ev)
	}
	if !ev.DefaultPrevented() {
		d.submitMu.Lock()
		d.navigations++
		d.submitMu.Unlock()
	}
	return ev.DefaultPrevented(), nil
}

// Navigations counts submits whose default action was not prevented.
func (d *Document) Navigations() int {
	d.submitMu.Lock()
	defer d.submitMu.Unlock()
	return d.navigations
}

// SubmitListeners reports how many submit listeners the form carries.
func (d *Document) SubmitListeners(formID string) int {
	n := d.findByID(formID)
	if n == nil {
		return 0
	}
	d.submitMu.Lock()
	defer d.submitMu.Unlock()
	return len(d.onSubmit[n])
}

// SetValue edits the control named name inside the form with the given id.
func (d *Document) SetValue(formID, name, value string) error {
	n := d.findByID(formID)
	if n == nil || n.DataAtom != atom.Form {
		return fmt.Errorf("%w: form #%s", page.ErrMissingElement, formID)
	}
	d.tree.Lock()
	defer d.tree.Unlock()
	if !setControlValue(n, name, value) {
		return fmt.Errorf("%w: control %q in #%s", page.ErrMissingElement, name, formID)
	}
	return nil
}

// Render writes the current tree as HTML.
func (d *Document) Render(w io.Writer) error {
	d.tree.RLock()
	defer d.tree.RUnlock()
	return html.Render(w, d.root)
}

// String renders the document, returning an empty string on failure.
func (d *Document) String() string {
	var b strings.Builder
	if err := d.Render(&b); err != nil {
		return ""
	}
	return b.String()
}

func (d *Document) findByID(id string) *html.Node {
	if id == "" {
		return nil
	}
	d.tree.RLock()
	defer d.tree.RUnlock()
	return find(d.root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && attr(n, "id") == id
	})
}

func (d *Document) addSubmitListener(n *html.Node, fn func(page.Event)) {
	d.submitMu.Lock()
	d.onSubmit[n] = append(d.onSubmit[n], fn)
	d.submitMu.Unlock()
}

type event struct {
	mu        sync.Mutex
	prevented bool
}

func (e *event) PreventDefault() {
	e.mu.Lock()
	e.prevented = true
	e.mu.Unlock()
}

func (e *event) DefaultPrevented() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.prevented
}
