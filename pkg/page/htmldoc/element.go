package htmldoc

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/goliatone/go-predictform/pkg/formdata"
	"github.com/goliatone/go-predictform/pkg/page"
)

type element struct {
	doc  *Document
	node *html.Node
}

var _ page.Element = (*element)(nil)

func (e *element) ID() string {
	e.doc.tree.RLock()
	defer e.doc.tree.RUnlock()
	return attr(e.node, "id")
}

func (e *element) TextContent() string {
	e.doc.tree.RLock()
	defer e.doc.tree.RUnlock()
	return textContent(e.node)
}

// SetTextContent replaces the children with a single text node, or with
// nothing when text is empty.
func (e *element) SetTextContent(text string) {
	e.doc.tree.Lock()
	defer e.doc.tree.Unlock()
	replaceText(e.node, text)
}

func (e *element) Style(property string) string {
	e.doc.tree.RLock()
	defer e.doc.tree.RUnlock()
	value, _ := parseStyle(attr(e.node, "style")).get(property)
	return value
}

func (e *element) SetStyle(property, value string) {
	e.doc.tree.Lock()
	defer e.doc.tree.Unlock()
	decls := parseStyle(attr(e.node, "style"))
	decls.set(property, value)
	setAttr(e.node, "style", decls.String())
}

type form struct {
	element
}

var _ page.Form = (*form)(nil)

func (f *form) Values() formdata.Values {
	f.doc.tree.RLock()
	defer f.doc.tree.RUnlock()
	return collectValues(f.node)
}

func (f *form) OnSubmit(listener func(page.Event)) {
	if listener == nil {
		return
	}
	f.doc.addSubmitListener(f.node, listener)
}

// collectValues follows FormData construction: named, enabled controls in
// document order; unchecked checkboxes and radios, buttons and file inputs
// are skipped. Controls inside a disabled fieldset count as disabled unless
// they sit in its first legend.
func collectValues(formNode *html.Node) formdata.Values {
	var out formdata.Values
	walk(formNode, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n == formNode {
			return true
		}
		name := attr(n, "name")
		if name == "" || controlDisabled(n) {
			return n.DataAtom != atom.Select && n.DataAtom != atom.Textarea
		}
		switch n.DataAtom {
		case atom.Input:
			switch inputType(n) {
			case "submit", "button", "reset", "image", "file":
			case "checkbox", "radio":
				if hasAttr(n, "checked") {
					out.Add(name, valueOr(n, "on"))
				}
			default:
				out.Add(name, attr(n, "value"))
			}
		case atom.Select:
			for _, value := range selectedOptions(n) {
				out.Add(name, value)
			}
			return false
		case atom.Textarea:
			out.Add(name, textContent(n))
			return false
		}
		return true
	})
	return out
}

func controlDisabled(n *html.Node) bool {
	if hasAttr(n, "disabled") {
		return true
	}
	child := n
	for p := n.Parent; p != nil; child, p = p, p.Parent {
		if p.Type != html.ElementNode || p.DataAtom != atom.Fieldset || !hasAttr(p, "disabled") {
			continue
		}
		if child != firstLegend(p) {
			return true
		}
	}
	return false
}

func firstLegend(fieldset *html.Node) *html.Node {
	for c := fieldset.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Legend {
			return c
		}
	}
	return nil
}

// selectedOptions reports the submitted options of sel. A single select
// keeps only its last selected option, or falls back to the first enabled
// one. Disabled options are never submitted.
func selectedOptions(sel *html.Node) []string {
	var options []*html.Node
	walk(sel, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Option {
			options = append(options, n)
			return false
		}
		return true
	})

	if hasAttr(sel, "multiple") {
		var out []string
		for _, opt := range options {
			if hasAttr(opt, "selected") && !optionDisabled(opt) {
				out = append(out, optionValue(opt))
			}
		}
		return out
	}

	var chosen *html.Node
	for _, opt := range options {
		if hasAttr(opt, "selected") {
			chosen = opt
		}
	}
	if chosen == nil {
		for _, opt := range options {
			if !optionDisabled(opt) {
				chosen = opt
				break
			}
		}
	}
	if chosen == nil || optionDisabled(chosen) {
		return nil
	}
	return []string{optionValue(chosen)}
}

func optionDisabled(opt *html.Node) bool {
	if hasAttr(opt, "disabled") {
		return true
	}
	p := opt.Parent
	return p != nil && p.Type == html.ElementNode && p.DataAtom == atom.Optgroup && hasAttr(p, "disabled")
}

func optionValue(opt *html.Node) string {
	if v, ok := lookupAttr(opt, "value"); ok {
		return v
	}
	return strings.TrimSpace(textContent(opt))
}

func setControlValue(formNode *html.Node, name, value string) bool {
	matched := false
	walk(formNode, func(n *html.Node) bool {
		if n.Type != html.ElementNode || attr(n, "name") != name {
			return true
		}
		switch n.DataAtom {
		case atom.Input:
			switch inputType(n) {
			case "checkbox", "radio":
				if valueOr(n, "on") == value {
					setAttr(n, "checked", "")
				} else {
					removeAttr(n, "checked")
				}
			default:
				setAttr(n, "value", value)
			}
			matched = true
		case atom.Select:
			walk(n, func(opt *html.Node) bool {
				if opt.Type == html.ElementNode && opt.DataAtom == atom.Option {
					if optionValue(opt) == value {
						setAttr(opt, "selected", "")
					} else {
						removeAttr(opt, "selected")
					}
					return false
				}
				return true
			})
			matched = true
			return false
		case atom.Textarea:
			replaceText(n, value)
			matched = true
			return false
		}
		return true
	})
	return matched
}

func inputType(n *html.Node) string {
	t := strings.ToLower(strings.TrimSpace(attr(n, "type")))
	if t == "" {
		return "text"
	}
	return t
}

func valueOr(n *html.Node, fallback string) string {
	if v, ok := lookupAttr(n, "value"); ok {
		return v
	}
	return fallback
}
