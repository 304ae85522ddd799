package htmldoc

import (
	"strings"

	"golang.org/x/net/html"
)

// walk visits n and its descendants in document order. Returning false from
// fn skips the children of the visited node.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// find returns the first node in document order matching pred.
func find(n *html.Node, pred func(*html.Node) bool) *html.Node {
	if n == nil {
		return nil
	}
	if pred(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, pred); found != nil {
			return found
		}
	}
	return nil
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func attr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func hasAttr(n *html.Node, key string) bool {
	_, ok := lookupAttr(n, key)
	return ok
}

func setAttr(n *html.Node, key, value string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		out = append(out, a)
	}
	n.Attr = out
}

func textContent(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

func replaceText(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	if text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

// declarations is a parsed inline style attribute. Property order is kept
// so rewriting the attribute does not reshuffle author styles.
type declarations struct {
	names  []string
	values map[string]string
}

func parseStyle(raw string) *declarations {
	d := &declarations{values: make(map[string]string)}
	for _, decl := range strings.Split(raw, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		d.set(name, strings.TrimSpace(value))
	}
	return d
}

func (d *declarations) get(name string) (string, bool) {
	v, ok := d.values[strings.ToLower(strings.TrimSpace(name))]
	return v, ok
}

func (d *declarations) set(name, value string) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return
	}
	if value == "" {
		if _, ok := d.values[name]; ok {
			delete(d.values, name)
			out := d.names[:0]
			for _, n := range d.names {
				if n != name {
					out = append(out, n)
				}
			}
			d.names = out
		}
		return
	}
	if _, ok := d.values[name]; !ok {
		d.names = append(d.names, name)
	}
	d.values[name] = value
}

func (d *declarations) String() string {
	parts := make([]string, 0, len(d.names))
	for _, name := range d.names {
		parts = append(parts, name+": "+d.values[name]+";")
	}
	return strings.Join(parts, " ")
}
