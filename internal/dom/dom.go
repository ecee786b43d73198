// Package dom keeps an HTML document in memory and lets callers mutate it
// the way page scripts do: look elements up by id, rewrite text, toggle
// attributes and attach click handlers.
//
// A Document is not safe for concurrent use; callers serialize access.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type Document struct {
	root     *html.Node
	handlers map[*html.Node]func()
}

// Element wraps one element node. Methods on a nil *Element are no-ops so
// renderers can write to optional targets without checks.
type Element struct {
	doc  *Document
	node *html.Node
}

func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &Document{root: root, handlers: map[*html.Node]func(){}}, nil
}

func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

func (d *Document) wrap(n *html.Node) *Element {
	if n == nil {
		return nil
	}
	return &Element{doc: d, node: n}
}

// Create returns a detached element. attrs are key, value pairs.
func (d *Document) Create(tag string, attrs ...string) *Element {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return d.wrap(n)
}

func (d *Document) ByID(id string) *Element {
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && attr(n, "id") == id {
			found = n
			return false
		}
		return true
	})
	return d.wrap(found)
}

// All returns matching elements in document order.
func (d *Document) All(match func(*Element) bool) []*Element {
	return d.wrap(d.root).Find(match)
}

// OnClick binds fn to el, replacing any earlier handler.
func (d *Document) OnClick(el *Element, fn func()) {
	if el == nil {
		return
	}
	d.handlers[el.node] = fn
}

// Click runs the handler bound to the element with the given id. Like a
// browser, it ignores clicks on disabled elements. It reports whether a
// handler ran.
func (d *Document) Click(id string) bool {
	el := d.ByID(id)
	if el == nil || el.Disabled() {
		return false
	}
	fn := d.handlers[el.node]
	if fn == nil {
		return false
	}
	fn()
	return true
}

func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

func (d *Document) String() string {
	var buf bytes.Buffer
	_ = d.Render(&buf)
	return buf.String()
}

// RenderElement writes the outer HTML of the element with the given id.
func (d *Document) RenderElement(w io.Writer, id string) error {
	el := d.ByID(id)
	if el == nil {
		return fmt.Errorf("no element with id %q", id)
	}
	return html.Render(w, el.node)
}

func (e *Element) ID() string {
	if e == nil {
		return ""
	}
	return attr(e.node, "id")
}

func (e *Element) Tag() string {
	if e == nil {
		return ""
	}
	return e.node.Data
}

func (e *Element) Attr(key string) (string, bool) {
	if e == nil {
		return "", false
	}
	for _, a := range e.node.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func (e *Element) HasAttr(key string) bool {
	_, ok := e.Attr(key)
	return ok
}

func (e *Element) SetAttr(key, val string) {
	if e == nil {
		return
	}
	for i := range e.node.Attr {
		if e.node.Attr[i].Key == key {
			e.node.Attr[i].Val = val
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: key, Val: val})
}

func (e *Element) RemoveAttr(key string) {
	if e == nil {
		return
	}
	out := e.node.Attr[:0]
	for _, a := range e.node.Attr {
		if a.Key != key {
			out = append(out, a)
		}
	}
	e.node.Attr = out
}

func (e *Element) Disabled() bool { return e.HasAttr("disabled") }

func (e *Element) SetDisabled(disabled bool) {
	if disabled {
		e.SetAttr("disabled", "")
		return
	}
	e.RemoveAttr("disabled")
}

func (e *Element) HasClass(class string) bool {
	v, _ := e.Attr("class")
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// Text returns the concatenated text content of the element.
func (e *Element) Text() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	walk(e.node, func(n *html.Node) bool {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		return true
	})
	return b.String()
}

// SetText replaces all children with a single text node.
func (e *Element) SetText(s string) {
	if e == nil {
		return
	}
	e.Clear()
	e.AppendText(s)
}

func (e *Element) AppendText(s string) {
	if e == nil {
		return
	}
	e.node.AppendChild(&html.Node{Type: html.TextNode, Data: s})
}

func (e *Element) Append(children ...*Element) {
	if e == nil {
		return
	}
	for _, c := range children {
		if c == nil {
			continue
		}
		if c.node.Parent != nil {
			c.node.Parent.RemoveChild(c.node)
		}
		e.node.AppendChild(c.node)
	}
}

// Prepend inserts child as the first child.
func (e *Element) Prepend(child *Element) {
	if e == nil || child == nil {
		return
	}
	if child.node.Parent != nil {
		child.node.Parent.RemoveChild(child.node)
	}
	e.node.InsertBefore(child.node, e.node.FirstChild)
}

// Clear detaches every child and drops click handlers bound inside them.
func (e *Element) Clear() {
	if e == nil {
		return
	}
	for c := e.node.FirstChild; c != nil; {
		next := c.NextSibling
		e.doc.forget(c)
		e.node.RemoveChild(c)
		c = next
	}
}

// RemoveLast detaches the last element child.
func (e *Element) RemoveLast() {
	if e == nil {
		return
	}
	for c := e.node.LastChild; c != nil; c = c.PrevSibling {
		if c.Type == html.ElementNode {
			e.doc.forget(c)
			e.node.RemoveChild(c)
			return
		}
	}
}

// Children returns the element children.
func (e *Element) Children() []*Element {
	if e == nil {
		return nil
	}
	var out []*Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, e.doc.wrap(c))
		}
	}
	return out
}

// Find returns matching descendants in document order.
func (e *Element) Find(match func(*Element) bool) []*Element {
	if e == nil {
		return nil
	}
	var out []*Element
	walk(e.node, func(n *html.Node) bool {
		if n != e.node && n.Type == html.ElementNode {
			if el := e.doc.wrap(n); match(el) {
				out = append(out, el)
			}
		}
		return true
	})
	return out
}

func (e *Element) FirstByClass(class string) *Element {
	found := e.Find(func(c *Element) bool { return c.HasClass(class) })
	if len(found) == 0 {
		return nil
	}
	return found[0]
}

func (e *Element) Style(prop string) string {
	v, _ := e.Attr("style")
	for _, kv := range parseStyle(v) {
		if kv[0] == prop {
			return kv[1]
		}
	}
	return ""
}

// SetStyle sets one inline style property, keeping the others. An empty
// value removes the property.
func (e *Element) SetStyle(prop, val string) {
	if e == nil {
		return
	}
	cur, _ := e.Attr("style")
	decls := parseStyle(cur)
	replaced := false
	out := decls[:0]
	for _, kv := range decls {
		if kv[0] == prop {
			if val != "" && !replaced {
				out = append(out, [2]string{prop, val})
			}
			replaced = true
			continue
		}
		out = append(out, kv)
	}
	if !replaced && val != "" {
		out = append(out, [2]string{prop, val})
	}
	if len(out) == 0 {
		e.RemoveAttr("style")
		return
	}
	parts := make([]string, len(out))
	for i, kv := range out {
		parts[i] = kv[0] + ": " + kv[1]
	}
	e.SetAttr("style", strings.Join(parts, "; "))
}

func (d *Document) forget(n *html.Node) {
	walk(n, func(c *html.Node) bool {
		delete(d.handlers, c)
		return true
	})
}

func parseStyle(s string) [][2]string {
	var out [][2]string
	for _, decl := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k == "" {
			continue
		}
		out = append(out, [2]string{k, v})
	}
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// walk visits n and its descendants depth first until fn returns false.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}
