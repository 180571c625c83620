// Package dom is a small element tree built on golang.org/x/net/html nodes.
//
// Everything the chat view shows lives in one tree: the transcript, the
// entity panel and any selection widgets. Front ends render it to HTML or
// project it to text; event handlers read and mutate attributes on it.
package dom

import (
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attr is a name/value pair used when building elements.
type Attr struct {
	Key, Val string
}

// A returns an Attr.
func A(key, val string) Attr {
	return Attr{Key: key, Val: val}
}

// El creates an element with attributes and children.
func El(tag string, attrs []Attr, children ...*html.Node) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for _, a := range attrs {
		n.Attr = append(n.Attr, html.Attribute{Key: a.Key, Val: a.Val})
	}
	for _, c := range children {
		if c != nil {
			n.AppendChild(c)
		}
	}
	return n
}

// Text creates a text node. Its content is escaped when rendered.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// GetAttr returns the value of key and whether it is present.
func GetAttr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Attribute returns the value of key or "".
func Attribute(n *html.Node, key string) string {
	v, _ := GetAttr(n, key)
	return v
}

// HasAttr reports whether key is present on n.
func HasAttr(n *html.Node, key string) bool {
	_, ok := GetAttr(n, key)
	return ok
}

// SetAttr sets or replaces key on n.
func SetAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes key from n if present.
func RemoveAttr(n *html.Node, key string) {
	n.Attr = slices.DeleteFunc(n.Attr, func(a html.Attribute) bool {
		return a.Key == key
	})
}

// Classes returns the class list of n.
func Classes(n *html.Node) []string {
	return strings.Fields(Attribute(n, "class"))
}

// HasClass reports whether n carries class c.
func HasClass(n *html.Node, c string) bool {
	return slices.Contains(Classes(n), c)
}

// AddClass adds c to the class list of n.
func AddClass(n *html.Node, c string) {
	cls := Classes(n)
	if slices.Contains(cls, c) {
		return
	}
	SetAttr(n, "class", strings.Join(append(cls, c), " "))
}

// RemoveClass removes c from the class list of n.
func RemoveClass(n *html.Node, c string) {
	cls := Classes(n)
	if !slices.Contains(cls, c) {
		return
	}
	cls = slices.DeleteFunc(cls, func(s string) bool { return s == c })
	if len(cls) == 0 {
		RemoveAttr(n, "class")
		return
	}
	SetAttr(n, "class", strings.Join(cls, " "))
}

// Checked reports whether a checkbox input is checked.
func Checked(n *html.Node) bool {
	return HasAttr(n, "checked")
}

// SetChecked sets or clears the checked attribute.
func SetChecked(n *html.Node, checked bool) {
	if checked {
		SetAttr(n, "checked", "")
	} else {
		RemoveAttr(n, "checked")
	}
}

// Closest walks from n up through its ancestors and returns the first
// element matching pred.
func Closest(n *html.Node, pred func(*html.Node) bool) *html.Node {
	for c := n; c != nil; c = c.Parent {
		if c.Type == html.ElementNode && pred(c) {
			return c
		}
	}
	return nil
}

// FindAll returns every element below root (root included) matching pred,
// in document order.
func FindAll(root *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && pred(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

// Find returns the first match of FindAll or nil.
func Find(root *html.Node, pred func(*html.Node) bool) *html.Node {
	if all := FindAll(root, pred); len(all) > 0 {
		return all[0]
	}
	return nil
}

// ByID matches elements with the given id attribute.
func ByID(id string) func(*html.Node) bool {
	return func(n *html.Node) bool { return Attribute(n, "id") == id }
}

// ByClass matches elements carrying class c.
func ByClass(c string) func(*html.Node) bool {
	return func(n *html.Node) bool { return HasClass(n, c) }
}

// ByAttr matches elements whose attribute key equals val.
func ByAttr(key, val string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		v, ok := GetAttr(n, key)
		return ok && v == val
	}
}

// Detach removes n from its parent, if any.
func Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// Empty removes every child of n.
func Empty(n *html.Node) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
}

// Children returns the direct children of n.
func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// TextContent concatenates all text below n.
func TextContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// Render serializes n to HTML.
func Render(n *html.Node) string {
	var sb strings.Builder
	// Writes to a strings.Builder cannot fail.
	_ = html.Render(&sb, n)
	return sb.String()
}

// InnerHTML serializes the children of n.
func InnerHTML(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(Render(c))
	}
	return sb.String()
}
