package chatbot

import (
	"fmt"
	"strings"

	"SchedChat/internal/dom"
	"SchedChat/internal/render"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var blockElements = map[atom.Atom]bool{
	atom.Div:   true,
	atom.P:     true,
	atom.Label: true,
	atom.H3:    true,
	atom.H4:    true,
}

// lines accumulates terminal output one line at a time.
type lines struct {
	out []string
	cur strings.Builder
}

func (l *lines) write(s string) {
	parts := strings.Split(s, "\n")
	for i, p := range parts {
		if i > 0 {
			l.flush()
		}
		l.cur.WriteString(p)
	}
}

// word writes s separated from what precedes it on the line.
func (l *lines) word(s string) {
	if cur := l.cur.String(); cur != "" && !strings.HasSuffix(cur, " ") {
		l.cur.WriteByte(' ')
	}
	l.cur.WriteString(s)
}

func (l *lines) flush() {
	if line := strings.TrimRight(l.cur.String(), " "); line != "" {
		l.out = append(l.out, line)
	}
	l.cur.Reset()
}

// nodeText projects a rendered node onto plain text lines. Checkboxes show
// as [x] or [ ], buttons as [label].
func nodeText(n *html.Node) string {
	var l lines
	writeNode(&l, n)
	l.flush()
	return strings.Join(l.out, "\n")
}

func writeNode(l *lines, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		l.write(n.Data)
		return
	case html.ElementNode:
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeNode(l, c)
		}
		return
	}

	switch n.DataAtom {
	case atom.Input:
		if dom.Attribute(n, "type") == "checkbox" {
			if dom.Checked(n) {
				l.write("[x]")
			} else {
				l.write("[ ]")
			}
		}
		return
	case atom.Button:
		l.word("[" + strings.TrimSpace(dom.TextContent(n)) + "]")
		return
	}

	block := blockElements[n.DataAtom]
	if block {
		l.flush()
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeNode(l, c)
	}
	if block {
		l.flush()
	}
}

// panelText summarizes the entity panel as "LABEL: value, value" lines.
func panelText(panel *html.Node) string {
	var out []string
	for _, group := range dom.FindAll(panel, dom.ByClass(render.ClassEntityGroup)) {
		var values []string
		if tags := dom.Find(group, dom.ByClass(render.ClassEntityValues)); tags != nil {
			for _, tag := range dom.Children(tags) {
				values = append(values, strings.TrimSpace(dom.TextContent(tag)))
			}
		}
		out = append(out, fmt.Sprintf("  %s: %s", dom.Attribute(group, "data-entity"), strings.Join(values, ", ")))
	}
	if done := dom.Find(panel, dom.ByClass(render.ClassComplete)); done != nil {
		out = append(out, "  "+dom.TextContent(done))
	}
	return strings.Join(out, "\n")
}

// indent prefixes every line after the first so multi-line turns line up
// under their speaker label.
func indent(s, prefix string) string {
	return strings.ReplaceAll(s, "\n", "\n"+prefix)
}
