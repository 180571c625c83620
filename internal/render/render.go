// Package render appends chat turns to the document and maintains the
// entity panel.
package render

import (
	"SchedChat/internal/dom"
	"SchedChat/internal/prompt"
	"SchedChat/internal/session"
	"SchedChat/internal/widget"

	"golang.org/x/net/html"
)

const (
	ClassMessage     = "message"
	ClassUserMessage = "user-message"
	ClassBotMessage  = "bot-message"
	ClassContent     = "message-content"
	ClassTyping      = "typing-indicator"
)

// Renderer writes into a Document. Like the document itself it is only used
// from the event loop.
type Renderer struct {
	doc *dom.Document
}

// New creates a renderer for doc.
func New(doc *dom.Document) *Renderer {
	return &Renderer{doc: doc}
}

// Document returns the document being rendered.
func (r *Renderer) Document() *dom.Document {
	return r.doc
}

// UserTurn appends text as a user turn. The text is always escaped.
func (r *Renderer) UserTurn(text string) *html.Node {
	return r.appendTurn(session.RoleUser, dom.Text(text))
}

// BotTurn appends a bot turn. Selection prompts become a widget bound to
// gen, email-annotated text gets contact spans, anything else is escaped
// text.
func (r *Renderer) BotTurn(text string, gen uint64) (*html.Node, prompt.Kind) {
	kind := prompt.Classify(text)
	return r.appendTurn(session.RoleBot, BotContent(text, kind, gen)...), kind
}

// BotContent converts a bot message of the given kind into nodes.
func BotContent(text string, kind prompt.Kind, gen uint64) []*html.Node {
	switch kind {
	case prompt.Selection:
		if sel, ok := prompt.ParseSelection(text); ok {
			return []*html.Node{widget.Build(sel, gen)}
		}
	case prompt.EmailAnnotated:
		return prompt.Annotate(text)
	}
	return []*html.Node{dom.Text(text)}
}

// Restore appends a stored turn without making it interactive: selection
// prompts are shown as text.
func (r *Renderer) Restore(t session.Turn) *html.Node {
	if t.Role == session.RoleUser {
		return r.UserTurn(t.Content)
	}
	kind := prompt.Classify(t.Content)
	if kind == prompt.Selection {
		kind = prompt.EmailAnnotated
	}
	return r.appendTurn(session.RoleBot, BotContent(t.Content, kind, 0)...)
}

func (r *Renderer) appendTurn(role string, content ...*html.Node) *html.Node {
	roleClass := ClassBotMessage
	if role == session.RoleUser {
		roleClass = ClassUserMessage
	}
	turn := dom.El("div", []dom.Attr{dom.A("class", ClassMessage+" "+roleClass)},
		dom.El("div", []dom.Attr{dom.A("class", ClassContent)}, content...),
	)
	r.insert(turn)
	return turn
}

// insert keeps the typing indicator, when present, as the last entry.
func (r *Renderer) insert(n *html.Node) {
	if ind := r.typingIndicator(); ind != nil {
		r.doc.Transcript.InsertBefore(n, ind)
		return
	}
	r.doc.Transcript.AppendChild(n)
}

// SetPending shows or removes the typing indicator. It is idempotent.
func (r *Renderer) SetPending(pending bool) {
	ind := r.typingIndicator()
	switch {
	case pending && ind == nil:
		r.doc.Transcript.AppendChild(dom.El("div", []dom.Attr{
			dom.A("id", dom.IDTypingIndicator),
			dom.A("class", ClassMessage+" "+ClassBotMessage+" "+ClassTyping),
		},
			dom.El("span", []dom.Attr{dom.A("class", "dot")}),
			dom.El("span", []dom.Attr{dom.A("class", "dot")}),
			dom.El("span", []dom.Attr{dom.A("class", "dot")}),
		))
	case !pending && ind != nil:
		dom.Detach(ind)
	}
}

// Pending reports whether the typing indicator is shown.
func (r *Renderer) Pending() bool {
	return r.typingIndicator() != nil
}

func (r *Renderer) typingIndicator() *html.Node {
	for c := r.doc.Transcript.LastChild; c != nil; c = c.PrevSibling {
		if dom.Attribute(c, "id") == dom.IDTypingIndicator {
			return c
		}
	}
	return nil
}

// ClearTranscript removes every turn.
func (r *Renderer) ClearTranscript() {
	dom.Empty(r.doc.Transcript)
}

// Turns returns the rendered turn elements, typing indicator excluded.
func (r *Renderer) Turns() []*html.Node {
	var out []*html.Node
	for _, c := range dom.Children(r.doc.Transcript) {
		if dom.HasClass(c, ClassMessage) && !dom.HasClass(c, ClassTyping) {
			out = append(out, c)
		}
	}
	return out
}

// Content returns the content element of a turn.
func Content(turn *html.Node) *html.Node {
	return dom.Find(turn, dom.ByClass(ClassContent))
}
