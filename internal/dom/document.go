package dom

import (
	"golang.org/x/net/html"
)

// Element ids of the fixed page regions.
const (
	IDApp               = "app"
	IDChatMessages      = "chat-messages"
	IDEntityPanel       = "entity-panel"
	IDEntitiesContainer = "entities-container"
	IDTypingIndicator   = "typing-indicator"

	ClassHidden = "hidden"
)

// Document is the chat page: a transcript followed by the entity panel.
// The panel starts hidden.
type Document struct {
	Root       *html.Node
	Transcript *html.Node
	Panel      *html.Node
	Entities   *html.Node
}

// NewDocument builds an empty page.
func NewDocument() *Document {
	transcript := El("div", []Attr{A("id", IDChatMessages), A("class", "chat-messages")})
	entities := El("div", []Attr{A("id", IDEntitiesContainer)})
	panel := El("div", []Attr{A("id", IDEntityPanel), A("class", "entity-panel "+ClassHidden)},
		El("h3", nil, Text("Scheduling details")),
		entities,
	)
	root := El("div", []Attr{A("id", IDApp)}, transcript, panel)

	return &Document{
		Root:       root,
		Transcript: transcript,
		Panel:      panel,
		Entities:   entities,
	}
}

// HTML serializes the whole page.
func (d *Document) HTML() string {
	return Render(d.Root)
}

// PanelVisible reports whether the entity panel is shown.
func (d *Document) PanelVisible() bool {
	return !HasClass(d.Panel, ClassHidden)
}
