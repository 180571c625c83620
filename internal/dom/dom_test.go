package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestRenderEscapesText(t *testing.T) {
	n := El("div", []Attr{A("class", "message-content")}, Text(`<b>"Tom" & 'Jerry'</b>`))
	assert.Equal(t,
		`<div class="message-content">&lt;b&gt;&#34;Tom&#34; &amp; &#39;Jerry&#39;&lt;/b&gt;</div>`,
		Render(n))
	assert.Equal(t, `&lt;b&gt;&#34;Tom&#34; &amp; &#39;Jerry&#39;&lt;/b&gt;`, InnerHTML(n))
}

func TestClassHelpers(t *testing.T) {
	n := El("div", []Attr{A("class", "entity-panel hidden")})

	assert.True(t, HasClass(n, "hidden"))
	RemoveClass(n, "hidden")
	assert.False(t, HasClass(n, "hidden"))
	assert.Equal(t, "entity-panel", Attribute(n, "class"))

	AddClass(n, "hidden")
	AddClass(n, "hidden")
	assert.Equal(t, []string{"entity-panel", "hidden"}, Classes(n))

	RemoveClass(n, "entity-panel")
	RemoveClass(n, "hidden")
	assert.False(t, HasAttr(n, "class"))
}

func TestCheckedAttribute(t *testing.T) {
	box := El("input", []Attr{A("type", "checkbox")})
	assert.False(t, Checked(box))

	SetChecked(box, true)
	assert.True(t, Checked(box))
	assert.Equal(t, `<input type="checkbox" checked=""/>`, Render(box))

	SetChecked(box, false)
	assert.False(t, Checked(box))
}

func TestQueries(t *testing.T) {
	first := El("input", []Attr{A("data-option-id", "1")})
	second := El("input", []Attr{A("data-option-id", "2")})
	widget := El("div", []Attr{A("class", "selection-widget"), A("data-generation", "4")},
		El("label", nil, first),
		El("label", nil, second),
	)
	root := El("div", []Attr{A("id", "app")}, widget)

	assert.Equal(t, widget, Closest(second, ByClass("selection-widget")))
	assert.Nil(t, Closest(second, ByClass("missing")))
	assert.Empty(t, FindAll(root, ByAttr("data-option-id", "")))
	assert.Equal(t, []*html.Node{first, second}, FindAll(root, func(n *html.Node) bool { return HasAttr(n, "data-option-id") }))
	assert.Equal(t, second, Find(root, ByAttr("data-option-id", "2")))
	assert.Equal(t, root, Find(root, ByID("app")))
}

func TestDetachAndEmpty(t *testing.T) {
	a, b := El("p", nil, Text("a")), El("p", nil, Text("b"))
	parent := El("div", nil, a, b)

	Detach(a)
	require.Len(t, Children(parent), 1)
	assert.Nil(t, a.Parent)
	Detach(a)

	Empty(parent)
	assert.Empty(t, Children(parent))
	assert.Equal(t, "<div></div>", Render(parent))
}

func TestTextContent(t *testing.T) {
	n := El("p", nil, Text("Hello "), El("span", nil, Text("Jane")), Text("!"))
	assert.Equal(t, "Hello Jane!", TextContent(n))
}

func TestNewDocument(t *testing.T) {
	d := NewDocument()
	assert.False(t, d.PanelVisible())
	assert.Equal(t, d.Transcript, Find(d.Root, ByID(IDChatMessages)))
	assert.Equal(t, d.Entities, Find(d.Root, ByID(IDEntitiesContainer)))
	assert.Contains(t, d.HTML(), `<div id="entity-panel" class="entity-panel hidden">`)
}
