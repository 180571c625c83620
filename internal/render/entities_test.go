package render

import (
	"testing"

	"SchedChat/internal/backend"
	"SchedChat/internal/dom"
	"SchedChat/internal/prompt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func groups(d *dom.Document) []*html.Node {
	return dom.FindAll(d.Entities, dom.ByClass(ClassEntityGroup))
}

func groupLabels(d *dom.Document) []string {
	var labels []string
	for _, g := range groups(d) {
		labels = append(labels, dom.Attribute(g, "data-entity"))
	}
	return labels
}

func TestRefreshSkipsEmptyGroups(t *testing.T) {
	d := dom.NewDocument()
	r := New(d)

	ok := r.RefreshEntities(backend.Entities{"DATE": {"Monday"}, "ATTENDEE": {}}, false)
	require.True(t, ok)

	assert.Equal(t, []string{"DATE"}, groupLabels(d))
	assert.True(t, d.PanelVisible())
	tags := dom.FindAll(d.Entities, dom.ByClass(ClassEntityTag))
	require.Len(t, tags, 1)
	assert.Equal(t, "Monday", dom.TextContent(tags[0]))
}

func TestRefreshEmptyLeavesPanelUntouched(t *testing.T) {
	d := dom.NewDocument()
	r := New(d)

	assert.False(t, r.RefreshEntities(nil, true))
	assert.False(t, d.PanelVisible())

	require.True(t, r.RefreshEntities(backend.Entities{"TIME": {"3pm"}}, false))
	before := dom.Render(d.Panel)

	assert.False(t, r.RefreshEntities(backend.Entities{}, true))
	assert.Equal(t, before, dom.Render(d.Panel))
}

func TestRefreshReplacesSnapshot(t *testing.T) {
	d := dom.NewDocument()
	r := New(d)

	r.RefreshEntities(backend.Entities{"DATE": {"Monday"}, "TIME": {"3pm"}}, false)
	r.RefreshEntities(backend.Entities{"DURATION": {"30 minutes"}}, false)

	assert.Equal(t, []string{"DURATION"}, groupLabels(d))
}

func TestCompletionIndicatorDoesNotAccumulate(t *testing.T) {
	d := dom.NewDocument()
	r := New(d)
	entities := backend.Entities{"DATE": {"Monday"}, "TIME": {"3pm"}, "DURATION": {"1 hour"}, "ATTENDEE": {"Jane Doe (jane@x.com)"}}

	for i := 0; i < 3; i++ {
		r.RefreshEntities(entities, true)
		assert.Len(t, dom.FindAll(d.Entities, dom.ByClass(ClassComplete)), 1)
	}

	r.RefreshEntities(entities, false)
	assert.Empty(t, dom.FindAll(d.Entities, dom.ByClass(ClassComplete)))
}

func TestGroupOrder(t *testing.T) {
	d := dom.NewDocument()
	r := New(d)

	r.RefreshEntities(backend.Entities{
		"LOCATION": {"Room 4"},
		"ATTENDEE": {"Jane"},
		"AGENDA":   {"Budget"},
		"TIME":     {"3pm"},
		"DATE":     {"Monday"},
	}, false)

	assert.Equal(t, []string{"DATE", "TIME", "ATTENDEE", "AGENDA", "LOCATION"}, groupLabels(d))
}

func TestAttendeeChips(t *testing.T) {
	d := dom.NewDocument()
	r := New(d)

	r.RefreshEntities(backend.Entities{"ATTENDEE": {"Jane Doe (jane@x.com)", "Mary"}}, false)

	tags := dom.FindAll(d.Entities, dom.ByClass(ClassEntityTag))
	require.Len(t, tags, 2)
	assert.True(t, dom.HasClass(tags[0], ClassAttendeeChip))
	assert.Equal(t, "Jane Doe", dom.TextContent(dom.Find(tags[0], dom.ByClass(prompt.ClassContactName))))
	assert.Equal(t, "jane@x.com", dom.TextContent(dom.Find(tags[0], dom.ByClass(prompt.ClassContactEmail))))
	assert.False(t, dom.HasClass(tags[1], ClassAttendeeChip))
}

func TestHidePanel(t *testing.T) {
	d := dom.NewDocument()
	r := New(d)
	r.RefreshEntities(backend.Entities{"DATE": {"Monday"}}, true)

	r.HidePanel()
	assert.False(t, d.PanelVisible())
	assert.Empty(t, dom.Children(d.Entities))
}
