package render

import (
	"slices"
	"sort"

	"SchedChat/internal/backend"
	"SchedChat/internal/dom"
	"SchedChat/internal/prompt"

	"golang.org/x/net/html"
)

const (
	ClassEntityGroup  = "entity-group"
	ClassEntityLabel  = "entity-label"
	ClassEntityValues = "entity-values"
	ClassEntityTag    = "entity-tag"
	ClassAttendeeChip = "attendee-chip"
	ClassComplete     = "entity-complete"

	CompleteText = "✓ All required details collected"
)

// entityOrder is the display order of the known labels; others follow
// alphabetically.
var entityOrder = []string{"DATE", "TIME", "DURATION", "ATTENDEE"}

// RefreshEntities replaces the panel content with entities. An empty or nil
// mapping leaves the panel as it is and returns false.
func (r *Renderer) RefreshEntities(entities backend.Entities, complete bool) bool {
	if len(entities) == 0 {
		return false
	}

	container := r.doc.Entities
	dom.Empty(container)

	for _, label := range orderedLabels(entities) {
		values := entities[label]
		if len(values) == 0 {
			continue
		}
		tags := dom.El("div", []dom.Attr{dom.A("class", ClassEntityValues)})
		for _, v := range values {
			tags.AppendChild(entityTag(v))
		}
		container.AppendChild(dom.El("div", []dom.Attr{
			dom.A("class", ClassEntityGroup),
			dom.A("data-entity", label),
		},
			dom.El("h4", []dom.Attr{dom.A("class", ClassEntityLabel)}, dom.Text(label)),
			tags,
		))
	}

	if complete {
		container.AppendChild(dom.El("div", []dom.Attr{dom.A("class", ClassComplete)}, dom.Text(CompleteText)))
	}

	dom.RemoveClass(r.doc.Panel, dom.ClassHidden)
	return true
}

// HidePanel hides and empties the entity panel.
func (r *Renderer) HidePanel() {
	dom.Empty(r.doc.Entities)
	dom.AddClass(r.doc.Panel, dom.ClassHidden)
}

func entityTag(value string) *html.Node {
	name, email, ok := prompt.ParseAttendee(value)
	if !ok {
		return dom.El("span", []dom.Attr{dom.A("class", ClassEntityTag)}, dom.Text(value))
	}
	return dom.El("span", []dom.Attr{dom.A("class", ClassEntityTag+" "+ClassAttendeeChip)},
		dom.El("span", []dom.Attr{dom.A("class", prompt.ClassContactName)}, dom.Text(name)),
		dom.Text(" "),
		dom.El("span", []dom.Attr{dom.A("class", prompt.ClassContactEmail)}, dom.Text(email)),
	)
}

func orderedLabels(entities backend.Entities) []string {
	var known, rest []string
	for _, label := range entityOrder {
		if _, ok := entities[label]; ok {
			known = append(known, label)
		}
	}
	for label := range entities {
		if !slices.Contains(entityOrder, label) {
			rest = append(rest, label)
		}
	}
	sort.Strings(rest)
	return append(known, rest...)
}
