// Package widget turns a parsed selection prompt into interactive controls
// and wires those controls to the selection tracker.
package widget

import (
	"strconv"

	"SchedChat/internal/dom"
	"SchedChat/internal/events"
	"SchedChat/internal/prompt"

	"golang.org/x/net/html"
)

// Element roles handled by Controller.Register.
const (
	RoleOptionCheckbox = "option-checkbox"
	RoleSelectAll      = "select-all"
	RoleConfirm        = "confirm"
)

// Markup attributes and classes.
const (
	AttrGeneration = "data-generation"
	AttrOptionID   = "data-option-id"

	ClassWidget  = "selection-widget"
	ClassIntro   = "selection-intro"
	ClassHint    = "selection-hint"
	ClassOptions = "selection-options"
	ClassOption  = "selection-option"
	ClassDetails = "option-details"
	ClassActions = "selection-actions"
)

const (
	selectAllLabel = "Select all"
	confirmLabel   = "Confirm selection"
)

// Build renders sel as a selection widget bound to generation gen.
func Build(sel prompt.SelectionPrompt, gen uint64) *html.Node {
	intro := dom.El("p", []dom.Attr{dom.A("class", ClassIntro)},
		dom.Text(introText(sel.Intro)),
		dom.El("span", []dom.Attr{dom.A("class", ClassHint)}, dom.Text(prompt.UsageHint)),
	)

	options := dom.El("div", []dom.Attr{dom.A("class", ClassOptions)})
	for _, opt := range sel.Options {
		options.AppendChild(buildOption(opt))
	}

	actions := dom.El("div", []dom.Attr{dom.A("class", ClassActions)},
		button(RoleSelectAll, selectAllLabel),
		button(RoleConfirm, confirmLabel),
	)

	return dom.El("div", []dom.Attr{
		dom.A("class", ClassWidget),
		dom.A(AttrGeneration, strconv.FormatUint(gen, 10)),
	}, intro, options, actions)
}

func introText(intro string) string {
	if intro == "" {
		return prompt.SelectionMarker + " "
	}
	return intro + " " + prompt.SelectionMarker + " "
}

func buildOption(opt prompt.Option) *html.Node {
	box := dom.El("input", []dom.Attr{
		dom.A("type", "checkbox"),
		dom.A(events.RoleAttr, RoleOptionCheckbox),
		dom.A(AttrOptionID, opt.ID),
	})
	details := dom.El("span", []dom.Attr{dom.A("class", ClassDetails)}, prompt.Annotate(opt.Details)...)

	return dom.El("label", []dom.Attr{
		dom.A("class", ClassOption),
		dom.A(AttrOptionID, opt.ID),
	}, box, dom.Text(" "+opt.ID+". "), details)
}

func button(role, label string) *html.Node {
	return dom.El("button", []dom.Attr{
		dom.A("type", "button"),
		dom.A(events.RoleAttr, role),
	}, dom.Text(label))
}

// Generation returns the generation of the widget containing n. ok is false
// when n is not inside a widget.
func Generation(n *html.Node) (uint64, bool) {
	w := Container(n)
	if w == nil {
		return 0, false
	}
	gen, err := strconv.ParseUint(dom.Attribute(w, AttrGeneration), 10, 64)
	if err != nil {
		return 0, false
	}
	return gen, true
}

// Container returns the widget element enclosing n.
func Container(n *html.Node) *html.Node {
	return dom.Closest(n, dom.ByClass(ClassWidget))
}

// Checkboxes returns the option checkboxes of widget w in document order.
func Checkboxes(w *html.Node) []*html.Node {
	return dom.FindAll(w, dom.ByAttr(events.RoleAttr, RoleOptionCheckbox))
}

// Checkbox returns the checkbox for option id in widget w.
func Checkbox(w *html.Node, id string) *html.Node {
	for _, box := range Checkboxes(w) {
		if dom.Attribute(box, AttrOptionID) == id {
			return box
		}
	}
	return nil
}

// Control returns the select-all or confirm control of widget w.
func Control(w *html.Node, role string) *html.Node {
	return dom.Find(w, dom.ByAttr(events.RoleAttr, role))
}
