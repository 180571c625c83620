package widget

import (
	"errors"
	"testing"

	"SchedChat/internal/dom"
	"SchedChat/internal/events"
	"SchedChat/internal/prompt"
	"SchedChat/internal/selection"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const janePrompt = "Multiple contacts found for Jane. Please select one or more by number (e.g., ...):\n" +
	"1. Jane Doe (jane@x.com)\n" +
	"2. Jane Roe (jane2@x.com)"

type fakeSubmitter struct {
	sent []string
	err  error
}

func (f *fakeSubmitter) SubmitSelection(text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, text)
	return nil
}

type fakeAlerter struct {
	alerts []string
}

func (f *fakeAlerter) Alert(msg string) {
	f.alerts = append(f.alerts, msg)
}

type fixture struct {
	tracker    *selection.Tracker
	dispatcher *events.Dispatcher
	submitter  *fakeSubmitter
	alerter    *fakeAlerter
	root       *html.Node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		tracker:    selection.NewTracker(),
		dispatcher: events.NewDispatcher(nil),
		submitter:  &fakeSubmitter{},
		alerter:    &fakeAlerter{},
		root:       dom.El("div", []dom.Attr{dom.A("id", dom.IDChatMessages)}),
	}
	NewController(f.tracker, f.submitter, f.alerter).Register(f.dispatcher)
	return f
}

// render supersedes the tracker and appends a widget for text, as the
// conversation does for every bot turn.
func (f *fixture) render(t *testing.T, text string) *html.Node {
	t.Helper()
	sel, ok := prompt.ParseSelection(text)
	require.True(t, ok)
	w := Build(sel, f.tracker.Supersede())
	f.root.AppendChild(w)
	return w
}

func (f *fixture) check(t *testing.T, w *html.Node, id string, checked bool) {
	t.Helper()
	box := Checkbox(w, id)
	require.NotNil(t, box, "option %s", id)
	dom.SetChecked(box, checked)
	f.dispatcher.Dispatch(events.Event{Type: events.Change, Target: box})
}

func (f *fixture) click(t *testing.T, w *html.Node, role string) {
	t.Helper()
	ctrl := Control(w, role)
	require.NotNil(t, ctrl, role)
	require.True(t, f.dispatcher.Dispatch(events.Event{Type: events.Click, Target: ctrl.FirstChild}))
}

func (f *fixture) selected(t *testing.T) []string {
	t.Helper()
	ids, err := f.tracker.Selected(f.tracker.Generation())
	require.NoError(t, err)
	return ids
}

func TestBuildJanePrompt(t *testing.T) {
	sel, ok := prompt.ParseSelection(janePrompt)
	require.True(t, ok)
	w := Build(sel, 7)

	gen, ok := Generation(w)
	require.True(t, ok)
	assert.Equal(t, uint64(7), gen)

	boxes := Checkboxes(w)
	require.Len(t, boxes, 2)
	assert.Equal(t, "1", dom.Attribute(boxes[0], AttrOptionID))
	assert.Equal(t, "2", dom.Attribute(boxes[1], AttrOptionID))
	assert.Len(t, dom.FindAll(w, dom.ByClass(ClassOption)), 2)
	assert.Len(t, dom.FindAll(w, dom.ByAttr(events.RoleAttr, RoleSelectAll)), 1)
	assert.Len(t, dom.FindAll(w, dom.ByAttr(events.RoleAttr, RoleConfirm)), 1)

	intro := dom.Find(w, dom.ByClass(ClassIntro))
	require.NotNil(t, intro)
	assert.Equal(t,
		"Multiple contacts found for Jane. Please select one or more by number (e.g., '1', '2', '1 and 2', or 'all')",
		dom.TextContent(intro))

	details := dom.FindAll(w, dom.ByClass(ClassDetails))
	require.Len(t, details, 2)
	assert.Equal(t,
		`<span class="contact-name">Jane Doe</span> (<span class="contact-email">jane@x.com</span>)`,
		dom.InnerHTML(details[0]))
}

func TestBuildWithoutOptions(t *testing.T) {
	w := Build(prompt.SelectionPrompt{Intro: "Multiple contacts found for Jane."}, 1)
	assert.Empty(t, Checkboxes(w))
	assert.NotNil(t, Control(w, RoleSelectAll))
	assert.NotNil(t, Control(w, RoleConfirm))
}

func TestGenerationOutsideWidget(t *testing.T) {
	_, ok := Generation(dom.El("p", nil))
	assert.False(t, ok)
}

func TestCheckBothThenConfirm(t *testing.T) {
	f := newFixture(t)
	w := f.render(t, janePrompt)

	f.check(t, w, "1", true)
	f.check(t, w, "2", true)
	assert.Equal(t, []string{"1", "2"}, f.selected(t))

	f.click(t, w, RoleConfirm)

	assert.Equal(t, []string{"1 and 2"}, f.submitter.sent)
	assert.Empty(t, f.selected(t))
	assert.Empty(t, f.alerter.alerts)
	for _, box := range Checkboxes(w) {
		assert.False(t, dom.Checked(box), "option %s", dom.Attribute(box, AttrOptionID))
	}
}

func TestUncheckRemoves(t *testing.T) {
	f := newFixture(t)
	w := f.render(t, janePrompt)

	f.check(t, w, "2", true)
	f.check(t, w, "1", true)
	f.check(t, w, "2", false)
	f.click(t, w, RoleConfirm)

	assert.Equal(t, []string{"1"}, f.submitter.sent)
}

func TestConfirmWithNothingChecked(t *testing.T) {
	f := newFixture(t)
	w := f.render(t, janePrompt)

	f.click(t, w, RoleConfirm)

	assert.Equal(t, []string{EmptySelectionMessage}, f.alerter.alerts)
	assert.Empty(t, f.submitter.sent)
}

func TestSelectAllToggles(t *testing.T) {
	f := newFixture(t)
	w := f.render(t, janePrompt)

	f.click(t, w, RoleSelectAll)
	for _, box := range Checkboxes(w) {
		assert.True(t, dom.Checked(box))
	}
	assert.Equal(t, []string{"1", "2"}, f.selected(t))

	f.click(t, w, RoleSelectAll)
	for _, box := range Checkboxes(w) {
		assert.False(t, dom.Checked(box))
	}
	assert.Empty(t, f.selected(t))
}

func TestSelectAllFromPartial(t *testing.T) {
	f := newFixture(t)
	w := f.render(t, janePrompt)

	f.check(t, w, "2", true)
	f.click(t, w, RoleSelectAll)

	assert.Equal(t, []string{"2", "1"}, f.selected(t))
	f.click(t, w, RoleConfirm)
	assert.Equal(t, []string{"2 and 1"}, f.submitter.sent)
}

func TestStaleWidgetIsInert(t *testing.T) {
	f := newFixture(t)
	old := f.render(t, janePrompt)
	cur := f.render(t, "Multiple contacts found for 'John'. Please select one or more by number:\n1. John Smith (john@acme.com)\n2. John Doe (jd@acme.com)")

	f.check(t, old, "1", true)
	f.click(t, old, RoleSelectAll)
	assert.Empty(t, f.selected(t))

	f.check(t, cur, "2", true)
	f.click(t, old, RoleConfirm)
	assert.Empty(t, f.submitter.sent)
	assert.Empty(t, f.alerter.alerts)

	f.click(t, cur, RoleConfirm)
	assert.Equal(t, []string{"2"}, f.submitter.sent)
}

func TestSubmitFailureKeepsSelection(t *testing.T) {
	f := newFixture(t)
	f.submitter.err = errors.New("a response is still pending")
	w := f.render(t, janePrompt)

	f.check(t, w, "1", true)
	f.click(t, w, RoleConfirm)

	require.Len(t, f.alerter.alerts, 1)
	assert.Contains(t, f.alerter.alerts[0], "a response is still pending")
	assert.Equal(t, []string{"1"}, f.selected(t))
	assert.True(t, dom.Checked(Checkbox(w, "1")))
}

func TestDuplicateIDsShareMembership(t *testing.T) {
	f := newFixture(t)
	w := f.render(t, "Multiple contacts found for Al. Please select one or more by number\n1. Al A\n1. Al B")

	boxes := Checkboxes(w)
	require.Len(t, boxes, 2)

	f.click(t, w, RoleSelectAll)
	assert.Equal(t, []string{"1"}, f.selected(t))
}
