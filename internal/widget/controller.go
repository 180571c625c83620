package widget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"SchedChat/internal/dom"
	"SchedChat/internal/events"
	"SchedChat/internal/selection"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/net/html"
)

// EmptySelectionMessage is shown when confirm is pressed with nothing checked.
const EmptySelectionMessage = "Please select at least one option."

// Submitter sends a synthesized user turn.
type Submitter interface {
	SubmitSelection(text string) error
}

// Alerter shows a blocking, user-facing message.
type Alerter interface {
	Alert(msg string)
}

// Controller handles checkbox, select-all and confirm events for every
// selection widget in the document.
type Controller struct {
	tracker *selection.Tracker
	submit  Submitter
	alert   Alerter
	logger  *slog.Logger

	confirms metric.Int64Counter
	stale    metric.Int64Counter
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithMeter records selection.confirms and selection.stale_events on m.
func WithMeter(m metric.Meter) Option {
	return func(c *Controller) {
		if counter, err := m.Int64Counter("selection.confirms",
			metric.WithDescription("Confirmed selections submitted as user turns")); err == nil {
			c.confirms = counter
		}
		if counter, err := m.Int64Counter("selection.stale_events",
			metric.WithDescription("Events ignored because their widget was superseded")); err == nil {
			c.stale = counter
		}
	}
}

// NewController creates a Controller.
func NewController(tracker *selection.Tracker, submit Submitter, alert Alerter, opts ...Option) *Controller {
	c := &Controller{
		tracker: tracker,
		submit:  submit,
		alert:   alert,
		logger:  slog.Default(),
	}
	WithMeter(noop.NewMeterProvider().Meter(""))(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register installs the widget handlers on d.
func (c *Controller) Register(d *events.Dispatcher) {
	d.Handle(RoleOptionCheckbox, events.Change, c.onToggle)
	d.Handle(RoleSelectAll, events.Click, c.onSelectAll)
	d.Handle(RoleConfirm, events.Click, c.onConfirm)
}

// current resolves the widget around el and its generation, and reports
// whether that widget is the live one.
func (c *Controller) current(el *html.Node) (*html.Node, uint64, bool) {
	w := Container(el)
	gen, ok := Generation(el)
	if w == nil || !ok {
		return nil, 0, false
	}
	if !c.tracker.Current(gen) {
		c.logger.Debug("ignoring event from superseded widget",
			"generation", gen, "current", c.tracker.Generation())
		c.stale.Add(context.Background(), 1)
		return nil, 0, false
	}
	return w, gen, true
}

func (c *Controller) onToggle(_ events.Event, el *html.Node) {
	_, gen, ok := c.current(el)
	if !ok {
		return
	}
	id := dom.Attribute(el, AttrOptionID)
	if err := c.tracker.Toggle(gen, id, dom.Checked(el)); err != nil {
		c.logger.Warn("failed to toggle option", "id", id, "error", err)
	}
}

// onSelectAll toggles between every option checked and none checked.
func (c *Controller) onSelectAll(_ events.Event, el *html.Node) {
	w, gen, ok := c.current(el)
	if !ok {
		return
	}

	boxes := Checkboxes(w)
	allChecked := true
	for _, box := range boxes {
		if !dom.Checked(box) {
			allChecked = false
			break
		}
	}

	ids := make([]string, 0, len(boxes))
	for _, box := range boxes {
		dom.SetChecked(box, !allChecked)
		ids = append(ids, dom.Attribute(box, AttrOptionID))
	}

	var err error
	if allChecked {
		err = c.tracker.Clear(gen)
	} else {
		err = c.tracker.Fill(gen, ids)
	}
	if err != nil {
		c.logger.Warn("failed to apply select all", "error", err)
	}
}

func (c *Controller) onConfirm(_ events.Event, el *html.Node) {
	w, gen, ok := c.current(el)
	if !ok {
		return
	}

	ids, err := c.tracker.Selected(gen)
	if err != nil {
		c.logger.Warn("failed to read selection", "error", err)
		return
	}
	if len(ids) == 0 {
		c.alert.Alert(EmptySelectionMessage)
		return
	}

	text := selection.Join(ids)
	if err := c.submit.SubmitSelection(text); err != nil {
		c.logger.Warn("selection not submitted", "selection", text, "error", err)
		c.alert.Alert(fmt.Sprintf("Could not send your selection: %v", err))
		return
	}

	// The checkboxes follow the now empty set.
	for _, box := range Checkboxes(w) {
		dom.SetChecked(box, false)
	}
	if err := c.tracker.Clear(gen); err != nil && !errors.Is(err, selection.ErrStale) {
		c.logger.Warn("failed to clear selection", "error", err)
	}
	c.confirms.Add(context.Background(), 1)
	c.logger.Info("selection confirmed", "selection", text, "generation", gen)
}
