// Package conversation drives the chat: it renders user turns, calls the
// scheduling backend and renders what comes back.
//
// All methods except Wait must run on the event loop. Backend calls run on
// their own goroutines and post their results back to the loop.
package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"SchedChat/internal/backend"
	"SchedChat/internal/loop"
	"SchedChat/internal/render"
	"SchedChat/internal/selection"
	"SchedChat/internal/session"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/net/html"
)

// Apology is rendered as the bot turn when a backend call fails.
const Apology = "Sorry, there was an error processing your request."

// ErrBusy is returned when a submission arrives while a request is in flight.
var ErrBusy = errors.New("a request is already in progress")

// Backend is the scheduling server.
type Backend interface {
	SendMessage(ctx context.Context, message string) (*backend.MessageResponse, error)
	Reset(ctx context.Context) (*backend.ResetResponse, error)
}

// Journal persists the transcript. *store.Store implements it.
type Journal interface {
	SaveSession(ctx context.Context, sess *session.Session) error
	AppendTurns(ctx context.Context, sessionID string, turns ...session.Turn) error
}

// Observer is notified on the loop after the view changes.
type Observer interface {
	TurnRendered(role string, turn *html.Node)
	TranscriptCleared()
	PanelChanged()
	StateChanged(s TurnState)
}

// NopObserver ignores every notification. Embed it to observe a subset.
type NopObserver struct{}

func (NopObserver) TurnRendered(string, *html.Node) {}
func (NopObserver) TranscriptCleared()              {}
func (NopObserver) PanelChanged()                   {}
func (NopObserver) StateChanged(TurnState)          {}

// Controller owns the turn state, the local session and the view.
type Controller struct {
	ctx      context.Context
	loop     *loop.Loop
	backend  Backend
	renderer *render.Renderer
	tracker  *selection.Tracker
	journal  Journal
	observer Observer
	logger   *slog.Logger
	timeout  time.Duration
	baseURL  string
	turns    metric.Int64Counter

	state TurnState
	epoch uint64
	sess  *session.Session

	wg        sync.WaitGroup
	lastWrite chan struct{}
}

// Option configures a Controller.
type Option func(*Controller)

// WithJournal persists every rendered turn to j.
func WithJournal(j Journal) Option {
	return func(c *Controller) { c.journal = j }
}

// WithObserver sets the view observer.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithTimeout bounds each backend call. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// WithBaseURL records the server address on local sessions.
func WithBaseURL(u string) Option {
	return func(c *Controller) { c.baseURL = u }
}

// WithSession continues sess instead of starting a new local session. Call
// Restore to show its turns.
func WithSession(sess *session.Session) Option {
	return func(c *Controller) { c.sess = sess }
}

// WithMeter records chat.turns on m.
func WithMeter(m metric.Meter) Option {
	return func(c *Controller) {
		if counter, err := m.Int64Counter("chat.turns",
			metric.WithDescription("Rendered chat turns")); err == nil {
			c.turns = counter
		}
	}
}

// New creates a controller. ctx bounds every backend call it makes.
func New(ctx context.Context, lp *loop.Loop, be Backend, r *render.Renderer, tracker *selection.Tracker, opts ...Option) *Controller {
	c := &Controller{
		ctx:      ctx,
		loop:     lp,
		backend:  be,
		renderer: r,
		tracker:  tracker,
		observer: NopObserver{},
		logger:   slog.Default(),
	}
	WithMeter(noop.NewMeterProvider().Meter(""))(c)
	for _, opt := range opts {
		opt(c)
	}
	if c.sess == nil {
		c.sess = session.New(c.baseURL)
		c.saveSession()
	}
	return c
}

// State returns the current turn state.
func (c *Controller) State() TurnState {
	return c.state
}

// Session returns a copy of the local session.
func (c *Controller) Session() session.Session {
	s := *c.sess
	s.Turns = append(make([]session.Turn, 0, len(c.sess.Turns)), c.sess.Turns...)
	return s
}

// Submit renders text as a user turn and sends it to the backend. Blank
// text is ignored.
func (c *Controller) Submit(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if c.state != Idle {
		return ErrBusy
	}

	c.show(session.RoleUser, c.renderer.UserTurn(text), text)
	c.renderer.SetPending(true)
	c.setState(AwaitingResponse)

	epoch := c.epoch
	c.goCall(func(ctx context.Context) func() {
		resp, err := c.backend.SendMessage(ctx, text)
		return func() { c.finishMessage(epoch, resp, err) }
	})
	return nil
}

// SubmitSelection submits a confirmed widget selection as a user turn.
func (c *Controller) SubmitSelection(text string) error {
	return c.Submit(text)
}

func (c *Controller) finishMessage(epoch uint64, resp *backend.MessageResponse, err error) {
	if epoch != c.epoch {
		c.logger.Debug("discarding response issued before reset", "epoch", epoch, "current", c.epoch)
		return
	}
	c.renderer.SetPending(false)
	defer c.setState(Idle)

	if err != nil {
		c.logger.Error("failed to send message", "error", err)
		c.apologize()
		return
	}

	gen := c.tracker.Supersede()
	turn, kind := c.renderer.BotTurn(resp.Response, gen)
	c.show(session.RoleBot, turn, resp.Response, attribute.String("kind", kind.String()))
	c.logger.Debug("bot turn rendered", "kind", kind.String(), "generation", gen)

	if resp.HasEntities() && c.renderer.RefreshEntities(resp.Entities, resp.Complete) {
		c.observer.PanelChanged()
	}
}

// Reset asks the backend to start over. A message still in flight is
// abandoned: its response is discarded when it arrives.
func (c *Controller) Reset() error {
	if c.state == Resetting {
		return ErrBusy
	}

	c.epoch++
	c.renderer.SetPending(false)
	c.setState(Resetting)

	epoch := c.epoch
	c.goCall(func(ctx context.Context) func() {
		resp, err := c.backend.Reset(ctx)
		return func() { c.finishReset(epoch, resp, err) }
	})
	return nil
}

func (c *Controller) finishReset(epoch uint64, resp *backend.ResetResponse, err error) {
	if epoch != c.epoch {
		return
	}
	defer c.setState(Idle)

	if err != nil {
		c.logger.Error("failed to reset conversation", "error", err)
		c.apologize()
		return
	}

	c.renderer.ClearTranscript()
	c.renderer.HidePanel()
	gen := c.tracker.Supersede()
	c.sess = session.New(c.baseURL)
	c.saveSession()
	c.observer.TranscriptCleared()
	c.observer.PanelChanged()

	turn, _ := c.renderer.BotTurn(resp.Response, gen)
	c.show(session.RoleBot, turn, resp.Response)
	c.logger.Info("conversation reset", "session_id", c.sess.ID)
}

// Restore replaces the transcript with a stored session. Restored selection
// prompts are not interactive.
func (c *Controller) Restore(sess *session.Session) {
	c.epoch++
	c.renderer.SetPending(false)
	c.renderer.ClearTranscript()
	c.renderer.HidePanel()
	c.tracker.Supersede()
	c.observer.TranscriptCleared()

	c.sess = sess
	for _, t := range sess.Turns {
		c.observer.TurnRendered(t.Role, c.renderer.Restore(t))
	}
	c.setState(Idle)
	c.logger.Info("session restored", "session_id", sess.ID, "turns", len(sess.Turns))
}

// Wait blocks until background calls and journal writes have finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) apologize() {
	turn, _ := c.renderer.BotTurn(Apology, c.tracker.Generation())
	c.show(session.RoleBot, turn, Apology, attribute.Bool("error", true))
}

func (c *Controller) show(role string, turn *html.Node, content string, attrs ...attribute.KeyValue) {
	c.record(c.sess.Append(role, content))
	c.turns.Add(context.Background(), 1,
		metric.WithAttributes(append(attrs, attribute.String("role", role))...))
	c.observer.TurnRendered(role, turn)
}

func (c *Controller) setState(s TurnState) {
	if c.state == s {
		return
	}
	c.logger.Debug("turn state changed", "from", c.state.String(), "to", s.String())
	c.state = s
	c.observer.StateChanged(s)
}

// goCall runs call off the loop and posts the function it returns back.
func (c *Controller) goCall(call func(ctx context.Context) func()) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		var (
			ctx    context.Context
			cancel context.CancelFunc
		)
		if c.timeout > 0 {
			ctx, cancel = context.WithTimeout(c.ctx, c.timeout)
		} else {
			ctx, cancel = context.WithCancel(c.ctx)
		}
		defer cancel()

		if err := c.loop.Post(call(ctx)); err != nil {
			c.logger.Debug("dropping backend result", "error", err)
		}
	}()
}

func (c *Controller) saveSession() {
	if c.journal == nil {
		return
	}
	sess := *c.sess
	c.write(func(ctx context.Context) error { return c.journal.SaveSession(ctx, &sess) })
}

func (c *Controller) record(t session.Turn) {
	if c.journal == nil {
		return
	}
	id := c.sess.ID
	c.write(func(ctx context.Context) error { return c.journal.AppendTurns(ctx, id, t) })
}

// write runs fn in the background after every earlier write has finished,
// so the journal sees turns in the order they were rendered.
func (c *Controller) write(fn func(ctx context.Context) error) {
	prev := c.lastWrite
	done := make(chan struct{})
	c.lastWrite = done

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(done)
		if prev != nil {
			<-prev
		}
		if err := fn(context.Background()); err != nil {
			c.logger.Error("failed to persist transcript", "error", err)
		}
	}()
}
