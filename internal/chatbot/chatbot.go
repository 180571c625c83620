package chatbot

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"SchedChat/internal/backend"
	"SchedChat/internal/config"
	"SchedChat/internal/conversation"
	"SchedChat/internal/dom"
	"SchedChat/internal/events"
	"SchedChat/internal/loop"
	"SchedChat/internal/render"
	"SchedChat/internal/selection"
	"SchedChat/internal/session"
	"SchedChat/internal/store"
	"SchedChat/internal/telemetry"
	"SchedChat/internal/widget"

	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

const loopBuffer = 64

// ChatBot is the terminal front end of the scheduling assistant. It owns the
// document and projects it onto the terminal as it changes.
type ChatBot struct {
	config config.Config
	logger *slog.Logger
	tracer trace.Tracer
	meter  metric.Meter

	store    *store.Store
	client   *backend.Client
	loop     *loop.Loop
	events   *events.Dispatcher
	renderer *render.Renderer
	tracker  *selection.Tracker
	conv     *conversation.Controller

	in  io.Reader
	out io.Writer
	mu  sync.Mutex

	ctx     context.Context
	cancel  context.CancelFunc
	idle    chan struct{}
	echo    bool
	resumed *session.Session
	closers []func() error
}

// Option configures a ChatBot.
type Option func(*ChatBot)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(cb *ChatBot) {
		cb.in = in
		cb.out = out
	}
}

// NewChatBot creates a new ChatBot instance
func NewChatBot(cfg config.Config, opts ...Option) (*ChatBot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, closeLog, err := telemetry.InitLogger(cfg.LogDir, cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if cfg.Debug {
		logger.Info("Debug mode enabled")
	}

	cb := &ChatBot{
		config:  cfg,
		logger:  logger,
		tracer:  tracenoop.NewTracerProvider().Tracer(""),
		meter:   metricnoop.NewMeterProvider().Meter(""),
		in:      os.Stdin,
		out:     os.Stdout,
		idle:    make(chan struct{}, 1),
		closers: []func() error{closeLog},
	}
	for _, opt := range opts {
		opt(cb)
	}
	cb.ctx, cb.cancel = context.WithCancel(context.Background())

	if cfg.Telemetry {
		tel, err := telemetry.Start(cb.ctx, telemetry.Options{
			Dir:             cfg.LogDir,
			ServiceName:     cfg.ServiceName,
			MetricsInterval: cfg.MetricsInterval,
		})
		if err != nil {
			cb.Close()
			return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		cb.tracer, cb.meter = tel.Tracer, tel.Meter
		cb.closers = append(cb.closers, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return tel.Shutdown(ctx)
		})
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		cb.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	cb.store = st
	cb.closers = append(cb.closers, st.Close)

	client, err := backend.NewClient(cfg.BaseURL,
		backend.WithLogger(logger),
		backend.WithTelemetry(cb.tracer, cb.meter),
	)
	if err != nil {
		cb.Close()
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}
	cb.client = client

	cb.loop = loop.New(loopBuffer, logger)
	cb.events = events.NewDispatcher(logger)
	cb.renderer = render.New(dom.NewDocument())
	cb.tracker = selection.NewTracker()

	convOpts := []conversation.Option{
		conversation.WithJournal(st),
		conversation.WithObserver(cb),
		conversation.WithLogger(logger),
		conversation.WithMeter(cb.meter),
		conversation.WithTimeout(cfg.RequestTimeout),
		conversation.WithBaseURL(client.BaseURL()),
	}

	if cfg.SessionID != "" {
		sess, err := st.LoadSession(cb.ctx, cfg.SessionID)
		if err != nil {
			logger.Warn("failed to load session, creating new one", "session_id", cfg.SessionID, "error", err)
		} else {
			cb.resumed = sess
			convOpts = append(convOpts, conversation.WithSession(sess))
			logger.Info("loaded existing session", "session_id", sess.ID)
		}
	}

	cb.conv = conversation.New(cb.ctx, cb.loop, client, cb.renderer, cb.tracker, convOpts...)
	widget.NewController(cb.tracker, cb.conv, cb,
		widget.WithLogger(logger),
		widget.WithMeter(cb.meter),
	).Register(cb.events)

	return cb, nil
}

// Close stops the event loop, waits for pending work and releases the
// store, telemetry and log files.
func (cb *ChatBot) Close() error {
	cb.cancel()
	if cb.conv != nil {
		cb.conv.Wait()
	}

	var errs []error
	for i := len(cb.closers) - 1; i >= 0; i-- {
		if err := cb.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	cb.closers = nil
	return errors.Join(errs...)
}

// Run starts the chat bot
func (cb *ChatBot) Run() error {
	defer cb.Close()

	g, ctx := errgroup.WithContext(cb.ctx)
	g.Go(func() error {
		return cb.loop.Run(ctx)
	})
	g.Go(func() error {
		defer cb.cancel()
		return cb.readInput(ctx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	cb.printf("Goodbye!\n")
	return err
}

func (cb *ChatBot) readInput(ctx context.Context) error {
	var sess session.Session
	if err := cb.loop.Call(ctx, func() { sess = cb.conv.Session() }); err != nil {
		return err
	}

	cb.printf("=== Scheduling Assistant ===\n")
	cb.printf("Server: %s\n", cb.client.BaseURL())
	cb.printf("Session: %s\n", sess.ID)
	cb.printf("Type /help for commands, /quit to exit\n\n")

	if cb.resumed != nil {
		if err := cb.loop.Call(ctx, func() {
			cb.echo = true
			defer func() { cb.echo = false }()
			cb.conv.Restore(cb.resumed)
		}); err != nil {
			return err
		}
	}

	scanner := bufio.NewScanner(cb.in)
	for {
		cb.printf("You: ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			shouldQuit, err := cb.handleCommand(ctx, input, scanner)
			if err != nil {
				cb.printf("Error: %v\n", err)
				cb.logger.Error("command error", "command", input, "error", err)
			}
			if shouldQuit {
				break
			}
			continue
		}

		if err := cb.request(ctx, func() error { return cb.conv.Submit(input) }); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			cb.printf("Error: %v\n", err)
			cb.logger.Error("failed to submit message", "error", err)
		}
	}

	return scanner.Err()
}

// request runs fn on the loop and, when fn started a backend call, waits
// until the conversation is idle again.
func (cb *ChatBot) request(ctx context.Context, fn func() error) error {
	var (
		err     error
		started bool
	)
	if cerr := cb.loop.Call(ctx, func() {
		select {
		case <-cb.idle:
		default:
		}
		err = fn()
		started = cb.conv.State() != conversation.Idle
	}); cerr != nil {
		return cerr
	}
	if err != nil || !started {
		return err
	}

	select {
	case <-cb.idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (cb *ChatBot) printf(format string, args ...interface{}) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	fmt.Fprintf(cb.out, format, args...)
}

// TurnRendered prints bot turns. User turns are printed only when they did
// not come from the input line.
func (cb *ChatBot) TurnRendered(role string, turn *html.Node) {
	label := "Bot: "
	if role == session.RoleUser {
		if !cb.echo {
			return
		}
		label = "You: "
	}
	cb.printf("%s%s\n\n", label, indent(nodeText(render.Content(turn)), "     "))
}

// TranscriptCleared implements conversation.Observer.
func (cb *ChatBot) TranscriptCleared() {
	cb.printf("\n--- new conversation ---\n\n")
}

// PanelChanged prints the scheduling details when the panel is shown.
func (cb *ChatBot) PanelChanged() {
	doc := cb.renderer.Document()
	if !doc.PanelVisible() {
		return
	}
	cb.printf("Scheduling details:\n%s\n\n", panelText(doc.Entities))
}

// StateChanged wakes a request waiting for the reply.
func (cb *ChatBot) StateChanged(s conversation.TurnState) {
	if s != conversation.Idle {
		return
	}
	select {
	case cb.idle <- struct{}{}:
	default:
	}
}

// Alert implements widget.Alerter.
func (cb *ChatBot) Alert(msg string) {
	cb.printf("! %s\n", msg)
}
