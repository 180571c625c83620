package chatbot

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode"

	"SchedChat/internal/backend"
	"SchedChat/internal/dom"
	"SchedChat/internal/events"
	"SchedChat/internal/session"
	"SchedChat/internal/widget"

	"golang.org/x/net/html"
)

var errNoSelection = errors.New("no selection is waiting for an answer")

// Transcript is the document written by /export.
type Transcript struct {
	ExportedAt time.Time               `json:"exported_at"`
	Session    session.Session         `json:"session"`
	Server     *backend.ExportResponse `json:"server,omitempty"`
}

// handleCommand handles special commands
func (cb *ChatBot) handleCommand(ctx context.Context, cmd string, scanner *bufio.Scanner) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return false, nil
	}
	args := strings.TrimSpace(strings.TrimPrefix(cmd, parts[0]))

	switch parts[0] {
	case "/quit", "/exit":
		return true, nil

	case "/reset":
		cb.printf("Reset the conversation? [y/N]: ")
		if !scanner.Scan() {
			return true, nil
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "y", "yes":
			return false, cb.request(ctx, cb.conv.Reset)
		default:
			cb.printf("Reset cancelled.\n")
			return false, nil
		}

	case "/pick":
		ids := strings.FieldsFunc(args, func(r rune) bool { return r == ',' || unicode.IsSpace(r) })
		if len(ids) == 0 {
			return false, fmt.Errorf("usage: /pick <id> [id...]")
		}
		return false, cb.onWidget(ctx, func(w *html.Node) error {
			for _, id := range ids {
				box := widget.Checkbox(w, id)
				if box == nil {
					return fmt.Errorf("no option %q", id)
				}
				dom.SetChecked(box, !dom.Checked(box))
				cb.events.Dispatch(events.Event{Type: events.Change, Target: box})
			}
			return nil
		})

	case "/all":
		return false, cb.onWidget(ctx, func(w *html.Node) error {
			cb.events.Dispatch(events.Event{Type: events.Click, Target: widget.Control(w, widget.RoleSelectAll)})
			return nil
		})

	case "/confirm":
		return false, cb.request(ctx, func() error {
			w, err := cb.currentWidget()
			if err != nil {
				return err
			}
			cb.echo = true
			defer func() { cb.echo = false }()
			cb.events.Dispatch(events.Event{Type: events.Click, Target: widget.Control(w, widget.RoleConfirm)})
			return nil
		})

	case "/entities":
		return false, cb.loop.Call(ctx, func() {
			doc := cb.renderer.Document()
			if !doc.PanelVisible() {
				cb.printf("No scheduling details yet.\n")
				return
			}
			cb.printf("Scheduling details:\n%s\n", panelText(doc.Entities))
		})

	case "/state":
		return false, cb.loop.Call(ctx, func() {
			sess := cb.conv.Session()
			cb.printf("Session:    %s\n", sess.ID)
			cb.printf("Turns:      %d\n", len(sess.Turns))
			cb.printf("State:      %s\n", cb.conv.State())
			if _, err := cb.currentWidget(); err == nil {
				ids, _ := cb.tracker.Selected(cb.tracker.Generation())
				cb.printf("Selection:  [%s]\n", strings.Join(ids, ", "))
			}
		})

	case "/sessions":
		// Flush pending transcript writes.
		cb.conv.Wait()
		sums, err := cb.store.ListSessions(ctx)
		if err != nil {
			return false, err
		}
		if len(sums) == 0 {
			cb.printf("No stored sessions.\n")
			return false, nil
		}
		for i, s := range sums {
			cb.printf("%d. %s  %s  %d turns\n", i+1, s.ID, s.StartTime.Format(time.DateTime), s.TurnCount)
		}
		return false, nil

	case "/html":
		if args == "" {
			return false, fmt.Errorf("usage: /html <file>")
		}
		return false, cb.writeHTML(ctx, args)

	case "/export":
		if args == "" {
			return false, fmt.Errorf("usage: /export <file>")
		}
		return false, cb.export(ctx, args)

	case "/help":
		cb.printf("Available commands:\n")
		cb.printf("  /pick <id> [id...] - Toggle options of the current selection\n")
		cb.printf("  /all               - Select all options, or clear them if all are selected\n")
		cb.printf("  /confirm           - Send the current selection\n")
		cb.printf("  /entities          - Show the collected scheduling details\n")
		cb.printf("  /state             - Show the conversation state\n")
		cb.printf("  /reset             - Start over\n")
		cb.printf("  /sessions          - List stored sessions\n")
		cb.printf("  /html <file>       - Save the chat view as HTML\n")
		cb.printf("  /export <file>     - Save the transcript and server context as JSON\n")
		cb.printf("  /quit, /exit       - Exit\n")
		cb.printf("  /help              - Show this help message\n")
		return false, nil

	default:
		return false, fmt.Errorf("unknown command %s, type /help for a list", parts[0])
	}
}

// currentWidget returns the selection widget of the current generation.
// It must run on the loop.
func (cb *ChatBot) currentWidget() (*html.Node, error) {
	widgets := dom.FindAll(cb.renderer.Document().Transcript, dom.ByClass(widget.ClassWidget))
	for i := len(widgets) - 1; i >= 0; i-- {
		if gen, ok := widget.Generation(widgets[i]); ok && cb.tracker.Current(gen) {
			return widgets[i], nil
		}
	}
	return nil, errNoSelection
}

// onWidget runs fn on the current widget and prints the widget afterwards.
func (cb *ChatBot) onWidget(ctx context.Context, fn func(w *html.Node) error) error {
	var err error
	if cerr := cb.loop.Call(ctx, func() {
		var w *html.Node
		if w, err = cb.currentWidget(); err != nil {
			return
		}
		if err = fn(w); err != nil {
			return
		}
		cb.printf("%s\n", nodeText(w))
	}); cerr != nil {
		return cerr
	}
	return err
}

const htmlPage = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Scheduling Assistant</title></head>
<body>
%s
</body>
</html>
`

func (cb *ChatBot) writeHTML(ctx context.Context, path string) error {
	var body string
	if err := cb.loop.Call(ctx, func() { body = cb.renderer.Document().HTML() }); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(fmt.Sprintf(htmlPage, body)), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	cb.printf("Saved chat view to %s\n", path)
	return nil
}

// export writes the local transcript together with the server's session
// context. A server without a session contributes nothing.
func (cb *ChatBot) export(ctx context.Context, path string) error {
	t := Transcript{ExportedAt: time.Now()}
	if err := cb.loop.Call(ctx, func() { t.Session = cb.conv.Session() }); err != nil {
		return err
	}

	if cb.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cb.config.RequestTimeout)
		defer cancel()
	}

	srv, err := cb.client.Export(ctx)
	switch {
	case errors.Is(err, backend.ErrNoSession):
		cb.logger.Info("server has no session to export", "error", err)
	case err != nil:
		return fmt.Errorf("failed to export server session: %w", err)
	default:
		t.Server = srv
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	cb.printf("Exported %d turns to %s\n", len(t.Session.Turns), path)
	return nil
}
