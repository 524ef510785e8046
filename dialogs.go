package yupee

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/pthm/yupee/lib/dom"
)

// LogDialogs writes dialogs to a logger. Confirm answers false and Prompt
// answers the default.
type LogDialogs struct {
	Logger *slog.Logger
}

// Alert implements Dialogs.
func (d LogDialogs) Alert(_ context.Context, message string) error {
	d.Logger.Warn("alert", "message", message)
	return nil
}

// Confirm implements Dialogs.
func (d LogDialogs) Confirm(_ context.Context, message string) (bool, error) {
	d.Logger.Warn("confirm", "message", message, "answer", false)
	return false, nil
}

// Prompt implements Dialogs.
func (d LogDialogs) Prompt(_ context.Context, message, def string) (string, error) {
	d.Logger.Warn("prompt", "message", message, "answer", def)
	return def, nil
}

// ToastDialogs shows dialogs as toasts inside the registry document's
// #toasts element, creating it at the end of the body when missing.
//
// Alerts are error toasts, confirmations warnings and prompts info toasts.
// Confirm returns Answer and Prompt returns the default.
type ToastDialogs struct {
	Registry *Registry
	Answer   bool
}

// Alert implements Dialogs.
func (d ToastDialogs) Alert(ctx context.Context, message string) error {
	return d.show(ctx, Flash{Level: FlashError, Message: message})
}

// Confirm implements Dialogs.
func (d ToastDialogs) Confirm(ctx context.Context, message string) (bool, error) {
	return d.Answer, d.show(ctx, Flash{Level: FlashWarning, Message: message})
}

// Prompt implements Dialogs.
func (d ToastDialogs) Prompt(ctx context.Context, message, def string) (string, error) {
	return def, d.show(ctx, Flash{Level: FlashInfo, Message: message})
}

func (d ToastDialogs) show(ctx context.Context, f Flash) error {
	doc := d.Registry.Document()
	toasts := doc.Query("#toasts")
	if toasts == nil {
		var sb strings.Builder
		if err := ToastContainer().Render(ctx, &sb); err != nil {
			return err
		}
		if err := doc.Body().InsertHTML(dom.BeforeEnd, sb.String()); err != nil {
			return err
		}
		toasts = doc.Query("#toasts")
	}
	return doc.Wrap(toasts).AppendHTML(RenderFlashes([]Flash{f}))
}

// TerminalDialogs asks on a terminal.
type TerminalDialogs struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewTerminalDialogs returns dialogs reading answers from in and writing
// questions to out.
func NewTerminalDialogs(in io.Reader, out io.Writer) *TerminalDialogs {
	return &TerminalDialogs{in: bufio.NewReader(in), out: out}
}

// Alert implements Dialogs.
func (d *TerminalDialogs) Alert(_ context.Context, message string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := fmt.Fprintf(d.out, "! %s\n", message)
	return err
}

// Confirm implements Dialogs. Only an answer starting with y or Y confirms.
func (d *TerminalDialogs) Confirm(_ context.Context, message string) (bool, error) {
	line, err := d.ask(message + " [y/N] ")
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(strings.ToLower(line), "y"), nil
}

// Prompt implements Dialogs. An empty answer returns def.
func (d *TerminalDialogs) Prompt(_ context.Context, message, def string) (string, error) {
	q := message + ": "
	if def != "" {
		q = fmt.Sprintf("%s [%s]: ", message, def)
	}
	line, err := d.ask(q)
	if err != nil {
		return "", err
	}
	if line == "" {
		return def, nil
	}
	return line, nil
}

func (d *TerminalDialogs) ask(question string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := io.WriteString(d.out, question); err != nil {
		return "", err
	}
	line, err := d.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
