package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/arena-console/internal/control"
	"github.com/park285/arena-console/internal/protocol"
	"github.com/park285/arena-console/internal/session"
)

// Controller is the part of session.Loop the console drives.
type Controller interface {
	Press(ctx context.Context, req session.Request) (session.PressResult, error)
	View(ctx context.Context) (session.View, error)
}

// SnapshotFunc writes an export of v into dir; an empty dir means the
// configured default. It returns the directory written.
type SnapshotFunc func(ctx context.Context, dir string, v session.View) (string, error)

type REPL struct {
	ctrl     Controller
	render   *Renderer
	snapshot SnapshotFunc
	defaults protocol.StartConfig
	out      io.Writer
	log      *zap.Logger
}

func NewREPL(ctrl Controller, render *Renderer, snapshot SnapshotFunc, defaults protocol.StartConfig, out io.Writer, logger *zap.Logger) *REPL {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &REPL{ctrl: ctrl, render: render, snapshot: snapshot, defaults: defaults, out: out, log: logger}
}

// Run reads commands from in until EOF, quit or ctx is done.
func (r *REPL) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			quit, err := r.Exec(ctx, line)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
		}
	}
}

// Exec runs one line. It reports quit for the quit command; the error is
// non-nil only when the session is gone.
func (r *REPL) Exec(ctx context.Context, line string) (bool, error) {
	cmd, err := Parse(line, r.defaults)
	if err != nil {
		if errors.Is(err, ErrUnknownCommand) {
			r.say("console.unknown", map[string]any{"Input": strings.TrimSpace(line)})
		} else {
			fmt.Fprintln(r.out, err)
		}
		return false, nil
	}

	switch cmd.Kind {
	case KindNone:
		return false, nil
	case KindQuit:
		return true, nil
	case KindHelp:
		r.say("console.help", nil)
		return false, nil
	case KindSnapshot:
		return false, r.doSnapshot(ctx, cmd.Dir)
	case KindStats:
		return false, r.press(ctx, cmd.Name, session.Request{Refresh: true})
	case KindStart:
		return false, r.press(ctx, cmd.Name, session.Request{Button: control.ButtonStart, Config: cmd.Config})
	case KindStop:
		return false, r.press(ctx, cmd.Name, session.Request{Button: control.ButtonStop})
	case KindToggle:
		return false, r.press(ctx, cmd.Name, session.Request{Button: control.ButtonToggle})
	case KindPause, KindResume:
		v, err := r.ctrl.View(ctx)
		if err != nil {
			return false, err
		}
		want := control.LabelPause
		if cmd.Kind == KindResume {
			want = control.LabelResume
		}
		if btn := v.Button(control.ButtonToggle); !btn.Enabled || btn.Label != want {
			r.say("console.unavailable", map[string]any{"Command": cmd.Name})
			return false, nil
		}
		return false, r.press(ctx, cmd.Name, session.Request{Button: control.ButtonToggle})
	}
	return false, nil
}

func (r *REPL) press(ctx context.Context, name string, req session.Request) error {
	res, err := r.ctrl.Press(ctx, req)
	if err != nil {
		return err
	}
	switch {
	case errors.Is(res.Err, control.ErrDisabled):
		r.say("console.unavailable", map[string]any{"Command": name})
	case res.Err != nil:
		fmt.Fprintln(r.out, res.Err)
	case !res.Sent:
		r.say("console.dropped", map[string]any{"Command": name})
	default:
		r.say("console.sent", map[string]any{"Command": name})
	}
	return nil
}

func (r *REPL) doSnapshot(ctx context.Context, dir string) error {
	if r.snapshot == nil {
		r.say("console.unavailable", map[string]any{"Command": "snapshot"})
		return nil
	}
	v, err := r.ctrl.View(ctx)
	if err != nil {
		return err
	}
	written, err := r.snapshot(ctx, dir, v)
	if err != nil {
		r.log.Warn("snapshot_failed", zap.Error(err))
		fmt.Fprintln(r.out, err)
		return nil
	}
	r.say("console.snapshot", map[string]any{"Dir": written})
	return nil
}

func (r *REPL) say(key string, data map[string]any) {
	fmt.Fprintln(r.out, r.render.cat.Text(key, data))
}
