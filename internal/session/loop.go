package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/park285/arena-console/internal/protocol"
	"github.com/park285/arena-console/internal/wsconn"
)

var ErrClosed = errors.New("session: loop closed")

// Sender transmits an outbound command; false means it was dropped.
type Sender interface {
	Send(ctx context.Context, cmd any) bool
}

type Msg interface{ isSessionMsg() }

type Frame struct{ Data []byte }

type LinkChanged struct{ State wsconn.State }

type Press struct {
	Request Request
	Reply   chan PressResult
}

type PressResult struct {
	Command protocol.Command
	Sent    bool
	Err     error
}

type Subscribe struct {
	Outbox chan View
	Reply  chan int
}

type Unsubscribe struct{ ID int }

type GetView struct{ Reply chan View }

type timerFired struct{ fn func() }

func (Frame) isSessionMsg()       {}
func (LinkChanged) isSessionMsg() {}
func (Press) isSessionMsg()       {}
func (Subscribe) isSessionMsg()   {}
func (Unsubscribe) isSessionMsg() {}
func (GetView) isSessionMsg()     {}
func (timerFired) isSessionMsg()  {}

// Loop owns a Core and runs every handler, timer callback and operator
// action on a single goroutine, in inbox order.
type Loop struct {
	core   *Core
	sender Sender
	log    *zap.Logger

	inbox   chan Msg
	subs    map[int]chan View
	nextSub int

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewLoop starts the loop. opts.Post is overridden so timer callbacks are
// delivered through the inbox.
func NewLoop(parent context.Context, opts Options, sender Sender) *Loop {
	ctx, cancel := context.WithCancel(parent)
	l := &Loop{
		sender: sender,
		inbox:  make(chan Msg, 256),
		subs:   make(map[int]chan View),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	opts.Post = func(fn func()) { l.post(timerFired{fn: fn}) }
	l.core = NewCore(opts)
	l.log = l.core.log
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return
		case m := <-l.inbox:
			if l.handle(m) {
				l.broadcast(l.core.View())
			}
		}
	}
}

// handle reports whether the view may have changed.
func (l *Loop) handle(m Msg) bool {
	switch msg := m.(type) {
	case Frame:
		return l.core.HandleFrame(msg.Data)
	case LinkChanged:
		l.core.SetLink(msg.State)
		return true
	case timerFired:
		before := l.core.seq
		msg.fn()
		return l.core.seq != before
	case Press:
		cmd, err := l.core.Press(msg.Request)
		if msg.Reply != nil {
			msg.Reply <- PressResult{Command: cmd, Err: err}
		}
		return err == nil
	case Subscribe:
		l.nextSub++
		l.subs[l.nextSub] = msg.Outbox
		offer(msg.Outbox, l.core.View())
		msg.Reply <- l.nextSub
	case Unsubscribe:
		if ch, ok := l.subs[msg.ID]; ok {
			delete(l.subs, msg.ID)
			close(ch)
		}
	case GetView:
		msg.Reply <- l.core.View()
	}
	return false
}

// broadcast never blocks: a full subscriber buffer loses its oldest view.
func (l *Loop) broadcast(v View) {
	for _, ch := range l.subs {
		offer(ch, v)
	}
}

func offer(ch chan View, v View) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func (l *Loop) shutdown() {
	for id, ch := range l.subs {
		close(ch)
		delete(l.subs, id)
	}
}

func (l *Loop) post(m Msg) {
	select {
	case l.inbox <- m:
	case <-l.ctx.Done():
	}
}

func (l *Loop) send(ctx context.Context, m Msg) error {
	select {
	case l.inbox <- m:
		return nil
	case <-l.ctx.Done():
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HandleFrame queues an inbound frame. It is the wsconn frame callback.
func (l *Loop) HandleFrame(frame []byte) {
	data := append([]byte(nil), frame...)
	l.post(Frame{Data: data})
}

// HandleLink queues a link status change. It is the wsconn state callback.
func (l *Loop) HandleLink(state wsconn.State) {
	l.post(LinkChanged{State: state})
}

// Press applies req on the loop, then writes the resulting command from the
// caller's goroutine so a slow socket never stalls event handling.
func (l *Loop) Press(ctx context.Context, req Request) (PressResult, error) {
	reply := make(chan PressResult, 1)
	if err := l.send(ctx, Press{Request: req, Reply: reply}); err != nil {
		return PressResult{}, err
	}
	res, err := awaitReply(ctx, l, reply)
	if err != nil || res.Err != nil {
		return res, err
	}
	if l.sender != nil {
		res.Sent = l.sender.Send(ctx, res.Command)
	}
	l.log.Info("command_issued", zap.String("command", res.Command.Name), zap.Bool("sent", res.Sent))
	return res, nil
}

// Subscribe registers a view channel with the given buffer (at least 1) and
// delivers the current view immediately. The channel closes on Unsubscribe
// or when the loop stops.
func (l *Loop) Subscribe(ctx context.Context, buffer int) (int, <-chan View, error) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan View, buffer)
	reply := make(chan int, 1)
	if err := l.send(ctx, Subscribe{Outbox: ch, Reply: reply}); err != nil {
		return 0, nil, err
	}
	id, err := awaitReply(ctx, l, reply)
	if err != nil {
		return 0, nil, err
	}
	return id, ch, nil
}

func (l *Loop) Unsubscribe(id int) {
	l.post(Unsubscribe{ID: id})
}

func (l *Loop) View(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if err := l.send(ctx, GetView{Reply: reply}); err != nil {
		return View{}, err
	}
	return awaitReply(ctx, l, reply)
}

// Close stops the loop and waits for it to exit.
func (l *Loop) Close() {
	l.once.Do(l.cancel)
	<-l.done
}

func (l *Loop) Done() <-chan struct{} { return l.done }

func awaitReply[T any](ctx context.Context, l *Loop, reply <-chan T) (T, error) {
	var zero T
	select {
	case v := <-reply:
		return v, nil
	case <-l.done:
		return zero, ErrClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
