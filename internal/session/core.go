// Package session reconciles the backend event stream into one consistent
// view. Core is single-threaded state; Loop runs it on one goroutine.
package session

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/park285/arena-console/internal/board"
	"github.com/park285/arena-console/internal/control"
	"github.com/park285/arena-console/internal/history"
	"github.com/park285/arena-console/internal/protocol"
	"github.com/park285/arena-console/internal/registry"
	"github.com/park285/arena-console/internal/schedule"
	"github.com/park285/arena-console/internal/stats"
	"github.com/park285/arena-console/internal/wsconn"
)

const (
	DefaultHighlight = 600 * time.Millisecond
	DefaultNoticeFor = 8 * time.Second
	maxNotices       = 5
)

type Options struct {
	SessionID    string
	Scheduler    schedule.Scheduler
	Logger       *zap.Logger
	Now          func() time.Time
	HighlightFor time.Duration
	NoticeFor    time.Duration
	// Post runs timer callbacks. Loop sets it to re-enter its inbox; the
	// default runs them where the scheduler fires.
	Post func(func())
}

// Core is not safe for concurrent use.
type Core struct {
	opts Options
	log  *zap.Logger

	registry *registry.Registry
	agg      *stats.Aggregator
	hist     *history.Sampler
	ctrl     *control.Surface

	link       wsconn.State
	highlights map[protocol.MatchID]*pending
	notices    []Notice
	noticeSeq  int
	report     string
	lastGame   *GameResult
	seq        uint64
}

type pending struct{ task schedule.Task }

func NewCore(opts Options) *Core {
	if opts.Scheduler == nil {
		opts.Scheduler = schedule.Real{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.HighlightFor <= 0 {
		opts.HighlightFor = DefaultHighlight
	}
	if opts.NoticeFor <= 0 {
		opts.NoticeFor = DefaultNoticeFor
	}
	if opts.Post == nil {
		opts.Post = func(fn func()) { fn() }
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.SessionID != "" {
		logger = logger.With(zap.String("session", opts.SessionID))
	}
	return &Core{
		opts:       opts,
		log:        logger,
		registry:   registry.New(),
		agg:        stats.New(),
		hist:       history.New(),
		ctrl:       control.New(),
		link:       wsconn.StateDisconnected,
		highlights: make(map[protocol.MatchID]*pending),
	}
}

// HandleFrame decodes one inbound frame and applies it. Malformed frames and
// unknown events are logged and dropped; the return value reports whether
// the frame was applied.
func (c *Core) HandleFrame(frame []byte) bool {
	ev, err := protocol.Decode(frame)
	if err != nil {
		if errors.Is(err, protocol.ErrUnknownEvent) {
			c.log.Info("event_unknown", zap.Error(err))
		} else {
			c.log.Warn("frame_dropped", zap.Error(err), zap.Int("bytes", len(frame)))
		}
		return false
	}
	c.Apply(ev)
	return true
}

func (c *Core) Apply(ev protocol.Event) {
	c.log.Debug("event", zap.String("event", string(ev.Kind())))
	ev.Dispatch(c)
	c.touch()
}

func (c *Core) SetLink(state wsconn.State) {
	if c.link == state {
		return
	}
	c.link = state
	c.touch()
}

func (c *Core) OnState(e protocol.StateEvent) {
	switch {
	case e.Running && e.Paused:
		c.ctrl.Sync(control.Paused)
	case e.Running:
		c.ctrl.Sync(control.Running)
	case e.Stats != nil && e.Stats.Completed > 0:
		c.ctrl.Sync(control.Completed)
	default:
		c.ctrl.Sync(control.Idle)
	}
	if e.Stats != nil {
		c.agg.Apply(*e.Stats)
	}
	now := c.opts.Now()
	for _, g := range e.ActiveGames {
		c.registry.Add(g, now)
	}
	c.log.Info("state_snapshot",
		zap.Bool("running", e.Running),
		zap.Bool("paused", e.Paused),
		zap.Int("active", len(e.ActiveGames)),
		zap.Int("registry", c.registry.Count()))
}

func (c *Core) OnStarted(e protocol.StartedEvent) {
	c.ctrl.Sync(control.Running)
	if e.Config.NumGames > 0 {
		c.agg.Begin(e.Config.NumGames)
	}
	c.report = ""
	c.log.Info("run_started", zap.Int("num_games", e.Config.NumGames))
}

func (c *Core) OnGameStart(e protocol.GameStartEvent) {
	c.registry.Add(e.Game, c.opts.Now())
	c.log.Info("game_start",
		zap.String("game_id", e.Game.ID.String()),
		zap.String("white", e.Game.White),
		zap.String("black", e.Game.Black))
}

func (c *Core) OnMove(e protocol.MoveEvent) {
	prev, ok := c.registry.Get(e.GameID)
	if !ok {
		c.log.Debug("move_unknown_game", zap.String("game_id", e.GameID.String()))
		return
	}
	var san string
	if e.Move != "" {
		if s, err := board.LastMoveSAN(prev.FEN, e.Move); err == nil {
			san = s
		}
	}
	c.registry.UpdateMove(e.GameID, e.FEN, e.MoveCount, e.Move, san, c.opts.Now())
	if prev.ECO == "" {
		c.classify(e.GameID)
	}
	c.markUpdated(e.GameID)
}

// classify names the opening of a match the backend left unclassified.
func (c *Core) classify(id protocol.MatchID) {
	m, ok := c.registry.Get(id)
	if !ok || len(m.Line) == 0 {
		return
	}
	eco, name, found, err := board.ClassifyOpening(m.Line)
	if err != nil {
		c.log.Debug("opening_replay_failed", zap.String("game_id", id.String()), zap.Error(err))
		return
	}
	if found {
		c.registry.SetOpening(id, eco, name)
	}
}

func (c *Core) OnGameEnd(e protocol.GameEndEvent) {
	m, known := c.registry.Get(e.GameID)
	c.registry.Remove(e.GameID)
	c.clearHighlight(e.GameID)

	res := &GameResult{
		ID:          e.GameID.String(),
		Result:      e.Result,
		Winner:      e.Winner,
		Termination: e.Termination,
		Moves:       e.Moves,
	}
	if known {
		res.White, res.Black = m.White, m.Black
		if res.Moves == 0 {
			res.Moves = m.MoveCount
		}
	}
	c.lastGame = res

	if e.Stats != nil {
		c.agg.Apply(*e.Stats)
		c.hist.Append(history.Point{
			Completed: e.Stats.Completed,
			Score1:    e.Stats.Engine1Score,
			Score2:    e.Stats.Engine2Score,
		})
	}
	c.log.Info("game_end",
		zap.String("game_id", e.GameID.String()),
		zap.String("result", e.Result),
		zap.Int("history", c.hist.Len()))
}

func (c *Core) OnStats(e protocol.StatsEvent) {
	c.agg.Apply(e.Stats)
}

func (c *Core) OnPaused(protocol.PausedEvent) {
	c.ctrl.Sync(control.Paused)
}

func (c *Core) OnResumed(protocol.ResumedEvent) {
	c.ctrl.Sync(control.Running)
}

func (c *Core) OnSessionEnd(e protocol.SessionEndEvent) {
	c.ctrl.Sync(control.Completed)
	if e.Stats != nil {
		c.agg.Apply(*e.Stats)
	}
	if e.Report != "" {
		c.report = e.Report
	}
	for id := range c.highlights {
		c.clearHighlight(id)
	}
	c.registry.Clear()
	c.log.Info("run_ended", zap.String("reason", string(e.Reason)))
}

func (c *Core) OnError(e protocol.ErrorEvent) {
	c.log.Warn("backend_error", zap.String("message", e.Message))
	c.noticeSeq++
	n := Notice{ID: c.noticeSeq, Message: e.Message, At: c.opts.Now()}
	c.notices = append(c.notices, n)
	if len(c.notices) > maxNotices {
		c.notices = c.notices[len(c.notices)-maxNotices:]
	}
	c.after(c.opts.NoticeFor, func() { c.dismiss(n.ID) })
}

// Request is an operator action.
type Request struct {
	Button control.Button
	Config protocol.StartConfig
	// Refresh asks the backend for a stats push; Button is ignored.
	Refresh bool
}

// Press turns an operator action into the command to send. A successful
// start clears the history.
func (c *Core) Press(req Request) (protocol.Command, error) {
	if req.Refresh {
		return protocol.GetStats(), nil
	}
	var (
		cmd protocol.Command
		err error
	)
	switch req.Button {
	case control.ButtonStart:
		cmd, err = c.ctrl.PressStart(req.Config)
		if err == nil {
			c.hist.Clear()
			c.touch()
		}
	case control.ButtonToggle:
		cmd, err = c.ctrl.PressToggle()
	case control.ButtonStop:
		cmd, err = c.ctrl.PressStop()
	default:
		err = control.ErrDisabled
	}
	if err != nil {
		c.log.Info("press_rejected", zap.String("button", string(req.Button)), zap.Error(err))
		return protocol.Command{}, err
	}
	return cmd, nil
}

func (c *Core) View() View {
	v := View{
		SessionID:  c.opts.SessionID,
		Seq:        c.seq,
		Link:       c.link.String(),
		RunState:   c.ctrl.State(),
		Buttons:    c.ctrl.Buttons(),
		Stats:      c.agg.Readout(),
		History:    c.hist.Sampled(),
		HistoryLen: c.hist.Len(),
		Notices:    append([]Notice(nil), c.notices...),
		Report:     c.report,
	}
	if c.lastGame != nil {
		g := *c.lastGame
		v.LastGame = &g
	}
	for _, m := range c.registry.List() {
		_, hot := c.highlights[m.ID]
		v.Matches = append(v.Matches, MatchView{
			ID:        m.ID.String(),
			White:     m.White,
			Black:     m.Black,
			FEN:       m.FEN,
			MoveCount: m.MoveCount,
			ECO:       m.ECO,
			Opening:   m.Opening,
			LastMove:  m.LastMove,
			LastSAN:   m.LastSAN,
			ToMove:    board.SideToMove(m.FEN),
			Updated:   hot,
			Board:     board.Render(m.FEN),
		})
	}
	return v
}

// markUpdated highlights a match and schedules clearing it; a newer move
// replaces the pending clear.
func (c *Core) markUpdated(id protocol.MatchID) {
	c.clearHighlight(id)
	p := &pending{}
	c.highlights[id] = p
	p.task = c.after(c.opts.HighlightFor, func() {
		if c.highlights[id] == p {
			delete(c.highlights, id)
			c.touch()
		}
	})
}

func (c *Core) clearHighlight(id protocol.MatchID) {
	if p, ok := c.highlights[id]; ok {
		if p.task != nil {
			p.task.Stop()
		}
		delete(c.highlights, id)
	}
}

func (c *Core) dismiss(id int) {
	for i, n := range c.notices {
		if n.ID == id {
			c.notices = append(c.notices[:i:i], c.notices[i+1:]...)
			c.touch()
			return
		}
	}
}

func (c *Core) after(d time.Duration, fn func()) schedule.Task {
	return c.opts.Scheduler.AfterFunc(d, func() { c.opts.Post(fn) })
}

func (c *Core) touch() { c.seq++ }
