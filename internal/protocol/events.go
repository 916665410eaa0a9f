package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Kind names an inbound event on the wire.
type Kind string

const (
	KindState     Kind = "state"
	KindStarted   Kind = "started"
	KindGameStart Kind = "game_start"
	KindMove      Kind = "move"
	KindGameEnd   Kind = "game_end"
	KindStats     Kind = "stats"
	KindPaused    Kind = "paused"
	KindResumed   Kind = "resumed"
	KindStopped   Kind = "stopped"
	KindCompleted Kind = "completed"
	KindError     Kind = "error"
)

// Handler receives decoded events. Every event kind has exactly one method,
// so adding a kind breaks every implementation until it is handled.
// stopped and completed share OnSessionEnd.
type Handler interface {
	OnState(StateEvent)
	OnStarted(StartedEvent)
	OnGameStart(GameStartEvent)
	OnMove(MoveEvent)
	OnGameEnd(GameEndEvent)
	OnStats(StatsEvent)
	OnPaused(PausedEvent)
	OnResumed(ResumedEvent)
	OnSessionEnd(SessionEndEvent)
	OnError(ErrorEvent)
}

// Event is the closed set of inbound events.
type Event interface {
	Kind() Kind
	Dispatch(h Handler)
}

type StateEvent struct {
	Running     bool       `json:"running"`
	Paused      bool       `json:"paused"`
	Stats       *Stats     `json:"stats"`
	ActiveGames []GameInfo `json:"active_games"`
}

type StartedEvent struct {
	Config StartConfig `json:"config"`
}

type GameStartEvent struct {
	Game GameInfo
}

type MoveEvent struct {
	GameID    MatchID
	FEN       string
	Move      string
	MoveCount int
}

type GameEndEvent struct {
	GameID      MatchID
	Result      string
	Winner      string
	Termination string
	Moves       int
	Stats       *Stats
}

type StatsEvent struct {
	Stats Stats
}

type PausedEvent struct{}

type ResumedEvent struct{}

// SessionEndEvent covers both stopped and completed; Reason keeps which one.
type SessionEndEvent struct {
	Reason Kind   `json:"-"`
	Stats  *Stats `json:"stats"`
	Report string `json:"report"`
}

type ErrorEvent struct {
	Message string `json:"message"`
}

func (StateEvent) Kind() Kind        { return KindState }
func (StartedEvent) Kind() Kind      { return KindStarted }
func (GameStartEvent) Kind() Kind    { return KindGameStart }
func (MoveEvent) Kind() Kind         { return KindMove }
func (GameEndEvent) Kind() Kind      { return KindGameEnd }
func (StatsEvent) Kind() Kind        { return KindStats }
func (PausedEvent) Kind() Kind       { return KindPaused }
func (ResumedEvent) Kind() Kind      { return KindResumed }
func (e SessionEndEvent) Kind() Kind { return e.Reason }
func (ErrorEvent) Kind() Kind        { return KindError }

func (e StateEvent) Dispatch(h Handler)      { h.OnState(e) }
func (e StartedEvent) Dispatch(h Handler)    { h.OnStarted(e) }
func (e GameStartEvent) Dispatch(h Handler)  { h.OnGameStart(e) }
func (e MoveEvent) Dispatch(h Handler)       { h.OnMove(e) }
func (e GameEndEvent) Dispatch(h Handler)    { h.OnGameEnd(e) }
func (e StatsEvent) Dispatch(h Handler)      { h.OnStats(e) }
func (e PausedEvent) Dispatch(h Handler)     { h.OnPaused(e) }
func (e ResumedEvent) Dispatch(h Handler)    { h.OnResumed(e) }
func (e SessionEndEvent) Dispatch(h Handler) { h.OnSessionEnd(e) }
func (e ErrorEvent) Dispatch(h Handler)      { h.OnError(e) }

type envelope struct {
	Event *string         `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Decode parses one inbound text frame into an Event. Errors wrap ErrDecode
// or ErrUnknownEvent; the caller is expected to log and drop them.
func Decode(frame []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if env.Event == nil {
		return nil, fmt.Errorf("%w: missing event field", ErrDecode)
	}
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		data = []byte("{}")
	}

	kind := Kind(strings.TrimSpace(*env.Event))
	return decodeData(kind, data)
}

func decodeData(kind Kind, data []byte) (Event, error) {
	switch kind {
	case KindState:
		return decodeAs[StateEvent](kind, data)
	case KindStarted:
		return decodeAs[StartedEvent](kind, data)
	case KindGameStart:
		var game GameInfo
		if err := unmarshalData(kind, data, &game); err != nil {
			return nil, err
		}
		return GameStartEvent{Game: game}, nil
	case KindMove:
		var raw struct {
			matchRef
			FEN       string `json:"fen"`
			Move      string `json:"move"`
			MoveCount int    `json:"move_count"`
		}
		if err := unmarshalData(kind, data, &raw); err != nil {
			return nil, err
		}
		return MoveEvent{GameID: raw.resolve(), FEN: raw.FEN, Move: raw.Move, MoveCount: raw.MoveCount}, nil
	case KindGameEnd:
		var raw struct {
			matchRef
			Result      string `json:"result"`
			Winner      string `json:"winner"`
			Termination string `json:"termination"`
			Moves       int    `json:"moves"`
			Stats       *Stats `json:"stats"`
		}
		if err := unmarshalData(kind, data, &raw); err != nil {
			return nil, err
		}
		return GameEndEvent{
			GameID:      raw.resolve(),
			Result:      raw.Result,
			Winner:      raw.Winner,
			Termination: raw.Termination,
			Moves:       raw.Moves,
			Stats:       raw.Stats,
		}, nil
	case KindStats:
		var st Stats
		if err := unmarshalData(kind, data, &st); err != nil {
			return nil, err
		}
		return StatsEvent{Stats: st}, nil
	case KindPaused:
		return PausedEvent{}, nil
	case KindResumed:
		return ResumedEvent{}, nil
	case KindStopped, KindCompleted:
		ev := SessionEndEvent{Reason: kind}
		if err := unmarshalData(kind, data, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	case KindError:
		return decodeAs[ErrorEvent](kind, data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, string(kind))
	}
}

func decodeAs[T Event](kind Kind, data []byte) (Event, error) {
	var ev T
	if err := unmarshalData(kind, data, &ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func unmarshalData(kind Kind, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s data: %v", ErrDecode, kind, err)
	}
	return nil
}
