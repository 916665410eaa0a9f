package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

type recorder struct {
	calls []string
	last  Event
}

func (r *recorder) OnState(e StateEvent)           { r.calls = append(r.calls, "state"); r.last = e }
func (r *recorder) OnStarted(e StartedEvent)       { r.calls = append(r.calls, "started"); r.last = e }
func (r *recorder) OnGameStart(e GameStartEvent)   { r.calls = append(r.calls, "game_start"); r.last = e }
func (r *recorder) OnMove(e MoveEvent)             { r.calls = append(r.calls, "move"); r.last = e }
func (r *recorder) OnGameEnd(e GameEndEvent)       { r.calls = append(r.calls, "game_end"); r.last = e }
func (r *recorder) OnStats(e StatsEvent)           { r.calls = append(r.calls, "stats"); r.last = e }
func (r *recorder) OnPaused(e PausedEvent)         { r.calls = append(r.calls, "paused"); r.last = e }
func (r *recorder) OnResumed(e ResumedEvent)       { r.calls = append(r.calls, "resumed"); r.last = e }
func (r *recorder) OnSessionEnd(e SessionEndEvent) { r.calls = append(r.calls, "session_end"); r.last = e }
func (r *recorder) OnError(e ErrorEvent)           { r.calls = append(r.calls, "error"); r.last = e }

func decodeOne(t *testing.T, frame string) Event {
	t.Helper()
	ev, err := Decode([]byte(frame))
	if err != nil {
		t.Fatalf("Decode(%s): %v", frame, err)
	}
	return ev
}

func TestDecodeRoutesEachKindToOneHandler(t *testing.T) {
	cases := []struct {
		frame string
		want  string
	}{
		{`{"event":"state","data":{"running":true,"paused":false}}`, "state"},
		{`{"event":"started","data":{"config":{"num_games":10}}}`, "started"},
		{`{"event":"game_start","data":{"game_id":1}}`, "game_start"},
		{`{"event":"move","data":{"game_id":1,"fen":"8/8/8/8/8/8/8/8 w - - 0 1","move_count":3}}`, "move"},
		{`{"event":"game_end","data":{"game_id":1}}`, "game_end"},
		{`{"event":"stats","data":{"completed":2}}`, "stats"},
		{`{"event":"paused","data":{}}`, "paused"},
		{`{"event":"resumed"}`, "resumed"},
		{`{"event":"stopped","data":{}}`, "session_end"},
		{`{"event":"completed","data":{"report":"done"}}`, "session_end"},
		{`{"event":"error","data":{"message":"boom"}}`, "error"},
	}
	for _, tc := range cases {
		r := &recorder{}
		decodeOne(t, tc.frame).Dispatch(r)
		if len(r.calls) != 1 || r.calls[0] != tc.want {
			t.Fatalf("%s: calls = %v, want [%s]", tc.frame, r.calls, tc.want)
		}
	}
}

func TestDecodeStoppedAndCompletedKeepReason(t *testing.T) {
	stopped := decodeOne(t, `{"event":"stopped","data":{}}`)
	completed := decodeOne(t, `{"event":"completed","data":{"report":"final","stats":{"completed":4}}}`)
	if stopped.Kind() != KindStopped {
		t.Fatalf("stopped kind = %s", stopped.Kind())
	}
	end, ok := completed.(SessionEndEvent)
	if !ok || end.Reason != KindCompleted || end.Report != "final" || end.Stats == nil || end.Stats.Completed != 4 {
		t.Fatalf("unexpected completed event: %+v", completed)
	}
}

func TestDecodeUnknownEvent(t *testing.T) {
	_, err := Decode([]byte(`{"event":"get_coffee","data":{}}`))
	if !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("err = %v, want ErrUnknownEvent", err)
	}
}

func TestDecodeMalformedFrames(t *testing.T) {
	frames := []string{
		`not json`,
		`{"data":{}}`,
		`{"event":5,"data":{}}`,
		`[1,2,3]`,
		`{"event":"move","data":{"move_count":"three"}}`,
		`{"event":"stats","data":[]}`,
	}
	for _, f := range frames {
		ev, err := Decode([]byte(f))
		if !errors.Is(err, ErrDecode) {
			t.Fatalf("Decode(%s) err = %v, want ErrDecode", f, err)
		}
		if ev != nil {
			t.Fatalf("Decode(%s) returned event %+v alongside error", f, ev)
		}
	}
}

func TestGameInfoAcceptsBothIDFieldsAndNumbers(t *testing.T) {
	ev := decodeOne(t, `{"event":"game_start","data":{"id":"g1","white":"LC0","black":"Stockfish","fen":"startpos","eco":"C50","opening":"Italian"}}`)
	gs := ev.(GameStartEvent)
	if gs.Game.ID != "g1" || gs.Game.White != "LC0" || gs.Game.ECO != "C50" || gs.Game.Opening != "Italian" {
		t.Fatalf("unexpected game info: %+v", gs.Game)
	}

	ev = decodeOne(t, `{"event":"game_start","data":{"game_id":17,"moves":["e2e4","e7e5"]}}`)
	gs = ev.(GameStartEvent)
	if gs.Game.ID != "17" || gs.Game.MoveCount != 2 {
		t.Fatalf("numeric id/move count not decoded: %+v", gs.Game)
	}
}

func TestStateSnapshotCarriesActiveGames(t *testing.T) {
	ev := decodeOne(t, `{"event":"state","data":{"running":true,"paused":true,
		"stats":{"total_games":10,"completed":3,"engine1_name":"LC0","engine2_name":"SF"},
		"active_games":[{"game_id":4,"white":"LC0","black":"SF","fen":"x","moves":["e2e4"]}]}}`)
	st := ev.(StateEvent)
	if !st.Running || !st.Paused || st.Stats == nil || st.Stats.TotalGames != 10 {
		t.Fatalf("unexpected state: %+v", st)
	}
	if len(st.ActiveGames) != 1 || st.ActiveGames[0].ID != "4" || st.ActiveGames[0].MoveCount != 1 {
		t.Fatalf("unexpected active games: %+v", st.ActiveGames)
	}
}

func TestCommandFieldsAreSpreadIntoEnvelope(t *testing.T) {
	raw, err := json.Marshal(Start(StartConfig{NumGames: 20, ConcurrentGames: 2, TimeControl: 30, Increment: 0.5}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["command"] != "start" {
		t.Fatalf("command = %v", got["command"])
	}
	cfg, ok := got["config"].(map[string]any)
	if !ok {
		t.Fatalf("config not at top level: %s", raw)
	}
	if cfg["num_games"] != float64(20) || cfg["concurrent_games"] != float64(2) || cfg["time_control"] != float64(30) || cfg["increment"] != 0.5 {
		t.Fatalf("unexpected config: %v", cfg)
	}
	if _, ok := cfg["use_openings"]; ok {
		t.Fatalf("use_openings should be omitted when unset")
	}

	raw, _ = json.Marshal(Pause())
	if string(raw) != `{"command":"pause"}` {
		t.Fatalf("pause = %s", raw)
	}
}
