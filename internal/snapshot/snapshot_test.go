package snapshot

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/park285/arena-console/internal/board"
	"github.com/park285/arena-console/internal/control"
	"github.com/park285/arena-console/internal/history"
	"github.com/park285/arena-console/internal/protocol"
	"github.com/park285/arena-console/internal/session"
	"github.com/park285/arena-console/internal/stats"
)

func testView() session.View {
	agg := stats.New()
	agg.Apply(protocol.Stats{TotalGames: 4, Completed: 2, Engine1Name: "A", Engine2Name: "B", Engine1Wins: 1, Draws: 1})
	return session.View{
		SessionID: "sess",
		RunState:  control.Running,
		Stats:     agg.Readout(),
		Matches: []session.MatchView{
			{ID: "3/x", White: "A", Black: "B", Board: board.Render("startpos"), Updated: true},
		},
		History:    []history.Point{{Completed: 1, Score1: 1}, {Completed: 2, Score1: 1.5, Score2: 0.5}},
		HistoryLen: 2,
		Report:     "A beat B",
	}
}

func decodePNG(t *testing.T, path string) {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if _, err := png.Decode(bytes.NewReader(raw)); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
}

func TestWriteExportsBoardsChartAndReport(t *testing.T) {
	base := t.TempDir()
	e := New(base, nil)
	dir, err := e.Write(context.Background(), "run1", testView())
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if dir != filepath.Join(base, "run1") {
		t.Fatalf("dir = %q", dir)
	}
	decodePNG(t, filepath.Join(dir, "board-3_x.png"))
	decodePNG(t, filepath.Join(dir, ChartFile))

	report, err := os.ReadFile(filepath.Join(dir, ReportFile))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	for _, want := range []string{"games: 2/4", "A: 1 wins, 1.5 points", "elo estimate: +", "A beat B"} {
		if !strings.Contains(string(report), want) {
			t.Fatalf("report missing %q:\n%s", want, report)
		}
	}
}

func TestWriteSkipsChartWithoutHistory(t *testing.T) {
	base := t.TempDir()
	v := testView()
	v.History, v.HistoryLen, v.Matches = nil, 0, nil
	dir, err := New(base, nil).Write(context.Background(), "", v)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if dir != base {
		t.Fatalf("dir = %q, want base", dir)
	}
	if _, err := os.Stat(filepath.Join(dir, ChartFile)); !os.IsNotExist(err) {
		t.Fatalf("chart should not exist, stat err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ReportFile)); err != nil {
		t.Fatalf("report missing: %v", err)
	}
}

func TestBoardFile(t *testing.T) {
	if got := BoardFile("../7"); got != "board-___7.png" {
		t.Fatalf("BoardFile = %q", got)
	}
}
