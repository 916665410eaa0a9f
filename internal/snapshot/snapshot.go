// Package snapshot exports the current view to disk: one PNG per active
// board, the score chart and a text report.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/arena-console/internal/board"
	"github.com/park285/arena-console/internal/history"
	"github.com/park285/arena-console/internal/session"
)

const (
	DefaultDir = "snapshots"
	ReportFile = "report.txt"
	ChartFile  = "history.png"
)

type Exporter struct {
	base string
	log  *zap.Logger
}

func New(baseDir string, logger *zap.Logger) *Exporter {
	if strings.TrimSpace(baseDir) == "" {
		baseDir = DefaultDir
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{base: baseDir, log: logger}
}

// Write exports v into dir. A relative dir is placed under the base
// directory and an empty one means the base itself.
func (e *Exporter) Write(ctx context.Context, dir string, v session.View) (string, error) {
	target := e.base
	switch {
	case dir == "":
	case filepath.IsAbs(dir):
		target = dir
	default:
		target = filepath.Join(e.base, dir)
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("snapshot: create dir: %w", err)
	}

	for _, m := range v.Matches {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		png, err := board.RenderPNG(ctx, m.Board, board.PNGOptions{
			Title:     fmt.Sprintf("#%s %s vs %s  move %d", m.ID, m.White, m.Black, m.MoveCount),
			Highlight: m.Updated,
		})
		if err != nil {
			return "", fmt.Errorf("snapshot: board %s: %w", m.ID, err)
		}
		if err := os.WriteFile(filepath.Join(target, BoardFile(m.ID)), png, 0o644); err != nil {
			return "", fmt.Errorf("snapshot: write board %s: %w", m.ID, err)
		}
	}

	chartPNG, err := history.RenderPNG(v.History, history.ChartOptions{
		Name1: v.Stats.Stats.Engine1Name,
		Name2: v.Stats.Stats.Engine2Name,
	})
	switch {
	case errors.Is(err, history.ErrEmpty):
	case err != nil:
		return "", fmt.Errorf("snapshot: chart: %w", err)
	default:
		if err := os.WriteFile(filepath.Join(target, ChartFile), chartPNG, 0o644); err != nil {
			return "", fmt.Errorf("snapshot: write chart: %w", err)
		}
	}

	if err := os.WriteFile(filepath.Join(target, ReportFile), []byte(Report(v)), 0o644); err != nil {
		return "", fmt.Errorf("snapshot: write report: %w", err)
	}
	e.log.Info("snapshot_written",
		zap.String("dir", target),
		zap.Int("boards", len(v.Matches)),
		zap.Int("history", v.HistoryLen))
	return target, nil
}

// BoardFile names the PNG for a match id, keeping only filename-safe runes.
func BoardFile(id string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
	return "board-" + safe + ".png"
}

// Report is the plain text summary written next to the images. The final
// report from the backend is appended verbatim when present.
func Report(v session.View) string {
	s := v.Stats
	var b strings.Builder
	fmt.Fprintf(&b, "session: %s\n", v.SessionID)
	fmt.Fprintf(&b, "state: %s\n", v.RunState)
	fmt.Fprintf(&b, "games: %d/%d\n", s.Stats.Completed, s.Stats.TotalGames)
	fmt.Fprintf(&b, "%s: %d wins, %.1f points\n", nameOr(s.Stats.Engine1Name, "Engine 1"), s.Stats.Engine1Wins, s.Points1)
	fmt.Fprintf(&b, "%s: %d wins, %.1f points\n", nameOr(s.Stats.Engine2Name, "Engine 2"), s.Stats.Engine2Wins, s.Points2)
	fmt.Fprintf(&b, "draws: %d\n", s.Stats.Draws)
	if s.HasEstimate {
		fmt.Fprintf(&b, "elo estimate: %s\n", s.EstimateText)
	}
	if v.Report != "" {
		b.WriteString("\n")
		b.WriteString(v.Report)
		if !strings.HasSuffix(v.Report, "\n") {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func nameOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
