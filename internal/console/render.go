// Package console is the terminal adapter: it draws session views as text
// and turns operator lines into session requests.
package console

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/park285/arena-console/internal/control"
	"github.com/park285/arena-console/internal/msgcat"
	"github.com/park285/arena-console/internal/session"
)

const barWidth = 30

type Renderer struct {
	cat    *msgcat.Catalog
	boards bool
}

func NewRenderer(cat *msgcat.Catalog, boards bool) *Renderer {
	return &Renderer{cat: cat, boards: boards}
}

func (r *Renderer) Write(w io.Writer, v session.View) error {
	_, err := io.WriteString(w, r.Format(v))
	return err
}

// Format lays out one full redraw of v.
func (r *Renderer) Format(v session.View) string {
	var b strings.Builder
	line := func(key string, data map[string]any) {
		b.WriteString(r.cat.Text(key, data))
		b.WriteByte('\n')
	}

	sid := v.SessionID
	if len(sid) > 8 {
		sid = sid[:8]
	}
	line("console.header", map[string]any{
		"Session": sid,
		"Status":  r.cat.Text("status."+v.Link, nil),
		"Run":     r.cat.Text("run."+v.RunState.String(), nil),
	})
	line("console.controls", map[string]any{"Controls": controls(v.Buttons)})

	s := v.Stats
	line("console.counters", map[string]any{
		"Name1":   nameOr(s.Stats.Engine1Name, "Engine 1"),
		"Name2":   nameOr(s.Stats.Engine2Name, "Engine 2"),
		"Wins1":   s.Stats.Engine1Wins,
		"Wins2":   s.Stats.Engine2Wins,
		"Draws":   s.Stats.Draws,
		"Points1": trimFloat(s.Points1),
		"Points2": trimFloat(s.Points2),
	})
	line("console.progress", map[string]any{
		"Bar":       progressBar(s.Progress, barWidth),
		"Completed": s.Stats.Completed,
		"Total":     s.Stats.TotalGames,
		"Percent":   s.Percent,
	})
	if s.HasEstimate {
		line("console.estimate", map[string]any{"Estimate": s.EstimateText})
	} else {
		line("console.estimate_none", nil)
	}
	line("console.history", map[string]any{"Len": v.HistoryLen})

	for _, n := range v.Notices {
		line("console.notice", map[string]any{"Message": n.Message})
	}
	if g := v.LastGame; g != nil {
		line("console.last_game", map[string]any{"ID": g.ID, "Result": nameOr(g.Result, "?"), "Termination": g.Termination})
	}

	line("console.matches", map[string]any{"Count": len(v.Matches)})
	for _, m := range v.Matches {
		line("console.match", map[string]any{
			"ID":      m.ID,
			"White":   nameOr(m.White, "?"),
			"Black":   nameOr(m.Black, "?"),
			"ECO":     m.ECO,
			"Opening": m.Opening,
			"Updated": m.Updated,
		})
		if r.boards {
			b.WriteString(m.Board.String())
			b.WriteByte('\n')
		}
		line("console.move", map[string]any{"MoveCount": m.MoveCount, "LastSAN": m.LastSAN})
	}
	if v.Report != "" {
		line("console.report", map[string]any{"Report": v.Report})
	}
	return b.String()
}

func controls(buttons []control.ButtonState) string {
	parts := make([]string, 0, len(buttons))
	for _, btn := range buttons {
		if btn.Enabled {
			parts = append(parts, "["+btn.Label+"]")
		} else {
			parts = append(parts, " "+strings.ToLower(btn.Label)+" ")
		}
	}
	return strings.Join(parts, " ")
}

func progressBar(frac float64, width int) string {
	filled := int(frac*float64(width) + 0.5)
	filled = min(max(filled, 0), width)
	return strings.Repeat("#", filled) + strings.Repeat(".", width-filled)
}

func nameOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return fmt.Sprintf("%.1f", f)
}
