// Package board turns position notation into a drawable 8x8 grid.
package board

import (
	"strings"
	"unicode/utf8"
)

const (
	Size = 8

	// StartPlacement is the piece placement of the initial position.
	StartPlacement  = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR"
	startposKeyword = "startpos"
)

// Shade of a square; Light for (row+col) even.
type Shade int

const (
	Light Shade = iota
	Dark
)

// Cell is one square. Row 0 is the top rank as written in the notation.
type Cell struct {
	Piece byte // FEN letter, 0 when empty
	Glyph rune // 0 when empty
	Shade Shade
}

func (c Cell) Empty() bool { return c.Piece == 0 }

// White reports whether the piece is uppercase.
func (c Cell) White() bool { return c.Piece >= 'A' && c.Piece <= 'Z' }

type Grid [Size][Size]Cell

var glyphs = map[byte]rune{
	'K': '♔', 'Q': '♕', 'R': '♖', 'B': '♗', 'N': '♘', 'P': '♙',
	'k': '♚', 'q': '♛', 'r': '♜', 'b': '♝', 'n': '♞', 'p': '♟',
}

// Glyph returns the display glyph for a FEN piece letter.
func Glyph(piece byte) (rune, bool) {
	g, ok := glyphs[piece]
	return g, ok
}

// Render parses the placement field of position. Digits emit runs of empty
// squares, the twelve piece letters map to glyphs and anything else leaves a
// blank square. Missing ranks or files stay blank; overflow is dropped.
func Render(position string) Grid {
	var g Grid
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			g[r][c].Shade = Shade((r + c) % 2)
		}
	}

	fields := strings.Fields(position)
	if len(fields) == 0 {
		return g
	}
	placement := fields[0]
	if strings.EqualFold(placement, startposKeyword) {
		placement = StartPlacement
	}

	for r, rank := range strings.Split(placement, "/") {
		if r >= Size {
			break
		}
		col := 0
		for _, ch := range rank {
			if col >= Size {
				break
			}
			switch {
			case ch >= '1' && ch <= '8':
				col += int(ch - '0')
			default:
				if ch < utf8.RuneSelf {
					if glyph, ok := glyphs[byte(ch)]; ok {
						g[r][col].Piece = byte(ch)
						g[r][col].Glyph = glyph
					}
				}
				col++
			}
		}
	}
	return g
}

// Row returns row r as glyphs, with blanks for empty squares.
func (g Grid) Row(r int) string {
	var b strings.Builder
	for c := 0; c < Size; c++ {
		cell := g[r][c]
		if cell.Empty() {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(cell.Glyph)
	}
	return b.String()
}

// String draws the grid as text, dark squares marked with a dot, ranks and
// files labelled.
func (g Grid) String() string {
	var b strings.Builder
	for r := 0; r < Size; r++ {
		b.WriteByte(byte('8' - r))
		b.WriteByte(' ')
		for c := 0; c < Size; c++ {
			cell := g[r][c]
			switch {
			case !cell.Empty():
				b.WriteRune(cell.Glyph)
			case cell.Shade == Dark:
				b.WriteRune('·')
			default:
				b.WriteRune(' ')
			}
			if c < Size-1 {
				b.WriteByte(' ')
			}
		}
		b.WriteByte('\n')
	}
	b.WriteString("  a b c d e f g h")
	return b.String()
}

// Pieces counts non-empty cells.
func (g Grid) Pieces() int {
	n := 0
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if !g[r][c].Empty() {
				n++
			}
		}
	}
	return n
}
