package board

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strings"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

type PNGOptions struct {
	SquareSize int
	Title      string
	// Highlight frames the board, used for a match that just moved.
	Highlight bool
}

const (
	defaultSquareSize = 48
	sideMargin        = 24
	topMargin         = 32
	bottomMargin      = 24
	frameWidth        = 3
)

var (
	lightSquare    = color.RGBA{233, 207, 163, 255}
	darkSquare     = color.RGBA{187, 136, 96, 255}
	backgroundFill = color.RGBA{28, 31, 46, 255}
	titleColor     = color.RGBA{236, 239, 255, 255}
	coordColor     = color.RGBA{8, 214, 120, 255}
	highlightColor = color.RGBA{255, 228, 120, 255}
	whiteLetter    = color.RGBA{20, 20, 20, 255}
	blackLetter    = color.RGBA{240, 240, 240, 255}
)

// RenderPNG draws g as a PNG image. Pieces are drawn as round tokens
// carrying their letter.
func RenderPNG(ctx context.Context, g Grid, opts PNGOptions) ([]byte, error) {
	sq := opts.SquareSize
	if sq <= 0 {
		sq = defaultSquareSize
	}
	boardSize := sq * Size
	origin := image.Pt(sideMargin, topMargin)
	img := image.NewRGBA(image.Rect(0, 0, boardSize+sideMargin*2, boardSize+topMargin+bottomMargin))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundFill), image.Point{}, imagedraw.Src)

	if opts.Highlight {
		frame := image.Rect(origin.X-frameWidth, origin.Y-frameWidth, origin.X+boardSize+frameWidth, origin.Y+boardSize+frameWidth)
		imagedraw.Draw(img, frame, image.NewUniform(highlightColor), image.Point{}, imagedraw.Src)
	}
	drawSquares(img, g, sq, origin)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err := drawPieces(img, g, sq, origin); err != nil {
		return nil, err
	}
	drawCoordinates(img, sq, origin)
	if title := strings.TrimSpace(opts.Title); title != "" {
		drawText(img, title, origin.X, topMargin/2+5, titleColor)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func drawSquares(dst imagedraw.Image, g Grid, sq int, origin image.Point) {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			clr := lightSquare
			if g[r][c].Shade == Dark {
				clr = darkSquare
			}
			x := origin.X + c*sq
			y := origin.Y + r*sq
			imagedraw.Draw(dst, image.Rect(x, y, x+sq, y+sq), image.NewUniform(clr), image.Point{}, imagedraw.Src)
		}
	}
}

func drawPieces(dst *image.RGBA, g Grid, sq int, origin image.Point) error {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			cell := g[r][c]
			if cell.Empty() {
				continue
			}
			token, err := tokenImage(cell.White(), sq)
			if err != nil {
				return err
			}
			x := origin.X + c*sq
			y := origin.Y + r*sq
			imagedraw.Draw(dst, image.Rect(x, y, x+sq, y+sq), token, image.Point{}, imagedraw.Over)

			letter := strings.ToUpper(string(cell.Piece))
			clr := blackLetter
			if cell.White() {
				clr = whiteLetter
			}
			drawCenteredText(dst, letter, x+sq/2, y+sq/2+basicfont.Face7x13.Ascent/2, clr)
		}
	}
	return nil
}

func drawCoordinates(dst *image.RGBA, sq int, origin image.Point) {
	for i := 0; i < Size; i++ {
		rank := string(rune('8' - i))
		file := string(rune('a' + i))
		drawCenteredText(dst, rank, origin.X-sideMargin/2, origin.Y+i*sq+sq/2+basicfont.Face7x13.Ascent/2, coordColor)
		drawCenteredText(dst, file, origin.X+i*sq+sq/2, origin.Y+Size*sq+bottomMargin/2+basicfont.Face7x13.Ascent/2, coordColor)
	}
}

func drawText(dst *image.RGBA, text string, x, baseline int, clr color.Color) {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(clr), Face: basicfont.Face7x13}
	d.Dot = fixed.P(x, baseline)
	d.DrawString(text)
}

func drawCenteredText(dst *image.RGBA, text string, centerX, baseline int, clr color.Color) {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(clr), Face: basicfont.Face7x13}
	width := d.MeasureString(text).Round()
	d.Dot = fixed.P(centerX-width/2, baseline)
	d.DrawString(text)
}

type tokenKey struct {
	white bool
	size  int
}

var (
	tokenCache   = map[tokenKey]image.Image{}
	tokenCacheMu sync.RWMutex
)

const tokenSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100">` +
	`<circle cx="50" cy="50" r="38" fill="%s" stroke="%s" stroke-width="6"/></svg>`

func tokenImage(white bool, size int) (image.Image, error) {
	key := tokenKey{white: white, size: size}
	tokenCacheMu.RLock()
	if img, ok := tokenCache[key]; ok {
		tokenCacheMu.RUnlock()
		return img, nil
	}
	tokenCacheMu.RUnlock()

	fill, stroke := "#202020", "#f0f0f0"
	if white {
		fill, stroke = "#f8f8f8", "#202020"
	}
	icon, err := oksvg.ReadIconStream(strings.NewReader(fmt.Sprintf(tokenSVG, fill, stroke)))
	if err != nil {
		return nil, fmt.Errorf("parse token svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	tokenCacheMu.Lock()
	tokenCache[key] = img
	tokenCacheMu.Unlock()
	return img, nil
}
