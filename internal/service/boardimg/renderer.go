package boardimg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/park285/cheese-board/internal/chess/board"
	"github.com/park285/cheese-board/pkg/chessdto"
)

const (
	defaultSquareSize = 64
	outerPad          = 8
	barWidth          = 14
	barGap            = 8
	rankMargin        = 20
	headerHeight      = 28
	footerHeight      = 22
)

var (
	lightSquare     = color.RGBA{233, 207, 163, 255}
	darkSquare      = color.RGBA{187, 136, 96, 255}
	backgroundColor = color.RGBA{28, 31, 46, 255}
	lastMoveFill    = color.NRGBA{R: 255, G: 228, B: 120, A: 130}
	selectedFill    = color.NRGBA{R: 120, G: 200, B: 120, A: 150}
	hintDot         = color.NRGBA{R: 30, G: 30, B: 30, A: 110}
	barWhite        = color.RGBA{240, 240, 240, 255}
	barBlack        = color.RGBA{40, 40, 40, 255}
	textPrimary     = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	coordinateColor = color.NRGBA{R: 8, G: 214, B: 120, A: 255}
)

// Renderer draws a BoardState as PNG. Piece bitmaps are cached per size.
type Renderer struct {
	squareSize int
	pieceDir   string

	mu    sync.RWMutex
	cache map[pieceCacheKey]image.Image
}

type Option func(*Renderer)

func WithSquareSize(px int) Option {
	return func(r *Renderer) {
		if px >= 16 {
			r.squareSize = px
		}
	}
}

// WithPieceDir loads wK.svg ... bP.svg from dir when present.
func WithPieceDir(dir string) Option {
	return func(r *Renderer) { r.pieceDir = dir }
}

func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		squareSize: defaultSquareSize,
		cache:      make(map[pieceCacheKey]image.Image),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type layout struct {
	square int
	origin image.Point
	bar    image.Rectangle
	size   image.Point
}

func (r *Renderer) layout() layout {
	sq := r.squareSize
	boardSize := sq * 8
	originX := outerPad + barWidth + barGap + rankMargin
	originY := headerHeight
	return layout{
		square: sq,
		origin: image.Point{X: originX, Y: originY},
		bar:    image.Rect(outerPad, originY, outerPad+barWidth, originY+boardSize),
		size:   image.Point{X: originX + boardSize + outerPad, Y: originY + boardSize + footerHeight},
	}
}

// RenderPNG draws the board, selection, hints, last move, evaluation bar
// and coordinates.
func (r *Renderer) RenderPNG(ctx context.Context, v chessdto.BoardState) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	l := r.layout()
	img := image.NewRGBA(image.Rect(0, 0, l.size.X, l.size.Y))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	drawSquares(img, l)
	if len(v.LastMove) >= 4 {
		if mv, err := board.ParseUCIMove(v.LastMove); err == nil {
			drawSquareOverlay(img, mv.From, l, lastMoveFill)
			drawSquareOverlay(img, mv.To, l, lastMoveFill)
		}
	}
	if sel, err := board.ParseSquare(v.Selected); err == nil {
		drawSquareOverlay(img, sel, l, selectedFill)
	}
	if err := r.drawPieces(img, v.Rows, l); err != nil {
		return nil, err
	}
	for _, h := range v.Hints {
		sq, err := board.ParseSquare(h)
		if err != nil {
			continue
		}
		rect := squareRect(sq, l)
		center := image.Point{X: (rect.Min.X + rect.Max.X) / 2, Y: (rect.Min.Y + rect.Max.Y) / 2}
		drawDisc(img, center, l.square/7, hintDot)
	}
	drawEvalBar(img, l, v.Eval.WinProbability)

	drawer := &font.Drawer{Dst: img, Face: basicfont.Face7x13}
	drawCoordinates(drawer, l)
	drawHeader(drawer, l, headerText(v))

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func headerText(v chessdto.BoardState) string {
	text := v.Status
	if v.Eval.Label != "" {
		text += "  " + v.Eval.Label
	}
	if v.Eval.BestMove != "" {
		text += "  " + v.Eval.BestMove
	}
	if v.Opening != "" {
		text += "  " + v.Opening
	}
	return text
}

func drawSquares(dst *image.RGBA, l layout) {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			x := l.origin.X + col*l.square
			y := l.origin.Y + row*l.square
			clr := lightSquare
			if (row+col)%2 == 1 {
				clr = darkSquare
			}
			imagedraw.Draw(dst, image.Rect(x, y, x+l.square, y+l.square), image.NewUniform(clr), image.Point{}, imagedraw.Src)
		}
	}
}

func (r *Renderer) drawPieces(dst *image.RGBA, rows [8][8]string, l layout) error {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			code := rows[row][col]
			if code == "" {
				continue
			}
			pimg, err := r.pieceImage(code, l.square)
			if err != nil {
				return err
			}
			x := l.origin.X + col*l.square
			y := l.origin.Y + row*l.square
			imagedraw.Draw(dst, image.Rect(x, y, x+l.square, y+l.square), pimg, image.Point{}, imagedraw.Over)
		}
	}
	return nil
}

func squareRect(sq board.Square, l layout) image.Rectangle {
	row, col := sq.Grid()
	x := l.origin.X + col*l.square
	y := l.origin.Y + row*l.square
	return image.Rect(x, y, x+l.square, y+l.square)
}

func drawSquareOverlay(img *image.RGBA, sq board.Square, l layout, clr color.Color) {
	if !sq.Valid() {
		return
	}
	imagedraw.Draw(img, squareRect(sq, l), image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

// drawEvalBar fills White's share from the bottom.
func drawEvalBar(img *image.RGBA, l layout, percent float64) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	imagedraw.Draw(img, l.bar, image.NewUniform(barBlack), image.Point{}, imagedraw.Src)
	h := int(float64(l.bar.Dy())*percent/100 + 0.5)
	white := image.Rect(l.bar.Min.X, l.bar.Max.Y-h, l.bar.Max.X, l.bar.Max.Y)
	imagedraw.Draw(img, white, image.NewUniform(barWhite), image.Point{}, imagedraw.Src)
}

// drawCoordinates puts rank digits left of file a and file letters under
// rank 1.
func drawCoordinates(drawer *font.Drawer, l layout) {
	drawer.Src = image.NewUniform(coordinateColor)
	ascent := drawer.Face.Metrics().Ascent.Ceil()
	boardEndY := l.origin.Y + 8*l.square

	for i := 0; i < 8; i++ {
		rank := board.Rank(7 - i)
		center := l.origin.Y + i*l.square + l.square/2
		drawCenteredText(drawer, rank.String(), l.origin.X-rankMargin/2, center+ascent/2)

		file := board.File(i)
		fileCenter := l.origin.X + i*l.square + l.square/2
		drawCenteredText(drawer, file.String(), fileCenter, boardEndY+ascent+4)
	}
}

func drawHeader(drawer *font.Drawer, l layout, text string) {
	if text == "" {
		return
	}
	drawer.Src = image.NewUniform(textPrimary)
	maxWidth := l.size.X - 2*outerPad
	text = truncateWithEllipsis(drawer.Face, text, maxWidth)
	ascent := drawer.Face.Metrics().Ascent.Ceil()
	drawer.Dot = fixed.P(outerPad, (headerHeight+ascent)/2)
	drawer.DrawString(text)
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	width := drawer.MeasureString(text).Ceil()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

func truncateWithEllipsis(face font.Face, text string, maxWidth int) string {
	d := font.Drawer{Face: face}
	if d.MeasureString(text).Ceil() <= maxWidth {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "..."
		if d.MeasureString(candidate).Ceil() <= maxWidth {
			return candidate
		}
	}
	return ""
}

func drawDisc(img *image.RGBA, center image.Point, radius int, clr color.Color) {
	if radius <= 0 {
		blendPixel(img, center.X, center.Y, clr)
		return
	}
	rSquared := radius * radius
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			if x*x+y*y > rSquared {
				continue
			}
			blendPixel(img, center.X+x, center.Y+y, clr)
		}
	}
}

func blendPixel(img *image.RGBA, x, y int, clr color.Color) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	sr, sg, sb, sa := clr.RGBA()
	if sa == 0 {
		return
	}
	dst := img.RGBAAt(x, y)
	inv := 0xffff - sa
	img.SetRGBA(x, y, color.RGBA{
		R: uint8((sr + uint32(dst.R)*0x101*inv/0xffff) >> 8),
		G: uint8((sg + uint32(dst.G)*0x101*inv/0xffff) >> 8),
		B: uint8((sb + uint32(dst.B)*0x101*inv/0xffff) >> 8),
		A: uint8((sa + uint32(dst.A)*0x101*inv/0xffff) >> 8),
	})
}
