package boardimg

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"

	svg "github.com/ajstarks/svgo"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

type shapeKind int

const (
	shapePath shapeKind = iota
	shapeCircle
	shapeRect
)

type glyphShape struct {
	kind shapeKind
	d    string
	x, y int
	w, h int // circle radius in w
}

// Built-in glyph outlines on a 90x90 view box, keyed by piece letter.
var glyphShapes = map[byte][]glyphShape{
	'P': {
		{kind: shapeCircle, x: 45, y: 30, w: 12},
		{kind: shapePath, d: "M36 42 L54 42 L62 70 L28 70 Z"},
		{kind: shapeRect, x: 22, y: 70, w: 46, h: 8},
	},
	'R': {
		{kind: shapePath, d: "M22 70 H68 V62 H62 V34 H68 V18 H60 V24 H52 V18 H38 V24 H30 V18 H22 V34 H28 V62 H22 Z"},
		{kind: shapeRect, x: 18, y: 70, w: 54, h: 8},
	},
	'N': {
		{kind: shapePath, d: "M24 70 H66 C66 50 62 30 48 20 L44 12 L38 22 C28 28 20 38 22 48 L32 48 L40 40 C36 52 26 60 24 70 Z"},
		{kind: shapeRect, x: 20, y: 70, w: 50, h: 8},
	},
	'B': {
		{kind: shapeCircle, x: 45, y: 16, w: 5},
		{kind: shapePath, d: "M30 70 H60 L54 58 C64 46 56 30 45 22 C34 30 26 46 36 58 Z"},
		{kind: shapeRect, x: 22, y: 70, w: 46, h: 8},
	},
	'Q': {
		{kind: shapePath, d: "M20 70 H70 L64 54 L74 26 L58 42 L54 18 L45 38 L36 18 L32 42 L16 26 L26 54 Z"},
		{kind: shapeRect, x: 18, y: 70, w: 54, h: 8},
	},
	'K': {
		{kind: shapePath, d: "M42 10 H48 V16 H54 V22 H48 V30 H42 V22 H36 V16 H42 Z"},
		{kind: shapePath, d: "M24 70 H66 L62 50 C72 38 60 26 45 38 C30 26 18 38 28 50 Z"},
		{kind: shapeRect, x: 20, y: 70, w: 50, h: 8},
	},
}

const glyphBox = 90

// glyphSVG builds the SVG document for a piece code such as "wN".
func glyphSVG(code string) ([]byte, error) {
	if len(code) != 2 {
		return nil, fmt.Errorf("bad piece code %q", code)
	}
	shapes, ok := glyphShapes[code[1]]
	if !ok {
		return nil, fmt.Errorf("unknown piece %q", code)
	}
	fill, stroke := "#ffffff", "#000000"
	if code[0] == 'b' {
		fill, stroke = "#000000", "#ffffff"
	}
	style := fmt.Sprintf("fill:%s;stroke:%s;stroke-width:3;stroke-linejoin:round", fill, stroke)

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Startview(glyphBox, glyphBox, 0, 0, glyphBox, glyphBox)
	for _, sh := range shapes {
		switch sh.kind {
		case shapeCircle:
			canvas.Circle(sh.x, sh.y, sh.w, style)
		case shapeRect:
			canvas.Rect(sh.x, sh.y, sh.w, sh.h, style)
		default:
			canvas.Path(sh.d, style)
		}
	}
	canvas.End()
	return buf.Bytes(), nil
}

type pieceCacheKey struct {
	code string
	size int
}

func (r *Renderer) pieceImage(code string, size int) (image.Image, error) {
	key := pieceCacheKey{code: code, size: size}

	r.mu.RLock()
	if img, ok := r.cache[key]; ok {
		r.mu.RUnlock()
		return img, nil
	}
	r.mu.RUnlock()

	data, err := r.pieceSource(code)
	if err != nil {
		return nil, err
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(sanitizeSVG(data)))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg %s: %w", code, err)
	}
	if icon.ViewBox.W <= 0 {
		icon.ViewBox.W = float64(size)
	}
	if icon.ViewBox.H <= 0 {
		icon.ViewBox.H = float64(size)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	r.mu.Lock()
	r.cache[key] = img
	r.mu.Unlock()
	return img, nil
}

// pieceSource prefers <dir>/<code>.svg from the configured piece set and
// falls back to the built-in glyph.
func (r *Renderer) pieceSource(code string) ([]byte, error) {
	if r.pieceDir != "" {
		data, err := os.ReadFile(filepath.Join(r.pieceDir, code+".svg"))
		if err == nil {
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read piece asset %s: %w", code, err)
		}
	}
	return glyphSVG(code)
}
