// Package render draws a QR code module matrix into PNG, GIF, SVG, and PDF
// output.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"sync"

	svgo "github.com/ajstarks/svgo"
	"github.com/signintech/gopdf"
)

// ModuleMatrix is the minimal shape render needs from a QR code matrix: the
// decoder's *bitutil.BitMatrix (which the encoder's QRCode.ToBitMatrix
// returns) satisfies it without this package importing either.
type ModuleMatrix interface {
	Width() int
	Height() int
	Get(x, y int) bool
}

// Options controls module scale, quiet zone width, and color for rendered
// output. A zero Options renders at 8 pixels per module with a 4-module
// margin in black on white.
type Options struct {
	Scale      int
	Margin     int
	Foreground color.Color
	Background color.Color
}

func (o Options) normalize() Options {
	if o.Scale <= 0 {
		o.Scale = 8
	}
	if o.Margin <= 0 {
		o.Margin = 4
	}
	if o.Foreground == nil {
		o.Foreground = color.Black
	}
	if o.Background == nil {
		o.Background = color.White
	}
	return o
}

func (o Options) image(matrix ModuleMatrix) *image.Paletted {
	dim := matrix.Width()
	side := (dim + o.Margin*2) * o.Scale

	palette := color.Palette{o.Background, o.Foreground}
	img := image.NewPaletted(image.Rect(0, 0, side, side), palette)

	for y := 0; y < dim; y++ {
		for x := 0; x < dim; x++ {
			if !matrix.Get(x, y) {
				continue
			}
			px0 := (x + o.Margin) * o.Scale
			py0 := (y + o.Margin) * o.Scale
			for py := py0; py < py0+o.Scale; py++ {
				for px := px0; px < px0+o.Scale; px++ {
					img.SetColorIndex(px, py, 1)
				}
			}
		}
	}
	return img
}

var pngEncoderBuffers sync.Pool

// PNG renders matrix to PNG-encoded bytes.
func PNG(matrix ModuleMatrix, opts Options) ([]byte, error) {
	opts = opts.normalize()
	var buf bytes.Buffer
	eb, _ := pngEncoderBuffers.Get().(*png.EncoderBuffer)
	pool := &singleBufferPool{buf: eb}
	encoder := png.Encoder{CompressionLevel: png.BestCompression, BufferPool: pool}
	if err := encoder.Encode(&buf, opts.image(matrix)); err != nil {
		return nil, fmt.Errorf("render: encode png: %w", err)
	}
	if pool.buf != nil {
		pngEncoderBuffers.Put(pool.buf)
	}
	return buf.Bytes(), nil
}

// singleBufferPool implements png.EncoderBufferPool over one pooled buffer,
// so repeated PNG calls reuse the same scratch allocation.
type singleBufferPool struct{ buf *png.EncoderBuffer }

func (p *singleBufferPool) Get() *png.EncoderBuffer  { return p.buf }
func (p *singleBufferPool) Put(b *png.EncoderBuffer) { p.buf = b }

// GIF renders matrix to GIF-encoded bytes.
func GIF(matrix ModuleMatrix, opts Options) ([]byte, error) {
	opts = opts.normalize()
	var buf bytes.Buffer
	if err := gif.Encode(&buf, opts.image(matrix), &gif.Options{NumColors: 2}); err != nil {
		return nil, fmt.Errorf("render: encode gif: %w", err)
	}
	return buf.Bytes(), nil
}

// SVG renders matrix to an SVG document, drawing one rect per dark module
// rather than rasterizing, so the output stays crisp at any display size.
func SVG(matrix ModuleMatrix, opts Options) ([]byte, error) {
	opts = opts.normalize()
	dim := matrix.Width()
	side := (dim + opts.Margin*2) * opts.Scale

	var buf bytes.Buffer
	canvas := svgo.New(&buf)
	canvas.Start(side, side)

	bg := opts.Background
	r, g, b, _ := bg.RGBA()
	canvas.Rect(0, 0, side, side, fmt.Sprintf("fill:rgb(%d,%d,%d)", r>>8, g>>8, b>>8))

	fg := opts.Foreground
	r, g, b, _ = fg.RGBA()
	canvas.Group(fmt.Sprintf("fill:rgb(%d,%d,%d)", r>>8, g>>8, b>>8))

	for y := 0; y < matrix.Height(); y++ {
		for x := 0; x < dim; x++ {
			if !matrix.Get(x, y) {
				continue
			}
			px := (x + opts.Margin) * opts.Scale
			py := (y + opts.Margin) * opts.Scale
			canvas.Rect(px, py, opts.Scale, opts.Scale)
		}
	}
	canvas.Gend()
	canvas.End()
	return buf.Bytes(), nil
}

// PDF renders matrix as a single-page PDF sized to the rendered image, with
// the QR code embedded as a raster image on that page.
func PDF(matrix ModuleMatrix, opts Options) ([]byte, error) {
	opts = opts.normalize()
	img := opts.image(matrix)
	side := float64(img.Bounds().Dx())

	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{Unit: gopdf.UnitPT, PageSize: gopdf.Rect{W: side, H: side}})
	pdf.AddPage()

	rect := gopdf.Rect{W: side, H: side}
	if err := pdf.ImageFrom(img, 0, 0, &rect); err != nil {
		return nil, fmt.Errorf("render: embed image in pdf: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Write(&buf); err != nil {
		return nil, fmt.Errorf("render: write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
