package render_test

import (
	"bytes"
	"encoding/xml"
	"image/gif"
	"image/png"
	"testing"

	qr "github.com/sadernalwis/qrcode"
	"github.com/sadernalwis/qrcode/binarizer"
	"github.com/sadernalwis/qrcode/bitutil"
	"github.com/sadernalwis/qrcode/qrcode"
	"github.com/sadernalwis/qrcode/qrcode/decoder"
	"github.com/sadernalwis/qrcode/qrcode/encoder"
	"github.com/sadernalwis/qrcode/render"
)

func testMatrix(t *testing.T) *bitutil.BitMatrix {
	t.Helper()
	code, err := encoder.Encode("render me", decoder.ECLevelM, 0, -1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	return code.ToBitMatrix()
}

func TestPNG(t *testing.T) {
	bits := testMatrix(t)
	data, err := render.PNG(bits, render.Options{})
	if err != nil {
		t.Fatalf("PNG failed: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("output is not a valid PNG: %v", err)
	}
}

func TestGIF(t *testing.T) {
	bits := testMatrix(t)
	data, err := render.GIF(bits, render.Options{})
	if err != nil {
		t.Fatalf("GIF failed: %v", err)
	}
	if _, err := gif.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("output is not a valid GIF: %v", err)
	}
}

func TestPNGRoundTrip(t *testing.T) {
	content := "round trip through PNG"
	code, err := encoder.Encode(content, decoder.ECLevelM, 0, -1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	data, err := render.PNG(code.ToBitMatrix(), render.Options{Scale: 4, Margin: 4})
	if err != nil {
		t.Fatalf("PNG failed: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a valid PNG: %v", err)
	}

	source := qr.NewImageLuminanceSource(img)
	bitmap := qr.NewBinaryBitmap(binarizer.NewHybrid(source))
	result, err := qrcode.NewReader().Decode(bitmap, nil)
	if err != nil {
		t.Fatalf("Decode of rendered PNG failed: %v", err)
	}
	if result.Text != content {
		t.Fatalf("text = %q, want %q", result.Text, content)
	}
}

func TestGIFRoundTrip(t *testing.T) {
	content := "round trip through GIF"
	code, err := encoder.Encode(content, decoder.ECLevelM, 0, -1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	data, err := render.GIF(code.ToBitMatrix(), render.Options{Scale: 4, Margin: 4})
	if err != nil {
		t.Fatalf("GIF failed: %v", err)
	}

	img, err := gif.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a valid GIF: %v", err)
	}

	source := qr.NewImageLuminanceSource(img)
	bitmap := qr.NewBinaryBitmap(binarizer.NewHybrid(source))
	result, err := qrcode.NewReader().Decode(bitmap, nil)
	if err != nil {
		t.Fatalf("Decode of rendered GIF failed: %v", err)
	}
	if result.Text != content {
		t.Fatalf("text = %q, want %q", result.Text, content)
	}
}

func TestSVG(t *testing.T) {
	bits := testMatrix(t)
	data, err := render.SVG(bits, render.Options{Scale: 4, Margin: 2})
	if err != nil {
		t.Fatalf("SVG failed: %v", err)
	}
	if err := xml.Unmarshal(data, new(struct {
		XMLName xml.Name
	})); err != nil {
		t.Fatalf("output is not well-formed XML: %v", err)
	}
	if !bytes.Contains(data, []byte("<svg")) || !bytes.Contains(data, []byte("<rect")) {
		t.Fatalf("output does not look like an SVG with rects: %s", data)
	}
}

func TestPDF(t *testing.T) {
	bits := testMatrix(t)
	data, err := render.PDF(bits, render.Options{})
	if err != nil {
		t.Fatalf("PDF failed: %v", err)
	}
	n := len(data)
	if n > 5 {
		n = 5
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("output does not start with %%PDF-: %q", data[:n])
	}
}
