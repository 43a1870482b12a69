package qrcode

import (
	"errors"
	"image"
	"testing"

	qr "github.com/sadernalwis/qrcode"
	"github.com/sadernalwis/qrcode/binarizer"
	"github.com/sadernalwis/qrcode/qrcode/decoder"
	"github.com/sadernalwis/qrcode/qrcode/encoder"
)

func TestRoundTripNumeric(t *testing.T) {
	testRoundTrip(t, "1234567890", decoder.ECLevelM)
}

func TestRoundTripAlphanumeric(t *testing.T) {
	testRoundTrip(t, "HELLO WORLD", decoder.ECLevelL)
}

func TestRoundTripByte(t *testing.T) {
	testRoundTrip(t, "Hello, World! This is a test.", decoder.ECLevelQ)
}

func TestRoundTripHighEC(t *testing.T) {
	testRoundTrip(t, "TEST123", decoder.ECLevelH)
}

func TestRoundTripAllECLevels(t *testing.T) {
	content := "Testing all EC levels"
	levels := []decoder.ErrorCorrectionLevel{
		decoder.ECLevelL, decoder.ECLevelM, decoder.ECLevelQ, decoder.ECLevelH,
	}
	for _, ecLevel := range levels {
		t.Run(ecLevel.String(), func(t *testing.T) {
			testRoundTrip(t, content, ecLevel)
		})
	}
}

func TestWriterEncode(t *testing.T) {
	w := NewWriter()
	result, err := w.Encode("Hello", qr.FormatQRCode, 100, 100, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if result.Width() == 0 || result.Height() == 0 {
		t.Fatalf("empty result matrix")
	}
	if result.Width() < 100 || result.Height() < 100 {
		t.Fatalf("result too small: %dx%d", result.Width(), result.Height())
	}
}

func TestWriterEncodeWithOptions(t *testing.T) {
	w := NewWriter()
	margin := 2
	opts := &qr.EncodeOptions{
		ErrorCorrection: "H",
		Margin:          &margin,
	}
	result, err := w.Encode("Test", qr.FormatQRCode, 200, 200, opts)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if result.Width() < 200 || result.Height() < 200 {
		t.Fatalf("result too small: %dx%d", result.Width(), result.Height())
	}
}

func TestWriterWrongFormat(t *testing.T) {
	w := NewWriter()
	_, err := w.Encode("Hello", qr.Format(99), 100, 100, nil)
	if err == nil {
		t.Fatal("expected error for wrong format")
	}
}

func TestWriterEmptyContents(t *testing.T) {
	w := NewWriter()
	_, err := w.Encode("", qr.FormatQRCode, 100, 100, nil)
	if err == nil {
		t.Fatal("expected error for empty contents")
	}
}

func TestChunksNumeric(t *testing.T) {
	chunks := encodeAndDecodeChunks(t, "12345", decoder.ECLevelL)
	if len(chunks) != 1 || chunks[0].Mode != "Numeric" || chunks[0].Text != "12345" {
		t.Fatalf("chunks = %+v, want one Numeric chunk with text %q", chunks, "12345")
	}
}

func TestChunksAlphanumericFixedVersion(t *testing.T) {
	code, err := encoder.Encode("HELLO WORLD", decoder.ECLevelQ, 1, -1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if code.Version.Number != 1 {
		t.Fatalf("version = %d, want 1", code.Version.Number)
	}
	bits := code.ToBitMatrix()
	if bits.Width() != 21 || bits.Height() != 21 {
		t.Fatalf("symbol = %dx%d, want 21x21", bits.Width(), bits.Height())
	}

	dec := decoder.NewDecoder()
	result, err := dec.Decode(bits, "")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if result.Text != "HELLO WORLD" {
		t.Fatalf("text = %q, want %q", result.Text, "HELLO WORLD")
	}
	if len(result.Chunks) != 1 || result.Chunks[0].Mode != "Alphanumeric" {
		t.Fatalf("chunks = %+v, want one Alphanumeric chunk", result.Chunks)
	}
}

func TestChunksByteUTF8(t *testing.T) {
	content := "Hello, 世界!"
	chunks := encodeAndDecodeChunks(t, content, decoder.ECLevelM)
	if len(chunks) != 1 || chunks[0].Mode != "Byte" {
		t.Fatalf("chunks = %+v, want one Byte chunk", chunks)
	}
	want := []byte{0x48, 0x65, 0x6C, 0x6C, 0x6F, 0x2C, 0x20, 0xE4, 0xB8, 0x96, 0xE7, 0x95, 0x8C, 0x21}
	if string(chunks[0].Bytes) != string(want) {
		t.Fatalf("bytes = % X, want % X", chunks[0].Bytes, want)
	}
}

func TestChunksExplicitKanjiSegment(t *testing.T) {
	segments := []encoder.Segment{{Mode: decoder.ModeKanji, Text: "漢字"}}
	code, err := encoder.EncodeSegments(segments, decoder.ECLevelM, 0, -1)
	if err != nil {
		t.Fatalf("EncodeSegments failed: %v", err)
	}
	bits := code.ToBitMatrix()

	dec := decoder.NewDecoder()
	result, err := dec.Decode(bits, "")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if result.Text != "漢字" {
		t.Fatalf("text = %q, want %q", result.Text, "漢字")
	}
	if len(result.Chunks) != 1 || result.Chunks[0].Mode != "Kanji" {
		t.Fatalf("chunks = %+v, want one Kanji chunk", result.Chunks)
	}
	want := []byte{0x8A, 0xBF, 0x8E, 0x9A}
	if string(result.Chunks[0].Bytes) != string(want) {
		t.Fatalf("bytes = % X, want % X", result.Chunks[0].Bytes, want)
	}
}

func TestEmptyPayloadFixedVersion(t *testing.T) {
	code, err := encoder.Encode("", decoder.ECLevelL, 1, -1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	bits := code.ToBitMatrix()

	dec := decoder.NewDecoder()
	result, err := dec.Decode(bits, "")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if result.Text != "" {
		t.Fatalf("text = %q, want empty", result.Text)
	}
	if len(result.Chunks) != 0 {
		t.Fatalf("chunks = %+v, want none", result.Chunks)
	}
}

func TestRoundTripRotated180(t *testing.T) {
	content := "rotate me"
	code, err := encoder.Encode(content, decoder.ECLevelM, 0, -1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	// Render at 4 pixels per module with a 4-module quiet zone, turn the image
	// upside down, and decode through the locator, which finds the corners.
	side := (code.Matrix.Width + 2*4) * 4
	bits := encoder.RenderResult(code, side, side, 4)
	bits.Rotate180()
	source := qr.NewGrayImageLuminanceSource(qr.BitMatrixToImage(bits))
	bitmap := qr.NewBinaryBitmap(binarizer.NewHybrid(source))

	result, err := NewReader().Decode(bitmap, nil)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if result.Text != content {
		t.Fatalf("text = %q, want %q", result.Text, content)
	}
}

func TestDecodeMultiNoSymbols(t *testing.T) {
	blank := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range blank.Pix {
		blank.Pix[i] = 0xFF
	}
	source := qr.NewGrayImageLuminanceSource(blank)
	bitmap := qr.NewBinaryBitmap(binarizer.NewHybrid(source))

	reader := NewReader()
	_, err := reader.DecodeMulti(bitmap, nil)
	if !errors.Is(err, qr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func encodeAndDecodeChunks(t *testing.T, content string, ecLevel decoder.ErrorCorrectionLevel) []qr.Chunk {
	t.Helper()
	code, err := encoder.Encode(content, ecLevel, 0, -1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	bits := code.ToBitMatrix()

	dec := decoder.NewDecoder()
	result, err := dec.Decode(bits, "")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if result.Text != content {
		t.Fatalf("round-trip mismatch: got %q, want %q", result.Text, content)
	}
	chunks := make([]qr.Chunk, len(result.Chunks))
	for i, c := range result.Chunks {
		chunks[i] = qr.Chunk{Mode: c.Mode, Text: c.Text, Bytes: c.Bytes}
	}
	return chunks
}

func testRoundTrip(t *testing.T, content string, ecLevel decoder.ErrorCorrectionLevel) {
	t.Helper()

	// Encode
	code, err := encoder.Encode(content, ecLevel, 0, -1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if code.Matrix == nil {
		t.Fatal("encoded matrix is nil")
	}

	// Convert ByteMatrix to BitMatrix for decoding
	bits := code.ToBitMatrix()

	// Decode
	dec := decoder.NewDecoder()
	result, err := dec.Decode(bits, "")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if result.Text != content {
		t.Errorf("round-trip mismatch: got %q, want %q", result.Text, content)
	}
}
