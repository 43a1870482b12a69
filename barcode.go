// Package qr implements the QR Code symbology: module matrix geometry,
// result types, and the image/bitmap abstractions shared by the encoder
// and decoder pipelines.
package qr

import (
	"math"
	"time"

	"github.com/sadernalwis/qrcode/bitutil"
)

// Format represents a barcode format. QRCode is the only format this module
// reads and writes; the type remains so Result and the Reader/Writer
// interfaces stay shaped the way a multi-format barcode library shapes them.
type Format int

const (
	FormatQRCode Format = iota
)

// String returns the name of the barcode format.
func (f Format) String() string {
	switch f {
	case FormatQRCode:
		return "QR_CODE"
	default:
		return "UNKNOWN"
	}
}

// ResultMetadataKey identifies a type of metadata about a barcode result.
type ResultMetadataKey int

const (
	MetadataOther ResultMetadataKey = iota
	MetadataByteSegments
	MetadataErrorCorrectionLevel
	MetadataErrorsCorrected
	MetadataErasuresCorrected
	MetadataStructuredAppendSequence
	MetadataStructuredAppendParity
	MetadataSymbologyIdentifier
)

// ResultPoint represents a point of interest in an image.
type ResultPoint struct {
	X, Y float64
}

// Distance returns the distance between two points.
func Distance(a, b ResultPoint) float64 {
	return math.Sqrt((a.X-b.X)*(a.X-b.X) + (a.Y-b.Y)*(a.Y-b.Y))
}

// CrossProductZ computes the z component of the cross product between vectors
// (bX-aX, bY-aY) and (cX-aX, cY-aY).
func CrossProductZ(a, b, c ResultPoint) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// OrderBestPatterns orders three points as pointA-pointB-pointC, where pointA
// is the point opposite the longest side (so BC is the longest distance) and
// pointB and pointC are ordered so that CrossProductZ(A, B, C) is not negative.
func OrderBestPatterns(patterns [3]ResultPoint) [3]ResultPoint {
	d01 := Distance(patterns[0], patterns[1])
	d12 := Distance(patterns[1], patterns[2])
	d02 := Distance(patterns[0], patterns[2])

	var pointA, pointB, pointC ResultPoint
	if d12 >= d01 && d12 >= d02 {
		pointA = patterns[0]
		pointB = patterns[1]
		pointC = patterns[2]
	} else if d02 >= d01 && d02 >= d12 {
		pointA = patterns[1]
		pointB = patterns[0]
		pointC = patterns[2]
	} else {
		pointA = patterns[2]
		pointB = patterns[0]
		pointC = patterns[1]
	}

	// Use cross product to determine if pointB and pointC should be swapped
	if CrossProductZ(pointA, pointB, pointC) < 0 {
		pointB, pointC = pointC, pointB
	}

	return [3]ResultPoint{pointA, pointB, pointC}
}

// Chunk is one decoded segment's typed, literal content: Numeric,
// Alphanumeric, Byte, Kanji, ECI, or StructuredAppend.
type Chunk struct {
	Mode  string
	Text  string
	Bytes []byte
}

// Location describes where a decoded symbol was found: the finder and
// alignment pattern centers in image space, and the corners of the module
// matrix sampled from that region.
type Location struct {
	FinderPoints  []ResultPoint
	MatrixCorners []ResultPoint
}

// Result encapsulates the result of decoding a barcode.
type Result struct {
	Text      string
	RawBytes  []byte
	NumBits   int
	Chunks    []Chunk
	Location  Location
	Points    []ResultPoint
	Format    Format
	Metadata  map[ResultMetadataKey]interface{}
	Timestamp time.Time
}

// NewResult creates a new Result with the given text, format, and points.
func NewResult(text string, rawBytes []byte, points []ResultPoint, format Format) *Result {
	numBits := 0
	if rawBytes != nil {
		numBits = 8 * len(rawBytes)
	}
	return &Result{
		Text:      text,
		RawBytes:  rawBytes,
		NumBits:   numBits,
		Points:    points,
		Format:    format,
		Metadata:  make(map[ResultMetadataKey]interface{}),
		Timestamp: time.Now(),
	}
}

// PutMetadata adds a metadata key/value pair.
func (r *Result) PutMetadata(key ResultMetadataKey, value interface{}) {
	r.Metadata[key] = value
}

// AddResultPoints appends additional result points.
func (r *Result) AddResultPoints(points []ResultPoint) {
	r.Points = append(r.Points, points...)
}

// BinaryBitmap represents a bitmap of binary (black/white) values.
type BinaryBitmap struct {
	binarizer Binarizer
	matrix    *bitutil.BitMatrix
}

// NewBinaryBitmap creates a new BinaryBitmap from the given Binarizer.
func NewBinaryBitmap(binarizer Binarizer) *BinaryBitmap {
	return &BinaryBitmap{binarizer: binarizer}
}

// Width returns the width of the bitmap.
func (b *BinaryBitmap) Width() int {
	return b.binarizer.Width()
}

// Height returns the height of the bitmap.
func (b *BinaryBitmap) Height() int {
	return b.binarizer.Height()
}

// BlackRow returns a row of black/white values.
func (b *BinaryBitmap) BlackRow(y int, row *bitutil.BitArray) (*bitutil.BitArray, error) {
	return b.binarizer.BlackRow(y, row)
}

// BlackMatrix returns the 2D matrix of black/white values.
func (b *BinaryBitmap) BlackMatrix() (*bitutil.BitMatrix, error) {
	if b.matrix != nil {
		return b.matrix, nil
	}
	m, err := b.binarizer.BlackMatrix()
	if err != nil {
		return nil, err
	}
	b.matrix = m
	return m, nil
}
