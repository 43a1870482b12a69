// Package qrcode provides QR code reading and writing.
package qrcode

import (
	"fmt"
	"math"

	qr "github.com/sadernalwis/qrcode"
	"github.com/sadernalwis/qrcode/bitutil"
	"github.com/sadernalwis/qrcode/internal"
	"github.com/sadernalwis/qrcode/qrcode/decoder"
	"github.com/sadernalwis/qrcode/qrcode/detector"
)

// Reader decodes QR codes from binary images.
type Reader struct {
	dec *decoder.Decoder
}

// NewReader creates a new QR code Reader.
func NewReader() *Reader {
	return &Reader{
		dec: decoder.NewDecoder(),
	}
}

// Decode locates and decodes a QR code in the given image.
func (r *Reader) Decode(image *qr.BinaryBitmap, opts *qr.DecodeOptions) (*qr.Result, error) {
	if opts == nil {
		opts = &qr.DecodeOptions{}
	}

	matrix, err := image.BlackMatrix()
	if err != nil {
		return nil, err
	}

	if opts.PureBarcode {
		bits, err := extractPureBits(matrix)
		if err != nil {
			return nil, err
		}
		dr, err := r.dec.Decode(bits, opts.CharacterSet)
		if err != nil {
			return nil, err
		}

		result := qr.NewResult(dr.Text, dr.RawBytes, nil, qr.FormatQRCode)
		result.Chunks = chunksFromDecoderResult(dr)
		populateMetadata(result, dr.ByteSegments, dr.ECLevel,
			dr.HasStructuredAppend(), dr.StructuredAppendSequenceNumber,
			dr.StructuredAppendParity, dr.ErrorsCorrected, dr.SymbologyModifier)
		return result, nil
	}

	detectorResult, dr, err := r.detectAndDecode(matrix, opts.CharacterSet)
	if err != nil && opts.AlsoInverted {
		inverted := matrix.Clone()
		inverted.FlipAll()
		detectorResult, dr, err = r.detectAndDecode(inverted, opts.CharacterSet)
	}
	if err != nil {
		return nil, err
	}

	points := make([]qr.ResultPoint, len(detectorResult.Points))
	for i, p := range detectorResult.Points {
		points[i] = qr.ResultPoint{X: p.X, Y: p.Y}
	}

	result := qr.NewResult(dr.Text, dr.RawBytes, points, qr.FormatQRCode)
	result.Chunks = chunksFromDecoderResult(dr)
	result.Location = qr.Location{
		FinderPoints:  points,
		MatrixCorners: matrixCorners(detectorResult.Bits.Width()),
	}
	populateMetadata(result, dr.ByteSegments, dr.ECLevel,
		dr.HasStructuredAppend(), dr.StructuredAppendSequenceNumber,
		dr.StructuredAppendParity, dr.ErrorsCorrected, dr.SymbologyModifier)
	return result, nil
}

// DecodeMulti locates and decodes every QR code in the given image. It
// returns one Result per symbol found; symbols that detect but fail to
// decode are skipped rather than failing the whole call.
func (r *Reader) DecodeMulti(image *qr.BinaryBitmap, opts *qr.DecodeOptions) ([]*qr.Result, error) {
	if opts == nil {
		opts = &qr.DecodeOptions{}
	}

	matrix, err := image.BlackMatrix()
	if err != nil {
		return nil, err
	}

	detectorResults, err := detector.DetectMulti(matrix, true)
	if err != nil {
		return nil, err
	}

	var results []*qr.Result
	for _, detectorResult := range detectorResults {
		dr, err := r.dec.Decode(detectorResult.Bits, opts.CharacterSet)
		if err != nil {
			continue
		}

		points := make([]qr.ResultPoint, len(detectorResult.Points))
		for i, p := range detectorResult.Points {
			points[i] = qr.ResultPoint{X: p.X, Y: p.Y}
		}

		result := qr.NewResult(dr.Text, dr.RawBytes, points, qr.FormatQRCode)
		result.Chunks = chunksFromDecoderResult(dr)
		result.Location = qr.Location{
			FinderPoints:  points,
			MatrixCorners: matrixCorners(detectorResult.Bits.Width()),
		}
		populateMetadata(result, dr.ByteSegments, dr.ECLevel,
			dr.HasStructuredAppend(), dr.StructuredAppendSequenceNumber,
			dr.StructuredAppendParity, dr.ErrorsCorrected, dr.SymbologyModifier)
		results = append(results, result)
	}
	if len(results) == 0 {
		return nil, qr.ErrNotFound
	}
	return results, nil
}

// detectAndDecode runs one locate-then-decode pass over matrix. Callers use
// this twice when AlsoInverted is set: once on the matrix as given, and once
// on its inverse if the first pass fails.
func (r *Reader) detectAndDecode(matrix *bitutil.BitMatrix, characterSet string) (*internal.DetectorResult, *internal.DecoderResult, error) {
	det := detector.NewDetector(matrix)
	detectorResult, err := det.Detect(false)
	if err != nil {
		return nil, nil, err
	}
	dr, err := r.dec.Decode(detectorResult.Bits, characterSet)
	if err != nil {
		return nil, nil, err
	}
	return detectorResult, dr, nil
}

func chunksFromDecoderResult(dr *internal.DecoderResult) []qr.Chunk {
	if dr.Chunks == nil {
		return nil
	}
	chunks := make([]qr.Chunk, len(dr.Chunks))
	for i, c := range dr.Chunks {
		chunks[i] = qr.Chunk{Mode: c.Mode, Text: c.Text, Bytes: c.Bytes}
	}
	return chunks
}

// matrixCorners returns the four corners of a dimension x dimension module
// matrix, in matrix coordinates.
func matrixCorners(dimension int) []qr.ResultPoint {
	d := float64(dimension - 1)
	return []qr.ResultPoint{
		{X: 0, Y: 0},
		{X: d, Y: 0},
		{X: 0, Y: d},
		{X: d, Y: d},
	}
}

// Reset resets internal state.
func (r *Reader) Reset() {
	// nothing to reset
}

func populateMetadata(result *qr.Result, byteSegments [][]byte, ecLevel string,
	hasStructuredAppend bool, saSequence, saParity, errorsCorrected, symbologyModifier int) {
	if byteSegments != nil {
		result.PutMetadata(qr.MetadataByteSegments, byteSegments)
	}
	if ecLevel != "" {
		result.PutMetadata(qr.MetadataErrorCorrectionLevel, ecLevel)
	}
	if hasStructuredAppend {
		result.PutMetadata(qr.MetadataStructuredAppendSequence, saSequence)
		result.PutMetadata(qr.MetadataStructuredAppendParity, saParity)
	}
	result.PutMetadata(qr.MetadataErrorsCorrected, errorsCorrected)
	result.PutMetadata(qr.MetadataSymbologyIdentifier, fmt.Sprintf("]Q%d", symbologyModifier))
}

// extractPureBits extracts a QR code from a "pure" image, one that contains
// only the unrotated, unskewed barcode with some white border.
func extractPureBits(image *bitutil.BitMatrix) (*bitutil.BitMatrix, error) {
	leftTopBlack := image.TopLeftOnBit()
	rightBottomBlack := image.BottomRightOnBit()
	if leftTopBlack == nil || rightBottomBlack == nil {
		return nil, qr.ErrNotFound
	}

	moduleSize, err := moduleSizePure(leftTopBlack, image)
	if err != nil {
		return nil, err
	}

	top := leftTopBlack[1]
	bottom := rightBottomBlack[1]
	left := leftTopBlack[0]
	right := rightBottomBlack[0]

	if left >= right || top >= bottom {
		return nil, qr.ErrNotFound
	}

	if bottom-top != right-left {
		right = left + (bottom - top)
		if right >= image.Width() {
			return nil, qr.ErrNotFound
		}
	}

	matrixWidth := int(math.Round(float64(right-left+1) / moduleSize))
	matrixHeight := int(math.Round(float64(bottom-top+1) / moduleSize))
	if matrixWidth <= 0 || matrixHeight <= 0 {
		return nil, qr.ErrNotFound
	}
	if matrixHeight != matrixWidth {
		return nil, qr.ErrNotFound
	}

	nudge := int(moduleSize / 2.0)
	top += nudge
	left += nudge

	nudgedTooFarRight := left + int(float64(matrixWidth-1)*moduleSize) - right
	if nudgedTooFarRight > 0 {
		if nudgedTooFarRight > nudge {
			return nil, qr.ErrNotFound
		}
		left -= nudgedTooFarRight
	}
	nudgedTooFarDown := top + int(float64(matrixHeight-1)*moduleSize) - bottom
	if nudgedTooFarDown > 0 {
		if nudgedTooFarDown > nudge {
			return nil, qr.ErrNotFound
		}
		top -= nudgedTooFarDown
	}

	bits := bitutil.NewBitMatrix(matrixWidth)
	for y := 0; y < matrixHeight; y++ {
		iOffset := top + int(float64(y)*moduleSize)
		for x := 0; x < matrixWidth; x++ {
			if image.Get(left+int(float64(x)*moduleSize), iOffset) {
				bits.Set(x, y)
			}
		}
	}
	return bits, nil
}

func moduleSizePure(leftTopBlack []int, image *bitutil.BitMatrix) (float64, error) {
	height := image.Height()
	width := image.Width()
	x := leftTopBlack[0]
	y := leftTopBlack[1]
	inBlack := true
	transitions := 0
	for x < width && y < height {
		if inBlack != image.Get(x, y) {
			transitions++
			if transitions == 5 {
				break
			}
			inBlack = !inBlack
		}
		x++
		y++
	}
	if x == width || y == height {
		return 0, qr.ErrNotFound
	}
	return float64(x-leftTopBlack[0]) / 7.0, nil
}
