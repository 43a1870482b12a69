package qr

import "github.com/sadernalwis/qrcode/bitutil"

// EncodeOptions configures barcode encoding behavior.
type EncodeOptions struct {
	// ErrorCorrection specifies the error correction level.
	ErrorCorrection string

	// CharacterSet specifies the character set to use when encoding.
	CharacterSet string

	// Margin specifies the margin (quiet zone) in modules around the barcode.
	Margin *int

	// QRVersion forces a specific QR version (1-40).
	QRVersion int

	// QRMaskPattern forces a specific QR mask pattern (0-7).
	QRMaskPattern int

	// Segments overrides automatic mode classification with a caller-built
	// sequence of typed segments. When set, Encode ignores the contents
	// string passed to Writer.Encode and encodes these segments instead.
	Segments []Segment
}

// Segment is one typed chunk of an encode request: a mode paired with the
// literal text to encode in that mode.
type Segment struct {
	Mode string
	Text string
}

// Writer encodes data into a barcode.
type Writer interface {
	// Encode encodes the given contents into a barcode.
	Encode(contents string, format Format, width, height int, opts *EncodeOptions) (*bitutil.BitMatrix, error)
}
