package qr

// DecodeOptions configures barcode decoding behavior.
type DecodeOptions struct {
	// PureBarcode hints that the image contains only the barcode with minimal
	// border and no rotation.
	PureBarcode bool

	// CharacterSet specifies the character set to use when decoding.
	CharacterSet string

	// AlsoInverted retries decoding against the inverted matrix (dark and
	// light modules swapped) when the first pass finds nothing, for symbols
	// rendered light-on-dark.
	AlsoInverted bool
}

// Reader decodes barcodes from a BinaryBitmap.
type Reader interface {
	// Decode attempts to decode a barcode from the image.
	Decode(image *BinaryBitmap, opts *DecodeOptions) (*Result, error)

	// Reset resets any internal state.
	Reset()
}
