package qr

import "errors"

var (
	// ErrNotFound is returned when a barcode is not found in the image.
	ErrNotFound = errors.New("barcode not found")

	// ErrChecksum is returned when a barcode's checksum does not match.
	ErrChecksum = errors.New("checksum error")

	// ErrFormat is returned when a barcode cannot be decoded due to format issues.
	ErrFormat = errors.New("format error")

	// ErrWriter is returned when a barcode cannot be encoded.
	ErrWriter = errors.New("writer error")

	// ErrDomain is returned when a Galois field operation is asked to act on
	// an element outside its field, such as log(0) or inverse(0). Reaching
	// this means earlier validation let through a malformed codeword stream.
	ErrDomain = errors.New("domain error")

	// ErrEndOfStream is returned when a bit reader is asked for more bits
	// than remain in the underlying data.
	ErrEndOfStream = errors.New("end of bit stream")
)
