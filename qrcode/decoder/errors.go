package decoder

// decodeError reports a malformed value encountered while parsing a QR
// code's structural fields (mode indicator, version number, EC level).
type decodeError string

func (e decodeError) Error() string { return "qrcode/decoder: " + string(e) }

const (
	errInvalidECLevel decodeError = "invalid error correction level"
	errInvalidMode    decodeError = "invalid mode"
	errInvalidVersion decodeError = "invalid version number"
)
