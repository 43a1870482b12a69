package qrcode

import (
	"fmt"

	qr "github.com/sadernalwis/qrcode"
	"github.com/sadernalwis/qrcode/bitutil"
	"github.com/sadernalwis/qrcode/qrcode/decoder"
	"github.com/sadernalwis/qrcode/qrcode/encoder"
)

const defaultQuietZoneSize = 4

// Writer encodes QR codes.
type Writer struct{}

// NewWriter creates a new QR code Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Encode encodes the given contents into a QR code BitMatrix. If
// opts.Segments is set, contents is ignored and those typed segments are
// encoded directly, in order.
func (w *Writer) Encode(contents string, format qr.Format, width, height int, opts *qr.EncodeOptions) (*bitutil.BitMatrix, error) {
	hasSegments := opts != nil && len(opts.Segments) > 0
	if contents == "" && !hasSegments {
		return nil, fmt.Errorf("found empty contents")
	}
	if format != qr.FormatQRCode {
		return nil, fmt.Errorf("can only encode QR_CODE, but got %s", format)
	}
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("requested dimensions are too small: %dx%d", width, height)
	}

	ecLevel := decoder.ECLevelL
	quietZone := defaultQuietZoneSize
	qrVersion := 0
	maskPattern := -1

	if opts != nil {
		if opts.ErrorCorrection != "" {
			switch opts.ErrorCorrection {
			case "L":
				ecLevel = decoder.ECLevelL
			case "M":
				ecLevel = decoder.ECLevelM
			case "Q":
				ecLevel = decoder.ECLevelQ
			case "H":
				ecLevel = decoder.ECLevelH
			default:
				return nil, fmt.Errorf("unknown error correction level: %s", opts.ErrorCorrection)
			}
		}
		if opts.Margin != nil {
			quietZone = *opts.Margin
		}
		if opts.QRVersion > 0 {
			qrVersion = opts.QRVersion
		}
		if opts.QRMaskPattern >= 0 && opts.QRMaskPattern <= 7 {
			maskPattern = opts.QRMaskPattern
		}
	}

	var code *encoder.QRCode
	var err error
	if hasSegments {
		segments := make([]encoder.Segment, len(opts.Segments))
		for i, s := range opts.Segments {
			mode, modeErr := decoder.ModeForName(s.Mode)
			if modeErr != nil {
				return nil, fmt.Errorf("%w: unknown segment mode %q", qr.ErrWriter, s.Mode)
			}
			segments[i] = encoder.Segment{Mode: mode, Text: s.Text}
		}
		code, err = encoder.EncodeSegments(segments, ecLevel, qrVersion, maskPattern)
	} else {
		code, err = encoder.Encode(contents, ecLevel, qrVersion, maskPattern)
	}
	if err != nil {
		return nil, err
	}
	return encoder.RenderResult(code, width, height, quietZone), nil
}
