package transform

import (
	"errors"

	"github.com/sadernalwis/qrcode/bitutil"
)

// ErrNotFound is returned when sampling fails.
var ErrNotFound = errors.New("gridsampler: not found")

// GridSampler samples an image to reconstruct a barcode, accounting for
// perspective distortion.
type GridSampler interface {
	SampleGrid(image *bitutil.BitMatrix, dimensionX, dimensionY int,
		p1ToX, p1ToY, p2ToX, p2ToY, p3ToX, p3ToY, p4ToX, p4ToY float64,
		p1FromX, p1FromY, p2FromX, p2FromY, p3FromX, p3FromY, p4FromX, p4FromY float64,
	) (*bitutil.BitMatrix, error)

	SampleGridTransform(image *bitutil.BitMatrix, dimensionX, dimensionY int,
		xform *PerspectiveTransform,
	) (*bitutil.BitMatrix, error)
}

// DefaultGridSampler is the standard GridSampler implementation.
type DefaultGridSampler struct{}

// SampleGrid samples with explicit corner points.
func (s *DefaultGridSampler) SampleGrid(image *bitutil.BitMatrix, dimensionX, dimensionY int,
	p1ToX, p1ToY, p2ToX, p2ToY, p3ToX, p3ToY, p4ToX, p4ToY float64,
	p1FromX, p1FromY, p2FromX, p2FromY, p3FromX, p3FromY, p4FromX, p4FromY float64,
) (*bitutil.BitMatrix, error) {
	xform := QuadrilateralToQuadrilateral(
		p1ToX, p1ToY, p2ToX, p2ToY, p3ToX, p3ToY, p4ToX, p4ToY,
		p1FromX, p1FromY, p2FromX, p2FromY, p3FromX, p3FromY, p4FromX, p4FromY)
	return s.SampleGridTransform(image, dimensionX, dimensionY, xform)
}

// SampleGridTransform samples using a pre-computed transform.
func (s *DefaultGridSampler) SampleGridTransform(image *bitutil.BitMatrix, dimensionX, dimensionY int,
	xform *PerspectiveTransform,
) (*bitutil.BitMatrix, error) {
	if dimensionX <= 0 || dimensionY <= 0 {
		return nil, ErrNotFound
	}
	out := bitutil.NewBitMatrixWithSize(dimensionX, dimensionY)
	row := make([]float64, 2*dimensionX)
	for y := 0; y < dimensionY; y++ {
		centerY := float64(y) + 0.5
		for col := 0; col < dimensionX; col++ {
			row[2*col] = float64(col) + 0.5
			row[2*col+1] = centerY
		}
		xform.TransformPoints(row)
		if err := nudgeIntoBounds(image, row); err != nil {
			return nil, err
		}
		for col := 0; col < dimensionX; col++ {
			ix, iy := int(row[2*col]), int(row[2*col+1])
			if ix < 0 || ix >= image.Width() || iy < 0 || iy >= image.Height() {
				return nil, ErrNotFound
			}
			if image.Get(ix, iy) {
				out.Set(col, y)
			}
		}
	}
	return out, nil
}

// nudgeIntoBounds checks that transformed points fall within image, and
// snaps points that land exactly one pixel outside back onto the edge.
// Sampling error can land a point at -1 or at width/height; anything
// further out is a genuine miss.
func nudgeIntoBounds(image *bitutil.BitMatrix, points []float64) error {
	width, height := image.Width(), image.Height()
	scanAndNudge := func(from, to, step int) error {
		nudged := true
		for offset := from; offset != to && nudged; offset += step {
			x, y := int(points[offset]), int(points[offset+1])
			if x < -1 || x > width || y < -1 || y > height {
				return ErrNotFound
			}
			nudged = false
			switch x {
			case -1:
				points[offset] = 0
				nudged = true
			case width:
				points[offset] = float64(width - 1)
				nudged = true
			}
			switch y {
			case -1:
				points[offset+1] = 0
				nudged = true
			case height:
				points[offset+1] = float64(height - 1)
				nudged = true
			}
		}
		return nil
	}
	if err := scanAndNudge(0, len(points), 2); err != nil {
		return err
	}
	return scanAndNudge(len(points)-2, -2, -2)
}
