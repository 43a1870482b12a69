// Package transform provides geometric transformation utilities for barcode detection.
package transform

// PerspectiveTransform maps points through a projective transform in two
// dimensions. Internally it holds the 3x3 matrix m such that a point (x, y)
// maps to the first two coordinates of m*(x, y, 1), normalized by the third.
type PerspectiveTransform struct {
	m [3][3]float64
}

// QuadrilateralToQuadrilateral computes the transform from one quadrilateral to another.
func QuadrilateralToQuadrilateral(
	x0, y0, x1, y1, x2, y2, x3, y3 float64,
	x0p, y0p, x1p, y1p, x2p, y2p, x3p, y3p float64,
) *PerspectiveTransform {
	qToS := QuadrilateralToSquare(x0, y0, x1, y1, x2, y2, x3, y3)
	sToQ := SquareToQuadrilateral(x0p, y0p, x1p, y1p, x2p, y2p, x3p, y3p)
	return sToQ.Times(qToS)
}

// TransformPoints transforms pairs of (x, y) coordinates in-place.
// points must have even length: [x0, y0, x1, y1, ...].
func (pt *PerspectiveTransform) TransformPoints(points []float64) {
	last := len(points) - 1
	for i := 0; i < last; i += 2 {
		pt.transformOne(&points[i], &points[i+1])
	}
}

// TransformPointsSeparate transforms separate x and y coordinate arrays.
func (pt *PerspectiveTransform) TransformPointsSeparate(xValues, yValues []float64) {
	for i := range xValues {
		pt.transformOne(&xValues[i], &yValues[i])
	}
}

func (pt *PerspectiveTransform) transformOne(x, y *float64) {
	m := pt.m
	px, py := *x, *y
	denom := m[2][0]*px + m[2][1]*py + m[2][2]
	*x = (m[0][0]*px + m[0][1]*py + m[0][2]) / denom
	*y = (m[1][0]*px + m[1][1]*py + m[1][2]) / denom
}

// SquareToQuadrilateral computes the transform from the unit square to a quadrilateral.
func SquareToQuadrilateral(x0, y0, x1, y1, x2, y2, x3, y3 float64) *PerspectiveTransform {
	dx3 := x0 - x1 + x2 - x3
	dy3 := y0 - y1 + y2 - y3
	if dx3 == 0 && dy3 == 0 {
		return &PerspectiveTransform{m: [3][3]float64{
			{x1 - x0, x2 - x1, x0},
			{y1 - y0, y2 - y1, y0},
			{0, 0, 1},
		}}
	}
	dx1 := x1 - x2
	dx2 := x3 - x2
	dy1 := y1 - y2
	dy2 := y3 - y2
	denominator := dx1*dy2 - dx2*dy1
	a13 := (dx3*dy2 - dx2*dy3) / denominator
	a23 := (dx1*dy3 - dx3*dy1) / denominator
	return &PerspectiveTransform{m: [3][3]float64{
		{x1 - x0 + a13*x1, x3 - x0 + a23*x3, x0},
		{y1 - y0 + a13*y1, y3 - y0 + a23*y3, y0},
		{a13, a23, 1},
	}}
}

// QuadrilateralToSquare computes the transform from a quadrilateral to the unit square.
func QuadrilateralToSquare(x0, y0, x1, y1, x2, y2, x3, y3 float64) *PerspectiveTransform {
	return SquareToQuadrilateral(x0, y0, x1, y1, x2, y2, x3, y3).BuildAdjoint()
}

// adjacentIndices returns the two row or column indices of a 3x3 matrix
// other than i, in ascending order.
func adjacentIndices(i int) (int, int) {
	switch i {
	case 0:
		return 1, 2
	case 1:
		return 0, 2
	default:
		return 0, 1
	}
}

// cofactor returns the signed minor of m at (row, col): the determinant of
// the 2x2 matrix left after deleting that row and column.
func cofactor(m [3][3]float64, row, col int) float64 {
	r0, r1 := adjacentIndices(row)
	c0, c1 := adjacentIndices(col)
	det := m[r0][c0]*m[r1][c1] - m[r0][c1]*m[r1][c0]
	if (row+col)%2 != 0 {
		det = -det
	}
	return det
}

// BuildAdjoint returns the adjugate of pt: the transpose of its cofactor
// matrix. Since pt's underlying matrix is invertible only up to scale, this
// is cheaper than a general matrix inverse.
func (pt *PerspectiveTransform) BuildAdjoint() *PerspectiveTransform {
	var adj [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			adj[i][j] = cofactor(pt.m, j, i)
		}
	}
	return &PerspectiveTransform{m: adj}
}

// Times returns pt * other, composing the two transforms.
func (pt *PerspectiveTransform) Times(other *PerspectiveTransform) *PerspectiveTransform {
	var out [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += pt.m[i][k] * other.m[k][j]
			}
			out[i][j] = sum
		}
	}
	return &PerspectiveTransform{m: out}
}
