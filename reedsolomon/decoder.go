package reedsolomon

import "errors"

// ErrReedSolomon indicates the received codewords could not be corrected.
var ErrReedSolomon = errors.New("reedsolomon: decoding error")

// Decoder performs Reed-Solomon error correction over a fixed field.
type Decoder struct {
	gf *Field
}

// NewDecoder creates a Decoder over the given field.
func NewDecoder(gf *Field) *Decoder {
	return &Decoder{gf: gf}
}

// Decode corrects errors in received in place, using twoS error-correction
// codewords, and reports how many symbols were corrected.
func (d *Decoder) Decode(received []int, twoS int) (int, error) {
	poly := newPolynomial(d.gf, received)

	syndromeCoeffs := make([]int, twoS)
	clean := true
	for i := 0; i < twoS; i++ {
		v := poly.EvaluateAt(d.gf.Exp(i + d.gf.GeneratorBase()))
		syndromeCoeffs[twoS-1-i] = v
		if v != 0 {
			clean = false
		}
	}
	if clean {
		return 0, nil
	}
	syndrome := newPolynomial(d.gf, syndromeCoeffs)

	sigma, omega, err := d.errorLocatorAndEvaluator(d.gf.BuildMonomial(twoS, 1), syndrome, twoS)
	if err != nil {
		return 0, err
	}

	locations, err := d.errorLocations(sigma)
	if err != nil {
		return 0, err
	}
	magnitudes := d.errorMagnitudes(omega, locations)

	for i, loc := range locations {
		pos := len(received) - 1 - d.gf.Log(loc)
		if pos < 0 {
			return 0, ErrReedSolomon
		}
		received[pos] = AddOrSubtract(received[pos], magnitudes[i])
	}
	return len(locations), nil
}

// errorLocatorAndEvaluator runs the extended Euclidean algorithm on a and b,
// stopping once the remainder's degree drops below R/2, to produce the
// error locator (sigma) and error evaluator (omega) polynomials.
func (d *Decoder) errorLocatorAndEvaluator(a, b *Polynomial, R int) (sigma, omega *Polynomial, err error) {
	if a.Degree() < b.Degree() {
		a, b = b, a
	}

	r, rPrev := b, a
	t, tPrev := d.gf.One(), d.gf.Zero()

	for 2*r.Degree() >= R {
		rPrevPrev, tPrevPrev := rPrev, tPrev
		rPrev, tPrev = r, t

		if rPrev.IsZero() {
			return nil, nil, ErrReedSolomon
		}

		r = rPrevPrev
		q := d.gf.Zero()
		leadInverse := d.gf.Inverse(rPrev.GetCoefficient(rPrev.Degree()))
		for r.Degree() >= rPrev.Degree() && !r.IsZero() {
			shift := r.Degree() - rPrev.Degree()
			scale := d.gf.Multiply(r.GetCoefficient(r.Degree()), leadInverse)
			q = q.Add(d.gf.BuildMonomial(shift, scale))
			r = r.Add(rPrev.ShiftAndScale(shift, scale))
		}

		t = q.Multiply(tPrev).Add(tPrevPrev)
		if r.Degree() >= rPrev.Degree() {
			return nil, nil, ErrReedSolomon
		}
	}

	sigmaTildeZero := t.GetCoefficient(0)
	if sigmaTildeZero == 0 {
		return nil, nil, ErrReedSolomon
	}

	inv := d.gf.Inverse(sigmaTildeZero)
	return t.Scale(inv), r.Scale(inv), nil
}

// errorLocations finds the roots of the error locator polynomial by brute
// force over the field and returns their inverses (the error positions).
func (d *Decoder) errorLocations(locator *Polynomial) ([]int, error) {
	numErrors := locator.Degree()
	if numErrors == 1 {
		return []int{locator.GetCoefficient(1)}, nil
	}

	locations := make([]int, 0, numErrors)
	for x := 1; x < d.gf.Size() && len(locations) < numErrors; x++ {
		if locator.EvaluateAt(x) == 0 {
			locations = append(locations, d.gf.Inverse(x))
		}
	}
	if len(locations) != numErrors {
		return nil, ErrReedSolomon
	}
	return locations, nil
}

// errorMagnitudes applies the Forney formula at each error location to
// recover the magnitude of that error.
func (d *Decoder) errorMagnitudes(evaluator *Polynomial, locations []int) []int {
	n := len(locations)
	magnitudes := make([]int, n)

	for i, loc := range locations {
		xInverse := d.gf.Inverse(loc)

		denom := 1
		for j, other := range locations {
			if i == j {
				continue
			}
			term := d.gf.Multiply(other, xInverse)
			var termPlusOne int
			if term&1 != 0 {
				termPlusOne = term &^ 1
			} else {
				termPlusOne = term | 1
			}
			denom = d.gf.Multiply(denom, termPlusOne)
		}

		magnitudes[i] = d.gf.Multiply(evaluator.EvaluateAt(xInverse), d.gf.Inverse(denom))
		if d.gf.GeneratorBase() != 0 {
			magnitudes[i] = d.gf.Multiply(magnitudes[i], xInverse)
		}
	}
	return magnitudes
}
