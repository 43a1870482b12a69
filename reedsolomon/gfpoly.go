package reedsolomon

// Polynomial is a polynomial over a Field: an ordered set of coefficients,
// highest degree first. Values are immutable once built.
type Polynomial struct {
	gf     *Field
	coeffs []int
}

// newPolynomial builds a Polynomial over gf, stripping any leading
// zero coefficients so the degree reflects the true highest term.
func newPolynomial(gf *Field, coeffs []int) *Polynomial {
	if len(coeffs) == 0 {
		panic("reedsolomon: empty coefficients")
	}

	trimmed := coeffs
	if len(trimmed) > 1 && trimmed[0] == 0 {
		lead := 1
		for lead < len(trimmed) && trimmed[lead] == 0 {
			lead++
		}
		if lead == len(trimmed) {
			trimmed = []int{0}
		} else {
			cp := make([]int, len(trimmed)-lead)
			copy(cp, trimmed[lead:])
			trimmed = cp
		}
	}
	return &Polynomial{gf: gf, coeffs: trimmed}
}

// Coefficients returns the polynomial's coefficients, highest degree first.
func (p *Polynomial) Coefficients() []int {
	return p.coeffs
}

// Degree reports the polynomial's degree.
func (p *Polynomial) Degree() int {
	return len(p.coeffs) - 1
}

// IsZero reports whether p is the zero polynomial.
func (p *Polynomial) IsZero() bool {
	return p.coeffs[0] == 0
}

// GetCoefficient returns the coefficient of the x^degree term.
func (p *Polynomial) GetCoefficient(degree int) int {
	return p.coeffs[len(p.coeffs)-1-degree]
}

// EvaluateAt evaluates p(x) for x. Uses Horner's method for the general
// case, with shortcuts for the common x=0 and x=1 cases.
func (p *Polynomial) EvaluateAt(x int) int {
	switch x {
	case 0:
		return p.GetCoefficient(0)
	case 1:
		sum := 0
		for _, c := range p.coeffs {
			sum = AddOrSubtract(sum, c)
		}
		return sum
	}

	acc := p.coeffs[0]
	for _, c := range p.coeffs[1:] {
		acc = AddOrSubtract(p.gf.Multiply(x, acc), c)
	}
	return acc
}

// Add returns p + other (equivalently p - other, since GF(2^n) addition
// and subtraction are both XOR).
func (p *Polynomial) Add(other *Polynomial) *Polynomial {
	if p.IsZero() {
		return other
	}
	if other.IsZero() {
		return p
	}

	short, long := p.coeffs, other.coeffs
	if len(short) > len(long) {
		short, long = long, short
	}
	offset := len(long) - len(short)

	sum := make([]int, len(long))
	copy(sum, long[:offset])
	for i, c := range short {
		sum[offset+i] = AddOrSubtract(c, long[offset+i])
	}
	return newPolynomial(p.gf, sum)
}

// Multiply returns the product p * other.
func (p *Polynomial) Multiply(other *Polynomial) *Polynomial {
	if p.IsZero() || other.IsZero() {
		return p.gf.Zero()
	}
	out := make([]int, len(p.coeffs)+len(other.coeffs)-1)
	for i, a := range p.coeffs {
		if a == 0 {
			continue
		}
		for j, b := range other.coeffs {
			out[i+j] = AddOrSubtract(out[i+j], p.gf.Multiply(a, b))
		}
	}
	return newPolynomial(p.gf, out)
}

// Scale returns p multiplied by the field scalar k.
func (p *Polynomial) Scale(k int) *Polynomial {
	if k == 0 {
		return p.gf.Zero()
	}
	if k == 1 {
		return p
	}
	out := make([]int, len(p.coeffs))
	for i, c := range p.coeffs {
		out[i] = p.gf.Multiply(c, k)
	}
	return newPolynomial(p.gf, out)
}

// ShiftAndScale returns p multiplied by the monomial coeff * x^degree.
func (p *Polynomial) ShiftAndScale(degree, coeff int) *Polynomial {
	if degree < 0 {
		panic("reedsolomon: negative degree")
	}
	if coeff == 0 {
		return p.gf.Zero()
	}
	out := make([]int, len(p.coeffs)+degree)
	for i, c := range p.coeffs {
		out[i] = p.gf.Multiply(c, coeff)
	}
	return newPolynomial(p.gf, out)
}

// QuotientRemainder divides p by other, returning the quotient and
// remainder as a pair.
func (p *Polynomial) QuotientRemainder(other *Polynomial) (quotient, remainder *Polynomial) {
	if other.IsZero() {
		panic("reedsolomon: divide by zero")
	}

	quotient = p.gf.Zero()
	remainder = p

	leadInverse := p.gf.Inverse(other.GetCoefficient(other.Degree()))
	for remainder.Degree() >= other.Degree() && !remainder.IsZero() {
		shift := remainder.Degree() - other.Degree()
		scale := p.gf.Multiply(remainder.GetCoefficient(remainder.Degree()), leadInverse)
		quotient = quotient.Add(p.gf.BuildMonomial(shift, scale))
		remainder = remainder.Add(other.ShiftAndScale(shift, scale))
	}
	return quotient, remainder
}
