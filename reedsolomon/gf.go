// Package reedsolomon implements Reed-Solomon error correction coding over
// Galois fields, as used by the QR code error-correction layer.
package reedsolomon

import "fmt"

// Field is a Galois field GF(size), built from a primitive polynomial. Field
// values support the multiplication and inversion Reed-Solomon needs; XOR
// (AddOrSubtract) stands in for both addition and subtraction.
type Field struct {
	expTable      []int
	logTable      []int
	zero          *Polynomial
	one           *Polynomial
	size          int
	primitive     int
	generatorBase int
}

// QRCodeField256 is GF(2^8) with primitive polynomial x^8+x^4+x^3+x^2+1,
// the field QR codes use for Reed-Solomon coding.
var QRCodeField256 = NewField(0x011D, 256, 0)

// NewField builds a Field of the given size from a primitive polynomial,
// precomputing exponent and logarithm tables for fast multiply/inverse.
func NewField(primitive, size, generatorBase int) *Field {
	gf := &Field{
		primitive:     primitive,
		size:          size,
		generatorBase: generatorBase,
		expTable:      make([]int, size),
		logTable:      make([]int, size),
	}

	power := 1
	for i := 0; i < size; i++ {
		gf.expTable[i] = power
		power *= 2
		if power >= size {
			power ^= primitive
			power &= size - 1
		}
	}
	for i := 0; i < size-1; i++ {
		gf.logTable[gf.expTable[i]] = i
	}

	gf.zero = newPolynomial(gf, []int{0})
	gf.one = newPolynomial(gf, []int{1})
	return gf
}

// Zero returns the zero polynomial over this field.
func (gf *Field) Zero() *Polynomial { return gf.zero }

// One returns the polynomial "1" over this field.
func (gf *Field) One() *Polynomial { return gf.one }

// BuildMonomial returns the single-term polynomial coeff * x^degree.
func (gf *Field) BuildMonomial(degree, coeff int) *Polynomial {
	if degree < 0 {
		panic("reedsolomon: negative degree")
	}
	if coeff == 0 {
		return gf.zero
	}
	coeffs := make([]int, degree+1)
	coeffs[0] = coeff
	return newPolynomial(gf, coeffs)
}

// AddOrSubtract returns a+b, which in GF(2^n) is the same operation as a-b.
func AddOrSubtract(a, b int) int {
	return a ^ b
}

// Exp returns the field element at exponent a, i.e. the generator raised to a.
func (gf *Field) Exp(a int) int {
	return gf.expTable[a]
}

// Log returns the discrete log of a nonzero field element.
func (gf *Field) Log(a int) int {
	if a == 0 {
		panic("reedsolomon: log(0)")
	}
	return gf.logTable[a]
}

// Inverse returns the multiplicative inverse of a nonzero field element.
func (gf *Field) Inverse(a int) int {
	if a == 0 {
		panic("reedsolomon: inverse(0)")
	}
	return gf.expTable[gf.size-gf.logTable[a]-1]
}

// Multiply returns a*b within the field.
func (gf *Field) Multiply(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return gf.expTable[(gf.logTable[a]+gf.logTable[b])%(gf.size-1)]
}

// Size returns the number of elements in the field.
func (gf *Field) Size() int { return gf.size }

// GeneratorBase returns the exponent at which the generator polynomial starts.
func (gf *Field) GeneratorBase() int { return gf.generatorBase }

func (gf *Field) String() string {
	return fmt.Sprintf("GF(0x%x,%d)", gf.primitive, gf.size)
}
