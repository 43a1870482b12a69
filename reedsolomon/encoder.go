package reedsolomon

// Encoder computes Reed-Solomon error-correction codewords. Generator
// polynomials are expensive to build and depend only on how many
// error-correction bytes are requested, so each one is cached the first
// time it's needed.
type Encoder struct {
	gf         *Field
	generators []*Polynomial
}

// NewEncoder creates an Encoder over the given field.
func NewEncoder(gf *Field) *Encoder {
	return &Encoder{
		gf:         gf,
		generators: []*Polynomial{newPolynomial(gf, []int{1})},
	}
}

func (e *Encoder) generator(degree int) *Polynomial {
	if degree < len(e.generators) {
		return e.generators[degree]
	}
	last := e.generators[len(e.generators)-1]
	for d := len(e.generators); d <= degree; d++ {
		root := newPolynomial(e.gf, []int{1, e.gf.Exp(d - 1 + e.gf.GeneratorBase())})
		last = last.Multiply(root)
		e.generators = append(e.generators, last)
	}
	return e.generators[degree]
}

// Encode fills the trailing ecBytes slots of toEncode with error-correction
// codewords computed from its leading data bytes.
func (e *Encoder) Encode(toEncode []int, ecBytes int) {
	if ecBytes == 0 {
		panic("reedsolomon: no error correction bytes")
	}
	numData := len(toEncode) - ecBytes
	if numData <= 0 {
		panic("reedsolomon: no data bytes provided")
	}

	data := make([]int, numData)
	copy(data, toEncode[:numData])

	message := newPolynomial(e.gf, data).ShiftAndScale(ecBytes, 1)
	_, remainder := message.QuotientRemainder(e.generator(ecBytes))

	ecCoeffs := remainder.Coefficients()
	pad := ecBytes - len(ecCoeffs)
	for i := 0; i < pad; i++ {
		toEncode[numData+i] = 0
	}
	copy(toEncode[numData+pad:], ecCoeffs)
}
