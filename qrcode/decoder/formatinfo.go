package decoder

import "math/bits"

// formatInfoMaskQR is XORed into both copies of the format info bits so
// that an all-white or all-black symbol region doesn't clear every bit.
const formatInfoMaskQR = 0x5412

// FormatInformation encapsulates a QR code's format info (EC level + data mask).
type FormatInformation struct {
	ECLevel  ErrorCorrectionLevel
	DataMask byte
}

// formatInfoEntry pairs one of the 32 valid masked format-info codewords
// with the (EC level, data mask) value it encodes.
type formatInfoEntry struct {
	masked int
	value  int
}

var formatInfoTable = []formatInfoEntry{
	{0x5412, 0x00}, {0x5125, 0x01}, {0x5E7C, 0x02}, {0x5B4B, 0x03},
	{0x45F9, 0x04}, {0x40CE, 0x05}, {0x4F97, 0x06}, {0x4AA0, 0x07},
	{0x77C4, 0x08}, {0x72F3, 0x09}, {0x7DAA, 0x0A}, {0x789D, 0x0B},
	{0x662F, 0x0C}, {0x6318, 0x0D}, {0x6C41, 0x0E}, {0x6976, 0x0F},
	{0x1689, 0x10}, {0x13BE, 0x11}, {0x1CE7, 0x12}, {0x19D0, 0x13},
	{0x0762, 0x14}, {0x0255, 0x15}, {0x0D0C, 0x16}, {0x083B, 0x17},
	{0x355F, 0x18}, {0x3068, 0x19}, {0x3F31, 0x1A}, {0x3A06, 0x1B},
	{0x24B4, 0x1C}, {0x2183, 0x1D}, {0x2EDA, 0x1E}, {0x2BED, 0x1F},
}

func newFormatInformation(value int) *FormatInformation {
	ecLevel, _ := ECLevelForBits((value >> 3) & 0x03)
	return &FormatInformation{
		ECLevel:  ecLevel,
		DataMask: byte(value & 0x07),
	}
}

// DecodeFormatInformation decodes format information from two masked copies
// of the same 15-bit value, read from different corners of the symbol, and
// corrects up to 3 bit errors between them.
func DecodeFormatInformation(maskedFormatInfo1, maskedFormatInfo2 int) *FormatInformation {
	if fi := bestFormatInfoMatch(maskedFormatInfo1, maskedFormatInfo2); fi != nil {
		return fi
	}
	return bestFormatInfoMatch(maskedFormatInfo1^formatInfoMaskQR, maskedFormatInfo2^formatInfoMaskQR)
}

func bestFormatInfoMatch(copy1, copy2 int) *FormatInformation {
	closest := 32
	closestValue := 0

	for _, entry := range formatInfoTable {
		if entry.masked == copy1 || entry.masked == copy2 {
			return newFormatInformation(entry.value)
		}
		if d := bits.OnesCount(uint(copy1 ^ entry.masked)); d < closest {
			closest, closestValue = d, entry.value
		}
		if copy1 != copy2 {
			if d := bits.OnesCount(uint(copy2 ^ entry.masked)); d < closest {
				closest, closestValue = d, entry.value
			}
		}
	}
	if closest <= 3 {
		return newFormatInformation(closestValue)
	}
	return nil
}
