// Package charset provides character set ECI mappings and encoding detection.
package charset

import "errors"

// ErrFormatECI indicates an invalid ECI value.
var ErrFormatECI = errors.New("charset: invalid ECI value")

// ECI represents a Character Set Extended Channel Interpretation.
type ECI struct {
	Value   int
	Name    string
	GoName  string // Go encoding name
	Aliases []string
}

// eciDef is a row of the ECI registry: one or more wire values that all
// mean the same character set (older encoders sometimes used a different
// value for the same set than the spec later settled on), plus the names
// it's known by.
type eciDef struct {
	values  []int
	name    string
	goName  string
	aliases []string
}

var eciRegistry = []eciDef{
	{[]int{0, 2}, "Cp437", "IBM437", nil},
	{[]int{1, 3}, "ISO8859_1", "ISO8859_1", []string{"ISO-8859-1"}},
	{[]int{4}, "ISO8859_2", "ISO8859_2", []string{"ISO-8859-2"}},
	{[]int{5}, "ISO8859_3", "ISO8859_3", []string{"ISO-8859-3"}},
	{[]int{6}, "ISO8859_4", "ISO8859_4", []string{"ISO-8859-4"}},
	{[]int{7}, "ISO8859_5", "ISO8859_5", []string{"ISO-8859-5"}},
	{[]int{8}, "ISO8859_6", "ISO8859_6", []string{"ISO-8859-6"}},
	{[]int{9}, "ISO8859_7", "ISO8859_7", []string{"ISO-8859-7"}},
	{[]int{10}, "ISO8859_8", "ISO8859_8", []string{"ISO-8859-8"}},
	{[]int{11}, "ISO8859_9", "ISO8859_9", []string{"ISO-8859-9"}},
	{[]int{12}, "ISO8859_10", "ISO8859_10", []string{"ISO-8859-10"}},
	{[]int{13}, "ISO8859_11", "ISO8859_11", []string{"ISO-8859-11"}},
	{[]int{15}, "ISO8859_13", "ISO8859_13", []string{"ISO-8859-13"}},
	{[]int{16}, "ISO8859_14", "ISO8859_14", []string{"ISO-8859-14"}},
	{[]int{17}, "ISO8859_15", "ISO8859_15", []string{"ISO-8859-15"}},
	{[]int{18}, "ISO8859_16", "ISO8859_16", []string{"ISO-8859-16"}},
	{[]int{20}, "SJIS", "Shift_JIS", []string{"Shift_JIS"}},
	{[]int{21}, "Cp1250", "Windows1250", []string{"windows-1250"}},
	{[]int{22}, "Cp1251", "Windows1251", []string{"windows-1251"}},
	{[]int{23}, "Cp1252", "Windows1252", []string{"windows-1252"}},
	{[]int{24}, "Cp1256", "Windows1256", []string{"windows-1256"}},
	{[]int{25}, "UnicodeBigUnmarked", "UTF-16BE", []string{"UTF-16BE", "UnicodeBig"}},
	{[]int{26}, "UTF8", "UTF-8", []string{"UTF-8"}},
	{[]int{27, 170}, "ASCII", "US-ASCII", []string{"US-ASCII"}},
	{[]int{28}, "Big5", "Big5", nil},
	{[]int{29}, "GB18030", "GB18030", []string{"GB2312", "EUC_CN", "GBK"}},
	{[]int{30}, "EUC_KR", "EUC-KR", []string{"EUC-KR"}},
}

var (
	valueToECI map[int]*ECI
	nameToECI  map[string]*ECI
)

func init() {
	valueToECI = make(map[int]*ECI)
	nameToECI = make(map[string]*ECI)

	for _, def := range eciRegistry {
		eci := &ECI{Value: def.values[0], Name: def.name, GoName: def.goName, Aliases: def.aliases}
		for _, v := range def.values {
			valueToECI[v] = eci
		}
		nameToECI[eci.Name] = eci
		nameToECI[eci.GoName] = eci
		for _, alias := range eci.Aliases {
			nameToECI[alias] = eci
		}
	}
}

// GetECIByValue returns the ECI for the given value, or an error if invalid.
func GetECIByValue(value int) (*ECI, error) {
	if value < 0 || value >= 900 {
		return nil, ErrFormatECI
	}
	return valueToECI[value], nil
}

// GetECIByName returns the ECI for the given encoding name.
func GetECIByName(name string) *ECI {
	return nameToECI[name]
}
