package board

import (
	"strings"

	"git.home.luguber.info/inful/zephyrforge/internal/foundation/normalization"
)

var adcReferences = normalization.NewNormalizer(map[string]string{
	"vdd_1":     "ADC_REF_VDD_1",
	"vdd_1/2":   "ADC_REF_VDD_1_2",
	"vdd_1/3":   "ADC_REF_VDD_1_3",
	"vdd_1/4":   "ADC_REF_VDD_1_4",
	"internal":  "ADC_REF_INTERNAL",
	"external0": "ADC_REF_EXTERNAL0",
	"external1": "ADC_REF_EXTERNAL1",
}, "")

var adcGains = normalization.NewNormalizer(map[string]string{
	"1/6": "ADC_GAIN_1_6",
	"1/5": "ADC_GAIN_1_5",
	"1/4": "ADC_GAIN_1_4",
	"1/3": "ADC_GAIN_1_3",
	"1/2": "ADC_GAIN_1_2",
	"2/3": "ADC_GAIN_2_3",
	"1":   "ADC_GAIN_1",
	"2":   "ADC_GAIN_2",
	"3":   "ADC_GAIN_3",
	"4":   "ADC_GAIN_4",
	"6":   "ADC_GAIN_6",
	"8":   "ADC_GAIN_8",
	"12":  "ADC_GAIN_12",
	"16":  "ADC_GAIN_16",
	"24":  "ADC_GAIN_24",
	"32":  "ADC_GAIN_32",
	"64":  "ADC_GAIN_64",
	"128": "ADC_GAIN_128",
}, "")

// NormalizeADCReference maps a configuration alias ("internal", "vdd_1/4")
// to the Zephyr enum name. Enum names pass through unchanged; unknown values
// are returned as given so board validation can reject them.
func NormalizeADCReference(v string) string {
	return normalizeEnum(adcReferences, v)
}

// NormalizeADCGain maps "1/6" style gains to the Zephyr enum name.
func NormalizeADCGain(v string) string {
	return normalizeEnum(adcGains, v)
}

func normalizeEnum(aliases *normalization.Normalizer[string], v string) string {
	if enum, ok := aliases.Lookup(v); ok {
		return enum
	}
	return strings.ToUpper(strings.TrimSpace(v))
}
