package board

import "maps"

// featherPins is the Adafruit Feather nRF52840 Express header routing.
var featherPins = map[string]PinLocation{
	"D0":  {gpio0, 25},
	"D1":  {gpio0, 24},
	"D2":  {gpio0, 10},
	"D3":  {gpio1, 15},
	"D4":  {gpio1, 10},
	"D5":  {gpio1, 8},
	"D6":  {gpio0, 7},
	"D7":  {gpio1, 2},
	"D8":  {gpio0, 16},
	"D9":  {gpio0, 26},
	"D10": {gpio0, 27},
	"D11": {gpio0, 6},
	"D12": {gpio0, 8},
	"D13": {gpio1, 9},
	"D14": {gpio0, 4},
	"D15": {gpio0, 5},
	"D16": {gpio0, 30},
	"D17": {gpio0, 28},
	"D18": {gpio0, 2},
	"D19": {gpio0, 3},
	"D20": {gpio0, 29},
	"D21": {gpio0, 31},
	"D22": {gpio0, 12},
	"D23": {gpio0, 11},
	"D24": {gpio0, 15},
	"D25": {gpio0, 13},
	"D26": {gpio0, 14},
	"D27": {gpio0, 19},
	"D28": {gpio0, 20},
	"D29": {gpio0, 17},
	"D30": {gpio0, 22},
	"D31": {gpio0, 23},
	"D32": {gpio0, 21},
	"D33": {gpio0, 9},
	"A0":  {gpio0, 4},
	"A1":  {gpio0, 5},
	"A2":  {gpio0, 30},
	"A3":  {gpio0, 28},
	"A4":  {gpio0, 2},
	"A5":  {gpio0, 3},
	"A6":  {gpio0, 29},
	"A7":  {gpio0, 31},
}

func newFeatherNRF52840() *Descriptor {
	d := nrf52840Base()
	d.Pins = maps.Clone(featherPins)
	analog := make(map[string]int)
	for name, ch := range analogFromPins(featherPins) {
		// Only the silkscreened A pins are offered as analog inputs.
		if name[0] == 'A' {
			analog[name] = ch
		}
	}
	d.Analog = analog
	d.Defaults = map[BusKind]map[Role]string{
		BusI2C: {RoleSDA: "D22", RoleSCL: "D23"},
		BusSPI: {RoleCLK: "D26", RoleMOSI: "D25", RoleMISO: "D24"},
	}
	return d
}
