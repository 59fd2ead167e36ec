package board

// dkAnalogAliases are the Arduino header analog names of the nRF52840 DK.
var dkAnalogAliases = map[string]int{"A0": 3, "A1": 4, "A2": 28, "A3": 29, "A4": 30, "A5": 31}

func newDKNRF52840() *Descriptor {
	pins := make(map[string]PinLocation, 48+len(dkAnalogAliases))
	for off := 0; off < 32; off++ {
		pins[portPinName(0, off)] = PinLocation{gpio0, off}
	}
	for off := 0; off < 16; off++ {
		pins[portPinName(1, off)] = PinLocation{gpio1, off}
	}
	for name, off := range dkAnalogAliases {
		pins[name] = PinLocation{gpio0, off}
	}

	d := nrf52840Base()
	d.Pins = pins
	d.Analog = analogFromPins(pins)
	d.Defaults = map[BusKind]map[Role]string{
		BusI2C: {RoleSDA: "P0.26", RoleSCL: "P0.27"},
		BusSPI: {RoleCLK: "P0.31", RoleMOSI: "P0.30", RoleMISO: "P1.08"},
	}
	return d
}
