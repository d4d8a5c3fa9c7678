package autodecoder

import (
	"strings"

	"github.com/NotCoffee418/amshan_reader/pkg/obis"
)

const (
	manufacturerAidon    = "Aidon"
	manufacturerKaifa    = "Kaifa"
	manufacturerKamstrup = "Kamstrup"
)

// Three letter FLAG ids as sent in P1 identification lines.
var manufacturerNames = map[string]string{
	"AID": manufacturerAidon,
	"KAM": manufacturerKamstrup,
	"KMP": manufacturerKamstrup,
	"KFM": manufacturerKaifa,
	"ISK": "Iskra",
	"LGF": "Landis+Gyr",
	"LGZ": "Landis+Gyr",
	"XMX": "Xemex",
}

// List version prefixes of HAN meters.
var listVersionPrefixes = map[string]string{
	"AIDON_":    manufacturerAidon,
	"KAMSTRUP_": manufacturerKamstrup,
	"KFM_":      manufacturerKaifa,
}

// Scalers by field unit for lists that carry none. Kamstrup reports currents
// in 0.01 A and energy in 10 Wh. Kaifa reports currents in mA and voltages in
// 0.1 V.
var defaultScalers = map[string]map[string]int{
	manufacturerKamstrup: {
		obis.UnitAmpere:       -2,
		obis.UnitKiloWattHour: 1,
		obis.UnitKiloVarHour:  1,
	},
	manufacturerKaifa: {
		obis.UnitAmpere: -3,
		obis.UnitVolt:   -1,
	},
}

// ManufacturerName returns the name for a three letter manufacturer id.
func ManufacturerName(id string) (string, bool) {
	name, ok := manufacturerNames[strings.ToUpper(id)]
	return name, ok
}

func manufacturerFromListVersion(version string) (string, bool) {
	upper := strings.ToUpper(version)
	for prefix, name := range listVersionPrefixes {
		if strings.HasPrefix(upper, prefix) {
			return name, true
		}
	}
	return "", false
}
