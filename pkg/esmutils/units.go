// Package esmutils converts between the units meters report and the units
// stored.
package esmutils

import "math"

// milli scales v by 1000 and rounds. Negative values become 0, stored
// counters are unsigned.
func milli(v float64) uint32 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v*1000 >= math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(math.Round(v * 1000))
}

func KwhToWh(kwh float64) uint32 { return milli(kwh) }

// M3ToDM3 converts gas volume for storage, 1 m³ = 1000 dm³.
func M3ToDM3(m3 float64) uint32 { return milli(m3) }

func DM3ToM3(dm3 uint32) float64 { return float64(dm3) / 1000 }

// WhToKwh is used for meters that report energy in Wh.
func WhToKwh(wh float64) float64 { return wh / 1000 }

// ApplyScaler scales v by 10^scaler. Negative scalers divide so that whole
// numbers such as 2300 with scaler -1 come out exact.
func ApplyScaler(v float64, scaler int) float64 {
	if scaler < 0 {
		return v / math.Pow10(-scaler)
	}
	return v * math.Pow10(scaler)
}
