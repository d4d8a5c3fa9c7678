package meterdb

import (
	"math"
	"time"

	"github.com/NotCoffee418/amshan_reader/pkg/esmutils"
	"github.com/NotCoffee418/amshan_reader/pkg/obis"
	"github.com/NotCoffee418/amshan_reader/pkg/types"
)

// DSMR tariff indicator for the low (night) tariff.
const lowTariff = 1

var totalRegisters = []struct {
	field       string
	readingType MeterDbPowerReadingType
}{
	{obis.FieldActivePowerImportT1Total, PowerConsumptionNight},
	{obis.FieldActivePowerImportT2Total, PowerConsumptionDay},
	{obis.FieldActivePowerExportT1Total, PowerProductionNight},
	{obis.FieldActivePowerExportT2Total, PowerProductionDay},
	{obis.FieldActivePowerImportTotal, PowerConsumptionTotal},
	{obis.FieldActivePowerExportTotal, PowerProductionTotal},
}

// ReadingsFromFields converts a decoded reading into the rows to store. The
// meter clock is used as timestamp when present, received otherwise.
func ReadingsFromFields(f types.Fields, received time.Time) *MeterDbReadings {
	timestamp := received.Unix()
	if meterTime, ok := f.Time(obis.FieldMeterDateTime); ok && !meterTime.IsZero() {
		timestamp = meterTime.Unix()
	}

	readings := &MeterDbReadings{}

	if info, ok := types.MeterInfoFromFields(f); ok {
		readings.Meter = &MeterDbMeter{
			UniqueID:      info.UniqueID(),
			Manufacturer:  firstNonEmpty(info.Manufacturer, info.ManufacturerID),
			Type:          firstNonEmpty(info.Type, info.TypeID),
			MeterID:       info.MeterID,
			ListVersionID: info.ListVersionID,
			LastSeen:      timestamp,
		}
	}

	night := false
	if tariff, ok := f.Int(obis.FieldTariff); ok {
		night = tariff == lowTariff
	}
	if watt, ok := f.Float(obis.FieldActivePowerImport); ok {
		readingType := PowerConsumptionDay
		if night {
			readingType = PowerConsumptionNight
		}
		readings.LivePower = append(readings.LivePower, MeterDbLivePowerReading{
			Timestamp:   timestamp,
			Watt:        toWatt(watt),
			ReadingType: readingType,
		})
	}
	if watt, ok := f.Float(obis.FieldActivePowerExport); ok {
		readingType := PowerProductionDay
		if night {
			readingType = PowerProductionNight
		}
		readings.LivePower = append(readings.LivePower, MeterDbLivePowerReading{
			Timestamp:   timestamp,
			Watt:        toWatt(watt),
			ReadingType: readingType,
		})
	}

	for _, register := range totalRegisters {
		kwh, ok := f.Float(register.field)
		if !ok {
			continue
		}
		readings.TotalPower = append(readings.TotalPower, MeterDbTotalPowerReading{
			Timestamp:   timestamp,
			Watthour:    esmutils.KwhToWh(kwh),
			ReadingType: register.readingType,
		})
	}

	if m3, ok := f.Float(obis.FieldGasConsumptionTotal); ok {
		readings.TotalGas = &MeterDbTotalGasReading{
			Timestamp:           timestamp,
			TotalConsumptionDM3: esmutils.M3ToDM3(m3),
		}
	}

	return readings
}

// IsEmpty reports whether there is nothing to store.
func (r *MeterDbReadings) IsEmpty() bool {
	return r.Meter == nil && len(r.LivePower) == 0 && len(r.TotalPower) == 0 && r.TotalGas == nil
}

func toWatt(w float64) uint32 {
	if w < 0 || math.IsNaN(w) {
		return 0
	}
	return uint32(math.Round(w))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
