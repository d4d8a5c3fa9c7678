// Package obis maps OBIS codes to the measurement fields reported by the
// decoder.
package obis

// Code is the six group OBIS identifier A-B:C.D.E.F.
type Code [6]byte

// Kind is the Go type a field value is reported as.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindTime
)

// Definition describes a field and the unit its value is reported in.
type Definition struct {
	Field string
	Kind  Kind
	Unit  string
}

// Table maps OBIS keys, as returned by Code.Key, to field definitions.
type Table map[string]Definition

// Field names reported by the decoder.
const (
	FieldMeterManufacturer   = "meter_manufacturer"
	FieldMeterManufacturerID = "meter_manufacturer_id"
	FieldMeterType           = "meter_type"
	FieldMeterTypeID         = "meter_type_id"
	FieldListVersionID       = "obis_list_version_id"
	FieldMeterID             = "meter_id"
	FieldMeterDateTime       = "meter_datetime"

	FieldActivePowerImport   = "active_power_import"
	FieldActivePowerExport   = "active_power_export"
	FieldReactivePowerImport = "reactive_power_import"
	FieldReactivePowerExport = "reactive_power_export"

	FieldActivePowerImportL1 = "active_power_import_l1"
	FieldActivePowerImportL2 = "active_power_import_l2"
	FieldActivePowerImportL3 = "active_power_import_l3"
	FieldActivePowerExportL1 = "active_power_export_l1"
	FieldActivePowerExportL2 = "active_power_export_l2"
	FieldActivePowerExportL3 = "active_power_export_l3"

	FieldCurrentL1 = "current_l1"
	FieldCurrentL2 = "current_l2"
	FieldCurrentL3 = "current_l3"
	FieldVoltageL1 = "voltage_l1"
	FieldVoltageL2 = "voltage_l2"
	FieldVoltageL3 = "voltage_l3"

	FieldActivePowerImportTotal   = "active_power_import_total"
	FieldActivePowerExportTotal   = "active_power_export_total"
	FieldReactivePowerImportTotal = "reactive_power_import_total"
	FieldReactivePowerExportTotal = "reactive_power_export_total"
	FieldActivePowerImportT1Total = "active_power_import_t1_total"
	FieldActivePowerImportT2Total = "active_power_import_t2_total"
	FieldActivePowerExportT1Total = "active_power_export_t1_total"
	FieldActivePowerExportT2Total = "active_power_export_t2_total"

	FieldTariff              = "tariff"
	FieldBreakerState        = "breaker_state"
	FieldGasConsumptionTotal = "gas_consumption_total"
	FieldGasMeterID          = "gas_meter_id"
)

// Units used in definitions.
const (
	UnitWatt         = "W"
	UnitVar          = "var"
	UnitKiloWattHour = "kWh"
	UnitKiloVarHour  = "kvarh"
	UnitAmpere       = "A"
	UnitVolt         = "V"
	UnitCubicMeter   = "m3"
)
