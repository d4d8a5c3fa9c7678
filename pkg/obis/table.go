package obis

var defaultTable = Table{
	"0.0.1.0.0":   {FieldMeterDateTime, KindTime, ""},
	"0.0.96.1.0":  {FieldMeterID, KindString, ""},
	"0.0.96.1.1":  {FieldMeterID, KindString, ""},
	"0.0.96.1.4":  {FieldListVersionID, KindString, ""},
	"0.0.96.1.7":  {FieldMeterType, KindString, ""},
	"0.0.96.3.10": {FieldBreakerState, KindInt, ""},
	"0.0.96.14.0": {FieldTariff, KindInt, ""},

	"1.0.0.0.5":   {FieldMeterID, KindString, ""},
	"1.0.0.2.8":   {FieldListVersionID, KindString, ""},
	"1.0.0.2.129": {FieldListVersionID, KindString, ""},
	"1.0.96.1.1":  {FieldMeterType, KindString, ""},
	"1.0.96.1.0":  {FieldMeterID, KindString, ""},
	"1.0.96.1.7":  {FieldMeterType, KindString, ""},
	"1.0.1.7.0":   {FieldActivePowerImport, KindInt, UnitWatt},
	"1.0.2.7.0":   {FieldActivePowerExport, KindInt, UnitWatt},
	"1.0.3.7.0":   {FieldReactivePowerImport, KindInt, UnitVar},
	"1.0.4.7.0":   {FieldReactivePowerExport, KindInt, UnitVar},
	"1.0.21.7.0":  {FieldActivePowerImportL1, KindInt, UnitWatt},
	"1.0.41.7.0":  {FieldActivePowerImportL2, KindInt, UnitWatt},
	"1.0.61.7.0":  {FieldActivePowerImportL3, KindInt, UnitWatt},
	"1.0.22.7.0":  {FieldActivePowerExportL1, KindInt, UnitWatt},
	"1.0.42.7.0":  {FieldActivePowerExportL2, KindInt, UnitWatt},
	"1.0.62.7.0":  {FieldActivePowerExportL3, KindInt, UnitWatt},
	"1.0.31.7.0":  {FieldCurrentL1, KindFloat, UnitAmpere},
	"1.0.51.7.0":  {FieldCurrentL2, KindFloat, UnitAmpere},
	"1.0.71.7.0":  {FieldCurrentL3, KindFloat, UnitAmpere},
	"1.0.32.7.0":  {FieldVoltageL1, KindFloat, UnitVolt},
	"1.0.52.7.0":  {FieldVoltageL2, KindFloat, UnitVolt},
	"1.0.72.7.0":  {FieldVoltageL3, KindFloat, UnitVolt},
	"1.0.1.8.0":   {FieldActivePowerImportTotal, KindFloat, UnitKiloWattHour},
	"1.0.2.8.0":   {FieldActivePowerExportTotal, KindFloat, UnitKiloWattHour},
	"1.0.3.8.0":   {FieldReactivePowerImportTotal, KindFloat, UnitKiloVarHour},
	"1.0.4.8.0":   {FieldReactivePowerExportTotal, KindFloat, UnitKiloVarHour},
	"1.0.1.8.1":   {FieldActivePowerImportT1Total, KindFloat, UnitKiloWattHour},
	"1.0.1.8.2":   {FieldActivePowerImportT2Total, KindFloat, UnitKiloWattHour},
	"1.0.2.8.1":   {FieldActivePowerExportT1Total, KindFloat, UnitKiloWattHour},
	"1.0.2.8.2":   {FieldActivePowerExportT2Total, KindFloat, UnitKiloWattHour},

	"0.1.1.0.0":  {FieldMeterDateTime, KindTime, ""},
	"0.1.24.2.1": {FieldGasConsumptionTotal, KindFloat, UnitCubicMeter},
	"0.1.24.2.3": {FieldGasConsumptionTotal, KindFloat, UnitCubicMeter},
	"0.1.96.1.0": {FieldGasMeterID, KindString, ""},
	"0.1.96.1.1": {FieldGasMeterID, KindString, ""},
}

// DefaultTable returns a copy of the built in table covering Aidon, Kaifa,
// Kamstrup and DSMR style P1 meters.
func DefaultTable() Table {
	t := make(Table, len(defaultTable))
	for k, v := range defaultTable {
		t[k] = v
	}
	return t
}

// Lookup returns the definition for code.
func (t Table) Lookup(code Code) (Definition, bool) {
	def, ok := t[code.Key()]
	return def, ok
}

// ByField returns the definition of a field name.
func (t Table) ByField(field string) (Definition, bool) {
	for _, def := range t {
		if def.Field == field {
			return def, true
		}
	}
	return Definition{}, false
}

// FieldKind returns the kind of a field name, and whether the table knows it.
func (t Table) FieldKind(field string) (Kind, bool) {
	def, ok := t.ByField(field)
	return def.Kind, ok
}

// Scalable reports whether the configured scale factor applies to the field.
// Current transformer installations scale currents, power and energy, but not
// voltage.
func (d Definition) Scalable() bool {
	switch d.Unit {
	case UnitWatt, UnitVar, UnitAmpere, UnitKiloWattHour, UnitKiloVarHour:
		return true
	}
	return false
}
