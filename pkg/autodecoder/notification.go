package autodecoder

import (
	"github.com/NotCoffee418/amshan_reader/pkg/dlms"
	"github.com/NotCoffee418/amshan_reader/pkg/obis"
	"github.com/NotCoffee418/amshan_reader/pkg/types"
)

// Positional Kaifa lists by element count.
var kaifaLists = map[int][]string{
	1: {obis.FieldActivePowerImport},
	9: {
		obis.FieldListVersionID, obis.FieldMeterID, obis.FieldMeterType,
		obis.FieldActivePowerImport, obis.FieldActivePowerExport,
		obis.FieldReactivePowerImport, obis.FieldReactivePowerExport,
		obis.FieldCurrentL1, obis.FieldVoltageL1,
	},
	13: {
		obis.FieldListVersionID, obis.FieldMeterID, obis.FieldMeterType,
		obis.FieldActivePowerImport, obis.FieldActivePowerExport,
		obis.FieldReactivePowerImport, obis.FieldReactivePowerExport,
		obis.FieldCurrentL1, obis.FieldCurrentL2, obis.FieldCurrentL3,
		obis.FieldVoltageL1, obis.FieldVoltageL2, obis.FieldVoltageL3,
	},
	14: {
		obis.FieldListVersionID, obis.FieldMeterID, obis.FieldMeterType,
		obis.FieldActivePowerImport, obis.FieldActivePowerExport,
		obis.FieldReactivePowerImport, obis.FieldReactivePowerExport,
		obis.FieldCurrentL1, obis.FieldVoltageL1,
		obis.FieldMeterDateTime,
		obis.FieldActivePowerImportTotal, obis.FieldActivePowerExportTotal,
		obis.FieldReactivePowerImportTotal, obis.FieldReactivePowerExportTotal,
	},
	18: {
		obis.FieldListVersionID, obis.FieldMeterID, obis.FieldMeterType,
		obis.FieldActivePowerImport, obis.FieldActivePowerExport,
		obis.FieldReactivePowerImport, obis.FieldReactivePowerExport,
		obis.FieldCurrentL1, obis.FieldCurrentL2, obis.FieldCurrentL3,
		obis.FieldVoltageL1, obis.FieldVoltageL2, obis.FieldVoltageL3,
		obis.FieldMeterDateTime,
		obis.FieldActivePowerImportTotal, obis.FieldActivePowerExportTotal,
		obis.FieldReactivePowerImportTotal, obis.FieldReactivePowerExportTotal,
	},
}

func (d *AutoDecoder) decodeNotification(payload []byte, fields types.Fields) {
	n, err := dlms.ParseNotification(payload)
	if err != nil {
		d.logger.Debug().Err(err).Int("length", len(payload)).Msg("payload is not a data-notification")
		return
	}
	if !n.DateTime.IsZero() {
		fields[obis.FieldMeterDateTime] = n.DateTime
	}

	entries, leading := groupEntries(flatten(n.Body, nil))
	if len(entries) == 0 {
		d.decodePositional(leading, fields)
		return
	}

	// Kamstrup sends the list version ahead of the first code.
	listVersion := ""
	if len(leading) > 0 {
		if s, ok := leading[0].Text(); ok {
			listVersion = s
		}
	}
	for _, e := range entries {
		def, ok := d.table.Lookup(e.code)
		if ok && def.Field == obis.FieldListVersionID && e.hasValue {
			if s, ok := e.value.Text(); ok {
				listVersion = s
			}
		}
	}

	manufacturer, _ := manufacturerFromListVersion(listVersion)
	if listVersion != "" {
		fields[obis.FieldListVersionID] = listVersion
	}
	if manufacturer != "" {
		fields[obis.FieldMeterManufacturer] = manufacturer
	}

	for _, e := range entries {
		def, ok := d.table.Lookup(e.code)
		if !ok {
			d.logger.Debug().Str("obis", e.code.String()).Msg("skipping unknown obis code")
			continue
		}
		if !e.hasValue {
			continue
		}
		if v, ok := convert(def, e.value, e.scaler, e.hasScaler, manufacturer); ok {
			fields[def.Field] = v
		}
	}
}

func (d *AutoDecoder) decodePositional(items []dlms.Data, fields types.Fields) {
	layout, ok := kaifaLists[len(items)]
	if !ok {
		d.logger.Debug().Int("elements", len(items)).Msg("unknown list without obis codes")
		return
	}
	if len(layout) > 1 {
		fields[obis.FieldMeterManufacturer] = manufacturerKaifa
	}
	for i, field := range layout {
		def, ok := d.table.ByField(field)
		if !ok {
			continue
		}
		if v, ok := convert(def, items[i], 0, false, manufacturerKaifa); ok {
			fields[field] = v
		}
	}
}

// flatten lists the values of nested arrays and structures in order. A
// {scaler, unit} structure is kept as one value.
func flatten(v dlms.Data, out []dlms.Data) []dlms.Data {
	elements, ok := v.Elements()
	if !ok || isScalerUnit(v) {
		return append(out, v)
	}
	for _, e := range elements {
		out = flatten(e, out)
	}
	return out
}

func isScalerUnit(v dlms.Data) bool {
	elements, ok := v.Elements()
	if !ok || v.Tag != dlms.TagStructure || len(elements) != 2 {
		return false
	}
	return elements[0].Tag == dlms.TagInteger && elements[1].Tag == dlms.TagEnum
}

// asCode reports whether v is an OBIS code: a six octet string with F = 255.
func asCode(v dlms.Data) (obis.Code, bool) {
	if v.Tag != dlms.TagOctetString {
		return obis.Code{}, false
	}
	b, _ := v.Bytes()
	if len(b) != 6 || b[5] != 0xFF {
		return obis.Code{}, false
	}
	return obis.CodeFromBytes(b)
}

// groupEntries pairs each OBIS code with the value and the scaler that follow
// it. Values ahead of the first code are returned as leading.
func groupEntries(items []dlms.Data) (entries []entry, leading []dlms.Data) {
	for _, item := range items {
		if code, ok := asCode(item); ok {
			entries = append(entries, entry{code: code})
			continue
		}
		if len(entries) == 0 {
			leading = append(leading, item)
			continue
		}

		last := &entries[len(entries)-1]
		switch {
		case !last.hasValue:
			last.value = item
			last.hasValue = true
		case !last.hasScaler && isScalerUnit(item):
			elements, _ := item.Elements()
			scaler, _ := elements[0].Int()
			last.scaler = int(scaler)
			last.hasScaler = true
		}
	}
	return entries, leading
}
