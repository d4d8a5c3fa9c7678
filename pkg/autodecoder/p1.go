package autodecoder

import (
	"encoding/hex"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/NotCoffee418/amshan_reader/pkg/dlde"
	"github.com/NotCoffee418/amshan_reader/pkg/esmutils"
	"github.com/NotCoffee418/amshan_reader/pkg/obis"
	"github.com/NotCoffee418/amshan_reader/pkg/types"
)

// DSMR timestamps carry S for summer time and W for winter time.
var (
	dsmrSummer = time.FixedZone("CEST", 2*60*60)
	dsmrWinter = time.FixedZone("CET", 60*60)
)

func (d *AutoDecoder) decodeReadout(r *dlde.Readout, fields types.Fields) {
	fields[obis.FieldMeterManufacturerID] = r.ManufacturerID
	if name, ok := ManufacturerName(r.ManufacturerID); ok {
		fields[obis.FieldMeterManufacturer] = name
	}
	if typeID := identificationType(r.Identification); typeID != "" {
		fields[obis.FieldMeterTypeID] = typeID
	}

	for _, ds := range r.DataSets {
		code, err := obis.ParseCode(ds.Address)
		if err != nil {
			continue
		}
		def, ok := d.table.Lookup(code)
		if !ok {
			d.logger.Debug().Str("obis", ds.Address).Msg("skipping unknown obis code")
			continue
		}
		if v, ok := convertText(def, ds.Values); ok {
			fields[def.Field] = v
		}
	}
}

// convertText converts the values of a data line. Lines with several values,
// such as gas readings, carry the measurement last.
func convertText(def obis.Definition, values []dlde.Value) (any, bool) {
	if len(values) == 0 {
		return nil, false
	}
	if def.Kind == obis.KindTime {
		return parseTimestamp(values[0].Value)
	}

	v := values[len(values)-1]
	switch def.Kind {
	case obis.KindString:
		if def.Field == obis.FieldMeterID || def.Field == obis.FieldGasMeterID {
			return decodeHexID(v.Value), true
		}
		return v.Value, true

	case obis.KindInt:
		n, err := strconv.ParseFloat(v.Value, 64)
		if err != nil {
			return nil, false
		}
		switch strings.ToLower(v.Unit) {
		case "kw", "kvar":
			return int64(math.Round(n * 1000)), true
		}
		return int64(math.Round(n)), true

	case obis.KindFloat:
		n, err := strconv.ParseFloat(v.Value, 64)
		if err != nil {
			return nil, false
		}
		switch strings.ToLower(v.Unit) {
		case "wh", "varh":
			n = esmutils.WhToKwh(n)
		}
		return n, true
	}
	return nil, false
}

// parseTimestamp parses YYMMDDhhmmssX.
func parseTimestamp(s string) (any, bool) {
	if len(s) != 13 {
		return nil, false
	}
	var loc *time.Location
	switch s[12] {
	case 'S':
		loc = dsmrSummer
	case 'W':
		loc = dsmrWinter
	default:
		return nil, false
	}
	t, err := time.ParseInLocation("060102150405", s[:12], loc)
	if err != nil {
		return nil, false
	}
	return t, true
}

// decodeHexID decodes equipment ids that DSMR meters send hex encoded. Ids
// that do not decode to printable text are returned unchanged.
func decodeHexID(s string) string {
	decoded, err := hex.DecodeString(s)
	if err != nil || len(decoded) == 0 {
		return s
	}
	for _, r := range string(decoded) {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			return s
		}
	}
	return string(decoded)
}

// identificationType strips the enhanced identification marker (\2) that
// DSMR meters put ahead of the type.
func identificationType(identification string) string {
	if strings.HasPrefix(identification, `\`) && len(identification) >= 2 {
		identification = identification[2:]
	}
	return strings.TrimSpace(identification)
}
