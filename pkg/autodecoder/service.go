package autodecoder

import (
	"math"
	"strings"
	"time"

	"github.com/NotCoffee418/amshan_reader/pkg/dlms"
	"github.com/NotCoffee418/amshan_reader/pkg/esmutils"
	"github.com/NotCoffee418/amshan_reader/pkg/obis"
	"github.com/NotCoffee418/amshan_reader/pkg/types"
	"github.com/rs/zerolog/log"
)

// New creates a decoder for table, or for the default table when table is
// nil.
func New(table obis.Table) *AutoDecoder {
	if table == nil {
		table = obis.DefaultTable()
	}
	return &AutoDecoder{
		table:  table,
		logger: log.With().Str("component", "autodecoder").Logger(),
	}
}

// Decode returns the fields found in msg. Invalid and undecodable messages,
// and the stop message, give empty fields. Unknown OBIS codes are skipped.
func (d *AutoDecoder) Decode(msg types.Message) types.Fields {
	fields := types.Fields{}
	if msg == nil || !msg.IsValid() {
		return fields
	}

	switch m := msg.(type) {
	case *types.P1Message:
		d.decodeReadout(m.Readout(), fields)
	case *types.HdlcMessage, *types.DlmsMessage:
		d.decodeNotification(m.Payload(), fields)
	}
	return fields
}

// convert turns a DLMS value into the kind and unit of def.
func convert(def obis.Definition, value dlms.Data, scaler int, hasScaler bool, manufacturer string) (any, bool) {
	switch def.Kind {
	case obis.KindString:
		s, ok := value.Text()
		if !ok {
			return nil, false
		}
		return strings.TrimSpace(s), true

	case obis.KindTime:
		switch v := value.Value.(type) {
		case time.Time:
			return v, true
		case []byte:
			ts, err := dlms.ParseDateTime(v)
			if err != nil {
				return nil, false
			}
			return ts, true
		}
		return nil, false

	case obis.KindInt, obis.KindFloat:
		if !value.IsNumeric() {
			return nil, false
		}
		v, _ := value.Float()
		if !hasScaler {
			scaler = defaultScalers[manufacturer][def.Unit]
		}
		v = esmutils.ApplyScaler(v, scaler)
		if def.Unit == obis.UnitKiloWattHour || def.Unit == obis.UnitKiloVarHour {
			v = esmutils.WhToKwh(v)
		}
		if def.Kind == obis.KindInt {
			return int64(math.Round(v)), true
		}
		return v, true
	}
	return nil, false
}
