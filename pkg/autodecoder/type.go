// Package autodecoder turns meter messages into named measurement fields,
// recognising the list formats of the common HAN and P1 meters.
package autodecoder

import (
	"github.com/NotCoffee418/amshan_reader/pkg/dlms"
	"github.com/NotCoffee418/amshan_reader/pkg/obis"
	"github.com/rs/zerolog"
)

// AutoDecoder decodes messages against an OBIS table. It holds no state
// between calls and is safe for concurrent use.
type AutoDecoder struct {
	table  obis.Table
	logger zerolog.Logger
}

// entry is one OBIS code of a list with the value and scaling that follow it.
type entry struct {
	code      obis.Code
	value     dlms.Data
	hasValue  bool
	scaler    int
	hasScaler bool
}
