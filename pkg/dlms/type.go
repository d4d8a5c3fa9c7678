// Package dlms decodes the subset of DLMS/COSEM A-XDR encoding that meters use
// to push measurements in data-notification APDUs.
package dlms

import (
	"errors"
	"time"
)

// Tag identifies the type of an A-XDR encoded value.
type Tag byte

const (
	TagNull               Tag = 0x00
	TagArray              Tag = 0x01
	TagStructure          Tag = 0x02
	TagBoolean            Tag = 0x03
	TagBitString          Tag = 0x04
	TagDoubleLong         Tag = 0x05
	TagDoubleLongUnsigned Tag = 0x06
	TagOctetString        Tag = 0x09
	TagVisibleString      Tag = 0x0A
	TagUTF8String         Tag = 0x0C
	TagBCD                Tag = 0x0D
	TagInteger            Tag = 0x0F
	TagLong               Tag = 0x10
	TagUnsigned           Tag = 0x11
	TagLongUnsigned       Tag = 0x12
	TagLong64             Tag = 0x14
	TagLong64Unsigned     Tag = 0x15
	TagEnum               Tag = 0x16
	TagFloat32            Tag = 0x17
	TagFloat64            Tag = 0x18
	TagDateTime           Tag = 0x19
	TagDate               Tag = 0x1A
	TagTime               Tag = 0x1B
)

// Unit enumeration values from the COSEM register scaler_unit attribute.
const (
	UnitCubicMeter  = 13
	UnitWatt        = 27
	UnitVoltAmpere  = 28
	UnitVar         = 29
	UnitWattHour    = 30
	UnitVoltAmpHour = 31
	UnitVarHour     = 32
	UnitAmpere      = 33
	UnitVolt        = 35
	UnitNone        = 255
)

const (
	// Service tag of a data-notification APDU.
	DataNotificationTag = 0x0F

	dateTimeLength = 12
	maxDepth       = 16
)

// LLC header of a command sent from the meter (LSAP E6, E7, quality 00).
var llcHeader = []byte{0xE6, 0xE7, 0x00}

var (
	ErrTruncated       = errors.New("dlms: truncated data")
	ErrUnknownTag      = errors.New("dlms: unknown data tag")
	ErrTooDeep         = errors.New("dlms: data nested too deep")
	ErrNotNotification = errors.New("dlms: not a data-notification")
	ErrInvalidDateTime = errors.New("dlms: invalid date-time")
)

// Data is one decoded A-XDR value. Value holds:
//   - nil for null
//   - []Data for array and structure
//   - bool for boolean
//   - int64 for signed integers and enum
//   - uint64 for unsigned integers
//   - float64 for floating point
//   - []byte for octet string, bit string, bcd, date and time
//   - string for visible and utf8 strings
//   - time.Time for date-time
type Data struct {
	Tag   Tag
	Value any
}

// Notification is a decoded data-notification APDU.
type Notification struct {
	InvokeID uint32
	// Zero when the meter did not include a date-time.
	DateTime time.Time
	Body     Data
}
