package testutil

import (
	"encoding/binary"
	"time"
)

// Notification wraps a DLMS body in LLC header and data-notification APDU.
// A zero time leaves the date-time field empty.
func Notification(body []byte, at time.Time) []byte {
	apdu := []byte{0xE6, 0xE7, 0x00, 0x0F, 0x40, 0x00, 0x00, 0x00}
	if at.IsZero() {
		apdu = append(apdu, 0x00)
	} else {
		apdu = append(apdu, 0x0C)
		apdu = append(apdu, CosemDateTime(at)...)
	}
	return append(apdu, body...)
}

// CosemDateTime encodes t as the 12 octet COSEM date-time with deviation
// unspecified.
func CosemDateTime(t time.Time) []byte {
	b := binary.BigEndian.AppendUint16(nil, uint16(t.Year()))
	weekday := byte(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	b = append(b, byte(t.Month()), byte(t.Day()), weekday, byte(t.Hour()), byte(t.Minute()), byte(t.Second()), 0xFF)
	return append(b, 0x80, 0x00, 0x00)
}

func Array(elements ...[]byte) []byte {
	return compound(0x01, elements)
}

func Structure(elements ...[]byte) []byte {
	return compound(0x02, elements)
}

func compound(tag byte, elements [][]byte) []byte {
	out := []byte{tag, byte(len(elements))}
	for _, e := range elements {
		out = append(out, e...)
	}
	return out
}

func OctetString(b []byte) []byte {
	return append([]byte{0x09, byte(len(b))}, b...)
}

func VisibleString(s string) []byte {
	return append([]byte{0x0A, byte(len(s))}, s...)
}

// Obis encodes an OBIS code as a 6 octet string.
func Obis(a, b, c, d, e, f byte) []byte {
	return OctetString([]byte{a, b, c, d, e, f})
}

func DoubleLongUnsigned(v uint32) []byte {
	return binary.BigEndian.AppendUint32([]byte{0x06}, v)
}

func DoubleLong(v int32) []byte {
	return binary.BigEndian.AppendUint32([]byte{0x05}, uint32(v))
}

func LongUnsigned(v uint16) []byte {
	return binary.BigEndian.AppendUint16([]byte{0x12}, v)
}

func Long(v int16) []byte {
	return binary.BigEndian.AppendUint16([]byte{0x10}, uint16(v))
}

func Integer(v int8) []byte {
	return []byte{0x0F, byte(v)}
}

func Enum(v byte) []byte {
	return []byte{0x16, v}
}

// ScalerUnit encodes the {scaler, unit} structure that follows a value in
// lists that carry scaling.
func ScalerUnit(scaler int8, unit byte) []byte {
	return Structure(Integer(scaler), Enum(unit))
}
