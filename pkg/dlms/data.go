package dlms

import (
	"encoding/binary"
	"fmt"
	"math"
)

type decoder struct {
	buf []byte
	pos int
}

// ParseData decodes one value from the start of b and returns it together
// with the number of bytes consumed.
func ParseData(b []byte) (Data, int, error) {
	d := &decoder{buf: b}
	v, err := d.data(0)
	if err != nil {
		return Data{}, d.pos, err
	}
	return v, d.pos, nil
}

func (d *decoder) take(n int) ([]byte, error) {
	if n < 0 || len(d.buf)-d.pos < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d", ErrTruncated, n, d.pos)
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *decoder) readByte() (byte, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// length reads a variable length count. A first octet with the high bit set
// gives the number of big endian length octets that follow.
func (d *decoder) length() (int, error) {
	first, err := d.readByte()
	if err != nil {
		return 0, err
	}
	if first < 0x80 {
		return int(first), nil
	}
	n := int(first & 0x7F)
	if n == 0 || n > 4 {
		return 0, fmt.Errorf("%w: length of %d octets", ErrTruncated, n)
	}
	b, err := d.take(n)
	if err != nil {
		return 0, err
	}
	length := 0
	for _, c := range b {
		length = length<<8 | int(c)
	}
	return length, nil
}

func (d *decoder) data(depth int) (Data, error) {
	if depth > maxDepth {
		return Data{}, ErrTooDeep
	}
	t, err := d.readByte()
	if err != nil {
		return Data{}, err
	}
	tag := Tag(t)

	switch tag {
	case TagNull:
		return Data{Tag: tag}, nil

	case TagArray, TagStructure:
		count, err := d.length()
		if err != nil {
			return Data{}, err
		}
		// every element needs at least its tag octet
		if count > len(d.buf)-d.pos {
			return Data{}, fmt.Errorf("%w: %d elements announced", ErrTruncated, count)
		}
		elements := make([]Data, 0, count)
		for i := 0; i < count; i++ {
			e, err := d.data(depth + 1)
			if err != nil {
				return Data{}, err
			}
			elements = append(elements, e)
		}
		return Data{Tag: tag, Value: elements}, nil

	case TagBoolean:
		b, err := d.readByte()
		if err != nil {
			return Data{}, err
		}
		return Data{Tag: tag, Value: b != 0}, nil

	case TagBitString:
		bits, err := d.length()
		if err != nil {
			return Data{}, err
		}
		b, err := d.take((bits + 7) / 8)
		if err != nil {
			return Data{}, err
		}
		return Data{Tag: tag, Value: append([]byte(nil), b...)}, nil

	case TagOctetString:
		n, err := d.length()
		if err != nil {
			return Data{}, err
		}
		b, err := d.take(n)
		if err != nil {
			return Data{}, err
		}
		return Data{Tag: tag, Value: append([]byte(nil), b...)}, nil

	case TagVisibleString, TagUTF8String:
		n, err := d.length()
		if err != nil {
			return Data{}, err
		}
		b, err := d.take(n)
		if err != nil {
			return Data{}, err
		}
		return Data{Tag: tag, Value: string(b)}, nil

	case TagBCD:
		b, err := d.take(1)
		if err != nil {
			return Data{}, err
		}
		return Data{Tag: tag, Value: append([]byte(nil), b...)}, nil

	case TagInteger:
		b, err := d.take(1)
		if err != nil {
			return Data{}, err
		}
		return Data{Tag: tag, Value: int64(int8(b[0]))}, nil

	case TagLong:
		b, err := d.take(2)
		if err != nil {
			return Data{}, err
		}
		return Data{Tag: tag, Value: int64(int16(binary.BigEndian.Uint16(b)))}, nil

	case TagDoubleLong:
		b, err := d.take(4)
		if err != nil {
			return Data{}, err
		}
		return Data{Tag: tag, Value: int64(int32(binary.BigEndian.Uint32(b)))}, nil

	case TagLong64:
		b, err := d.take(8)
		if err != nil {
			return Data{}, err
		}
		return Data{Tag: tag, Value: int64(binary.BigEndian.Uint64(b))}, nil

	case TagUnsigned:
		b, err := d.take(1)
		if err != nil {
			return Data{}, err
		}
		return Data{Tag: tag, Value: uint64(b[0])}, nil

	case TagLongUnsigned:
		b, err := d.take(2)
		if err != nil {
			return Data{}, err
		}
		return Data{Tag: tag, Value: uint64(binary.BigEndian.Uint16(b))}, nil

	case TagDoubleLongUnsigned:
		b, err := d.take(4)
		if err != nil {
			return Data{}, err
		}
		return Data{Tag: tag, Value: uint64(binary.BigEndian.Uint32(b))}, nil

	case TagLong64Unsigned:
		b, err := d.take(8)
		if err != nil {
			return Data{}, err
		}
		return Data{Tag: tag, Value: binary.BigEndian.Uint64(b)}, nil

	case TagEnum:
		b, err := d.take(1)
		if err != nil {
			return Data{}, err
		}
		return Data{Tag: tag, Value: int64(b[0])}, nil

	case TagFloat32:
		b, err := d.take(4)
		if err != nil {
			return Data{}, err
		}
		return Data{Tag: tag, Value: float64(math.Float32frombits(binary.BigEndian.Uint32(b)))}, nil

	case TagFloat64:
		b, err := d.take(8)
		if err != nil {
			return Data{}, err
		}
		return Data{Tag: tag, Value: math.Float64frombits(binary.BigEndian.Uint64(b))}, nil

	case TagDateTime:
		b, err := d.take(dateTimeLength)
		if err != nil {
			return Data{}, err
		}
		ts, err := ParseDateTime(b)
		if err != nil {
			return Data{}, err
		}
		return Data{Tag: tag, Value: ts}, nil

	case TagDate:
		b, err := d.take(5)
		if err != nil {
			return Data{}, err
		}
		return Data{Tag: tag, Value: append([]byte(nil), b...)}, nil

	case TagTime:
		b, err := d.take(4)
		if err != nil {
			return Data{}, err
		}
		return Data{Tag: tag, Value: append([]byte(nil), b...)}, nil
	}

	return Data{}, fmt.Errorf("%w: 0x%02X at offset %d", ErrUnknownTag, t, d.pos-1)
}

// Elements returns the members of an array or structure.
func (v Data) Elements() ([]Data, bool) {
	e, ok := v.Value.([]Data)
	return e, ok
}

// Bytes returns the content of an octet string.
func (v Data) Bytes() ([]byte, bool) {
	b, ok := v.Value.([]byte)
	return b, ok
}

// Int returns any integer or enum value as int64.
func (v Data) Int() (int64, bool) {
	switch n := v.Value.(type) {
	case int64:
		return n, true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

// Float returns any numeric value as float64.
func (v Data) Float() (float64, bool) {
	switch n := v.Value.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// IsNumeric reports whether the value is an integer or floating point number.
// Enums are not numeric.
func (v Data) IsNumeric() bool {
	switch v.Tag {
	case TagInteger, TagLong, TagDoubleLong, TagLong64,
		TagUnsigned, TagLongUnsigned, TagDoubleLongUnsigned, TagLong64Unsigned,
		TagFloat32, TagFloat64:
		return true
	}
	return false
}

// Text returns the value of a visible or utf8 string, or of an octet string.
func (v Data) Text() (string, bool) {
	switch s := v.Value.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	}
	return "", false
}
