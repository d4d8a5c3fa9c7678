package dlms

import (
	"encoding/binary"
	"fmt"
	"time"
)

const deviationUnspecified = -0x8000

// ParseDateTime decodes the 12 octet COSEM date-time. Hour, minute, second and
// hundredths marked as not specified read as zero. Without a deviation the
// time is taken to be local time.
func ParseDateTime(b []byte) (time.Time, error) {
	if len(b) != dateTimeLength {
		return time.Time{}, fmt.Errorf("%w: %d octets", ErrInvalidDateTime, len(b))
	}

	year := int(binary.BigEndian.Uint16(b[0:2]))
	month, day := int(b[2]), int(b[3])
	if year == 0xFFFF || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("%w: date %d-%d-%d", ErrInvalidDateTime, year, month, day)
	}

	hour, err := clockField(b[5], 23)
	if err != nil {
		return time.Time{}, err
	}
	minute, err := clockField(b[6], 59)
	if err != nil {
		return time.Time{}, err
	}
	second, err := clockField(b[7], 59)
	if err != nil {
		return time.Time{}, err
	}
	hundredths, err := clockField(b[8], 99)
	if err != nil {
		return time.Time{}, err
	}

	loc := time.Local
	// deviation is minutes from local time to UTC
	if deviation := int(int16(binary.BigEndian.Uint16(b[9:11]))); deviation != deviationUnspecified {
		loc = time.FixedZone("", -deviation*60)
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, hundredths*int(10*time.Millisecond), loc), nil
}

func clockField(v byte, limit int) (int, error) {
	if v == 0xFF {
		return 0, nil
	}
	if int(v) > limit {
		return 0, fmt.Errorf("%w: clock field %d", ErrInvalidDateTime, v)
	}
	return int(v), nil
}
