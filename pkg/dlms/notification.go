package dlms

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ParseNotification decodes a data-notification APDU, with or without the
// leading LLC header. A date-time that is present but not a valid date is
// ignored.
func ParseNotification(b []byte) (*Notification, error) {
	b = bytes.TrimPrefix(b, llcHeader)
	if len(b) < 6 || b[0] != DataNotificationTag {
		return nil, ErrNotNotification
	}

	n := &Notification{InvokeID: binary.BigEndian.Uint32(b[1:5])}
	rest := b[5:]

	switch {
	case rest[0] == 0x00:
		rest = rest[1:]
	case rest[0] == dateTimeLength:
		if len(rest) < 1+dateTimeLength {
			return nil, fmt.Errorf("notification date-time: %w", ErrTruncated)
		}
		n.DateTime, _ = ParseDateTime(rest[1 : 1+dateTimeLength])
		rest = rest[1+dateTimeLength:]
	case rest[0] == byte(TagOctetString) && len(rest) > 1 && rest[1] == dateTimeLength:
		if len(rest) < 2+dateTimeLength {
			return nil, fmt.Errorf("notification date-time: %w", ErrTruncated)
		}
		n.DateTime, _ = ParseDateTime(rest[2 : 2+dateTimeLength])
		rest = rest[2+dateTimeLength:]
	default:
		return nil, fmt.Errorf("%w: unexpected date-time field 0x%02X", ErrNotNotification, rest[0])
	}

	body, _, err := ParseData(rest)
	if err != nil {
		return nil, fmt.Errorf("notification body: %w", err)
	}
	n.Body = body
	return n, nil
}
