package obis

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var ErrInvalidCode = errors.New("invalid obis code")

var (
	// 1-0:1.8.0 or 1-0:1.8.0.255 as written in P1 telegrams
	reducedIDPattern = regexp.MustCompile(`^(\d{1,3})-(\d{1,3}):(\d{1,3})\.(\d{1,3})\.(\d{1,3})(?:\.(\d{1,3}))?$`)
	// 1.0.1.8.0.255 as written in logs and configuration
	dottedPattern = regexp.MustCompile(`^(\d{1,3})\.(\d{1,3})\.(\d{1,3})\.(\d{1,3})\.(\d{1,3})(?:\.(\d{1,3}))?$`)
)

// CodeFromBytes returns the code held in a six octet string.
func CodeFromBytes(b []byte) (Code, bool) {
	var c Code
	if len(b) != len(c) {
		return c, false
	}
	copy(c[:], b)
	return c, true
}

// ParseCode parses the reduced ID form (1-0:1.8.0) or the dotted form
// (1.0.1.8.0). A missing F group defaults to 255.
func ParseCode(s string) (Code, error) {
	match := reducedIDPattern.FindStringSubmatch(s)
	if match == nil {
		match = dottedPattern.FindStringSubmatch(s)
	}
	if match == nil {
		return Code{}, fmt.Errorf("%w: %q", ErrInvalidCode, s)
	}

	var c Code
	c[5] = 255
	for i, group := range match[1:] {
		if group == "" {
			continue
		}
		v, err := strconv.ParseUint(group, 10, 8)
		if err != nil {
			return Code{}, fmt.Errorf("%w: %q: group %d: %w", ErrInvalidCode, s, i, err)
		}
		c[i] = byte(v)
	}
	return c, nil
}

// Key returns the table key A.B.C.D.E. Electricity codes (A = 1) are keyed
// with channel B = 0 since meters disagree on the channel they report.
func (c Code) Key() string {
	b := c[1]
	if c[0] == 1 {
		b = 0
	}
	return fmt.Sprintf("%d.%d.%d.%d.%d", c[0], b, c[2], c[3], c[4])
}

func (c Code) String() string {
	return fmt.Sprintf("%d-%d:%d.%d.%d.%d", c[0], c[1], c[2], c[3], c[4], c[5])
}
