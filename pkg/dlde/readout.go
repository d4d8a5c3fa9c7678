package dlde

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sigurn/crc16"
)

// CRC16_ARC as used by DSMR 4 and later
var crcTable = crc16.MakeTable(crc16.CRC16_ARC)

var (
	addressPattern = regexp.MustCompile(`^([^()\s]+)`)
	valuePattern   = regexp.MustCompile(`\(([^()]*)\)`)
)

// Parse parses a complete data readout. A readout without checksum, as sent
// by DSMR 2 and 3 meters, is accepted and reports valid. A checksum that does
// not match is not an error; the readout reports invalid.
func Parse(data []byte) (*Readout, error) {
	if len(data) == 0 || data[0] != StartCharacter {
		return nil, ErrNoStart
	}

	identEnd := bytes.IndexByte(data, '\n')
	if identEnd < 5 {
		return nil, ErrNoIdentification
	}

	end := bytes.LastIndexByte(data, EndCharacter)
	if end < identEnd {
		return nil, ErrNoEnd
	}

	r := &Readout{
		raw:            append([]byte(nil), data...),
		ManufacturerID: string(data[1:4]),
		BaudRateID:     data[4],
		Identification: strings.TrimSpace(string(data[5:identEnd])),
	}

	if err := r.parseChecksum(data, end); err != nil {
		return nil, err
	}
	r.DataSets = parseDataSets(string(data[identEnd:end]))
	return r, nil
}

func (r *Readout) parseChecksum(data []byte, end int) error {
	trailer := strings.TrimSpace(string(data[end+1:]))
	if trailer == "" {
		r.validChecksum = true
		return nil
	}
	if len(trailer) != 4 {
		return fmt.Errorf("%w: %q", ErrBadChecksum, trailer)
	}
	given, err := strconv.ParseUint(trailer, 16, 16)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrBadChecksum, trailer)
	}

	r.hasChecksum = true
	r.checksum = uint16(given)
	r.validChecksum = crc16.Checksum(data[:end+1], crcTable) == r.checksum
	return nil
}

// parseDataSets reads the data lines. A line starting with '(' continues the
// values of the previous line, as DSMR 2.2 does for gas readings.
func parseDataSets(body string) []DataSet {
	var sets []DataSet
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var values []Value
		for _, match := range valuePattern.FindAllStringSubmatch(line, -1) {
			values = append(values, splitValue(match[1]))
		}

		if strings.HasPrefix(line, "(") {
			if len(sets) > 0 {
				last := &sets[len(sets)-1]
				last.Values = append(last.Values, values...)
			}
			continue
		}

		address := addressPattern.FindString(line)
		if address == "" {
			continue
		}
		sets = append(sets, DataSet{Address: address, Values: values})
	}
	return sets
}

func splitValue(s string) Value {
	value, unit, _ := strings.Cut(s, "*")
	return Value{Value: value, Unit: unit}
}

// Raw returns the readout as received.
func (r *Readout) Raw() []byte {
	return r.raw
}

// HasChecksum reports whether the readout carried a checksum.
func (r *Readout) HasChecksum() bool {
	return r.hasChecksum
}

func (r *Readout) Checksum() uint16 {
	return r.checksum
}

// IsValid reports whether the checksum matched, or was absent.
func (r *Readout) IsValid() bool {
	return r.validChecksum
}

// Get returns the data set with address, if the readout has it.
func (r *Readout) Get(address string) (DataSet, bool) {
	for _, ds := range r.DataSets {
		if ds.Address == address {
			return ds, true
		}
	}
	return DataSet{}, false
}
