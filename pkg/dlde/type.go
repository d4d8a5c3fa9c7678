// Package dlde parses the ASCII data readout (IEC 62056-21 mode D) sent on the
// P1 port of DSMR and similar meters.
package dlde

import "errors"

const (
	StartCharacter = '/'
	EndCharacter   = '!'

	// Largest telegram the stream reader buffers before giving up on it.
	MaxTelegramSize = 16 * 1024
)

var (
	ErrNoStart          = errors.New("dlde: readout does not start with '/'")
	ErrNoIdentification = errors.New("dlde: missing identification line")
	ErrNoEnd            = errors.New("dlde: missing end character '!'")
	ErrBadChecksum      = errors.New("dlde: malformed checksum")
)

// Value is one bracketed value of a data set, split at the unit separator.
type Value struct {
	Value string
	Unit  string
}

// DataSet is one data line: an OBIS address and its values.
type DataSet struct {
	Address string
	Values  []Value
}

// Readout is a parsed data readout.
type Readout struct {
	raw []byte

	ManufacturerID string
	BaudRateID     byte
	Identification string
	DataSets       []DataSet

	hasChecksum   bool
	checksum      uint16
	validChecksum bool
}

// TelegramReader cuts complete readouts out of a byte stream.
type TelegramReader struct {
	buffer     []byte
	inTelegram bool
	endSeen    bool
	lastByte   byte
}
