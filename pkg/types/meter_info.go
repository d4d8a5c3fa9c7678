package types

import (
	"fmt"
	"strings"

	"github.com/NotCoffee418/amshan_reader/pkg/obis"
)

// MeterInfo identifies the meter a reading came from.
type MeterInfo struct {
	Manufacturer   string `json:"manufacturer"`
	ManufacturerID string `json:"manufacturer_id,omitempty"`
	Type           string `json:"type"`
	TypeID         string `json:"type_id,omitempty"`
	ListVersionID  string `json:"list_version_id"`
	MeterID        string `json:"meter_id"`
}

// MeterInfoFromFields builds MeterInfo from a reading. A reading qualifies
// when it carries the meter id and either the manufacturer name or the
// manufacturer id. Short lists that only report power do not.
func MeterInfoFromFields(f Fields) (*MeterInfo, bool) {
	info := &MeterInfo{}
	info.Manufacturer, _ = f.Text(obis.FieldMeterManufacturer)
	info.ManufacturerID, _ = f.Text(obis.FieldMeterManufacturerID)
	info.Type, _ = f.Text(obis.FieldMeterType)
	info.TypeID, _ = f.Text(obis.FieldMeterTypeID)
	info.ListVersionID, _ = f.Text(obis.FieldListVersionID)
	info.MeterID, _ = f.Text(obis.FieldMeterID)

	if info.MeterID == "" || (info.Manufacturer == "" && info.ManufacturerID == "") {
		return nil, false
	}
	return info, true
}

// UniqueID is manufacturer-type-meterid in lower case. The manufacturer and
// type ids stand in for names the meter does not report.
func (m MeterInfo) UniqueID() string {
	manufacturer := m.Manufacturer
	if manufacturer == "" {
		manufacturer = m.ManufacturerID
	}
	meterType := m.Type
	if meterType == "" {
		meterType = m.TypeID
	}
	return strings.ToLower(fmt.Sprintf("%s-%s-%s", manufacturer, meterType, m.MeterID))
}
