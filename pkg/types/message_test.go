package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/NotCoffee418/amshan_reader/internal/testutil"
	"github.com/NotCoffee418/amshan_reader/pkg/dlde"
	"github.com/NotCoffee418/amshan_reader/pkg/hdlc"
	"github.com/NotCoffee418/amshan_reader/pkg/obis"
	"github.com/stretchr/testify/require"
)

func TestStopMessage(t *testing.T) {
	var msg Message = StopMessage{}
	require.False(t, msg.IsValid())
	require.Nil(t, msg.Bytes())
	require.Nil(t, msg.Payload())
	require.Equal(t, MessageTypeStop, msg.MessageType())
	require.True(t, IsStop(msg))
	require.False(t, IsStop(NewDlmsMessage([]byte{1, 2, 3, 4, 5})))
}

func TestDlmsMessageValidity(t *testing.T) {
	require.False(t, NewDlmsMessage([]byte{1, 2, 3, 4}).IsValid())

	msg := NewDlmsMessage([]byte{1, 2, 3, 4, 5})
	require.True(t, msg.IsValid())
	require.Equal(t, []byte{1, 2, 3, 4, 5}, msg.Payload())
	require.Equal(t, "dlms", msg.MessageType().String())
}

func TestHdlcMessage(t *testing.T) {
	good := hdlc.NewFrame(testutil.FrameContent([]byte{0x0F, 0x01}, false))
	msg := NewHdlcMessage(good)
	require.True(t, msg.IsValid())
	require.Equal(t, []byte{0x0F, 0x01}, msg.Payload())
	require.Equal(t, good.Raw(), msg.Bytes())

	content := testutil.FrameContent([]byte{0x0F, 0x01}, false)
	content[len(content)-1] ^= 0xFF
	bad := NewHdlcMessage(hdlc.NewFrame(content))
	require.False(t, bad.IsValid())
	require.Nil(t, bad.Payload())
	require.NotNil(t, bad.Bytes())

	joined := NewSegmentedHdlcMessage(good, []byte{0x01, 0x02, 0x0F, 0x01})
	require.Equal(t, []byte{0x01, 0x02, 0x0F, 0x01}, joined.Payload())
}

func TestP1Message(t *testing.T) {
	readout, err := dlde.Parse(testutil.P1Telegram("KFM5KAIFA-METER", "1-0:1.7.0(00.100*kW)"))
	require.NoError(t, err)

	msg := NewP1Message(readout)
	require.True(t, msg.IsValid())
	require.Equal(t, MessageTypeP1, msg.MessageType())
	require.Equal(t, readout.Raw(), msg.Payload())
}

func TestFieldsJSONKeepsTypes(t *testing.T) {
	at := time.Date(2023, 6, 12, 14, 30, 15, 0, time.FixedZone("", 7200))
	in := Fields{
		obis.FieldMeterID:           "6970631400000000",
		obis.FieldActivePowerImport: int64(1193),
		obis.FieldVoltageL1:         230.0,
		obis.FieldMeterDateTime:     at,
		"unknown_counter":           int64(5),
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Fields
	require.NoError(t, json.Unmarshal(data, &out))

	power, ok := out.Int(obis.FieldActivePowerImport)
	require.True(t, ok)
	require.Equal(t, int64(1193), power)

	voltage, ok := out.Float(obis.FieldVoltageL1)
	require.True(t, ok)
	require.Equal(t, 230.0, voltage)
	require.IsType(t, float64(0), out[obis.FieldVoltageL1])

	ts, ok := out.Time(obis.FieldMeterDateTime)
	require.True(t, ok)
	require.True(t, ts.Equal(at))

	id, ok := out.Text(obis.FieldMeterID)
	require.True(t, ok)
	require.Equal(t, "6970631400000000", id)
	require.Equal(t, int64(5), out["unknown_counter"])
}

func TestFieldsKeysAndClone(t *testing.T) {
	f := Fields{"b": int64(1), "a": "x"}
	require.Equal(t, []string{"a", "b"}, f.Keys())

	c := f.Clone()
	c["a"] = "y"
	require.Equal(t, "x", f["a"])
}

func TestMeterInfoFromFields(t *testing.T) {
	f := Fields{
		obis.FieldMeterManufacturer: "Kamstrup",
		obis.FieldMeterType:         "6841121BN243101040",
		obis.FieldListVersionID:     "Kamstrup_V0001",
		obis.FieldMeterID:           "5706567274389702",
	}

	info, ok := MeterInfoFromFields(f)
	require.True(t, ok)
	require.Equal(t, "kamstrup-6841121bn243101040-5706567274389702", info.UniqueID())

	_, ok = MeterInfoFromFields(Fields{obis.FieldActivePowerImport: int64(10)})
	require.False(t, ok)
}

func TestMeterInfoFromFieldsRequiresMeterID(t *testing.T) {
	info, ok := MeterInfoFromFields(Fields{
		obis.FieldMeterManufacturerID: "ISk",
		obis.FieldMeterID:             "E0044007131610316",
	})
	require.True(t, ok)
	require.Equal(t, "isk--e0044007131610316", info.UniqueID())

	cases := map[string]Fields{
		"manufacturer id only": {obis.FieldMeterManufacturerID: "ISk", obis.FieldMeterTypeID: "MT382-1000"},
		"manufacturer only":    {obis.FieldMeterManufacturer: "Kamstrup"},
		"meter id only":        {obis.FieldMeterID: "5706567274389702"},
	}
	for name, f := range cases {
		_, ok := MeterInfoFromFields(f)
		require.False(t, ok, name)
	}
}

func TestMeterInfoUniqueIDFallsBackToIDs(t *testing.T) {
	info := MeterInfo{ManufacturerID: "ISK", TypeID: "MT382", MeterID: "E0044"}
	require.Equal(t, "isk-mt382-e0044", info.UniqueID())
}
