package detector

import (
	"testing"
	"time"

	"github.com/NotCoffee418/amshan_reader/internal/testutil"
	"github.com/NotCoffee418/amshan_reader/pkg/types"
	"github.com/stretchr/testify/require"
)

var notification = testutil.Notification(
	testutil.Structure(testutil.Obis(1, 0, 1, 7, 0, 255), testutil.DoubleLongUnsigned(1500)),
	time.Time{},
)

func TestClassifyP1(t *testing.T) {
	payload := testutil.P1Telegram("KFM5KAIFA-METER", "1-0:1.7.0(00.100*kW)")

	c := Classify(payload)
	require.Equal(t, KindP1, c.Kind)
	require.True(t, c.Decodable())
	require.IsType(t, &types.P1Message{}, c.Message)
	require.IsType(t, &types.P1Message{}, MeterMessage(payload))
}

func TestClassifyP1BadChecksum(t *testing.T) {
	payload := testutil.P1Telegram("KFM5KAIFA-METER", "1-0:1.7.0(00.100*kW)")
	payload[10] = 'X'

	c := Classify(payload)
	require.Equal(t, KindInvalidP1, c.Kind)
	require.False(t, c.Decodable())
	require.Nil(t, MeterMessage(payload))
}

func TestClassifyHdlcWithFlags(t *testing.T) {
	payload := testutil.Frame(notification)

	c := Classify(payload)
	require.Equal(t, KindHdlc, c.Kind)
	require.True(t, c.Decodable())
	require.Equal(t, notification, c.Message.Payload())
}

func TestClassifyHdlcWithoutFlags(t *testing.T) {
	c := Classify(testutil.FrameContent(notification, false))
	require.Equal(t, KindHdlc, c.Kind)
	require.Equal(t, notification, c.Message.Payload())
}

func TestClassifyFlagTakesPrecedenceOverSlash(t *testing.T) {
	info := []byte("/ISK5\\2MT382-1000\r\n\r\n!\r\n")
	c := Classify(testutil.Frame(info))
	require.Equal(t, KindHdlc, c.Kind)
	require.Equal(t, info, c.Message.Payload())

	// the same text outside a frame is a readout
	c = Classify(info)
	require.Equal(t, KindP1, c.Kind)
}

func TestClassifyInvalidHdlc(t *testing.T) {
	corrupted := testutil.Frame(notification)
	corrupted[len(corrupted)-4] ^= 0x40

	cases := map[string][]byte{
		"bad checksum":   corrupted,
		"no information": testutil.Frame(nil),
		"truncated":      testutil.Frame(notification)[:12],
	}
	for name, payload := range cases {
		c := Classify(payload)
		require.Equal(t, KindInvalidHdlc, c.Kind, name)
		require.False(t, c.Decodable(), name)
		require.Nil(t, MeterMessage(payload), name)
	}
}

func TestClassifyIgnoresJSON(t *testing.T) {
	for _, payload := range []string{`{"status":"online","rssi":-61}`, `[1,2,3]`} {
		c := Classify([]byte(payload))
		require.Equal(t, KindIgnoredJSON, c.Kind, payload)
		require.Nil(t, c.Message, payload)
		require.Nil(t, MeterMessage([]byte(payload)), payload)
	}
}

func TestClassifyRawDlms(t *testing.T) {
	c := Classify(notification)
	require.Equal(t, KindDlms, c.Kind)
	require.True(t, c.Decodable())
	require.IsType(t, &types.DlmsMessage{}, MeterMessage(notification))
}

func TestClassifyNotP1FallsThrough(t *testing.T) {
	payload := []byte("/not a readout")
	c := Classify(payload)
	require.Equal(t, KindDlms, c.Kind)
}

func TestClassifyEmpty(t *testing.T) {
	c := Classify(nil)
	require.Equal(t, KindDlms, c.Kind)
	require.False(t, c.Decodable())
	require.Nil(t, MeterMessage(nil))
}
