package dlms

import (
	"testing"
	"time"

	"github.com/NotCoffee418/amshan_reader/internal/testutil"
	"github.com/stretchr/testify/require"
)

func TestParseNotification(t *testing.T) {
	at := time.Date(2021, 11, 2, 19, 4, 10, 0, time.Local)
	body := testutil.Structure(testutil.VisibleString("Kamstrup_V0001"))

	n, err := ParseNotification(testutil.Notification(body, at))
	require.NoError(t, err)
	require.Equal(t, uint32(0x40000000), n.InvokeID)
	require.True(t, n.DateTime.Equal(at))

	elements, ok := n.Body.Elements()
	require.True(t, ok)
	require.Len(t, elements, 1)
	text, _ := elements[0].Text()
	require.Equal(t, "Kamstrup_V0001", text)
}

func TestParseNotificationWithoutDateTime(t *testing.T) {
	body := testutil.Array(testutil.DoubleLongUnsigned(42))

	n, err := ParseNotification(testutil.Notification(body, time.Time{}))
	require.NoError(t, err)
	require.True(t, n.DateTime.IsZero())
	require.Equal(t, TagArray, n.Body.Tag)
}

func TestParseNotificationTaggedDateTimeWithoutLLC(t *testing.T) {
	at := time.Date(2022, 1, 5, 6, 7, 8, 0, time.Local)
	apdu := []byte{0x0F, 0x00, 0x00, 0x00, 0x01, 0x09, 0x0C}
	apdu = append(apdu, testutil.CosemDateTime(at)...)
	apdu = append(apdu, testutil.LongUnsigned(7)...)

	n, err := ParseNotification(apdu)
	require.NoError(t, err)
	require.Equal(t, uint32(1), n.InvokeID)
	require.True(t, n.DateTime.Equal(at))
	v, _ := n.Body.Int()
	require.Equal(t, int64(7), v)
}

func TestParseNotificationRejects(t *testing.T) {
	cases := map[string][]byte{
		"empty":            nil,
		"wrong service":    {0xE6, 0xE7, 0x00, 0xC4, 0x01, 0x00, 0x00, 0x00, 0x00},
		"short":            {0x0F, 0x00, 0x00},
		"bad datetime tag": {0x0F, 0x00, 0x00, 0x00, 0x01, 0x05, 0x00},
		"truncated body":   {0x0F, 0x00, 0x00, 0x00, 0x01, 0x00, 0x06, 0x00},
	}
	for name, in := range cases {
		_, err := ParseNotification(in)
		require.Error(t, err, name)
	}
}
