package dlde

import (
	"testing"

	"github.com/NotCoffee418/amshan_reader/internal/testutil"
	"github.com/stretchr/testify/require"
)

var dsmrLines = []string{
	"1-3:0.2.8(50)",
	"0-0:1.0.0(230612143015S)",
	"0-0:96.1.1(4530303434303037313331363130333136)",
	"1-0:1.8.1(001581.123*kWh)",
	"1-0:1.8.2(001234.567*kWh)",
	"0-0:96.14.0(0002)",
	"1-0:1.7.0(01.193*kW)",
	"1-0:32.7.0(229.0*V)",
	"0-1:24.2.1(230612143000S)(00981.443*m3)",
}

func TestParseReadout(t *testing.T) {
	data := testutil.P1Telegram("ISk5\\2MT382-1000", dsmrLines...)

	r, err := Parse(data)
	require.NoError(t, err)
	require.True(t, r.IsValid())
	require.True(t, r.HasChecksum())
	require.Equal(t, "ISk", r.ManufacturerID)
	require.Equal(t, byte('5'), r.BaudRateID)
	require.Equal(t, "\\2MT382-1000", r.Identification)
	require.Len(t, r.DataSets, len(dsmrLines))
	require.Equal(t, data, r.Raw())

	ds, ok := r.Get("1-0:1.8.1")
	require.True(t, ok)
	require.Equal(t, []Value{{Value: "001581.123", Unit: "kWh"}}, ds.Values)

	gas, ok := r.Get("0-1:24.2.1")
	require.True(t, ok)
	require.Equal(t, []Value{{Value: "230612143000S"}, {Value: "00981.443", Unit: "m3"}}, gas.Values)
}

func TestParseReadoutChecksumMismatch(t *testing.T) {
	data := testutil.P1Telegram("KFM5KAIFA-METER", "1-0:1.7.0(00.100*kW)")
	// change a digit without updating the checksum
	data[len(data)-15] = '9'

	r, err := Parse(data)
	require.NoError(t, err)
	require.True(t, r.HasChecksum())
	require.False(t, r.IsValid())
}

func TestParseReadoutWithoutChecksum(t *testing.T) {
	data := []byte("/KFM5KAIFA-METER\r\n\r\n1-0:1.7.0(00.100*kW)\r\n!\r\n")

	r, err := Parse(data)
	require.NoError(t, err)
	require.False(t, r.HasChecksum())
	require.True(t, r.IsValid())
	require.Len(t, r.DataSets, 1)
}

func TestParseReadoutContinuationLine(t *testing.T) {
	data := []byte("/ISk5\\2ME382-1003\r\n\r\n" +
		"0-1:24.3.0(110101000000)(08)(60)(1)(0-1:24.2.1)(m3)\r\n" +
		"(00124.477)\r\n" +
		"!\r\n")

	r, err := Parse(data)
	require.NoError(t, err)
	ds, ok := r.Get("0-1:24.3.0")
	require.True(t, ok)
	require.Len(t, ds.Values, 7)
	require.Equal(t, "00124.477", ds.Values[6].Value)
}

func TestParseReadoutErrors(t *testing.T) {
	cases := map[string]struct {
		in  string
		err error
	}{
		"empty":          {"", ErrNoStart},
		"not a readout":  {"{\"a\":1}", ErrNoStart},
		"no ident line":  {"/ISK", ErrNoIdentification},
		"no end":         {"/ISk5MT382\r\n\r\n1-0:1.7.0(00.100*kW)\r\n", ErrNoEnd},
		"bad checksum":   {"/ISk5MT382\r\n\r\n!XYZW\r\n", ErrBadChecksum},
		"short checksum": {"/ISk5MT382\r\n\r\n!12\r\n", ErrBadChecksum},
	}
	for name, tc := range cases {
		_, err := Parse([]byte(tc.in))
		require.ErrorIs(t, err, tc.err, name)
	}
}
