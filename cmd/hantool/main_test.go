package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/NotCoffee418/amshan_reader/internal/testutil"
	"github.com/NotCoffee418/amshan_reader/pkg/dlms"
	"github.com/NotCoffee418/amshan_reader/pkg/obis"
	"github.com/NotCoffee418/amshan_reader/pkg/port_reader"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

func aidonFrame() []byte {
	body := testutil.Array(
		testutil.Structure(testutil.Obis(1, 1, 0, 2, 129, 255), testutil.VisibleString("AIDON_V0001")),
		testutil.Structure(testutil.Obis(0, 0, 96, 1, 0, 255), testutil.VisibleString("7359992890941742")),
		testutil.Structure(testutil.Obis(0, 0, 96, 1, 7, 255), testutil.VisibleString("6525")),
		testutil.Structure(testutil.Obis(1, 0, 1, 7, 0, 255), testutil.DoubleLongUnsigned(1500), testutil.ScalerUnit(0, dlms.UnitWatt)),
	)
	return testutil.Frame(testutil.Notification(body, time.Time{}))
}

func TestDecodeInput(t *testing.T) {
	b, err := decodeInput([]string{"7E A0 08"}, "", nil)
	require.NoError(t, err)
	require.Equal(t, []byte{0x7E, 0xA0, 0x08}, b)

	_, err = decodeInput([]string{"zz"}, "", nil)
	require.Error(t, err)

	_, err = decodeInput(nil, "", nil)
	require.Error(t, err)

	b, err = decodeInput(nil, "-", strings.NewReader("/ISK5"))
	require.NoError(t, err)
	require.Equal(t, []byte("/ISK5"), b)

	path := filepath.Join(t.TempDir(), "frame.bin")
	require.NoError(t, os.WriteFile(path, aidonFrame(), 0644))
	b, err = decodeInput(nil, path, nil)
	require.NoError(t, err)
	require.Equal(t, aidonFrame(), b)
}

func TestDecodePayload(t *testing.T) {
	result, err := decodePayload(aidonFrame())
	require.NoError(t, err)
	require.Equal(t, "hdlc", result.Kind)
	require.Equal(t, int64(1500), result.Fields[obis.FieldActivePowerImport])
	require.NotNil(t, result.Meter)
	require.Equal(t, "aidon-6525-7359992890941742", result.Meter.UniqueID())

	result, err = decodePayload([]byte(`{"status":"online"}`))
	require.NoError(t, err)
	require.Equal(t, "ignored_json", result.Kind)
	require.Empty(t, result.Fields)
	require.Nil(t, result.Meter)
}

func TestDecodeCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"decode", hex.EncodeToString(aidonFrame())})
	require.NoError(t, rootCmd.Execute())
	require.Contains(t, out.String(), `"kind": "hdlc"`)
	require.Contains(t, out.String(), `"active_power_import": 1500`)
}

func TestCaptureStopsAfterCount(t *testing.T) {
	wire := append(aidonFrame(), aidonFrame()...)
	wire = append(wire, aidonFrame()...)

	var kinds []string
	err := capture(context.Background(), bytes.NewReader(wire), 2, func(r *decodeResult) error {
		kinds = append(kinds, r.Kind)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"hdlc", "hdlc"}, kinds)
}

func TestCaptureReturnsReadError(t *testing.T) {
	err := capture(context.Background(), bytes.NewReader(aidonFrame()), 0, func(*decodeResult) error { return nil })
	require.ErrorIs(t, err, io.EOF)
}

func TestSerialMode(t *testing.T) {
	mode, err := serialMode(2400, port_reader.ParityEven)
	require.NoError(t, err)
	require.Equal(t, serial.EvenParity, mode.Parity)
	require.Equal(t, 8, mode.DataBits)

	_, err = serialMode(2400, "X")
	require.Error(t, err)
}
