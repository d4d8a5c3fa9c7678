package processor

import (
	"context"
	"testing"
	"time"

	"github.com/NotCoffee418/amshan_reader/pkg/measurequeue"
	"github.com/NotCoffee418/amshan_reader/pkg/obis"
	"github.com/NotCoffee418/amshan_reader/pkg/types"
	"github.com/stretchr/testify/require"
)

type stubDecoder struct {
	calls  []types.Message
	result func(msg types.Message) types.Fields
}

func (d *stubDecoder) Decode(msg types.Message) types.Fields {
	d.calls = append(d.calls, msg)
	if d.result == nil {
		return types.Fields{obis.FieldActivePowerImport: int64(len(msg.Bytes()))}
	}
	return d.result(msg)
}

func dlms(n int) types.Message {
	return types.NewDlmsMessage(make([]byte, n))
}

func TestRunStopsAtStopMessage(t *testing.T) {
	q := measurequeue.New(0, measurequeue.DropOldest)
	ctx := context.Background()
	require.NoError(t, q.Put(ctx, dlms(10)))
	require.NoError(t, q.Put(ctx, types.StopMessage{}))
	require.NoError(t, q.Put(ctx, dlms(20)))

	decoder := &stubDecoder{}
	var dispatched []types.Fields
	p := New(q, decoder, func(f types.Fields) { dispatched = append(dispatched, f) })

	require.NoError(t, p.Run(ctx))
	require.Equal(t, StateStopped, p.State())
	require.Len(t, decoder.calls, 1)
	require.Len(t, dispatched, 1)
	require.Equal(t, int64(10), dispatched[0][obis.FieldActivePowerImport])
	require.Equal(t, 1, q.Len())
}

func TestRunReturnsOnCancel(t *testing.T) {
	q := measurequeue.New(0, measurequeue.DropOldest)
	p := New(q, &stubDecoder{}, func(types.Fields) {})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("processor did not stop after cancel")
	}
	require.Equal(t, StateStopped, p.State())
}

func TestRunSkipsEmptyDecode(t *testing.T) {
	q := measurequeue.New(0, measurequeue.DropOldest)
	ctx := context.Background()
	require.NoError(t, q.Put(ctx, dlms(3)))
	require.NoError(t, q.Put(ctx, dlms(8)))
	require.NoError(t, q.Put(ctx, types.StopMessage{}))

	decoder := &stubDecoder{result: func(msg types.Message) types.Fields {
		if !msg.IsValid() {
			return types.Fields{}
		}
		return types.Fields{obis.FieldMeterID: "1"}
	}}
	var dispatched int
	p := New(q, decoder, func(types.Fields) { dispatched++ })

	require.NoError(t, p.Run(ctx))
	require.Len(t, decoder.calls, 2)
	require.Equal(t, 1, dispatched)
}

func TestRunRecoversFromPanic(t *testing.T) {
	q := measurequeue.New(0, measurequeue.DropOldest)
	ctx := context.Background()
	require.NoError(t, q.Put(ctx, dlms(5)))
	require.NoError(t, q.Put(ctx, dlms(6)))
	require.NoError(t, q.Put(ctx, types.StopMessage{}))

	decoder := &stubDecoder{result: func(msg types.Message) types.Fields {
		if len(msg.Bytes()) == 5 {
			panic("broken list")
		}
		return types.Fields{obis.FieldMeterID: "2"}
	}}
	var dispatched []types.Fields
	p := New(q, decoder, func(f types.Fields) { dispatched = append(dispatched, f) })

	require.NoError(t, p.Run(ctx))
	require.Len(t, dispatched, 1)
	require.Equal(t, "2", dispatched[0][obis.FieldMeterID])
}

func TestScaleFactor(t *testing.T) {
	q := measurequeue.New(0, measurequeue.DropOldest)
	ctx := context.Background()
	require.NoError(t, q.Put(ctx, dlms(5)))
	require.NoError(t, q.Put(ctx, types.StopMessage{}))

	decoder := &stubDecoder{result: func(types.Message) types.Fields {
		return types.Fields{
			obis.FieldActivePowerImport:      int64(1500),
			obis.FieldActivePowerImportTotal: 12.5,
			obis.FieldVoltageL1:              230.1,
			obis.FieldMeterID:                "7",
		}
	}}
	var got types.Fields
	p := New(q, decoder, func(f types.Fields) { got = f }, WithScaleFactor(40))

	require.NoError(t, p.Run(ctx))
	require.Equal(t, int64(60000), got[obis.FieldActivePowerImport])
	require.InDelta(t, 500.0, got[obis.FieldActivePowerImportTotal], 1e-9)
	require.InDelta(t, 230.1, got[obis.FieldVoltageL1], 1e-9)
	require.Equal(t, "7", got[obis.FieldMeterID])
}

func TestStateString(t *testing.T) {
	require.Equal(t, "awaiting_message", StateAwaitingMessage.String())
	require.Equal(t, "stopped", StateStopped.String())
}
