package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/NotCoffee418/amshan_reader/pkg/autodecoder"
	"github.com/NotCoffee418/amshan_reader/pkg/port_reader"
	"github.com/spf13/cobra"
	"go.bug.st/serial"
)

var (
	capturePort   string
	captureBaud   int
	captureParity string
	captureCount  int
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Read and decode messages from a serial port",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := serialMode(captureBaud, captureParity)
		if err != nil {
			return err
		}
		port, err := serial.Open(capturePort, mode)
		if err != nil {
			return fmt.Errorf("open %s: %w", capturePort, err)
		}
		defer port.Close()
		if err := port.SetReadTimeout(time.Second); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return capture(ctx, port, captureCount, func(result *decodeResult) error {
			return printJSON(cmd.OutOrStdout(), result)
		})
	},
}

func init() {
	captureCmd.Flags().StringVarP(&capturePort, "port", "p", "/dev/ttyUSB0", "Serial port device")
	captureCmd.Flags().IntVarP(&captureBaud, "baud", "b", 2400, "Baud rate")
	captureCmd.Flags().StringVar(&captureParity, "parity", port_reader.ParityNone, "Parity (N, E or O)")
	captureCmd.Flags().IntVarP(&captureCount, "count", "n", 0, "Stop after this many messages, 0 for no limit")
}

func serialMode(baud int, parity string) (*serial.Mode, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	switch parity {
	case port_reader.ParityNone:
		mode.Parity = serial.NoParity
	case port_reader.ParityEven:
		mode.Parity = serial.EvenParity
	case port_reader.ParityOdd:
		mode.Parity = serial.OddParity
	default:
		return nil, fmt.Errorf("unknown parity %q", parity)
	}
	return mode, nil
}

type reader interface {
	Read([]byte) (int, error)
}

// capture decodes messages read from r until ctx is done, r fails or count
// messages were handled.
func capture(ctx context.Context, r reader, count int, handle func(*decodeResult) error) error {
	stream := port_reader.NewMessageStream()
	decoder := autodecoder.New(nil)
	buf := make([]byte, 1024)
	handled := 0
	for ctx.Err() == nil {
		n, err := r.Read(buf)
		for _, msg := range stream.Read(buf[:n]) {
			result := &decodeResult{Kind: msg.MessageType().String(), Fields: decoder.Decode(msg)}
			if err := handle(result); err != nil {
				return err
			}
			handled++
			if count > 0 && handled >= count {
				return nil
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}
