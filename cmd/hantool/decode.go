package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/NotCoffee418/amshan_reader/pkg/autodecoder"
	"github.com/NotCoffee418/amshan_reader/pkg/detector"
	"github.com/NotCoffee418/amshan_reader/pkg/types"
	"github.com/spf13/cobra"
)

var decodeFile string

var decodeCmd = &cobra.Command{
	Use:   "decode [hex]",
	Short: "Decode a single meter payload",
	Long: `Decode a payload given as hex on the command line, or read raw from
a file with --file. Use --file - to read stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := decodeInput(args, decodeFile, cmd.InOrStdin())
		if err != nil {
			return err
		}
		result, err := decodePayload(payload)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	},
}

func init() {
	decodeCmd.Flags().StringVarP(&decodeFile, "file", "f", "", "Read the raw payload from a file")
}

type decodeResult struct {
	Kind   string           `json:"kind"`
	Meter  *types.MeterInfo `json:"meter,omitempty"`
	Fields types.Fields     `json:"fields"`
}

func decodeInput(args []string, file string, stdin io.Reader) ([]byte, error) {
	switch {
	case file == "-":
		return io.ReadAll(stdin)
	case file != "":
		return os.ReadFile(file)
	case len(args) == 1:
		clean := strings.NewReplacer(" ", "", "\n", "", "\t", "", ":", "").Replace(args[0])
		b, err := hex.DecodeString(clean)
		if err != nil {
			return nil, fmt.Errorf("payload is not hex: %w", err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("give a hex payload or --file")
}

func decodePayload(payload []byte) (*decodeResult, error) {
	c := detector.Classify(payload)
	result := &decodeResult{Kind: c.Kind.String(), Fields: types.Fields{}}
	if !c.Decodable() {
		return result, nil
	}
	result.Fields = autodecoder.New(nil).Decode(c.Message)
	if info, ok := types.MeterInfoFromFields(result.Fields); ok {
		result.Meter = info
	}
	return result, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
