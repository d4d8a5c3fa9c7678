package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/NotCoffee418/amshan_reader/pkg/config"
	"github.com/NotCoffee418/amshan_reader/pkg/types"
	"github.com/NotCoffee418/amshan_reader/pkg/validator"
	"github.com/spf13/cobra"
)

var (
	validateConfig string
	validatePing   bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Connect to the configured meter and identify it",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadInterpreterAPIConfigFile(validateConfig)
		if err != nil {
			return err
		}
		v := validator.New(validator.Config{
			MaxFrameSearchCount: cfg.Validation.MaxFrameSearchCount,
			MaxFrameWaitTime:    cfg.Validation.MaxFrameWaitTime(),
			PingHost:            validatePing,
		})

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		info, err := v.Validate(ctx, cfg.Connection)
		if err != nil {
			var verr *validator.Error
			if errors.As(err, &verr) {
				return fmt.Errorf("%s: %s: %w", verr.Key, verr.Code, verr.Err)
			}
			return err
		}
		return printJSON(cmd.OutOrStdout(), struct {
			UniqueID string `json:"unique_id"`
			*types.MeterInfo
		}{info.UniqueID(), info})
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateConfig, "config", "c", "interpreter_api.toml", "Interpreter API config file")
	validateCmd.Flags().BoolVar(&validatePing, "ping", false, "Ping the TCP host before connecting")
}
