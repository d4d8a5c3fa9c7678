// Responsible for storing the data collected from the smart meter
// Depends on the interpreter API being online.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NotCoffee418/amshan_reader/pkg/aggregator"
	"github.com/NotCoffee418/amshan_reader/pkg/config"
	"github.com/NotCoffee418/amshan_reader/pkg/interpreter"
	"github.com/NotCoffee418/amshan_reader/pkg/logging"
	"github.com/NotCoffee418/amshan_reader/pkg/meterdb"
	"github.com/NotCoffee418/amshan_reader/pkg/pathing"
	"github.com/NotCoffee418/amshan_reader/pkg/types"
	"github.com/rs/zerolog/log"
)

func main() {
	logging.InitLogger("meter_collector", "")

	if err := pathing.EnsureDirs(); err != nil {
		log.Fatal().Err(err).Msg("failed to create directories")
	}
	if err := config.LoadMeterCollectorConfig(); err != nil {
		log.Fatal().Err(err).Msg("failed to load meter collector config")
	}
	cfg := config.ActiveMeterCollectorConfig
	logging.InitLogger("meter_collector", cfg.LogLevel)

	if err := meterdb.InitializeDatabase(); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	logKnownMeters()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go aggregator.Run(ctx)

	// Subscribe to websocket with revive
	interpreter.StartListener(ctx, cfg.InterpreterAPIHost, cfg.TLSEnabled, handleMeterReading)
	log.Info().Msg("meter collector stopped")
}

// Handle meter reading data
func handleMeterReading(fields types.Fields) {
	readings := meterdb.ReadingsFromFields(fields, time.Now())
	if readings.IsEmpty() {
		log.Debug().Msg("reading has nothing to store")
		return
	}
	if err := meterdb.InsertReadings(readings); err != nil {
		log.Error().Err(err).Msg("failed to store meter reading")
	}
}

func logKnownMeters() {
	meters, err := meterdb.GetMeters()
	if err != nil {
		log.Warn().Err(err).Msg("failed to list meters")
		return
	}
	for _, m := range meters {
		log.Info().Str("meter", m.UniqueID).Time("last_seen", time.Unix(m.LastSeen, 0)).Msg("known meter")
	}

	for _, readingType := range []meterdb.MeterDbPowerReadingType{
		meterdb.PowerConsumptionDay,
		meterdb.PowerConsumptionNight,
		meterdb.PowerConsumptionTotal,
	} {
		reading, err := meterdb.GetLatestTotalPower(readingType)
		if err != nil {
			log.Warn().Err(err).Msg("failed to read latest total power")
			return
		}
		if reading != nil {
			log.Info().Uint8("reading_type", uint8(readingType)).Uint32("watthour", reading.Watthour).Msg("last known register")
		}
	}
}
