package aggregator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/NotCoffee418/amshan_reader/pkg/meterdb"
	"github.com/rs/zerolog/log"
)

// Raw readings older than this are removed once aggregated.
const retention = 3

var logger = log.With().Str("component", "aggregator").Logger()

// roundToHourStart returns the Unix timestamp of the start of the hour for the given time
func roundToHourStart(t time.Time) int64 {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC).Unix()
}

// roundToDayStart returns the Unix timestamp of the start of the day for the given time
func roundToDayStart(t time.Time) int64 {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Unix()
}

// roundToMonthStart returns the Unix timestamp of the start of the month for the given time
func roundToMonthStart(t time.Time) int64 {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).Unix()
}

// End returns the last second of the timeframe starting at start.
func (t Timeframe) End(start int64) int64 {
	s := time.Unix(start, 0).UTC()
	switch t {
	case TimeframeDaily:
		return s.AddDate(0, 0, 1).Unix() - 1
	case TimeframeMonthly:
		return time.Date(s.Year(), s.Month()+1, 1, 0, 0, 0, 0, time.UTC).Unix() - 1
	}
	return s.Add(time.Hour).Unix() - 1
}

// Hours is the length of the timeframe starting at start.
func (t Timeframe) Hours(start int64) float64 {
	return float64(t.End(start)+1-start) / 3600
}

func (t Timeframe) table() (string, string) {
	switch t {
	case TimeframeDaily:
		return "aggregate_live_power_daily", "day_start"
	case TimeframeMonthly:
		return "aggregate_live_power_monthly", "month_start"
	}
	return "aggregate_live_power_hourly", "hour_start"
}

// aggregateLivePower stores the energy of the timeframe starting at start,
// computed from the average live power per reading type.
func aggregateLivePower(db *sql.DB, timeframe Timeframe, start int64) error {
	end := timeframe.End(start)

	rows, err := db.Query(`
		SELECT
			reading_type,
			AVG(watt) as avg_watt,
			COUNT(*) as count
		FROM live_power_readings
		WHERE timestamp >= ? AND timestamp <= ?
		GROUP BY reading_type
	`, start, end)
	if err != nil {
		return fmt.Errorf("query %s live power: %w", timeframe, err)
	}
	defer rows.Close()

	averages := make(map[meterdb.MeterDbPowerReadingType]float64)
	var sampleCount uint32
	for rows.Next() {
		var readingType meterdb.MeterDbPowerReadingType
		var avgWatt float64
		var count uint32
		if err := rows.Scan(&readingType, &avgWatt, &count); err != nil {
			return err
		}
		averages[readingType] = avgWatt
		sampleCount += count
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if sampleCount == 0 {
		return nil
	}

	aggregate := energyFromAverages(averages, timeframe.Hours(start))
	aggregate.StartTime = start
	aggregate.SampleCount = sampleCount

	table, column := timeframe.table()
	_, err = db.Exec(fmt.Sprintf(`
		INSERT OR REPLACE INTO %s
		(%s, consumption_day_wh, consumption_night_wh, production_day_wh, production_night_wh, sample_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`, table, column),
		aggregate.StartTime,
		aggregate.ConsumptionDayWh,
		aggregate.ConsumptionNightWh,
		aggregate.ProductionDayWh,
		aggregate.ProductionNightWh,
		aggregate.SampleCount,
	)
	return err
}

// energyFromAverages converts average watts over hours into watt hours.
func energyFromAverages(averages map[meterdb.MeterDbPowerReadingType]float64, hours float64) meterdb.AggregateLivePowerTable {
	return meterdb.AggregateLivePowerTable{
		ConsumptionDayWh:   uint32(averages[meterdb.PowerConsumptionDay] * hours),
		ConsumptionNightWh: uint32(averages[meterdb.PowerConsumptionNight] * hours),
		ProductionDayWh:    uint32(averages[meterdb.PowerProductionDay] * hours),
		ProductionNightWh:  uint32(averages[meterdb.PowerProductionNight] * hours),
	}
}

// snapshotTotalGasHourly creates a snapshot of gas readings for a specific hour
func snapshotTotalGasHourly(db *sql.DB, hourStart int64) error {
	hourEnd := TimeframeHourly.End(hourStart)

	snapshot := meterdb.SnapshotTotalGasHourly{Timestamp: hourStart}
	err := db.QueryRow(`
		SELECT consumption_dm3
		FROM total_gas_readings
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp DESC
		LIMIT 1
	`, hourStart, hourEnd).Scan(&snapshot.Dm3Standing)
	if errors.Is(err, sql.ErrNoRows) {
		// No entry within timeframe, that's okay
		return nil
	}
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		INSERT OR REPLACE INTO snapshot_total_gas_hourly
		(timestamp, dm3_standing)
		VALUES (?, ?)
	`, snapshot.Timestamp, snapshot.Dm3Standing)
	return err
}

// snapshotTotalPowerHourly creates a snapshot of the energy registers for a
// specific hour, looking back up to a day for the last known value.
func snapshotTotalPowerHourly(db *sql.DB, hourStart int64) error {
	hourEnd := TimeframeHourly.End(hourStart)
	lookbackStart := hourEnd - (24 * 3600)

	standings := make(map[meterdb.MeterDbPowerReadingType]uint32)
	for _, readingType := range []meterdb.MeterDbPowerReadingType{
		meterdb.PowerConsumptionDay,
		meterdb.PowerConsumptionNight,
		meterdb.PowerProductionDay,
		meterdb.PowerProductionNight,
		meterdb.PowerConsumptionTotal,
		meterdb.PowerProductionTotal,
	} {
		var watthour uint32
		err := db.QueryRow(`
			SELECT watthour
			FROM total_power_readings
			WHERE reading_type = ? AND timestamp >= ? AND timestamp <= ?
			ORDER BY timestamp DESC
			LIMIT 1
		`, readingType, lookbackStart, hourEnd).Scan(&watthour)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			logger.Warn().Err(err).Uint8("reading_type", uint8(readingType)).Msg("failed to query power register")
			continue
		}
		standings[readingType] = watthour
	}

	// Only create snapshot if we have at least one reading
	if len(standings) == 0 {
		return nil
	}

	snapshot := meterdb.SnapshotTotalPowerHourly{
		Timestamp:                hourStart,
		ConsumptionDayStanding:   standings[meterdb.PowerConsumptionDay],
		ConsumptionNightStanding: standings[meterdb.PowerConsumptionNight],
		ProductionDayStanding:    standings[meterdb.PowerProductionDay],
		ProductionNightStanding:  standings[meterdb.PowerProductionNight],
		ConsumptionTotalStanding: standings[meterdb.PowerConsumptionTotal],
		ProductionTotalStanding:  standings[meterdb.PowerProductionTotal],
	}
	_, err := db.Exec(`
		INSERT OR REPLACE INTO snapshot_total_power_hourly
		(timestamp, consumption_day_standing, consumption_night_standing, production_day_standing,
		 production_night_standing, consumption_total_standing, production_total_standing)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		snapshot.Timestamp,
		snapshot.ConsumptionDayStanding,
		snapshot.ConsumptionNightStanding,
		snapshot.ProductionDayStanding,
		snapshot.ProductionNightStanding,
		snapshot.ConsumptionTotalStanding,
		snapshot.ProductionTotalStanding,
	)
	return err
}

// cleanupOldData removes raw data older than the retention period if we have
// aggregated it
func cleanupOldData(db *sql.DB, now time.Time) error {
	cutoff := now.UTC().AddDate(0, -retention, 0)

	var lastAggregateHour sql.NullInt64
	if err := db.QueryRow("SELECT MAX(hour_start) FROM aggregate_live_power_hourly").Scan(&lastAggregateHour); err != nil {
		return err
	}
	if !lastAggregateHour.Valid || lastAggregateHour.Int64 < cutoff.Unix() {
		return nil
	}

	for _, table := range []string{"live_power_readings", "total_power_readings", "total_gas_readings"} {
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s WHERE timestamp < ?", table), cutoff.Unix()); err != nil {
			return fmt.Errorf("clean up %s: %w", table, err)
		}
	}

	logger.Info().Time("cutoff", cutoff).Msg("cleaned up old readings")
	return nil
}

// dueTimeframes returns the timeframes to aggregate at now with their start.
// The previous hour is always due, the previous day at midnight and the
// previous month at midnight on the first.
func dueTimeframes(now time.Time) map[Timeframe]int64 {
	now = now.UTC()
	due := map[Timeframe]int64{
		TimeframeHourly: roundToHourStart(now.Add(-time.Hour)),
	}
	if now.Hour() == 0 {
		due[TimeframeDaily] = roundToDayStart(now.AddDate(0, 0, -1))
		if now.Day() == 1 {
			due[TimeframeMonthly] = roundToMonthStart(now.AddDate(0, -1, 0))
		}
	}
	return due
}

// AggregateAndCleanup performs all aggregation and cleanup tasks
// This is the main function to call for data aggregation
func AggregateAndCleanup(now time.Time) error {
	db, err := meterdb.GetDB()
	if err != nil {
		return err
	}

	due := dueTimeframes(now)
	for _, timeframe := range []Timeframe{TimeframeHourly, TimeframeDaily, TimeframeMonthly} {
		start, ok := due[timeframe]
		if !ok {
			continue
		}
		logger.Debug().Str("timeframe", timeframe.String()).Time("start", time.Unix(start, 0).UTC()).Msg("aggregating live power")
		if err := aggregateLivePower(db, timeframe, start); err != nil {
			return fmt.Errorf("aggregate %s live power: %w", timeframe, err)
		}
	}

	hourStart := due[TimeframeHourly]
	if err := snapshotTotalGasHourly(db, hourStart); err != nil {
		return fmt.Errorf("gas snapshot: %w", err)
	}
	if err := snapshotTotalPowerHourly(db, hourStart); err != nil {
		return fmt.Errorf("power snapshot: %w", err)
	}
	if err := cleanupOldData(db, now); err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}

	logger.Info().Msg("aggregation and cleanup completed")
	return nil
}

// Run calls AggregateAndCleanup shortly after every full hour until ctx is
// done.
func Run(ctx context.Context) {
	for {
		next := nextRun(time.Now())
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
		}
		if err := AggregateAndCleanup(time.Now()); err != nil {
			logger.Error().Err(err).Msg("aggregation failed")
		}
	}
}

func nextRun(now time.Time) time.Time {
	return time.Unix(roundToHourStart(now), 0).Add(time.Hour + time.Minute)
}
