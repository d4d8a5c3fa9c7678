package aggregator

import (
	"testing"
	"time"

	"github.com/NotCoffee418/amshan_reader/pkg/meterdb"
	"github.com/stretchr/testify/require"
)

func TestRoundToStart(t *testing.T) {
	ts := time.Date(2024, 2, 29, 13, 45, 10, 0, time.UTC)
	require.Equal(t, time.Date(2024, 2, 29, 13, 0, 0, 0, time.UTC).Unix(), roundToHourStart(ts))
	require.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC).Unix(), roundToDayStart(ts))
	require.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC).Unix(), roundToMonthStart(ts))
}

func TestTimeframeEnd(t *testing.T) {
	hour := time.Date(2024, 2, 29, 13, 0, 0, 0, time.UTC).Unix()
	require.Equal(t, hour+3599, TimeframeHourly.End(hour))
	require.Equal(t, 1.0, TimeframeHourly.Hours(hour))

	month := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC).Unix()
	require.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Unix()-1, TimeframeMonthly.End(month))
	require.Equal(t, 29.0*24, TimeframeMonthly.Hours(month))

	day := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC).Unix()
	require.Equal(t, 24.0, TimeframeDaily.Hours(day))
}

func TestDueTimeframes(t *testing.T) {
	due := dueTimeframes(time.Date(2024, 3, 5, 14, 2, 0, 0, time.UTC))
	require.Equal(t, map[Timeframe]int64{
		TimeframeHourly: time.Date(2024, 3, 5, 13, 0, 0, 0, time.UTC).Unix(),
	}, due)

	due = dueTimeframes(time.Date(2024, 3, 1, 0, 1, 0, 0, time.UTC))
	require.Equal(t, map[Timeframe]int64{
		TimeframeHourly:  time.Date(2024, 2, 29, 23, 0, 0, 0, time.UTC).Unix(),
		TimeframeDaily:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC).Unix(),
		TimeframeMonthly: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC).Unix(),
	}, due)
}

func TestEnergyFromAverages(t *testing.T) {
	aggregate := energyFromAverages(map[meterdb.MeterDbPowerReadingType]float64{
		meterdb.PowerConsumptionDay:  500,
		meterdb.PowerProductionNight: 125.5,
	}, 24)
	require.Equal(t, uint32(12000), aggregate.ConsumptionDayWh)
	require.Equal(t, uint32(3012), aggregate.ProductionNightWh)
	require.Zero(t, aggregate.ConsumptionNightWh)
}

func TestNextRun(t *testing.T) {
	now := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
	require.Equal(t, time.Date(2024, 3, 5, 15, 1, 0, 0, time.UTC).Unix(), nextRun(now).Unix())
	require.Equal(t, "daily", TimeframeDaily.String())
}
