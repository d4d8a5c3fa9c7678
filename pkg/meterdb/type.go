package meterdb

type MeterDbPowerReadingType uint8

const (
	PowerConsumptionDay   MeterDbPowerReadingType = 0
	PowerConsumptionNight MeterDbPowerReadingType = 1
	PowerProductionDay    MeterDbPowerReadingType = 2
	PowerProductionNight  MeterDbPowerReadingType = 3
	// Meters without tariff registers report a single total per direction.
	PowerConsumptionTotal MeterDbPowerReadingType = 4
	PowerProductionTotal  MeterDbPowerReadingType = 5
)

type MeterDbLivePowerReading struct {
	Timestamp   int64                   `db:"timestamp"`
	Watt        uint32                  `db:"watt"`
	ReadingType MeterDbPowerReadingType `db:"reading_type"`
}

type MeterDbTotalPowerReading struct {
	Timestamp   int64                   `db:"timestamp"`
	Watthour    uint32                  `db:"watthour"`
	ReadingType MeterDbPowerReadingType `db:"reading_type"`
}

type MeterDbTotalGasReading struct {
	Timestamp           int64  `db:"timestamp"`
	TotalConsumptionDM3 uint32 `db:"consumption_dm3"`
}

type MeterDbMeter struct {
	UniqueID      string `db:"unique_id"`
	Manufacturer  string `db:"manufacturer"`
	Type          string `db:"type"`
	MeterID       string `db:"meter_id"`
	ListVersionID string `db:"list_version_id"`
	LastSeen      int64  `db:"last_seen"`
}

// MeterDbReadings is everything stored for one decoded meter message.
type MeterDbReadings struct {
	Meter     *MeterDbMeter
	LivePower []MeterDbLivePowerReading
	// Only the registers present in the message.
	TotalPower []MeterDbTotalPowerReading
	TotalGas   *MeterDbTotalGasReading
}

// Aggregate models - energy per timeframe computed from live power. The
// hourly, daily and monthly tables share this shape.
type AggregateLivePowerTable struct {
	StartTime          int64  `db:"start_time"`
	ConsumptionDayWh   uint32 `db:"consumption_day_wh"`
	ConsumptionNightWh uint32 `db:"consumption_night_wh"`
	ProductionDayWh    uint32 `db:"production_day_wh"`
	ProductionNightWh  uint32 `db:"production_night_wh"`
	SampleCount        uint32 `db:"sample_count"`
}

// Snapshot models - retained meter readings
type SnapshotTotalPowerHourly struct {
	Timestamp                int64  `db:"timestamp"`
	ConsumptionDayStanding   uint32 `db:"consumption_day_standing"`
	ConsumptionNightStanding uint32 `db:"consumption_night_standing"`
	ProductionDayStanding    uint32 `db:"production_day_standing"`
	ProductionNightStanding  uint32 `db:"production_night_standing"`
	ConsumptionTotalStanding uint32 `db:"consumption_total_standing"`
	ProductionTotalStanding  uint32 `db:"production_total_standing"`
}

type SnapshotTotalGasHourly struct {
	Timestamp   int64  `db:"timestamp"`
	Dm3Standing uint32 `db:"dm3_standing"`
}
