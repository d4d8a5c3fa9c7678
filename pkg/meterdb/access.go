package meterdb

import (
	"database/sql"
	"errors"
	"fmt"
)

// InsertReadings stores everything decoded from one meter message in a single
// transaction.
func InsertReadings(readings *MeterDbReadings) error {
	db, err := GetDB()
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if readings.Meter != nil {
		if err := upsertMeter(tx, readings.Meter); err != nil {
			return err
		}
	}
	for i := range readings.LivePower {
		if err := insertLivePowerReading(tx, &readings.LivePower[i]); err != nil {
			return err
		}
	}
	for i := range readings.TotalPower {
		if err := insertTotalPowerReading(tx, &readings.TotalPower[i]); err != nil {
			return err
		}
	}
	if readings.TotalGas != nil {
		if err := insertTotalGasReading(tx, readings.TotalGas); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func upsertMeter(tx *sql.Tx, meter *MeterDbMeter) error {
	_, err := tx.Exec(
		"INSERT INTO meters (unique_id, manufacturer, type, meter_id, list_version_id, last_seen) "+
			"VALUES (?, ?, ?, ?, ?, ?) "+
			"ON CONFLICT(unique_id) DO UPDATE SET list_version_id = excluded.list_version_id, last_seen = excluded.last_seen",
		meter.UniqueID,
		meter.Manufacturer,
		meter.Type,
		meter.MeterID,
		meter.ListVersionID,
		meter.LastSeen,
	)
	if err != nil {
		return fmt.Errorf("upsert meter %s: %w", meter.UniqueID, err)
	}
	return nil
}

func insertLivePowerReading(tx *sql.Tx, reading *MeterDbLivePowerReading) error {
	_, err := tx.Exec(
		"INSERT INTO live_power_readings (timestamp, watt, reading_type) "+
			"VALUES (?, ?, ?)",
		reading.Timestamp,
		reading.Watt,
		reading.ReadingType,
	)
	if err != nil {
		return fmt.Errorf("insert live power reading: %w", err)
	}
	return nil
}

func insertTotalPowerReading(tx *sql.Tx, reading *MeterDbTotalPowerReading) error {
	_, err := tx.Exec(
		"INSERT INTO total_power_readings (timestamp, watthour, reading_type) "+
			"VALUES (?, ?, ?)",
		reading.Timestamp,
		reading.Watthour,
		reading.ReadingType,
	)
	if err != nil {
		return fmt.Errorf("insert total power reading: %w", err)
	}
	return nil
}

func insertTotalGasReading(tx *sql.Tx, reading *MeterDbTotalGasReading) error {
	_, err := tx.Exec(
		"INSERT INTO total_gas_readings (timestamp, consumption_dm3) "+
			"VALUES (?, ?)",
		reading.Timestamp,
		reading.TotalConsumptionDM3,
	)
	if err != nil {
		return fmt.Errorf("insert total gas reading: %w", err)
	}
	return nil
}

// GetMeters returns every meter seen, most recent first.
func GetMeters() ([]MeterDbMeter, error) {
	db, err := GetDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query("SELECT unique_id, manufacturer, type, meter_id, list_version_id, last_seen FROM meters ORDER BY last_seen DESC")
	if err != nil {
		return nil, fmt.Errorf("query meters: %w", err)
	}
	defer rows.Close()

	var meters []MeterDbMeter
	for rows.Next() {
		var m MeterDbMeter
		if err := rows.Scan(&m.UniqueID, &m.Manufacturer, &m.Type, &m.MeterID, &m.ListVersionID, &m.LastSeen); err != nil {
			return nil, err
		}
		meters = append(meters, m)
	}
	return meters, rows.Err()
}

// GetLatestTotalPower returns the newest total power reading of readingType.
func GetLatestTotalPower(readingType MeterDbPowerReadingType) (*MeterDbTotalPowerReading, error) {
	db, err := GetDB()
	if err != nil {
		return nil, err
	}

	reading := &MeterDbTotalPowerReading{ReadingType: readingType}
	err = db.QueryRow(
		"SELECT timestamp, watthour FROM total_power_readings WHERE reading_type = ? ORDER BY timestamp DESC LIMIT 1",
		readingType,
	).Scan(&reading.Timestamp, &reading.Watthour)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest total power: %w", err)
	}
	return reading, nil
}
