package aggregator

type Timeframe uint8

const (
	TimeframeHourly Timeframe = iota
	TimeframeDaily
	TimeframeMonthly
)

func (t Timeframe) String() string {
	switch t {
	case TimeframeHourly:
		return "hourly"
	case TimeframeDaily:
		return "daily"
	case TimeframeMonthly:
		return "monthly"
	}
	return "unknown"
}
