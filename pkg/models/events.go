package models

import (
	"time"

	"liyu1981.xyz/flow-meter-service/pkg/common"
)

func NewReadingEvent(meterCode string, reading Reading) ReadingEvent {
	return ReadingEvent{
		MeterCode:   meterCode,
		FlowLps:     reading.FlowLps,
		LitersDelta: reading.LitersDelta,
		LitersTotal: reading.LitersTotal,
		Timestamp:   common.FormatTimestamp(reading.Timestamp),
	}
}

// NewConnectedEvent is the first frame of every live channel: zero metrics
// so the viewer has a well-formed reading before any ingestion happens.
func NewConnectedEvent(meterCode string, now time.Time) ReadingEvent {
	return ReadingEvent{
		Status:    ReadingEventStatusConnected,
		MeterCode: meterCode,
		Timestamp: common.FormatTimestamp(now),
	}
}
