package models

import (
	"time"
)

type UserRole string

const (
	UserRoleUser  UserRole = "USER"
	UserRoleAdmin UserRole = "ADMIN"
)

type User struct {
	ID        uint `gorm:"primaryKey"`
	FirstName string
	LastName  string
	Phone     string
	Role      UserRole `gorm:"type:varchar(10);check:role IN ('USER','ADMIN')"`

	Meters []Meter `gorm:"foreignKey:UserID"`
}

type Meter struct {
	ID           uint   `gorm:"primaryKey"`
	MeterCode    string `gorm:"uniqueIndex;not null"`
	Pin          string `gorm:"not null" json:"-"`
	Category     string
	Neighborhood string
	Street       string
	Number       string
	Parcel       string

	PricePerLiter float64 `gorm:"default:0.5"`
	Currency      string  `gorm:"default:BOB"`

	UserID *uint `gorm:"index"`

	Readings []Reading `gorm:"foreignKey:MeterID;constraint:OnDelete:CASCADE" json:"-"`
}

// Reading is one telemetry sample. Rows are append-only.
type Reading struct {
	ID          uint      `gorm:"primaryKey"`
	MeterID     uint      `gorm:"index;not null"`
	Timestamp   time.Time `gorm:"index"`
	FlowLps     float64
	LitersDelta float64
	LitersTotal float64
}

// Sample is the metric part of an ingestion request. Absent fields stay zero.
type Sample struct {
	FlowLps     float64
	LitersDelta float64
	LitersTotal float64
}

const ReadingEventStatusConnected = "connected"

// ReadingEvent is the JSON frame pushed to live subscribers.
type ReadingEvent struct {
	Status      string  `json:"status,omitempty"`
	MeterCode   string  `json:"meter_code"`
	FlowLps     float64 `json:"flow_lps"`
	LitersDelta float64 `json:"liters_delta"`
	LitersTotal float64 `json:"liters_total"`
	Timestamp   string  `json:"timestamp"`
}
