package iot

import (
	"bufio"
	"encoding/json"
	"io"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"liyu1981.xyz/flow-meter-service/pkg/db"
	"liyu1981.xyz/flow-meter-service/pkg/iot/mocks"
	"liyu1981.xyz/flow-meter-service/pkg/models"
)

type mockServices struct {
	Meter       *mocks.MockIMeter
	Reading     *mocks.MockIReading
	Broadcaster *mocks.MockIBroadcaster
	Relay       *mocks.MockIRelay
}

// GetMockIOTWithMemorySqliteDialector builds an IOT over the shared in-memory
// database. Meter and Reading stay real unless asked for as mocks; the
// broadcaster and relay are always mocks.
func GetMockIOTWithMemorySqliteDialector(t *testing.T, useMockIMeter, useMockIReading bool) (
	*gomock.Controller,
	*IOT,
	mockServices,
) {
	ctrl := gomock.NewController(t)

	m := mockServices{
		Meter:       mocks.NewMockIMeter(ctrl),
		Reading:     mocks.NewMockIReading(ctrl),
		Broadcaster: mocks.NewMockIBroadcaster(ctrl),
		Relay:       mocks.NewMockIRelay(ctrl),
	}

	dbInstance := db.GetInstance(db.UseMemorySqliteDialector()) // ensure migrations
	iotInstance := &IOT{Db: *dbInstance}

	meterService := iotInstance.GetIMeter()
	if useMockIMeter {
		meterService = m.Meter
	}

	readingService := iotInstance.GetIReading()
	if useMockIReading {
		readingService = m.Reading
	}

	iotInstance.WithServices(ServiceOpts{
		Meter:       meterService,
		Reading:     readingService,
		Ingest:      iotInstance.GetIIngest(),
		Broadcaster: m.Broadcaster,
		Relay:       m.Relay,
	})

	return ctrl, iotInstance, m
}

// GetIOTWithSqlmock builds an IOT whose database is a sqlmock behind the
// postgres dialector.
func GetIOTWithSqlmock(t *testing.T) (*IOT, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	conn, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	iotInstance := &IOT{Db: db.DB{Conn: conn}}
	iotInstance.WithDefaultServices()
	return iotInstance, mock
}

// seedMeter stores a meter with a unique code in the shared test database.
func seedMeter(t *testing.T, iotObj *IOT, pin string) *models.Meter {
	meter := &models.Meter{MeterCode: "MED-" + uuid.NewString(), Pin: pin}
	require.NoError(t, iotObj.Db.Conn.Create(meter).Error)
	return meter
}

func countReadings(t *testing.T, iotObj *IOT, meterID uint) int64 {
	var count int64
	require.NoError(t, iotObj.Db.Conn.Model(&models.Reading{}).Where("meter_id = ?", meterID).Count(&count).Error)
	return count
}

func ParseLogs(r io.Reader) []any {
	scanner := bufio.NewScanner(r)
	var logs []any

	for scanner.Scan() {
		line := scanner.Text()
		var j any
		if err := json.Unmarshal([]byte(line), &j); err == nil {
			logs = append(logs, j)
		}
	}
	return logs
}
