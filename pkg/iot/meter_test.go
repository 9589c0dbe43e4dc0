package iot

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"liyu1981.xyz/flow-meter-service/pkg/common"
	"liyu1981.xyz/flow-meter-service/pkg/models"
	_ "liyu1981.xyz/flow-meter-service/pkg/testing"
)

func TestAuthenticate(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, _ := GetMockIOTWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	meter := seedMeter(t, iotObj, "1111")

	got, err := iotObj.Meter.Authenticate(context.Background(), meter.MeterCode, "1111")
	require.NoError(t, err)
	assert.Equal(t, meter.ID, got.ID)
	assert.Equal(t, 0.5, got.PricePerLiter)
	assert.Equal(t, "BOB", got.Currency)
}

func TestAuthenticate_Rejections(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, _ := GetMockIOTWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	meter := seedMeter(t, iotObj, "1111")

	cases := []struct {
		name, code, pin string
	}{
		{"wrong pin", meter.MeterCode, "9999"},
		{"unknown meter", "MED-404", "1111"},
		{"empty pin", meter.MeterCode, ""},
		{"empty code", "", "1111"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := iotObj.Meter.Authenticate(context.Background(), tc.code, tc.pin)
			var authErr *AuthorizationError
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, tc.code, authErr.MeterCode)
		})
	}
}

func TestAuthenticate_UsesMeterCache(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, _ := GetMockIOTWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()
	iotObj.MeterCacheTTL = 200 * time.Millisecond

	meter := seedMeter(t, iotObj, "1111")
	ctx := context.Background()

	_, err := iotObj.Meter.Authenticate(ctx, meter.MeterCode, "1111")
	require.NoError(t, err)

	require.NoError(t, iotObj.Db.Conn.Model(&models.Meter{}).
		Where("id = ?", meter.ID).Update("pin", "2222").Error)

	// still served from cache
	_, err = iotObj.Meter.Authenticate(ctx, meter.MeterCode, "1111")
	require.NoError(t, err)

	// the new pin is seen once the entry expires
	require.Eventually(t, func() bool {
		_, err := iotObj.Meter.Authenticate(ctx, meter.MeterCode, "2222")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)

	_, err = iotObj.Meter.Authenticate(ctx, meter.MeterCode, "1111")
	var authErr *AuthorizationError
	assert.ErrorAs(t, err, &authErr)
}

func TestAuthenticate_LookupFailureIsStorageError(t *testing.T) {
	common.SetTestLoggerNop()

	iotObj, mock := GetIOTWithSqlmock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "meters"`)).
		WillReturnError(errors.New("connection reset by peer"))

	_, err := iotObj.Meter.Authenticate(context.Background(), "MED-001A", "1111")

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "find meter", storageErr.Op)
	assert.NoError(t, mock.ExpectationsWereMet())
}
