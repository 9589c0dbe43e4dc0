package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"liyu1981.xyz/flow-meter-service/pkg/common"
	"liyu1981.xyz/flow-meter-service/pkg/live"
)

// LiveChannel upgrades to a WebSocket and streams the meter's readings until
// either side goes away. Credentials are checked before the upgrade so a
// rejected viewer gets a plain HTTP error.
func (rs *RestfulServer) LiveChannel(c *gin.Context) {
	logger := common.GetLoggerWith(common.LoggerNameRestfulServer,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryLiveChannel))

	meterCode := c.Param("meter_code")

	if rs.RequirePin {
		if _, err := rs.Iot.Meter.Authenticate(c.Request.Context(), meterCode, c.Query("pin")); err != nil {
			abortWithIOTError(c, err, detailAccessDenied)
			return
		}
	}

	conn, err := rs.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already written the error response
		logger.Info("WebSocket upgrade failed", zap.String("meter_code", meterCode), zap.Error(err))
		return
	}

	sub := live.NewWebSocketSubscriber(conn)
	defer sub.Close()

	if err := rs.Live.Open(c.Request.Context(), meterCode, sub); err != nil {
		logger.Info("Live channel aborted", zap.String("meter_code", meterCode), zap.Error(err))
	}
}
