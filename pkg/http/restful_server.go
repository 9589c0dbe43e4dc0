package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
	"liyu1981.xyz/flow-meter-service/pkg/iot"
	"liyu1981.xyz/flow-meter-service/pkg/live"
)

type RestfulServer struct {
	Server           *gin.Engine
	Iot              *iot.IOT
	RateLimiterStore *iot.RateLimiterStore

	// Live serves /ws/meter/:meter_code. The route is not mounted when nil.
	Live *live.Endpoint
	// RequirePin makes live channels authenticate with ?pin= like the query API.
	RequirePin bool
	Upgrader   *websocket.Upgrader
}

// CheckMeterLimiter takes one token from the meter's limiter. Callers must
// authenticate the meter first, so only known meters get a limiter.
func (rs *RestfulServer) CheckMeterLimiter(meterCode string) bool {
	if rs.RateLimiterStore == nil {
		return true
	}
	return rs.RateLimiterStore.Allow(meterCode)
}

func (rs *RestfulServer) SetLimiter(meterCode string, meterRate float64, meterBurst int) {
	if rs.RateLimiterStore == nil {
		return
	}
	rs.RateLimiterStore.SetLimiter(meterCode, rate.Limit(meterRate), meterBurst)
}

func (rs *RestfulServer) upgrader() *websocket.Upgrader {
	if rs.Upgrader == nil {
		rs.Upgrader = &websocket.Upgrader{
			// viewers are served from any origin, same as the API
			CheckOrigin: func(r *http.Request) bool { return true },
		}
	}
	return rs.Upgrader
}

func (rs *RestfulServer) Setup() {
	rs.Server.Use(CORS())

	rs.Server.GET("/healthz", rs.HealthCheck)

	api := rs.Server.Group("/api")
	{
		api.POST("/ingest", rs.PostIngest)

		meters := api.Group("/meter/:meter_code")
		{
			meters.GET("/latest", rs.GetLatest)
			meters.GET("/recent", rs.GetRecent)
			meters.POST("/limiter", rs.PostLimiter)
		}
	}

	if rs.Live != nil {
		rs.upgrader()
		rs.Server.GET("/ws/meter/:meter_code", rs.LiveChannel)
	}
}

// CORS allows every origin, method and header.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "*")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
