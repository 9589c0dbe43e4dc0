package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"liyu1981.xyz/flow-meter-service/pkg/common"
	"liyu1981.xyz/flow-meter-service/pkg/iot"
	"liyu1981.xyz/flow-meter-service/pkg/models"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zhttp"
)

const (
	detailBadMeterOrPin = "Medidor o PIN incorrecto"
	detailAccessDenied  = "Acceso denegado"
	detailStorage       = "Error de almacenamiento"
)

// abortWithIOTError maps iot errors to a status and a {"detail": ...} body.
func abortWithIOTError(c *gin.Context, err error, authDetail string) {
	var authErr *iot.AuthorizationError
	if errors.As(err, &authErr) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": authDetail})
		return
	}

	common.GetLoggerWith(common.LoggerNameRestfulServer).
		Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": detailStorage})
}

type IngestRequest struct {
	MeterCode   string  `json:"meter_code" zog:"meter_code"`
	Pin         string  `json:"pin" zog:"pin"`
	FlowLps     float64 `json:"flow_lps" zog:"flow_lps"`
	LitersDelta float64 `json:"liters_delta" zog:"liters_delta"`
	LitersTotal float64 `json:"liters_total" zog:"liters_total"`
}

// Numbers may arrive as strings and absent ones count as zero. Credentials are
// left to the meter check so that missing ones answer 403 like wrong ones.
var ingestRequestSchema = z.Struct(z.Shape{
	"MeterCode":   z.String().Trim(),
	"Pin":         z.String(),
	"FlowLps":     z.Float64().Default(0),
	"LitersDelta": z.Float64().Default(0),
	"LitersTotal": z.Float64().Default(0),
})

func (rs *RestfulServer) PostIngest(c *gin.Context) {
	var req IngestRequest
	if err := ingestRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	// a rejected request must not spend the meter's tokens
	if rs.RateLimiterStore != nil {
		if _, err := rs.Iot.Meter.Authenticate(c.Request.Context(), req.MeterCode, req.Pin); err != nil {
			abortWithIOTError(c, err, detailBadMeterOrPin)
			return
		}
		if !rs.CheckMeterLimiter(req.MeterCode) {
			c.Status(http.StatusTooManyRequests)
			return
		}
	}

	if _, err := rs.Iot.Ingest.Ingest(c.Request.Context(), req.MeterCode, req.Pin, models.Sample{
		FlowLps:     req.FlowLps,
		LitersDelta: req.LitersDelta,
		LitersTotal: req.LitersTotal,
	}); err != nil {
		abortWithIOTError(c, err, detailBadMeterOrPin)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type MeterQuery struct {
	Pin   string `zog:"pin"`
	Limit int    `zog:"limit"`
}

var meterQuerySchema = z.Struct(z.Shape{
	"Pin":   z.String(),
	"Limit": z.Int().Default(iot.DefaultRecentLimit),
})

func (rs *RestfulServer) authenticateQuery(c *gin.Context) (*models.Meter, *MeterQuery, bool) {
	var q MeterQuery
	if err := meterQuerySchema.Parse(zhttp.Request(c.Request), &q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return nil, nil, false
	}

	meter, err := rs.Iot.Meter.Authenticate(c.Request.Context(), c.Param("meter_code"), q.Pin)
	if err != nil {
		abortWithIOTError(c, err, detailAccessDenied)
		return nil, nil, false
	}
	return meter, &q, true
}

type LatestResponse struct {
	MeterCode    string  `json:"meter_code"`
	Category     string  `json:"category"`
	Neighborhood string  `json:"barrio"`
	Street       string  `json:"calle"`
	Number       string  `json:"numero"`
	FlowLps      float64 `json:"flow_lps"`
	LitersTotal  float64 `json:"liters_total"`
	Timestamp    *string `json:"timestamp"`
}

func (rs *RestfulServer) GetLatest(c *gin.Context) {
	meter, _, ok := rs.authenticateQuery(c)
	if !ok {
		return
	}

	last, err := rs.Iot.Reading.LatestReading(c.Request.Context(), meter.ID)
	if err != nil {
		abortWithIOTError(c, err, detailAccessDenied)
		return
	}

	resp := LatestResponse{
		MeterCode:    meter.MeterCode,
		Category:     meter.Category,
		Neighborhood: meter.Neighborhood,
		Street:       meter.Street,
		Number:       meter.Number,
	}
	if last != nil {
		ts := common.FormatTimestamp(last.Timestamp)
		resp.FlowLps = last.FlowLps
		resp.LitersTotal = last.LitersTotal
		resp.Timestamp = &ts
	}

	c.JSON(http.StatusOK, resp)
}

type RecentReading struct {
	Timestamp   string  `json:"timestamp"`
	FlowLps     float64 `json:"flow_lps"`
	LitersDelta float64 `json:"liters_delta"`
	LitersTotal float64 `json:"liters_total"`
}

type RecentResponse struct {
	MeterCode string          `json:"meter_code"`
	Recent    []RecentReading `json:"recent"`
}

func (rs *RestfulServer) GetRecent(c *gin.Context) {
	meter, q, ok := rs.authenticateQuery(c)
	if !ok {
		return
	}

	rows, err := rs.Iot.Reading.RecentReadings(c.Request.Context(), meter.ID, q.Limit)
	if err != nil {
		abortWithIOTError(c, err, detailAccessDenied)
		return
	}

	recent := common.Mapper(rows, func(r models.Reading) RecentReading {
		return RecentReading{
			Timestamp:   common.FormatTimestamp(r.Timestamp),
			FlowLps:     r.FlowLps,
			LitersDelta: r.LitersDelta,
			LitersTotal: r.LitersTotal,
		}
	})

	c.JSON(http.StatusOK, RecentResponse{MeterCode: meter.MeterCode, Recent: recent})
}

type LimiterRequest struct {
	Pin   string  `json:"pin"`
	Rate  float64 `json:"rate"`
	Burst int     `json:"burst"`
}

var limiterRequestSchema = z.Struct(z.Shape{
	"pin":   z.String(),
	"rate":  z.Float64().Required(),
	"burst": z.Int().Required(),
})

func (rs *RestfulServer) PostLimiter(c *gin.Context) {
	meterCode := c.Param("meter_code")

	var req LimiterRequest
	if err := limiterRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	if _, err := rs.Iot.Meter.Authenticate(c.Request.Context(), meterCode, req.Pin); err != nil {
		abortWithIOTError(c, err, detailAccessDenied)
		return
	}

	rs.SetLimiter(meterCode, req.Rate, req.Burst)

	c.Status(http.StatusOK)
}

func (rs *RestfulServer) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
