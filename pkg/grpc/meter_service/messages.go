package meter_service

type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type IngestRequest struct {
	MeterCode   string  `json:"meter_code"`
	Pin         string  `json:"pin"`
	FlowLps     float64 `json:"flow_lps"`
	LitersDelta float64 `json:"liters_delta"`
	LitersTotal float64 `json:"liters_total"`
}

func (r *IngestRequest) GetMeterCode() string {
	if r == nil {
		return ""
	}
	return r.MeterCode
}

func (r *IngestRequest) GetPin() string {
	if r == nil {
		return ""
	}
	return r.Pin
}

type IngestResponse struct {
	Status    *StatusResponse `json:"status"`
	ReadingId uint64          `json:"reading_id"`
	Timestamp string          `json:"timestamp"`
}

type PostLimiterRequest struct {
	MeterCode string  `json:"meter_code"`
	Pin       string  `json:"pin"`
	Rate      float64 `json:"rate"`
	Burst     int32   `json:"burst"`
}

func (r *PostLimiterRequest) GetMeterCode() string {
	if r == nil {
		return ""
	}
	return r.MeterCode
}

func (r *PostLimiterRequest) GetPin() string {
	if r == nil {
		return ""
	}
	return r.Pin
}

type PostLimiterResponse struct {
	Status *StatusResponse `json:"status"`
}

type SubscribeRequest struct {
	MeterCode string `json:"meter_code"`
	Pin       string `json:"pin"`
}

func (r *SubscribeRequest) GetMeterCode() string {
	if r == nil {
		return ""
	}
	return r.MeterCode
}

func (r *SubscribeRequest) GetPin() string {
	if r == nil {
		return ""
	}
	return r.Pin
}
