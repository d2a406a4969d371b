package quality

import (
	"math"
)

type ControlStatus string

const (
	ControlStatusInControl        ControlStatus = "IN_CONTROL"
	ControlStatusOutOfControlHigh ControlStatus = "OUT_OF_CONTROL_HIGH"
	ControlStatusOutOfControlLow  ControlStatus = "OUT_OF_CONTROL_LOW"
)

// MinControlSamples is the minimum history needed before control limits are
// considered meaningful.
const MinControlSamples = 10

type ControlLimits struct {
	CenterLine float64 `json:"centerLine"`
	UCL        float64 `json:"ucl"`
	LCL        float64 `json:"lcl"`
	Sigma      float64 `json:"sigma"`
}

// ComputeControlLimits derives Shewhart p-chart limits (mean +/- k sigma)
// from historical defect rates and the average sample size. Returns false
// when the history is too short to establish limits.
func ComputeControlLimits(defectRates []float64, avgSampleSize float64, k float64) (ControlLimits, bool) {
	if len(defectRates) < MinControlSamples || avgSampleSize <= 0 {
		return ControlLimits{}, false
	}

	sum := 0.0
	for _, r := range defectRates {
		sum += r
	}
	p := sum / float64(len(defectRates))

	sigma := math.Sqrt(p * (1 - p) / avgSampleSize)
	limits := ControlLimits{
		CenterLine: p,
		UCL:        p + k*sigma,
		LCL:        math.Max(0, p-k*sigma),
		Sigma:      sigma,
	}
	return limits, true
}

// EvaluateControlPoint classifies one observation against the limits.
func EvaluateControlPoint(value float64, limits ControlLimits) ControlStatus {
	if value > limits.UCL {
		return ControlStatusOutOfControlHigh
	}
	if value < limits.LCL {
		return ControlStatusOutOfControlLow
	}
	return ControlStatusInControl
}
