package quality

import (
	"ashley/bizerror"
	"ashley/domain"
	"ashley/persistence"
	"ashley/session"
	"time"

	"github.com/fundwit/go-commons/types"
)

var QueryQualityTrendsFunc = QueryQualityTrends

type TrendQuery struct {
	WorkspaceID       types.ID `json:"workspaceId" form:"workspaceId" validate:"required"`
	InspectionPointID types.ID `json:"inspectionPointId" form:"inspectionPointId" validate:"required"`
	OrderID           types.ID `json:"orderId" form:"orderId"`

	Start types.Timestamp `json:"start" form:"start"`
	End   types.Timestamp `json:"end" form:"end"`
}

type TrendPoint struct {
	InspectionID types.ID        `json:"inspectionId"`
	Time         types.Timestamp `json:"time"`

	Score      float64 `json:"score"`
	DefectRate float64 `json:"defectRate"`

	ControlStatus ControlStatus `json:"controlStatus"`
}

type TrendReport struct {
	TotalInspections int     `json:"totalInspections"`
	TotalSample      int     `json:"totalSample"`
	PassQuantity     int     `json:"passQuantity"`
	FailQuantity     int     `json:"failQuantity"`
	ReworkQuantity   int     `json:"reworkQuantity"`
	AverageScore     float64 `json:"averageScore"`

	// zero value with HasControlLimits false when the history is too short
	HasControlLimits bool          `json:"hasControlLimits"`
	ControlLimits    ControlLimits `json:"controlLimits"`

	Points []TrendPoint `json:"points"`
}

// QueryQualityTrends aggregates finished inspections of one inspection point
// into a trend series with p-chart control limits.
func QueryQualityTrends(query *TrendQuery, sec *session.Session) (*TrendReport, error) {
	if !sec.HasWorkspaceViewPerm(query.WorkspaceID) {
		return nil, bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	q := db.Where("workspace_id = ? AND inspection_point_id = ? AND status in (?)",
		query.WorkspaceID, query.InspectionPointID,
		[]domain.InspectionStatus{domain.InspectionStatusPassed, domain.InspectionStatusFailed,
			domain.InspectionStatusRework})
	if query.OrderID != 0 {
		q = q.Where("order_id = ?", query.OrderID)
	}
	if !time.Time(query.Start).IsZero() {
		q = q.Where("complete_time >= ?", query.Start)
	}
	if !time.Time(query.End).IsZero() {
		q = q.Where("complete_time < ?", query.End)
	}

	var inspections []domain.QCInspection
	if err := q.Order("complete_time ASC").Find(&inspections).Error; err != nil {
		return nil, err
	}

	report := &TrendReport{Points: []TrendPoint{}}
	rates := make([]float64, 0, len(inspections))
	totalScore := 0.0
	for i := range inspections {
		insp := &inspections[i]
		report.TotalInspections++
		report.TotalSample += insp.SampleSize
		report.PassQuantity += insp.PassQuantity
		report.FailQuantity += insp.FailQuantity
		report.ReworkQuantity += insp.ReworkQuantity
		totalScore += insp.OverallScore

		rates = append(rates, defectRate(insp))
	}
	if report.TotalInspections > 0 {
		report.AverageScore = totalScore / float64(report.TotalInspections)
	}

	avgSample := 0.0
	if report.TotalInspections > 0 {
		avgSample = float64(report.TotalSample) / float64(report.TotalInspections)
	}
	limits, ok := ComputeControlLimits(rates, avgSample, 3)
	report.HasControlLimits = ok
	report.ControlLimits = limits

	for i := range inspections {
		insp := &inspections[i]
		point := TrendPoint{
			InspectionID:  insp.ID,
			Time:          insp.CompleteTime,
			Score:         insp.OverallScore,
			DefectRate:    rates[i],
			ControlStatus: ControlStatusInControl,
		}
		if ok {
			point.ControlStatus = EvaluateControlPoint(rates[i], limits)
		}
		report.Points = append(report.Points, point)
	}
	return report, nil
}
