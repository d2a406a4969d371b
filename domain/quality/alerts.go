package quality

import (
	"ashley/bizerror"
	"ashley/domain"
	"ashley/event"
	"ashley/idgen"
	"ashley/persistence"
	"ashley/session"
	"fmt"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	QueryQualityAlertsFunc = QueryQualityAlerts
	MarkAlertReadFunc      = MarkAlertRead
)

// spcHistoryWindow limits the history the control chart is built from.
const spcHistoryWindow = 30 * 24 * time.Hour

type AlertQuery struct {
	WorkspaceID types.ID         `json:"workspaceId" form:"workspaceId"`
	AlertType   domain.AlertType `json:"alertType" form:"alertType"`
	UnreadOnly  bool             `json:"unreadOnly" form:"unreadOnly"`
}

// raiseQualityAlerts evaluates the just-completed inspection against the
// point's alert policies and persists one alert per breached policy, all
// inside the caller's transaction.
func raiseQualityAlerts(tx *gorm.DB, inspection *domain.QCInspection, defects []domain.QCDefect,
	point *domain.QCInspectionPoint, identity *session.Identity,
	now types.Timestamp) ([]*event.EventRecord, error) {

	var alerts []domain.QualityAlert

	if inspection.OverallScore < point.PassThreshold {
		severity := domain.AlertSeverityWarning
		if inspection.OverallScore < point.ReworkThreshold {
			severity = domain.AlertSeverityCritical
		}
		alerts = append(alerts, domain.QualityAlert{
			AlertType: domain.AlertTypeQualityDrop,
			Severity:  severity,
			Title:     "Quality score below threshold",
			Message: fmt.Sprintf("inspection at %s scored %.1f, below the pass threshold %.1f",
				point.Name, inspection.OverallScore, point.PassThreshold),
			ActionRequired: severity == domain.AlertSeverityCritical,
		})
	}

	if severe := severeDefectCount(defects); severe > point.AlertDefectThreshold {
		alerts = append(alerts, domain.QualityAlert{
			AlertType: domain.AlertTypeDefectThreshold,
			Severity:  domain.AlertSeverityCritical,
			Title:     "Severe defect count exceeded",
			Message: fmt.Sprintf("%d severe defects found at %s, threshold is %d",
				severe, point.Name, point.AlertDefectThreshold),
			ActionRequired: true,
		})
	}

	spcAlert, err := checkControlViolation(tx, inspection, point)
	if err != nil {
		return nil, err
	}
	if spcAlert != nil {
		alerts = append(alerts, *spcAlert)
	}

	var events []*event.EventRecord
	for i := range alerts {
		a := &alerts[i]
		a.ID = idgen.NextID(idWorker)
		a.WorkspaceID = inspection.WorkspaceID
		a.OrderID = inspection.OrderID
		a.InspectionID = inspection.ID
		a.CreateTime = now

		if err := tx.Create(a).Error; err != nil {
			return nil, err
		}
		ev, err := CreateQualityAlertEvent(a, identity, now, tx)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// checkControlViolation places the inspection's defect rate on a p chart
// built from the point's recent history. Short histories produce no alert.
func checkControlViolation(tx *gorm.DB, inspection *domain.QCInspection,
	point *domain.QCInspectionPoint) (*domain.QualityAlert, error) {

	if inspection.SampleSize <= 0 {
		return nil, nil
	}

	since := types.Timestamp(time.Time(inspection.CompleteTime).Add(-spcHistoryWindow))
	var history []domain.QCInspection
	if err := tx.Where("inspection_point_id = ? AND id <> ? AND status in (?) AND complete_time >= ?",
		point.ID, inspection.ID,
		[]domain.InspectionStatus{domain.InspectionStatusPassed, domain.InspectionStatusFailed,
			domain.InspectionStatusRework},
		since).Order("complete_time ASC").Find(&history).Error; err != nil {
		return nil, err
	}

	rates := make([]float64, 0, len(history))
	totalSample := 0
	for _, h := range history {
		if h.SampleSize <= 0 {
			continue
		}
		rates = append(rates, defectRate(&h))
		totalSample += h.SampleSize
	}
	if len(rates) == 0 {
		return nil, nil
	}

	limits, ok := ComputeControlLimits(rates, float64(totalSample)/float64(len(rates)), 3)
	if !ok {
		return nil, nil
	}

	rate := defectRate(inspection)
	status := EvaluateControlPoint(rate, limits)
	if status != ControlStatusOutOfControlHigh {
		return nil, nil
	}

	return &domain.QualityAlert{
		AlertType: domain.AlertTypeSPCViolation,
		Severity:  domain.AlertSeverityCritical,
		Title:     "Defect rate out of statistical control",
		Message: fmt.Sprintf("defect rate %.3f at %s exceeds the upper control limit %.3f (center %.3f)",
			rate, point.Name, limits.UCL, limits.CenterLine),
		ActionRequired: true,
	}, nil
}

func defectRate(i *domain.QCInspection) float64 {
	if i.SampleSize <= 0 {
		return 0
	}
	return float64(i.FailQuantity+i.ReworkQuantity) / float64(i.SampleSize)
}

func QueryQualityAlerts(query *AlertQuery, sec *session.Session) (*[]domain.QualityAlert, error) {
	var alerts []domain.QualityAlert
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)

	q := db.Where(domain.QualityAlert{WorkspaceID: query.WorkspaceID, AlertType: query.AlertType})
	if query.UnreadOnly {
		q = q.Where("`read` = ?", false)
	}
	visibleWorkspaces := sec.VisibleWorkspaces()
	if len(visibleWorkspaces) == 0 {
		return &[]domain.QualityAlert{}, nil
	}
	q = q.Where("workspace_id in (?)", visibleWorkspaces)
	if err := q.Order("create_time DESC").Find(&alerts).Error; err != nil {
		return nil, err
	}
	return &alerts, nil
}

func MarkAlertRead(id types.ID, sec *session.Session) error {
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	return db.Transaction(func(tx *gorm.DB) error {
		alert := domain.QualityAlert{}
		if err := tx.Where(&domain.QualityAlert{ID: id}).First(&alert).Error; err != nil {
			return err
		}
		if !sec.HasWorkspaceViewPerm(alert.WorkspaceID) {
			return bizerror.ErrForbidden
		}
		return tx.Model(&domain.QualityAlert{}).Where(&domain.QualityAlert{ID: id}).
			Update("read", true).Error
	})
}
