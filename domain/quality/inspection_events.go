package quality

import (
	"ashley/domain"
	"ashley/event"
	"ashley/session"
	"strconv"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

const (
	sourceTypeInspection = "QC_INSPECTION"
	sourceTypeAlert      = "QUALITY_ALERT"
	sourceTypeCAPA       = "CAPA_TASK"
)

func CreateInspectionCreatedEvent(i *domain.QCInspection, pointName string, identity *session.Identity,
	timestamp types.Timestamp, db *gorm.DB) (*event.EventRecord, error) {
	return event.CreateEvent(sourceTypeInspection, i.ID, pointName, event.EventCategoryInspectionCreated,
		nil, nil, identity, timestamp, db)
}

func CreateInspectionCompletedEvent(i *domain.QCInspection, pointName string, identity *session.Identity,
	timestamp types.Timestamp, db *gorm.DB) (*event.EventRecord, error) {
	return event.CreateEvent(sourceTypeInspection, i.ID, pointName, event.EventCategoryInspectionCompleted,
		[]event.UpdatedProperty{
			{PropertyName: "status", PropertyDesc: "inspection status",
				OldValue: string(domain.InspectionStatusPending), NewValue: string(i.Status)},
			{PropertyName: "overallScore", PropertyDesc: "overall score",
				NewValue: strconv.FormatFloat(i.OverallScore, 'f', 2, 64)},
		},
		nil, identity, timestamp, db)
}

func CreateQualityAlertEvent(a *domain.QualityAlert, identity *session.Identity,
	timestamp types.Timestamp, db *gorm.DB) (*event.EventRecord, error) {
	return event.CreateEvent(sourceTypeAlert, a.ID, a.Title, event.EventCategoryQualityAlert,
		[]event.UpdatedProperty{
			{PropertyName: "alertType", PropertyDesc: "alert type", NewValue: string(a.AlertType)},
			{PropertyName: "severity", PropertyDesc: "alert severity", NewValue: string(a.Severity)},
		},
		nil, identity, timestamp, db)
}

func CreateCAPAAutoGeneratedEvent(t *domain.CAPATask, identity *session.Identity,
	timestamp types.Timestamp, db *gorm.DB) (*event.EventRecord, error) {
	return event.CreateEvent(sourceTypeCAPA, t.ID, t.Number, event.EventCategoryCAPAAutoGenerated,
		[]event.UpdatedProperty{
			{PropertyName: "number", PropertyDesc: "CAPA number", NewValue: t.Number},
			{PropertyName: "priority", PropertyDesc: "priority", NewValue: string(t.Priority)},
		},
		nil, identity, timestamp, db)
}
