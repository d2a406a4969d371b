package domain

import (
	"github.com/fundwit/go-commons/types"
)

type AlertType string

const (
	AlertTypeDefectThreshold AlertType = "DEFECT_THRESHOLD"
	AlertTypeQualityDrop     AlertType = "QUALITY_DROP"
	AlertTypeSPCViolation    AlertType = "SPC_VIOLATION"
)

type AlertSeverity string

const (
	AlertSeverityInfo     AlertSeverity = "INFO"
	AlertSeverityWarning  AlertSeverity = "WARNING"
	AlertSeverityCritical AlertSeverity = "CRITICAL"
)

type QualityAlert struct {
	ID          types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	WorkspaceID types.ID `json:"workspaceId" sql:"type:BIGINT UNSIGNED NOT NULL"`

	AlertType AlertType     `json:"alertType"`
	Severity  AlertSeverity `json:"severity"`

	Title   string `json:"title"`
	Message string `json:"message" sql:"type:TEXT"`

	OrderID      types.ID `json:"orderId" sql:"type:BIGINT UNSIGNED"`
	InspectionID types.ID `json:"inspectionId" sql:"type:BIGINT UNSIGNED"`

	ActionRequired bool `json:"actionRequired"`
	Read           bool `json:"read"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

func (a *QualityAlert) TableName() string {
	return "quality_alerts"
}
