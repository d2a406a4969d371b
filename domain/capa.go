package domain

import (
	"github.com/fundwit/go-commons/types"
)

type CAPAType string

const (
	CAPATypeCorrective CAPAType = "CORRECTIVE"
	CAPATypePreventive CAPAType = "PREVENTIVE"
)

type CAPAStatus string

const (
	CAPAStatusOpen          CAPAStatus = "OPEN"
	CAPAStatusInvestigating CAPAStatus = "INVESTIGATING"
	CAPAStatusActionPlan    CAPAStatus = "ACTION_PLAN"
	CAPAStatusImplementing  CAPAStatus = "IMPLEMENTING"
	CAPAStatusVerifying     CAPAStatus = "VERIFYING"
	CAPAStatusClosed        CAPAStatus = "CLOSED"
)

// capaStatusOrder fixes the forward-only progression of a CAPA task.
var capaStatusOrder = map[CAPAStatus]int{
	CAPAStatusOpen:          0,
	CAPAStatusInvestigating: 1,
	CAPAStatusActionPlan:    2,
	CAPAStatusImplementing:  3,
	CAPAStatusVerifying:     4,
	CAPAStatusClosed:        5,
}

// CanTransitionTo allows advancing exactly one step forward.
func (s CAPAStatus) CanTransitionTo(next CAPAStatus) bool {
	from, ok := capaStatusOrder[s]
	if !ok {
		return false
	}
	to, ok := capaStatusOrder[next]
	if !ok {
		return false
	}
	return to == from+1
}

type CAPASource string

const (
	CAPASourceInspection CAPASource = "INSPECTION"
	CAPASourceAudit      CAPASource = "AUDIT"
	CAPASourceComplaint  CAPASource = "COMPLAINT"
)

type CAPATask struct {
	ID          types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	WorkspaceID types.ID `json:"workspaceId" gorm:"unique_index:uix_capa_workspace_number" sql:"type:BIGINT UNSIGNED NOT NULL"`

	Number      string `json:"number" gorm:"unique_index:uix_capa_workspace_number"`
	Title       string `json:"title"`
	Description string `json:"description" sql:"type:TEXT"`

	Type     CAPAType   `json:"type"`
	Status   CAPAStatus `json:"status"`
	Priority Priority   `json:"priority"`
	Source   CAPASource `json:"source"`

	ProblemStatement string `json:"problemStatement" sql:"type:TEXT"`
	CorrectiveAction string `json:"correctiveAction" sql:"type:TEXT"`
	PreventiveAction string `json:"preventiveAction" sql:"type:TEXT"`

	OrderID      types.ID `json:"orderId" sql:"type:BIGINT UNSIGNED"`
	InspectionID types.ID `json:"inspectionId" sql:"type:BIGINT UNSIGNED"`
	DefectID     types.ID `json:"defectId" sql:"type:BIGINT UNSIGNED"`

	CreatorID   types.ID        `json:"creatorId" sql:"type:BIGINT UNSIGNED NOT NULL"`
	CreatorName string          `json:"creatorName"`
	CreateTime  types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
	CloseTime   types.Timestamp `json:"closeTime" sql:"type:DATETIME(6)"`
}

func (t *CAPATask) TableName() string {
	return "capa_tasks"
}
