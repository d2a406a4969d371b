package approval

import (
	"ashley/domain"
	"ashley/event"
	"ashley/session"
	"strconv"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

const sourceTypeWorkflow = "DESIGN_APPROVAL_WORKFLOW"

func CreateWorkflowCreatedEvent(w *domain.DesignApprovalWorkflow, identity *session.Identity,
	timestamp types.Timestamp, db *gorm.DB) (*event.EventRecord, error) {
	return event.CreateEvent(sourceTypeWorkflow, w.ID, w.Name, event.EventCategoryWorkflowCreated,
		nil, nil, identity, timestamp, db)
}

func CreateApprovalRequestedEvent(w *domain.DesignApprovalWorkflow, stageNumber int, identity *session.Identity,
	timestamp types.Timestamp, db *gorm.DB) (*event.EventRecord, error) {
	return event.CreateEvent(sourceTypeWorkflow, w.ID, w.Name, event.EventCategoryApprovalRequested,
		[]event.UpdatedProperty{{PropertyName: "stageNumber", PropertyDesc: "stage number",
			NewValue: strconv.Itoa(stageNumber)}},
		nil, identity, timestamp, db)
}

func CreateApprovalGrantedEvent(w *domain.DesignApprovalWorkflow, stageNumber int, identity *session.Identity,
	timestamp types.Timestamp, db *gorm.DB) (*event.EventRecord, error) {
	return event.CreateEvent(sourceTypeWorkflow, w.ID, w.Name, event.EventCategoryApprovalGranted,
		[]event.UpdatedProperty{{PropertyName: "stageNumber", PropertyDesc: "stage number",
			NewValue: strconv.Itoa(stageNumber)}},
		nil, identity, timestamp, db)
}

func CreateApprovalRejectedEvent(w *domain.DesignApprovalWorkflow, a *domain.DesignApproval, feedback string,
	identity *session.Identity, timestamp types.Timestamp, db *gorm.DB) (*event.EventRecord, error) {
	return event.CreateEvent(sourceTypeWorkflow, w.ID, w.Name, event.EventCategoryApprovalRejected,
		[]event.UpdatedProperty{
			{PropertyName: "status", PropertyDesc: "workflow status",
				OldValue: string(domain.WorkflowStatusActive), NewValue: string(domain.WorkflowStatusRevisionRequired)},
			{PropertyName: "feedback", PropertyDesc: "rejection feedback", NewValue: feedback},
			{PropertyName: "stageNumber", PropertyDesc: "stage number", NewValue: strconv.Itoa(a.StageNumber)},
		},
		nil, identity, timestamp, db)
}

func CreateStageAdvancedEvent(w *domain.DesignApprovalWorkflow, previousStage, newStage int, stageName string,
	identity *session.Identity, timestamp types.Timestamp, db *gorm.DB) (*event.EventRecord, error) {
	return event.CreateEvent(sourceTypeWorkflow, w.ID, w.Name, event.EventCategoryStageAdvanced,
		[]event.UpdatedProperty{{PropertyName: "currentStage", PropertyDesc: "current stage",
			OldValue: strconv.Itoa(previousStage), NewValue: strconv.Itoa(newStage), NewValueDesc: stageName}},
		nil, identity, timestamp, db)
}

func CreateWorkflowCompletedEvent(w *domain.DesignApprovalWorkflow, identity *session.Identity,
	timestamp types.Timestamp, db *gorm.DB) (*event.EventRecord, error) {
	return event.CreateEvent(sourceTypeWorkflow, w.ID, w.Name, event.EventCategoryWorkflowCompleted,
		[]event.UpdatedProperty{{PropertyName: "status", PropertyDesc: "workflow status",
			OldValue: string(domain.WorkflowStatusActive), NewValue: string(domain.WorkflowStatusCompleted)}},
		nil, identity, timestamp, db)
}
