package approval

import (
	"ashley/bizerror"
	"ashley/common"
	"ashley/domain"
	"ashley/event"
	"ashley/persistence"
	"ashley/session"
	"errors"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

type ApprovalDecision struct {
	Status   domain.ApprovalStatus `json:"status" validate:"required"`
	Feedback string                `json:"feedback"`
}

type ApprovalDetail struct {
	domain.DesignApproval

	Workflow    domain.DesignApprovalWorkflow `json:"workflow" gorm:"-"`
	DesignAsset domain.DesignAsset            `json:"designAsset" gorm:"-"`
}

// RequestApproval activates all WAITING approvals of the given stage.
// Re-invoking on an already activated stage leaves the PENDING rows
// untouched.
func RequestApproval(workflowId types.ID, stageNumber int, sec *session.Session) (*domain.WorkflowDetail, error) {
	var detail *domain.WorkflowDetail
	var ev *event.EventRecord

	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		workflow := domain.DesignApprovalWorkflow{}
		if err := tx.Set("gorm:query_option", "FOR UPDATE").
			Where(&domain.DesignApprovalWorkflow{ID: workflowId}).First(&workflow).Error; err != nil {
			return err
		}
		if !sec.HasRoleSuffix("_" + workflow.WorkspaceID.String()) {
			return bizerror.ErrForbidden
		}
		if workflow.Status != domain.WorkflowStatusActive && workflow.Status != domain.WorkflowStatusRevisionRequired {
			return bizerror.ErrWorkflowNotActive
		}

		now := types.CurrentTimestamp()
		activation := tx.Model(&domain.DesignApproval{}).
			Where("workflow_id = ? AND stage_number = ? AND status = ?",
				workflowId, stageNumber, domain.ApprovalStatusWaiting).
			Update(map[string]interface{}{"status": domain.ApprovalStatusPending, "request_time": now})
		if activation.Error != nil {
			return activation.Error
		}

		// a re-request of an already activated stage is silent
		if activation.RowsAffected > 0 {
			var err error
			ev, err = CreateApprovalRequestedEvent(&workflow, stageNumber, &sec.Identity, now, tx)
			if err != nil {
				return err
			}
		}

		detail = &domain.WorkflowDetail{DesignApprovalWorkflow: workflow}
		if err := tx.Where(&domain.WorkflowStage{WorkflowID: workflowId}).Order("stage_number ASC").
			Find(&detail.Stages).Error; err != nil {
			return err
		}
		return tx.Where(&domain.DesignApproval{WorkflowID: workflowId}).Order("stage_number ASC").
			Find(&detail.Approvals).Error
	})
	if err != nil {
		return nil, err
	}

	if ev != nil && event.InvokeHandlersFunc != nil {
		event.InvokeHandlersFunc(ev)
	}
	return detail, nil
}

// ProcessApproval records one approver's decision, then evaluates the whole
// stage the approval belongs to. The workflow row is locked for the span of
// the evaluation so concurrent decisions on the same stage serialize and
// exactly one of them advances the stage.
func ProcessApproval(approvalId types.ID, decision *ApprovalDecision, sec *session.Session) (*ApprovalDetail, error) {
	if decision.Status != domain.ApprovalStatusApproved && decision.Status != domain.ApprovalStatusRejected {
		return nil, &common.ErrBadParam{Cause: errors.New("decision status must be APPROVED or REJECTED")}
	}

	var detail *ApprovalDetail
	var events []*event.EventRecord

	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		approvalRecord := domain.DesignApproval{}
		if err := tx.Where(&domain.DesignApproval{ID: approvalId}).First(&approvalRecord).Error; err != nil {
			return err
		}

		if approvalRecord.ApproverID != sec.Identity.ID &&
			!sec.HasRole(domain.WorkspaceRoleManager+"_"+approvalRecord.WorkspaceID.String()) {
			return bizerror.ErrForbidden
		}

		workflow := domain.DesignApprovalWorkflow{}
		if err := tx.Set("gorm:query_option", "FOR UPDATE").
			Where(&domain.DesignApprovalWorkflow{ID: approvalRecord.WorkflowID}).First(&workflow).Error; err != nil {
			return err
		}
		if workflow.Status != domain.WorkflowStatusActive && workflow.Status != domain.WorkflowStatusRevisionRequired {
			return bizerror.ErrWorkflowNotActive
		}
		if approvalRecord.Status != domain.ApprovalStatusPending {
			return bizerror.ErrApprovalNotPending
		}

		now := types.CurrentTimestamp()
		updates := map[string]interface{}{"status": decision.Status, "feedback": decision.Feedback}
		if decision.Status == domain.ApprovalStatusApproved {
			updates["approval_time"] = now
		}
		if err := tx.Model(&domain.DesignApproval{}).
			Where(&domain.DesignApproval{ID: approvalId}).Update(updates).Error; err != nil {
			return err
		}

		var stageApprovals []domain.DesignApproval
		if err := tx.Where(&domain.DesignApproval{WorkflowID: workflow.ID, StageNumber: approvalRecord.StageNumber}).
			Find(&stageApprovals).Error; err != nil {
			return err
		}

		anyRejected := false
		allApproved := true
		for _, a := range stageApprovals {
			if a.Status == domain.ApprovalStatusRejected {
				anyRejected = true
			}
			if a.Status != domain.ApprovalStatusApproved && a.Required {
				allApproved = false
			}
		}

		if anyRejected {
			if err := tx.Model(&domain.DesignApprovalWorkflow{}).
				Where(&domain.DesignApprovalWorkflow{ID: workflow.ID}).
				Update("status", domain.WorkflowStatusRevisionRequired).Error; err != nil {
				return err
			}
			if err := tx.Model(&domain.DesignAsset{}).
				Where(&domain.DesignAsset{ID: workflow.DesignAssetID}).
				Update("status", domain.DesignAssetStatusRevisionRequired).Error; err != nil {
				return err
			}
			ev, err := CreateApprovalRejectedEvent(&workflow, &approvalRecord, decision.Feedback, &sec.Identity, now, tx)
			if err != nil {
				return err
			}
			events = append(events, ev)
		} else if allApproved && approvalRecord.StageNumber == workflow.CurrentStageNumber {
			// decisions on stages the workflow has already moved past are
			// recorded but never re-evaluate the stage
			if err := advanceWorkflow(tx, &workflow, approvalRecord.StageNumber, &sec.Identity, now, &events); err != nil {
				return err
			}
			ev, err := CreateApprovalGrantedEvent(&workflow, approvalRecord.StageNumber, &sec.Identity, now, tx)
			if err != nil {
				return err
			}
			events = append(events, ev)
		}

		detail = &ApprovalDetail{}
		if err := tx.Where(&domain.DesignApproval{ID: approvalId}).First(&detail.DesignApproval).Error; err != nil {
			return err
		}
		if err := tx.Where(&domain.DesignApprovalWorkflow{ID: workflow.ID}).First(&detail.Workflow).Error; err != nil {
			return err
		}
		return tx.Where(&domain.DesignAsset{ID: workflow.DesignAssetID}).First(&detail.DesignAsset).Error
	})
	if err != nil {
		return nil, err
	}

	if event.InvokeHandlersFunc != nil {
		for _, ev := range events {
			event.InvokeHandlersFunc(ev)
		}
	}
	return detail, nil
}

// advanceWorkflow is the only path that moves a workflow forward. It must be
// invoked with the workflow's current stage number, and always inside the
// transaction that holds the workflow row lock. The stage number only ever
// increases.
func advanceWorkflow(tx *gorm.DB, workflow *domain.DesignApprovalWorkflow, currentStageNumber int,
	identity *session.Identity, now types.Timestamp, events *[]*event.EventRecord) error {

	if currentStageNumber != workflow.CurrentStageNumber {
		return bizerror.ErrStageMismatch
	}

	nextStage := currentStageNumber + 1
	if nextStage > workflow.TotalStages {
		if err := tx.Model(&domain.DesignApprovalWorkflow{}).
			Where(&domain.DesignApprovalWorkflow{ID: workflow.ID}).
			Update(map[string]interface{}{"status": domain.WorkflowStatusCompleted, "complete_time": now}).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.DesignAsset{}).
			Where(&domain.DesignAsset{ID: workflow.DesignAssetID}).
			Update("status", domain.DesignAssetStatusApproved).Error; err != nil {
			return err
		}
		workflow.Status = domain.WorkflowStatusCompleted
		workflow.CompleteTime = now

		ev, err := CreateWorkflowCompletedEvent(workflow, identity, now, tx)
		if err != nil {
			return err
		}
		*events = append(*events, ev)
		return nil
	}

	stage := domain.WorkflowStage{}
	if err := tx.Where(&domain.WorkflowStage{WorkflowID: workflow.ID, StageNumber: nextStage}).
		First(&stage).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return bizerror.ErrUnknownStage
		}
		return err
	}

	if err := tx.Model(&domain.DesignApprovalWorkflow{}).
		Where(&domain.DesignApprovalWorkflow{ID: workflow.ID}).
		Update(map[string]interface{}{"current_stage_number": nextStage, "current_stage": stage.Name}).Error; err != nil {
		return err
	}
	if err := tx.Model(&domain.DesignApproval{}).
		Where("workflow_id = ? AND stage_number = ? AND status = ?",
			workflow.ID, nextStage, domain.ApprovalStatusWaiting).
		Update(map[string]interface{}{"status": domain.ApprovalStatusPending, "request_time": now}).Error; err != nil {
		return err
	}
	previousStage := workflow.CurrentStageNumber
	workflow.CurrentStageNumber = nextStage
	workflow.CurrentStage = stage.Name

	ev, err := CreateStageAdvancedEvent(workflow, previousStage, nextStage, stage.Name, identity, now, tx)
	if err != nil {
		return err
	}
	*events = append(*events, ev)

	// stages configured without a required approval may roll straight through
	if stage.AutoAdvance && !stage.ApprovalRequired {
		return advanceWorkflow(tx, workflow, nextStage, identity, now, events)
	}
	return nil
}

func QueryPendingApprovals(sec *session.Session) (*[]ApprovalDetail, error) {
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)

	var approvals []domain.DesignApproval
	if err := db.Where(&domain.DesignApproval{ApproverID: sec.Identity.ID, Status: domain.ApprovalStatusPending}).
		Order("request_time ASC").Find(&approvals).Error; err != nil {
		return nil, err
	}

	details := make([]ApprovalDetail, 0, len(approvals))
	for _, a := range approvals {
		detail := ApprovalDetail{DesignApproval: a}
		if err := db.Where(&domain.DesignApprovalWorkflow{ID: a.WorkflowID}).First(&detail.Workflow).Error; err != nil {
			return nil, err
		}
		if err := db.Where(&domain.DesignAsset{ID: a.DesignAssetID}).First(&detail.DesignAsset).Error; err != nil {
			return nil, err
		}
		details = append(details, detail)
	}
	return &details, nil
}
