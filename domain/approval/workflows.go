package approval

import (
	"ashley/bizerror"
	"ashley/client/ai"
	"ashley/common"
	"ashley/domain"
	"ashley/event"
	"ashley/idgen"
	"ashley/persistence"
	"ashley/session"
	"errors"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	idWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateWorkflowFunc        = CreateWorkflow
	DetailWorkflowFunc        = DetailWorkflow
	QueryWorkflowsFunc        = QueryWorkflows
	PauseWorkflowFunc         = PauseWorkflow
	ResumeWorkflowFunc        = ResumeWorkflow
	CancelWorkflowFunc        = CancelWorkflow
	RequestApprovalFunc       = RequestApproval
	ProcessApprovalFunc       = ProcessApproval
	QueryPendingApprovalsFunc = QueryPendingApprovals
)

type StageCreation struct {
	Name             string `json:"name" validate:"required"`
	RequiredRole     string `json:"requiredRole"`
	ApprovalRequired bool   `json:"approvalRequired"`
	AutoAdvance      bool   `json:"autoAdvance"`
}

type WorkflowCreation struct {
	WorkspaceID   types.ID `json:"workspaceId" validate:"required"`
	DesignAssetID types.ID `json:"designAssetId" validate:"required"`
	Name          string   `json:"name" validate:"required"`

	Stages      []StageCreation `json:"stages" validate:"required,min=1,dive"`
	ApproverIDs []types.ID      `json:"approverIds" validate:"required,min=1"`

	DueDate  types.Timestamp `json:"dueDate"`
	Priority domain.Priority `json:"priority"`
}

type WorkflowQuery struct {
	WorkspaceID types.ID              `json:"workspaceId" form:"workspaceId"`
	Status      domain.WorkflowStatus `json:"status" form:"status"`
}

func CreateWorkflow(c *WorkflowCreation, sec *session.Session) (*domain.WorkflowDetail, error) {
	if !sec.HasRoleSuffix("_" + c.WorkspaceID.String()) {
		return nil, bizerror.ErrForbidden
	}
	if len(c.Stages) == 0 {
		return nil, &common.ErrBadParam{Cause: errors.New("stage list must not be empty")}
	}
	if c.Priority == "" {
		c.Priority = domain.PriorityMedium
	}
	if !c.Priority.IsValid() {
		return nil, &common.ErrBadParam{Cause: errors.New("unknown priority " + string(c.Priority))}
	}

	approverRoles := []string{}
	for _, s := range c.Stages {
		if s.RequiredRole != "" {
			approverRoles = append(approverRoles, s.RequiredRole)
		}
	}
	// advisory only, the collaborator degrades to defaults on failure
	analysis := ai.AnalyzeDesignWorkflowFunc(ai.WorkflowAnalysisRequest{
		DesignAssetID: c.DesignAssetID, ApproverRoles: approverRoles, Priority: string(c.Priority),
	})

	now := types.CurrentTimestamp()
	detail := &domain.WorkflowDetail{
		DesignApprovalWorkflow: domain.DesignApprovalWorkflow{
			ID:            idgen.NextID(idWorker),
			WorkspaceID:   c.WorkspaceID,
			DesignAssetID: c.DesignAssetID,
			Name:          c.Name,
			Status:        domain.WorkflowStatusActive,
			Priority:      c.Priority,

			CurrentStageNumber: 1,
			CurrentStage:       c.Stages[0].Name,
			TotalStages:        len(c.Stages),

			EstimatedDuration: analysis.EstimatedDuration,
			Recommendations:   analysis.Recommendations,

			DueDate:     c.DueDate,
			CreatorID:   sec.Identity.ID,
			CreatorName: sec.Identity.Name,
			CreateTime:  now,
		},
	}

	var ev *event.EventRecord
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		asset := domain.DesignAsset{}
		if err := tx.Where(&domain.DesignAsset{ID: c.DesignAssetID, WorkspaceID: c.WorkspaceID}).
			First(&asset).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.DesignAsset{}).Where(&domain.DesignAsset{ID: asset.ID}).
			Update("status", domain.DesignAssetStatusInReview).Error; err != nil {
			return err
		}

		if err := tx.Create(&detail.DesignApprovalWorkflow).Error; err != nil {
			return err
		}

		for idx, s := range c.Stages {
			stage := domain.WorkflowStage{
				WorkflowID: detail.ID, StageNumber: idx + 1, Name: s.Name,
				RequiredRole: s.RequiredRole, ApprovalRequired: s.ApprovalRequired, AutoAdvance: s.AutoAdvance,
				CreateTime: now,
			}
			if err := tx.Create(&stage).Error; err != nil {
				return err
			}
			detail.Stages = append(detail.Stages, stage)

			for _, approverId := range c.ApproverIDs {
				a := domain.DesignApproval{
					ID:          idgen.NextID(idWorker),
					WorkspaceID: c.WorkspaceID, WorkflowID: detail.ID, DesignAssetID: c.DesignAssetID,
					ApproverID:  approverId,
					StageNumber: idx + 1, StageName: s.Name,
					Status:   domain.ApprovalStatusWaiting,
					Required: s.ApprovalRequired,

					CreateTime: now,
				}
				if idx == 0 {
					a.Status = domain.ApprovalStatusPending
					a.RequestTime = now
				}
				if err := tx.Create(&a).Error; err != nil {
					return err
				}
				detail.Approvals = append(detail.Approvals, a)
			}
		}

		var err error
		ev, err = CreateWorkflowCreatedEvent(&detail.DesignApprovalWorkflow, &sec.Identity, now, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	if event.InvokeHandlersFunc != nil {
		event.InvokeHandlersFunc(ev)
	}

	return detail, nil
}

func DetailWorkflow(id types.ID, sec *session.Session) (*domain.WorkflowDetail, error) {
	detail := domain.WorkflowDetail{}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&domain.DesignApprovalWorkflow{ID: id}).First(&detail.DesignApprovalWorkflow).Error; err != nil {
			return err
		}
		if !sec.HasWorkspaceViewPerm(detail.WorkspaceID) {
			return bizerror.ErrForbidden
		}

		if err := tx.Where(&domain.WorkflowStage{WorkflowID: id}).Order("stage_number ASC").
			Find(&detail.Stages).Error; err != nil {
			return err
		}
		return tx.Where(&domain.DesignApproval{WorkflowID: id}).Order("stage_number ASC").
			Find(&detail.Approvals).Error
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func QueryWorkflows(query *WorkflowQuery, sec *session.Session) (*[]domain.DesignApprovalWorkflow, error) {
	var workflows []domain.DesignApprovalWorkflow
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)

	q := db.Where(domain.DesignApprovalWorkflow{WorkspaceID: query.WorkspaceID})
	if query.Status != "" {
		q = q.Where("status = ?", query.Status)
	}
	visibleWorkspaces := sec.VisibleWorkspaces()
	if len(visibleWorkspaces) == 0 {
		return &[]domain.DesignApprovalWorkflow{}, nil
	}
	q = q.Where("workspace_id in (?)", visibleWorkspaces)
	if err := q.Find(&workflows).Error; err != nil {
		return nil, err
	}
	return &workflows, nil
}

func PauseWorkflow(id types.ID, sec *session.Session) error {
	return overrideWorkflowStatus(id, domain.WorkflowStatusPaused,
		[]domain.WorkflowStatus{domain.WorkflowStatusActive, domain.WorkflowStatusRevisionRequired}, sec)
}

func ResumeWorkflow(id types.ID, sec *session.Session) error {
	return overrideWorkflowStatus(id, domain.WorkflowStatusActive,
		[]domain.WorkflowStatus{domain.WorkflowStatusPaused}, sec)
}

func CancelWorkflow(id types.ID, sec *session.Session) error {
	return overrideWorkflowStatus(id, domain.WorkflowStatusCancelled,
		[]domain.WorkflowStatus{domain.WorkflowStatusDraft, domain.WorkflowStatusActive,
			domain.WorkflowStatusPaused, domain.WorkflowStatusRevisionRequired}, sec)
}

// overrideWorkflowStatus applies the externally driven status overrides.
// These transitions freeze or unfreeze automatic advancement and are never
// produced by the engine itself.
func overrideWorkflowStatus(id types.ID, wanted domain.WorkflowStatus, from []domain.WorkflowStatus, sec *session.Session) error {
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	return db.Transaction(func(tx *gorm.DB) error {
		workflow := domain.DesignApprovalWorkflow{}
		if err := tx.Set("gorm:query_option", "FOR UPDATE").
			Where(&domain.DesignApprovalWorkflow{ID: id}).First(&workflow).Error; err != nil {
			return err
		}
		if !sec.HasRoleSuffix(domain.WorkspaceRoleManager + "_" + workflow.WorkspaceID.String()) {
			return bizerror.ErrForbidden
		}

		allowed := false
		for _, s := range from {
			if workflow.Status == s {
				allowed = true
				break
			}
		}
		if !allowed {
			return bizerror.ErrWorkflowNotActive
		}

		return tx.Model(&domain.DesignApprovalWorkflow{}).
			Where(&domain.DesignApprovalWorkflow{ID: id}).
			Update("status", wanted).Error
	})
}
