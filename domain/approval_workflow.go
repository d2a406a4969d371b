package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/fundwit/go-commons/types"
)

type WorkflowStatus string

const (
	WorkflowStatusDraft            WorkflowStatus = "DRAFT"
	WorkflowStatusActive           WorkflowStatus = "ACTIVE"
	WorkflowStatusPaused           WorkflowStatus = "PAUSED"
	WorkflowStatusCompleted        WorkflowStatus = "COMPLETED"
	WorkflowStatusCancelled        WorkflowStatus = "CANCELLED"
	WorkflowStatusRevisionRequired WorkflowStatus = "REVISION_REQUIRED"
)

// IsTerminal reports whether no further automatic stage activity is allowed.
func (s WorkflowStatus) IsTerminal() bool {
	return s == WorkflowStatusCompleted || s == WorkflowStatusCancelled
}

type ApprovalStatus string

const (
	ApprovalStatusWaiting  ApprovalStatus = "WAITING"
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type DesignApprovalWorkflow struct {
	ID          types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	WorkspaceID types.ID `json:"workspaceId" sql:"type:BIGINT UNSIGNED NOT NULL"`

	DesignAssetID types.ID `json:"designAssetId" sql:"type:BIGINT UNSIGNED NOT NULL"`
	Name          string   `json:"name"`

	Status   WorkflowStatus `json:"status"`
	Priority Priority       `json:"priority"`

	CurrentStageNumber int    `json:"currentStageNumber"`
	CurrentStage       string `json:"currentStage"`
	TotalStages        int    `json:"totalStages"`

	// advisory fields from the workflow analysis collaborator
	EstimatedDuration int             `json:"estimatedDuration"`
	Recommendations   Recommendations `json:"recommendations" sql:"type:TEXT"`

	DueDate types.Timestamp `json:"dueDate" sql:"type:DATETIME(6)"`

	CreatorID    types.ID        `json:"creatorId" sql:"type:BIGINT UNSIGNED NOT NULL"`
	CreatorName  string          `json:"creatorName"`
	CreateTime   types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
	CompleteTime types.Timestamp `json:"completeTime" sql:"type:DATETIME(6)"`
}

func (w *DesignApprovalWorkflow) TableName() string {
	return "design_approval_workflows"
}

type WorkflowStage struct {
	WorkflowID  types.ID `json:"workflowId" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	StageNumber int      `json:"stageNumber" gorm:"primary_key"`

	Name             string `json:"name"`
	RequiredRole     string `json:"requiredRole"`
	ApprovalRequired bool   `json:"approvalRequired"`
	AutoAdvance      bool   `json:"autoAdvance"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

func (s *WorkflowStage) TableName() string {
	return "workflow_stages"
}

type DesignApproval struct {
	ID          types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	WorkspaceID types.ID `json:"workspaceId" sql:"type:BIGINT UNSIGNED NOT NULL"`
	WorkflowID  types.ID `json:"workflowId" sql:"type:BIGINT UNSIGNED NOT NULL"`

	DesignAssetID types.ID `json:"designAssetId" sql:"type:BIGINT UNSIGNED NOT NULL"`
	ApproverID    types.ID `json:"approverId" sql:"type:BIGINT UNSIGNED NOT NULL"`

	StageNumber int    `json:"stageNumber"`
	StageName   string `json:"stageName"`

	Status   ApprovalStatus `json:"status"`
	Required bool           `json:"required"`
	Feedback string         `json:"feedback" sql:"type:TEXT"`

	RequestTime  types.Timestamp `json:"requestTime" sql:"type:DATETIME(6)"`
	ApprovalTime types.Timestamp `json:"approvalTime" sql:"type:DATETIME(6)"`
	CreateTime   types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

func (a *DesignApproval) TableName() string {
	return "design_approvals"
}

type WorkflowDetail struct {
	DesignApprovalWorkflow

	Stages    []WorkflowStage  `json:"stages" gorm:"-"`
	Approvals []DesignApproval `json:"approvals" gorm:"-"`
}

func (d *WorkflowDetail) FindStage(stageNumber int) (WorkflowStage, bool) {
	for _, s := range d.Stages {
		if s.StageNumber == stageNumber {
			return s, true
		}
	}
	return WorkflowStage{}, false
}

type Recommendations []string

func (t Recommendations) Value() (driver.Value, error) {
	jsonBytes, err := json.Marshal(&t)
	if err != nil {
		return nil, err
	}
	return string(jsonBytes), nil
}

func (c *Recommendations) Scan(v interface{}) error {
	jsonString, ok := v.(string)
	if !ok {
		jsonByte, ok := v.([]byte)
		if !ok {
			return fmt.Errorf("type is neither string nor []byte: %T %v", v, v)
		}
		jsonString = string(jsonByte)
	}
	return json.Unmarshal([]byte(jsonString), c)
}
