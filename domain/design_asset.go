package domain

import (
	"github.com/fundwit/go-commons/types"
)

type DesignAssetStatus string

const (
	DesignAssetStatusDraft            DesignAssetStatus = "DRAFT"
	DesignAssetStatusInReview         DesignAssetStatus = "IN_REVIEW"
	DesignAssetStatusApproved         DesignAssetStatus = "APPROVED"
	DesignAssetStatusRevisionRequired DesignAssetStatus = "REVISION_REQUIRED"
)

type DesignAsset struct {
	ID          types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	WorkspaceID types.ID `json:"workspaceId" sql:"type:BIGINT UNSIGNED NOT NULL"`

	Name    string            `json:"name"`
	Version int               `json:"version"`
	Status  DesignAssetStatus `json:"status"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

func (a *DesignAsset) TableName() string {
	return "design_assets"
}
