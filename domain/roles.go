package domain

import (
	"github.com/fundwit/go-commons/types"
)

const (
	WorkspaceRoleManager   = "manager"
	WorkspaceRoleDesigner  = "designer"
	WorkspaceRoleApprover  = "approver"
	WorkspaceRoleInspector = "inspector"
)

type WorkspaceRole struct {
	WorkspaceID types.ID `json:"workspaceId"`
	Role        string   `json:"role"`
}
